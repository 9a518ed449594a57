package tutor

// DefaultWindowSize is the number of prior messages sent upstream with each
// new user message.
const DefaultWindowSize = 12

// Window returns the last size messages of history followed by next. Older
// messages are dropped, not summarized. history is never modified; the
// result has its own backing array.
func Window(history []Message, next Message, size int) []Message {
	if size < 0 {
		size = 0
	}
	start := len(history) - size
	if start < 0 {
		start = 0
	}

	out := make([]Message, 0, len(history)-start+1)
	out = append(out, history[start:]...)
	return append(out, next)
}
