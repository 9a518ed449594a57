package chat

import (
	sess "github.com/happylearn/buddy/internal/chat"
	"github.com/happylearn/buddy/internal/tutor"
)

// stateMsg carries a session snapshot into the Bubble Tea loop.
type stateMsg sess.State

// sendDoneMsg is sent when a Send call returns. Refused is set when the
// session turned the text away, in which case Text goes back to the
// composer.
type sendDoneMsg struct {
	ID      int
	Text    string
	Refused bool
	Err     error
}

// ContextChosenMsg is sent when the learner picks a new grade and subject.
type ContextChosenMsg struct {
	Context tutor.Context
}
