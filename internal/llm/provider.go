package llm

import (
	"context"
	"io"

	"github.com/happylearn/buddy/internal/tutor"
)

// Streamer is the upstream chat-completion capability the tutor proxy
// depends on. Implementations return the raw OpenAI-compatible SSE body
// unmodified; the caller must Close it.
type Streamer interface {
	// StreamCompletion sends req with streaming enabled and returns the
	// response body once the upstream has answered with a 2xx status.
	// Non-2xx answers are returned as typed errors (see errors.go).
	StreamCompletion(ctx context.Context, req Request) (io.ReadCloser, error)

	// ModelID returns the model identifier requests are sent to.
	ModelID() string
}

// Request describes one upstream completion.
type Request struct {
	// System is the synthesized system prompt. It is always sent as the
	// first message.
	System string

	// Messages is the caller's conversation window, oldest first.
	Messages []tutor.Message

	// MaxTokens is the maximum number of tokens in the response.
	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 1.0.
	Temperature float64
}

// AllMessages returns the system message followed by req.Messages.
func (req Request) AllMessages() []tutor.Message {
	out := make([]tutor.Message, 0, len(req.Messages)+1)
	out = append(out, tutor.Message{Role: tutor.RoleSystem, Content: req.System})
	return append(out, req.Messages...)
}
