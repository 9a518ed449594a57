package chat

import "errors"

var (
	// ErrEmptyInput is returned by Send for blank text.
	ErrEmptyInput = errors.New("message is empty")

	// ErrBusy is returned by Send while another send is in flight.
	ErrBusy = errors.New("a reply is already streaming")

	// ErrEmptyReply is returned by Send when the stream ended without
	// any content.
	ErrEmptyReply = errors.New("empty reply from tutor")
)

// User-visible error texts.
const (
	fallbackError   = "Failed to get response from Happy. Please try again."
	emptyReplyError = "Happy didn't send a reply. Please try again."
)
