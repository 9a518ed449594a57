package proxy

// Client-facing error texts. These are part of the HTTP contract and are
// matched verbatim by the chat client and its tests.
const (
	msgMessagesRequired = "messages array required and must not be empty"
	msgMessageShape     = "Each message must have role and content properties"
	msgContextShape     = "grade and subject must be strings"
	msgRateLimited      = "Pole! Too many requests. Please try again in a moment."
	msgPaymentRequired  = "AI service temporarily unavailable. Please try again later."
	msgUnknown          = "Unknown error occurred"
	msgMethodNotAllowed = "method not allowed"
)

// ValidationError indicates a request body that decoded as JSON but does
// not have the shape the tutor endpoint accepts.
type ValidationError struct {
	// Message is the client-facing text.
	Message string

	// Err is the underlying schema violation, logged server-side only.
	Err error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
