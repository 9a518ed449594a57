package llm

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// ErrMissingCredential indicates the gateway API key is not configured.
// It is returned before any network call is attempted.
type ErrMissingCredential struct{}

func (e *ErrMissingCredential) Error() string {
	return "upstream API key is not configured"
}

// ErrRateLimit indicates the upstream returned 429.
type ErrRateLimit struct {
	RetryAfter time.Duration
	Body       string
}

func (e *ErrRateLimit) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("upstream rate limited (retry after %s)", e.RetryAfter)
	}
	return "upstream rate limited"
}

// ErrPaymentRequired indicates the upstream returned 402: the gateway
// account is out of credits or quota. It is not a transient network issue.
type ErrPaymentRequired struct {
	Body string
}

func (e *ErrPaymentRequired) Error() string {
	return "upstream payment required"
}

// ErrUpstreamStatus indicates any other non-2xx upstream status.
type ErrUpstreamStatus struct {
	StatusCode int
	Body       string
}

func (e *ErrUpstreamStatus) Error() string {
	return fmt.Sprintf("AI gateway error: %d", e.StatusCode)
}

// ErrTimeout indicates the upstream did not send response headers within
// the configured timeout.
type ErrTimeout struct {
	After time.Duration
	Err   error
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("upstream did not respond within %s: %v", e.After, e.Err)
}

func (e *ErrTimeout) Unwrap() error { return e.Err }

// UpstreamMessage extracts a human-readable message from an upstream error
// body. OpenAI-style {"error":{"message":...}} bodies yield the message;
// anything else is returned trimmed.
func UpstreamMessage(body string) string {
	var resp openai.ErrorResponse
	if err := json.Unmarshal([]byte(body), &resp); err == nil && resp.Error != nil && resp.Error.Message != "" {
		return resp.Error.Message
	}
	return strings.TrimSpace(body)
}
