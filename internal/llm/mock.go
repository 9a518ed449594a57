package llm

import (
	"context"
	"io"
	"strings"
	"sync"
)

// MockResponse is a canned response for the MockStreamer.
type MockResponse struct {
	// Body is returned as the stream when Err is nil.
	Body string

	// Reader, when set, is returned instead of Body. Useful for bodies
	// that block or fail mid-stream.
	Reader io.ReadCloser

	Err error
}

// MockStreamer is a deterministic Streamer for testing.
// It returns canned responses in FIFO order and records all requests.
type MockStreamer struct {
	mu        sync.Mutex
	responses []MockResponse
	Calls     []Request
}

// NewMockStreamer creates a MockStreamer with the given canned responses.
func NewMockStreamer(responses ...MockResponse) *MockStreamer {
	return &MockStreamer{responses: responses}
}

// StreamCompletion returns the next canned response or an
// ErrUpstreamStatus(503) if the queue is empty.
func (m *MockStreamer) StreamCompletion(_ context.Context, req Request) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)

	if len(m.responses) == 0 {
		return nil, &ErrUpstreamStatus{StatusCode: 503, Body: "no canned response"}
	}

	resp := m.responses[0]
	m.responses = m.responses[1:]

	if resp.Err != nil {
		return nil, resp.Err
	}
	if resp.Reader != nil {
		return resp.Reader, nil
	}
	return io.NopCloser(strings.NewReader(resp.Body)), nil
}

// ModelID returns "mock".
func (m *MockStreamer) ModelID() string {
	return "mock"
}

// AddResponse appends a canned response to the queue.
func (m *MockStreamer) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// CallCount returns the number of StreamCompletion calls made.
func (m *MockStreamer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
