package store

import (
	"context"
	"time"

	"github.com/happylearn/buddy/internal/tutor"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit      int       // max results (0 = unlimited)
	From       time.Time // timestamp >= From
	To         time.Time // timestamp <= To
	FailedOnly bool
}

// ChatHistory is the persisted conversation of one learner.
type ChatHistory struct {
	UserID    string
	Grade     string
	Subject   string
	Messages  []tutor.Message
	UpdatedAt time.Time
}

// HistoryRepo stores one conversation per learner.
type HistoryRepo interface {
	// Upsert inserts or replaces the conversation for h.UserID.
	Upsert(ctx context.Context, h ChatHistory) error

	// Get returns the conversation for userID, or nil if none exists.
	Get(ctx context.Context, userID string) (*ChatHistory, error)

	// Delete removes the conversation for userID.
	Delete(ctx context.Context, userID string) error
}

// UpstreamEventData captures a single proxied upstream call.
type UpstreamEventData struct {
	RequestID    string
	Model        string
	Grade        string
	Subject      string
	MessageCount int
	Status       int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
}

// UpstreamEvent is a stored UpstreamEventData row.
type UpstreamEvent struct {
	ID        int64
	Timestamp time.Time
	UpstreamEventData
}

// EventRepo provides append and query access to upstream call events.
type EventRepo interface {
	// AppendUpstream records an upstream API call event.
	AppendUpstream(ctx context.Context, data UpstreamEventData) error

	// QueryUpstream returns events newest first.
	QueryUpstream(ctx context.Context, opts QueryOpts) ([]UpstreamEvent, error)
}
