package llm

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/happylearn/buddy/internal/store"
)

// RecordingStreamer is a decorator that records every upstream call as an
// event once the upstream has answered (or failed to).
type RecordingStreamer struct {
	inner     Streamer
	eventRepo store.EventRepo
	logger    *zap.Logger
}

// WithRecording wraps a Streamer with event recording. A nil repo returns
// inner unchanged.
func WithRecording(s Streamer, repo store.EventRepo, logger *zap.Logger) Streamer {
	if repo == nil {
		return s
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordingStreamer{inner: s, eventRepo: repo, logger: logger}
}

func (r *RecordingStreamer) StreamCompletion(ctx context.Context, req Request) (io.ReadCloser, error) {
	start := time.Now()
	labels := LabelsFrom(ctx)

	body, err := r.inner.StreamCompletion(ctx, req)

	data := store.UpstreamEventData{
		RequestID:    labels.RequestID,
		Model:        r.inner.ModelID(),
		Grade:        labels.Grade,
		Subject:      labels.Subject,
		MessageCount: len(req.Messages),
		Status:       StatusOf(err),
		LatencyMs:    time.Since(start).Milliseconds(),
		Success:      err == nil,
	}
	if err != nil {
		data.ErrorMessage = err.Error()
	}

	// Record the event but don't fail the request if recording fails.
	if recErr := r.eventRepo.AppendUpstream(context.WithoutCancel(ctx), data); recErr != nil {
		r.logger.Warn("failed to record upstream event",
			zap.String("request_id", labels.RequestID),
			zap.Error(recErr))
	}

	return body, err
}

func (r *RecordingStreamer) ModelID() string {
	return r.inner.ModelID()
}

// StatusOf returns the upstream HTTP status implied by err: 200 for nil,
// the upstream status for typed status errors, 0 when no status was
// received.
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var rl *ErrRateLimit
	if errors.As(err, &rl) {
		return http.StatusTooManyRequests
	}
	var pr *ErrPaymentRequired
	if errors.As(err, &pr) {
		return http.StatusPaymentRequired
	}
	var st *ErrUpstreamStatus
	if errors.As(err, &st) {
		return st.StatusCode
	}
	return 0
}
