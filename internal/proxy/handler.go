// Package proxy implements the tutor's HTTP stream proxy: it validates a
// learner conversation, injects the CBC system prompt and relays the
// upstream completion stream to the caller unmodified.
package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/happylearn/buddy/internal/llm"
	"github.com/happylearn/buddy/internal/prompt"
	"github.com/happylearn/buddy/internal/tutor"
)

// DefaultMaxBodyBytes caps the size of an accepted request body.
const DefaultMaxBodyBytes = 1 << 20

// Options configure the sampling policy sent upstream.
type Options struct {
	Temperature  float64
	MaxTokens    int
	MaxBodyBytes int64
}

// DefaultOptions returns the tutor's fixed sampling policy.
func DefaultOptions() Options {
	cfg := llm.DefaultConfig()
	return Options{
		Temperature:  cfg.Temperature,
		MaxTokens:    cfg.MaxTokens,
		MaxBodyBytes: DefaultMaxBodyBytes,
	}
}

// TutorRequest is the body accepted by POST /ai-tutor.
type TutorRequest struct {
	Messages []tutor.Message `json:"messages"`
	Grade    string          `json:"grade,omitempty"`
	Subject  string          `json:"subject,omitempty"`
}

// Context returns the tutoring context with defaults applied.
func (r TutorRequest) Context() tutor.Context {
	return tutor.Context{Grade: r.Grade, Subject: r.Subject}.WithDefaults()
}

// Handler serves the tutor endpoint. It holds no per-request state and is
// safe for concurrent use.
type Handler struct {
	streamer llm.Streamer
	opts     Options
	logger   *zap.Logger
}

// NewHandler creates a Handler that forwards to streamer.
func NewHandler(streamer llm.Streamer, opts Options, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return &Handler{streamer: streamer, opts: opts, logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w.Header())

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodPost:
	default:
		writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}

	start := time.Now()
	requestID := uuid.NewString()
	w.Header().Set("X-Request-Id", requestID)
	log := h.logger.With(zap.String("request_id", requestID))

	req, err := h.decode(r)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			log.Info("rejected tutor request", zap.String("reason", verr.Message), zap.NamedError("detail", verr.Err))
			writeError(w, http.StatusBadRequest, verr.Message)
			return
		}
		log.Warn("malformed tutor request", zap.Error(err))
		writeError(w, http.StatusInternalServerError, errorText(err))
		return
	}

	tc := req.Context()
	log.Info("tutor request",
		zap.Int("messages", len(req.Messages)),
		zap.String("grade", tc.Grade),
		zap.String("subject", tc.Subject))

	ctx := llm.WithLabels(r.Context(), llm.Labels{
		RequestID: requestID,
		Grade:     tc.Grade,
		Subject:   tc.Subject,
	})
	body, err := h.streamer.StreamCompletion(ctx, llm.Request{
		System:      prompt.CBCSystemPrompt(tc),
		Messages:    req.Messages,
		Temperature: h.opts.Temperature,
		MaxTokens:   h.opts.MaxTokens,
	})
	if err != nil {
		status, text := translate(err)
		log.Error("upstream call failed",
			zap.Int("upstream_status", llm.StatusOf(err)),
			zap.String("upstream_body", upstreamBody(err)),
			zap.Error(err))
		writeError(w, status, text)
		return
	}
	defer body.Close()
	// Unblock the relay's pending read when the learner goes away.
	stop := context.AfterFunc(r.Context(), func() { body.Close() })
	defer stop()

	setStreamHeaders(w.Header())
	w.WriteHeader(http.StatusOK)

	n, err := relay(r.Context(), w, body)
	fields := []zap.Field{
		zap.Int64("bytes", n),
		zap.Duration("duration", time.Since(start)),
	}
	switch {
	case errors.Is(err, errClientGone):
		log.Info("client disconnected during stream", append(fields, zap.Error(err))...)
	case err != nil:
		log.Warn("upstream error during stream", append(fields, zap.Error(err))...)
	default:
		log.Info("tutor stream complete", fields...)
	}
}

// decode reads, parses and validates the request body.
func (h *Handler) decode(r *http.Request) (TutorRequest, error) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, h.opts.MaxBodyBytes+1))
	if err != nil {
		return TutorRequest{}, fmt.Errorf("read request body: %w", err)
	}
	if int64(len(raw)) > h.opts.MaxBodyBytes {
		return TutorRequest{}, fmt.Errorf("request body exceeds %d bytes", h.opts.MaxBodyBytes)
	}

	doc, err := parseBody(raw)
	if err != nil {
		return TutorRequest{}, err
	}
	if err := validateRequest(doc); err != nil {
		return TutorRequest{}, err
	}

	req := requestFromDocument(doc)
	if err := checkMessages(req); err != nil {
		return TutorRequest{}, err
	}
	return req, nil
}

// translate maps an upstream error to the status and text sent to the
// client. Upstream bodies are never forwarded.
func translate(err error) (int, string) {
	var rl *llm.ErrRateLimit
	if errors.As(err, &rl) {
		return http.StatusTooManyRequests, msgRateLimited
	}
	var pr *llm.ErrPaymentRequired
	if errors.As(err, &pr) {
		return http.StatusPaymentRequired, msgPaymentRequired
	}
	return http.StatusInternalServerError, errorText(err)
}

func upstreamBody(err error) string {
	var st *llm.ErrUpstreamStatus
	if errors.As(err, &st) {
		return llm.UpstreamMessage(st.Body)
	}
	return ""
}

func errorText(err error) string {
	if err == nil || err.Error() == "" {
		return msgUnknown
	}
	return err.Error()
}

func setCORSHeaders(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Client-Info, Apikey")
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: msg})
}
