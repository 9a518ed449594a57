package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/happylearn/buddy/internal/tutor"
)

// maxErrorBody caps how much of a non-2xx upstream body is kept for logs.
const maxErrorBody = 64 * 1024

// GatewayStreamer implements Streamer against an OpenAI-compatible
// /chat/completions endpoint. The response body is handed back untouched
// so the proxy can relay it byte for byte.
type GatewayStreamer struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
	timeout time.Duration
}

// NewGatewayStreamer creates a streamer from cfg. An empty API key is
// accepted here and reported by StreamCompletion.
func NewGatewayStreamer(cfg Config, client *http.Client) *GatewayStreamer {
	if client == nil {
		client = &http.Client{}
	}
	return &GatewayStreamer{
		client:  client,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}
}

func (g *GatewayStreamer) StreamCompletion(ctx context.Context, req Request) (io.ReadCloser, error) {
	if g.apiKey == "" {
		return nil, &ErrMissingCredential{}
	}

	body, err := json.Marshal(buildChatRequest(g.model, req))
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	reqCtx, cancel := context.WithCancel(ctx)
	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create upstream request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	// The timer only guards the wait for headers; once the upstream starts
	// answering, the body is bounded by ctx alone.
	var timer *time.Timer
	if g.timeout > 0 {
		timer = time.AfterFunc(g.timeout, cancel)
	}

	resp, err := g.client.Do(httpReq)
	timedOut := timer != nil && !timer.Stop()
	if err != nil {
		cancel()
		if timedOut && ctx.Err() == nil {
			return nil, &ErrTimeout{After: g.timeout, Err: err}
		}
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	if timedOut {
		resp.Body.Close()
		cancel()
		return nil, &ErrTimeout{After: g.timeout, Err: context.Canceled}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer cancel()
		defer resp.Body.Close()
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, mapStatus(resp, string(errBody))
	}

	return &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}, nil
}

func (g *GatewayStreamer) ModelID() string {
	return g.model
}

func buildChatRequest(model string, req Request) openai.ChatCompletionRequest {
	all := req.AllMessages()
	messages := make([]openai.ChatCompletionMessage, len(all))
	for i, m := range all {
		messages[i] = openai.ChatCompletionMessage{
			Role:    openAIRole(m.Role),
			Content: m.Content,
		}
	}

	return openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
		Stream:      true,
	}
}

func openAIRole(r tutor.Role) string {
	switch r {
	case tutor.RoleSystem:
		return openai.ChatMessageRoleSystem
	case tutor.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	case tutor.RoleUser:
		return openai.ChatMessageRoleUser
	default:
		return string(r)
	}
}

func mapStatus(resp *http.Response, body string) error {
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return &ErrRateLimit{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")), Body: body}
	case http.StatusPaymentRequired:
		return &ErrPaymentRequired{Body: body}
	default:
		return &ErrUpstreamStatus{StatusCode: resp.StatusCode, Body: body}
	}
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// cancelOnClose releases the request context when the body is closed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
