package llm

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/happylearn/buddy/internal/store"
)

// NewStreamer creates the gateway Streamer from configuration, wrapped with
// event recording when eventRepo is non-nil.
func NewStreamer(cfg Config, eventRepo store.EventRepo, logger *zap.Logger) (Streamer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("upstream config: %w", err)
	}

	// Caller → recording → gateway
	base := NewGatewayStreamer(cfg, &http.Client{})
	return WithRecording(base, eventRepo, logger), nil
}
