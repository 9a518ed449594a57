package proxy

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/happylearn/buddy/internal/llm"
)

// TutorPath is the path the tutor handler is mounted at.
const TutorPath = "/ai-tutor"

// NewMux returns the server's routes: the tutor endpoint and a health
// check.
func NewMux(streamer llm.Streamer, opts Options, logger *zap.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(TutorPath, NewHandler(streamer, opts, logger))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	return mux
}
