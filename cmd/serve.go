package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/happylearn/buddy/internal/llm"
	"github.com/happylearn/buddy/internal/proxy"
	"github.com/happylearn/buddy/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tutor stream proxy (POST /ai-tutor)",
	Long: `Start the HTTP proxy that injects the CBC system prompt and streams the
upstream completion back to the caller.

The upstream API key is read from BUDDY_UPSTREAM_API_KEY or LOVABLE_API_KEY.
Without it the server still starts, but tutor requests fail with 500.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default :8787)")
	serveCmd.Flags().Bool("no-events", false, "Do not record upstream calls in the database")
}

func runServe(cmd *cobra.Command, args []string) error {
	if v, _ := cmd.Flags().GetString("addr"); v != "" {
		cfg.Server.Addr = v
	}
	if noEvents, _ := cmd.Flags().GetBool("no-events"); noEvents {
		cfg.Server.RecordEvents = false
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	var eventRepo store.EventRepo
	if cfg.Server.RecordEvents {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		eventRepo = st.EventRepo()
	}

	streamer, err := llm.NewStreamer(cfg.Upstream.LLM(), eventRepo, logger)
	if err != nil {
		return err
	}
	if cfg.Upstream.APIKey == "" {
		logger.Warn("upstream API key is not configured; tutor requests will fail")
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           proxy.NewMux(streamer, cfg.ProxyOptions(), logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("tutor proxy listening",
			zap.String("addr", cfg.Server.Addr),
			zap.String("model", streamer.ModelID()),
			zap.Bool("record_events", eventRepo != nil))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down tutor proxy")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
