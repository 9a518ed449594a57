package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// relayBufferSize is the read size for the pass-through copy. Each read is
// written and flushed before the next one so deltas reach the learner as
// soon as the upstream produces them.
const relayBufferSize = 4096

// errClientGone is returned by relay when writing to the client fails.
var errClientGone = errors.New("client disconnected")

// setStreamHeaders sets the SSE response headers.
func setStreamHeaders(h http.Header) {
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
}

// relay copies body to w verbatim, flushing after every write. It returns
// the number of bytes relayed. A clean upstream EOF returns a nil error.
func relay(ctx context.Context, w http.ResponseWriter, body io.Reader) (int64, error) {
	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		// Send headers now so the client is not left waiting on a slow
		// first token.
		flusher.Flush()
	}

	buffer := make([]byte, relayBufferSize)
	var total int64

	for {
		n, err := body.Read(buffer)
		if n > 0 {
			written, writeErr := w.Write(buffer[:n])
			total += int64(written)
			if writeErr != nil {
				return total, fmt.Errorf("%w: %v", errClientGone, writeErr)
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return total, nil
			}
			if ctx.Err() != nil {
				return total, fmt.Errorf("%w: %v", errClientGone, ctx.Err())
			}
			return total, fmt.Errorf("upstream read: %w", err)
		}
	}
}
