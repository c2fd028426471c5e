package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ayusman/pinchcursor/internal/preview"
)

// streamPoll is how often the handler checks for a new preview frame.
const streamPoll = 33 * time.Millisecond

// StreamHandler serves the annotated preview as MJPEG.
type StreamHandler struct {
	buffer *preview.Buffer
}

// NewStreamHandler creates a new StreamHandler reading from buffer.
func NewStreamHandler(buffer *preview.Buffer) *StreamHandler {
	return &StreamHandler{buffer: buffer}
}

// ServeHTTP streams MJPEG frames to connected clients. Each preview frame
// is sent once; the handler waits while the pipeline is idle.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(streamPoll)
	defer ticker.Stop()

	var sent uint64
	for {
		data, seq := h.buffer.Latest()
		if data != nil && seq != sent {
			sent = seq

			fmt.Fprintf(w, "--frame\r\n")
			fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
			fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(data))
			if _, err := w.Write(data); err != nil {
				return
			}
			fmt.Fprintf(w, "\r\n")

			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}
