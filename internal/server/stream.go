package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ayusman/tubecontrol/internal/capture"
)

// StreamHandler serves the frame loop's preview as MJPEG.
type StreamHandler struct {
	preview *capture.Preview
	idle    time.Duration
}

// NewStreamHandler creates a StreamHandler reading from p.
func NewStreamHandler(p *capture.Preview) *StreamHandler {
	return &StreamHandler{preview: p, idle: time.Second}
}

// ServeHTTP writes a frame every time the preview changes until the client
// goes away.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	var last uint64
	for {
		updated := h.preview.Updated()
		if jpeg, seq := h.preview.Latest(); seq != last && len(jpeg) > 0 {
			last = seq
			fmt.Fprintf(w, "--frame\r\n")
			fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
			fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(jpeg))
			if _, err := w.Write(jpeg); err != nil {
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
		case <-updated:
		case <-time.After(h.idle):
		}
	}
}
