package sse

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	// reconnectDelay is the retry hint sent when a stream opens.
	reconnectDelay = 5 * time.Second
	writeTimeout   = 60 * time.Second
)

// Handler streams events over a long-lived GET request.
type Handler struct {
	manager *Manager
	logger  *slog.Logger
	staff   bool
}

// NewHandler creates the public stream handler.
func NewHandler(manager *Manager, logger *slog.Logger) *Handler {
	return &Handler{manager: manager, logger: logger}
}

// NewStaffHandler creates a handler whose clients also receive flavor events.
// Authentication happens in front of it.
func NewStaffHandler(manager *Manager, logger *slog.Logger) *Handler {
	return &Handler{manager: manager, logger: logger, staff: true}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	if ctx.Err() != nil {
		return
	}

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")

	rc := http.NewResponseController(w)
	// The server's write timeout would cut the stream; deadlines are set per event instead.
	_ = rc.SetWriteDeadline(time.Time{})

	client, err := h.manager.Connect(h.staff)
	if errors.Is(err, ErrClosed) {
		http.Error(w, "Server is shutting down", http.StatusServiceUnavailable)
		return
	}
	if err != nil {
		h.logger.Error("SSE connect failed", "error", err)
		http.Error(w, "Failed to establish connection", http.StatusInternalServerError)
		return
	}
	defer h.manager.Disconnect(client.ID)
	log := h.logger.With("client_id", client.ID)

	fmt.Fprintf(w, "retry: %d\n", reconnectDelay.Milliseconds())
	if err := h.send(w, rc, "connected", map[string]string{"client_id": client.ID}); err != nil {
		log.Warn("SSE stream not writable", "error", err)
		return
	}

	for {
		select {
		case event, ok := <-client.EventChan:
			if !ok {
				return
			}
			if err := h.send(w, rc, string(event.Type), event); err != nil {
				log.Debug("SSE client went away", "error", err)
				return
			}
		case <-client.Done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// send writes one text/event-stream frame and flushes it.
func (h *Handler) send(w io.Writer, rc *http.ResponseController, name string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", name, err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, payload); err != nil {
		return err
	}
	if err := rc.Flush(); err != nil {
		return err
	}
	// A client that stops reading is cut off after writeTimeout.
	_ = rc.SetWriteDeadline(time.Now().Add(writeTimeout))
	return nil
}
