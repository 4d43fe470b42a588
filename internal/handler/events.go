package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/forgo/lfg/internal/middleware"
	"github.com/forgo/lfg/internal/model"
	"github.com/forgo/lfg/internal/service"
)

// EventsHandler handles SSE event streaming
type EventsHandler struct {
	eventHub *service.EventHub
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(eventHub *service.EventHub) *EventsHandler {
	return &EventsHandler{
		eventHub: eventHub,
	}
}

// Stream handles GET /v1/events/stream
// Anonymous viewers receive board changes; signed-in viewers also receive
// their own dispatch failures.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, model.NewInternalError("streaming not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	// The stream outlives the server's write timeout
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	subscriberID := uuid.New().String()
	userID := middleware.GetUserID(r.Context())

	sub := h.eventHub.Subscribe(service.TopicBoard, userID, subscriberID)
	defer h.eventHub.Unsubscribe(sub)

	slog.Debug("event stream opened",
		slog.String("subscriber_id", subscriberID),
		slog.String("user_id", userID),
	)

	fmt.Fprintf(w, "event: connected\ndata: {\"subscriber_id\":\"%s\"}\n\n", subscriberID)
	flusher.Flush()

	for {
		select {
		case event, ok := <-sub.Events:
			if !ok {
				return
			}
			fmt.Fprint(w, event.Format())
			flusher.Flush()

		case <-sub.Done:
			return

		case <-r.Context().Done():
			return
		}
	}
}
