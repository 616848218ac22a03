package handlers

import (
	"net/http"

	"aegis-secure/internal/api/middleware"
	"aegis-secure/internal/streaming"
)

// EventsHandler upgrades clients to the live message event stream
type EventsHandler struct {
	hub *streaming.WebSocketHub
}

// NewEventsHandler creates a new EventsHandler
func NewEventsHandler(hub *streaming.WebSocketHub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

// Stream handles GET /ws/events
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	h.hub.ServeWebSocket(w, r, middleware.UserID(r.Context()))
}
