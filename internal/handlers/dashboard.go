package handlers

import (
	"net/http"

	"mindpulse-backend/internal/middleware"
	"mindpulse-backend/internal/services"
)

type DashboardHandler struct {
	chatService *services.ChatService
}

func NewDashboardHandler(chatService *services.ChatService) *DashboardHandler {
	return &DashboardHandler{chatService: chatService}
}

// Stats returns the stress score plus the telemetry aggregates for the
// authenticated session. The aggregates are recomputed from history on every
// read; clients poll this or subscribe to the WebSocket for pushes.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())

	aggregates, err := h.chatService.Dashboard(r.Context(), sessionID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, aggregates)
}
