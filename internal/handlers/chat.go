package handlers

import (
	"encoding/json"
	"net/http"

	"mindpulse-backend/internal/middleware"
	"mindpulse-backend/internal/models"
	"mindpulse-backend/internal/services"
)

type ChatHandler struct {
	chatService *services.ChatService
}

func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// SendMessage handles one chat exchange for the authenticated session.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	sessionID := middleware.GetSessionID(r.Context())

	resp, err := h.chatService.HandleMessage(r.Context(), sessionID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
