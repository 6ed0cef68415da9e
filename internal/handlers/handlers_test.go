package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mindpulse-backend/internal/models"
	"mindpulse-backend/internal/services"
)

// ─── JSON Envelope Tests ───

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()

	writeJSON(rr, http.StatusCreated, models.ChatResponse{Reply: "Hi there.", StressScore: 30})

	if rr.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected Content-Type 'application/json', got %q", ct)
	}

	var resp models.ChatResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Reply != "Hi there." || resp.StressScore != 30 {
		t.Errorf("Unexpected response body: %+v", resp)
	}
}

func TestErrorRespCarriesRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/message", nil)
	req.Header.Set("X-Request-ID", "req-123")

	resp := errorResp("NOT_FOUND", "Session not found", req)

	if resp.Error.Code != "NOT_FOUND" {
		t.Errorf("Expected code NOT_FOUND, got %q", resp.Error.Code)
	}
	if resp.Error.Message != "Session not found" {
		t.Errorf("Unexpected message %q", resp.Error.Message)
	}
	if resp.Error.RequestID != "req-123" {
		t.Errorf("Expected request id 'req-123', got %q", resp.Error.RequestID)
	}
}

func TestHandleServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{"validation", &services.ValidationError{Fields: map[string]string{"message": "Message is required"}}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"conflict", &services.ConflictError{Message: "Stress score update conflicted repeatedly"}, http.StatusConflict, "CONFLICT"},
		{"not found", &services.NotFoundError{Message: "Session not found"}, http.StatusNotFound, "NOT_FOUND"},
		{"unauthorized", &services.UnauthorizedError{Message: "Invalid token"}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"rate limited", &services.RateLimitError{Message: "Too many requests"}, http.StatusTooManyRequests, "RATE_LIMITED"},
		{"unknown error", http.ErrBodyNotAllowed, http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/message", nil)

			handleServiceError(rr, req, tc.err)

			if rr.Code != tc.expectedStatus {
				t.Errorf("Expected status %d, got %d", tc.expectedStatus, rr.Code)
			}

			var resp models.ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode error response: %v", err)
			}
			if resp.Error.Code != tc.expectedCode {
				t.Errorf("Expected code %q, got %q", tc.expectedCode, resp.Error.Code)
			}
		})
	}
}

func TestHandleServiceErrorValidationFields(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/resume", nil)

	handleServiceError(rr, req, &services.ValidationError{
		Fields: map[string]string{"secret_key": "Secret key is required"},
	})

	var resp models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	if resp.Error.Fields["secret_key"] != "Secret key is required" {
		t.Errorf("Expected field error to survive the envelope, got %+v", resp.Error.Fields)
	}
}

// ─── Request Parsing Tests ───

func TestChatHandlerRejectsInvalidBody(t *testing.T) {
	handler := NewChatHandler(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/message", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	handler.SendMessage(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for malformed body, got %d", rr.Code)
	}

	var resp models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	if resp.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("Expected code VALIDATION_ERROR, got %q", resp.Error.Code)
	}
}

func TestAuthHandlerResumeRejectsInvalidBody(t *testing.T) {
	handler := NewAuthHandler(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/resume", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	handler.Resume(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for empty body, got %d", rr.Code)
	}
}

func TestChatRequestParsing(t *testing.T) {
	body := map[string]interface{}{
		"message": "i can't sleep lately",
		"telemetry": map[string]interface{}{
			"latency_ms":      9000,
			"backspace_count": 6,
			"idle_time_ms":    11000,
		},
	}
	jsonBody, _ := json.Marshal(body)

	var req models.ChatRequest
	if err := json.NewDecoder(bytes.NewReader(jsonBody)).Decode(&req); err != nil {
		t.Fatalf("Failed to parse request body: %v", err)
	}

	if req.Message != "i can't sleep lately" {
		t.Errorf("Unexpected message %q", req.Message)
	}
	if req.Telemetry.LatencyMs != 9000 || req.Telemetry.BackspaceCount != 6 || req.Telemetry.IdleTimeMs != 11000 {
		t.Errorf("Telemetry did not survive parsing: %+v", req.Telemetry)
	}
}

func TestChatRequestParsesRawKeyEvents(t *testing.T) {
	body := `{"message":"hi","composed_at":1000,"key_events":[{"at":2000,"key":"h"},{"at":2100,"key":"Backspace"}]}`

	var req models.ChatRequest
	if err := json.NewDecoder(strings.NewReader(body)).Decode(&req); err != nil {
		t.Fatalf("Failed to parse request body: %v", err)
	}

	if req.ComposedAt != 1000 {
		t.Errorf("Expected composed_at 1000, got %d", req.ComposedAt)
	}
	if len(req.KeyEvents) != 2 || req.KeyEvents[1].Key != "Backspace" {
		t.Errorf("Key events did not survive parsing: %+v", req.KeyEvents)
	}
}

func TestChatRequestMissingTelemetryDefaultsToZero(t *testing.T) {
	var req models.ChatRequest
	if err := json.NewDecoder(strings.NewReader(`{"message":"hello"}`)).Decode(&req); err != nil {
		t.Fatalf("Failed to parse request body: %v", err)
	}

	if req.Telemetry.LatencyMs != 0 || req.Telemetry.BackspaceCount != 0 || req.Telemetry.IdleTimeMs != 0 {
		t.Errorf("Expected zero telemetry when field is absent, got %+v", req.Telemetry)
	}
}
