package models

import "github.com/google/uuid"

// WebSocket message types
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// StressUpdate is pushed to dashboard clients after each scored exchange.
type StressUpdate struct {
	SessionID   uuid.UUID `json:"session_id"`
	StressScore int       `json:"stress_score"`
	Points      int       `json:"points"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
