package models

import "mindpulse-backend/internal/telemetry"

// ChatRequest is the payload sent to the chat endpoint. Telemetry is the
// snapshot the client finalized when the message was dispatched. Clients that
// cannot fold keystrokes themselves send the raw events instead, plus the
// time the input was last cleared, and the server runs the reducer.
type ChatRequest struct {
	Message    string               `json:"message"`
	Telemetry  telemetry.Snapshot   `json:"telemetry"`
	KeyEvents  []telemetry.KeyEvent `json:"key_events,omitempty"`
	ComposedAt int64                `json:"composed_at,omitempty"`
}

// ChatResponse is the reply from the persona plus the updated running score.
type ChatResponse struct {
	Reply       string `json:"reply"`
	StressScore int    `json:"stress_score"`
}

// InitResponse is returned once per new session; the secret key is never
// shown again.
type InitResponse struct {
	SecretKey   string `json:"secret_key"`
	AccessToken string `json:"access_token"`
}

type ResumeRequest struct {
	SecretKey string `json:"secret_key"`
}

type ResumeResponse struct {
	AccessToken string         `json:"access_token"`
	StressScore int            `json:"stress_score"`
	History     []HistoryEntry `json:"history"`
}
