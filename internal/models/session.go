package models

import (
	"time"

	"github.com/google/uuid"

	"mindpulse-backend/internal/telemetry"
)

// History entry roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Session struct {
	ID           uuid.UUID `json:"id"`
	DisplayName  string    `json:"display_name"`
	StressScore  int       `json:"stress_score"`
	ScoreVersion int64     `json:"-"` // optimistic locking counter, never exposed
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}

// HistoryEntry is one conversation turn. Entries are append-only and ordered
// by creation; assistant turns always carry the zero telemetry snapshot.
type HistoryEntry struct {
	ID        int64              `json:"id"`
	SessionID uuid.UUID          `json:"session_id"`
	Role      string             `json:"role"`
	Content   string             `json:"content"`
	Telemetry telemetry.Snapshot `json:"telemetry"`
	CreatedAt time.Time          `json:"created_at"`
}

// SessionAggregates is the dashboard read view, recomputed from history on
// every read. Telemetry sums cover user turns only; MessageCount counts both
// roles.
type SessionAggregates struct {
	StressScore     int   `json:"stress_score"`
	TotalBackspaces int64 `json:"total_backspaces"`
	TotalIdleMs     int64 `json:"total_idle_ms"`
	MessageCount    int   `json:"message_count"`
}
