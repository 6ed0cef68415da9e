package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"mindpulse-backend/internal/models"
)

type HistoryRepo struct {
	pool *pgxpool.Pool
}

func NewHistoryRepo(pool *pgxpool.Pool) *HistoryRepo {
	return &HistoryRepo{pool: pool}
}

// AppendExchange appends the user turn and the assistant turn in a single
// transaction so the pair lands adjacent and ordered. History is append-only;
// nothing ever updates or deletes rows here.
func (r *HistoryRepo) AppendExchange(ctx context.Context, user, assistant *models.HistoryEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO history_entries (session_id, role, content, latency_ms, backspace_count, idle_time_ms)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	for _, entry := range []*models.HistoryEntry{user, assistant} {
		err := tx.QueryRow(ctx, query,
			entry.SessionID, entry.Role, entry.Content,
			entry.Telemetry.LatencyMs, entry.Telemetry.BackspaceCount, entry.Telemetry.IdleTimeMs,
		).Scan(&entry.ID, &entry.CreatedAt)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *HistoryRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.HistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, session_id, role, content, latency_ms, backspace_count, idle_time_ms, created_at
		FROM history_entries
		WHERE session_id = $1
		ORDER BY id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.HistoryEntry, 0)
	for rows.Next() {
		var e models.HistoryEntry
		if err := rows.Scan(
			&e.ID, &e.SessionID, &e.Role, &e.Content,
			&e.Telemetry.LatencyMs, &e.Telemetry.BackspaceCount, &e.Telemetry.IdleTimeMs,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func (r *HistoryRepo) CountBySession(ctx context.Context, sessionID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM history_entries WHERE session_id = $1", sessionID,
	).Scan(&count)
	return count, err
}

// Aggregates recomputes the dashboard sums from history on every call.
// Telemetry sums cover user turns only; the message count covers both roles.
func (r *HistoryRepo) Aggregates(ctx context.Context, sessionID uuid.UUID) (totalBackspaces, totalIdleMs int64, messageCount int, err error) {
	err = r.pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(backspace_count) FILTER (WHERE role = 'user'), 0),
			COALESCE(SUM(idle_time_ms) FILTER (WHERE role = 'user'), 0),
			COUNT(*)
		FROM history_entries
		WHERE session_id = $1`, sessionID,
	).Scan(&totalBackspaces, &totalIdleMs, &messageCount)
	return
}
