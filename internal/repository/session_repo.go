package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"mindpulse-backend/internal/models"
)

type SessionRepo struct {
	pool *pgxpool.Pool
}

func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

// Create inserts a new session identified by the digest of its secret key.
// The score starts at zero with version 1 for optimistic locking.
func (r *SessionRepo) Create(ctx context.Context, keyDigest []byte) (*models.Session, error) {
	session := &models.Session{
		ID:           uuid.New(),
		StressScore:  0,
		ScoreVersion: 1,
	}

	query := `
		INSERT INTO sessions (id, secret_key_digest)
		VALUES ($1, $2)
		RETURNING created_at, last_active_at`

	err := r.pool.QueryRow(ctx, query, session.ID, keyDigest).
		Scan(&session.CreatedAt, &session.LastActiveAt)
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (r *SessionRepo) GetByKeyDigest(ctx context.Context, keyDigest []byte) (*models.Session, error) {
	session := &models.Session{}
	query := `SELECT id, COALESCE(display_name, ''), stress_score, score_version, created_at, last_active_at
		FROM sessions WHERE secret_key_digest = $1`

	err := r.pool.QueryRow(ctx, query, keyDigest).Scan(
		&session.ID, &session.DisplayName, &session.StressScore,
		&session.ScoreVersion, &session.CreatedAt, &session.LastActiveAt,
	)
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (r *SessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	session := &models.Session{}
	query := `SELECT id, COALESCE(display_name, ''), stress_score, score_version, created_at, last_active_at
		FROM sessions WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&session.ID, &session.DisplayName, &session.StressScore,
		&session.ScoreVersion, &session.CreatedAt, &session.LastActiveAt,
	)
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (r *SessionRepo) SetDisplayName(ctx context.Context, id uuid.UUID, name string) error {
	_, err := r.pool.Exec(ctx, "UPDATE sessions SET display_name = $1 WHERE id = $2", name, id)
	return err
}

func (r *SessionRepo) TouchLastActive(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "UPDATE sessions SET last_active_at = $1 WHERE id = $2", time.Now(), id)
	return err
}

// GetScore reads the current running score together with its version counter.
func (r *SessionRepo) GetScore(ctx context.Context, id uuid.UUID) (score int, version int64, err error) {
	err = r.pool.QueryRow(ctx,
		"SELECT stress_score, score_version FROM sessions WHERE id = $1", id,
	).Scan(&score, &version)
	return
}

// CompareAndSwapScore writes the new score only if the version column still
// matches what the caller read. Returns false (no error) when another update
// won the race; the caller re-reads and recomputes.
func (r *SessionRepo) CompareAndSwapScore(ctx context.Context, id uuid.UUID, newScore int, expectedVersion int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE sessions
		SET stress_score = $2, score_version = score_version + 1, last_active_at = NOW()
		WHERE id = $1 AND score_version = $3`,
		id, newScore, expectedVersion,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
