package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/jackc/pgx/v5"

	"mindpulse-backend/internal/middleware"
	"mindpulse-backend/internal/models"
	"mindpulse-backend/internal/repository"
)

// SessionService creates anonymous sessions and resumes them by secret key.
type SessionService struct {
	sessions *repository.SessionRepo
	history  *repository.HistoryRepo
	jwtAuth  *middleware.JWTAuth
}

func NewSessionService(sessions *repository.SessionRepo, history *repository.HistoryRepo, jwtAuth *middleware.JWTAuth) *SessionService {
	return &SessionService{sessions: sessions, history: history, jwtAuth: jwtAuth}
}

// Init creates a new anonymous session. The plaintext secret key is returned
// exactly once; only its digest is persisted.
func (s *SessionService) Init(ctx context.Context) (*models.InitResponse, error) {
	secretKey, err := GenerateSecretKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate secret key: %w", err)
	}

	session, err := s.sessions.Create(ctx, KeyDigest(secretKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	token, err := s.jwtAuth.GenerateSessionToken(session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	return &models.InitResponse{SecretKey: secretKey, AccessToken: token}, nil
}

// Resume looks a session up by its secret key and returns the stored history
// along with a fresh token.
func (s *SessionService) Resume(ctx context.Context, secretKey string) (*models.ResumeResponse, error) {
	secretKey = strings.TrimSpace(secretKey)
	if len(secretKey) < 5 {
		return nil, &ValidationError{Fields: map[string]string{"secret_key": "Secret key is required"}}
	}

	session, err := s.sessions.GetByKeyDigest(ctx, KeyDigest(secretKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Invalid secret key"}
		}
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}

	history, err := s.history.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	if err := s.sessions.TouchLastActive(ctx, session.ID); err != nil {
		log.Printf("session: failed to touch last_active for %s: %v", session.ID, err)
	}

	token, err := s.jwtAuth.GenerateSessionToken(session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	return &models.ResumeResponse{
		AccessToken: token,
		StressScore: session.StressScore,
		History:     history,
	}, nil
}
