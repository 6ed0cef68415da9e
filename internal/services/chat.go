package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"mindpulse-backend/internal/models"
	"mindpulse-backend/internal/repository"
	"mindpulse-backend/internal/scoring"
	"mindpulse-backend/internal/telemetry"
	"mindpulse-backend/internal/vectorstore"
)

const (
	// MemoryQueueKey is the Redis list the indexing worker pool drains.
	MemoryQueueKey = "queue:memory-indexing"

	scoreRetries      = 3
	memorySearchLimit = 3

	// Display-name capture only runs during the first few exchanges.
	nameCaptureExchanges = 2
)

// MemoryJob is one finished exchange queued for vector indexing.
type MemoryJob struct {
	SessionID string `json:"session_id"`
	UserText  string `json:"user_text"`
	Reply     string `json:"reply"`
	Points    int    `json:"points"`
}

// ChatService runs the full message exchange: telemetry sanitation, memory
// retrieval, persona reply, history append, stress scoring, and the async
// side channels (memory indexing queue, dashboard pub/sub).
type ChatService struct {
	sessions  *repository.SessionRepo
	history   *repository.HistoryRepo
	gemini    *GeminiService
	memories  vectorstore.MemoryStore
	redis     *redis.Client
	policy    scoring.Policy
	idleGapMs int64
}

func NewChatService(
	sessions *repository.SessionRepo,
	history *repository.HistoryRepo,
	gemini *GeminiService,
	memories vectorstore.MemoryStore,
	redisClient *redis.Client,
	policy scoring.Policy,
	idleGapMs int64,
) *ChatService {
	return &ChatService{
		sessions:  sessions,
		history:   history,
		gemini:    gemini,
		memories:  memories,
		redis:     redisClient,
		policy:    policy,
		idleGapMs: idleGapMs,
	}
}

// HandleMessage processes one user message and returns the persona reply plus
// the updated stress score. Scoring is best-effort: a scoring failure is
// logged and the previous score returned, but it never blocks the reply.
func (s *ChatService) HandleMessage(ctx context.Context, sessionID uuid.UUID, req models.ChatRequest) (*models.ChatResponse, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, &ValidationError{Fields: map[string]string{"message": "Message is required"}}
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Session not found"}
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	snapshot := req.Telemetry.Sanitized()
	if len(req.KeyEvents) > 0 {
		// Raw events take precedence; the server fold uses the same reducer
		// the tests pin down.
		snapshot = telemetry.Reduce(req.ComposedAt, req.KeyEvents, s.idleGapMs).Sanitized()
	}

	entries, err := s.history.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	firstScored := len(entries) == 0

	// Opportunistic display-name capture during the first exchanges.
	if session.DisplayName == "" && len(entries)/2 <= nameCaptureExchanges {
		if name := extractDisplayName(message); name != "" {
			if err := s.sessions.SetDisplayName(ctx, sessionID, name); err != nil {
				log.Printf("chat: failed to save display name for %s: %v", sessionID, err)
			} else {
				session.DisplayName = name
			}
		}
	}

	memories := s.retrieveMemories(ctx, sessionID, message)

	reply, err := s.gemini.Reply(ctx, ReplyParams{
		DisplayName: session.DisplayName,
		Input:       message,
		History:     entries,
		Telemetry:   snapshot,
		Memories:    memories,
	})
	if err != nil {
		return nil, fmt.Errorf("persona reply failed: %w", err)
	}

	userEntry := &models.HistoryEntry{
		SessionID: sessionID,
		Role:      models.RoleUser,
		Content:   message,
		Telemetry: snapshot,
	}
	// Assistant turns always carry the zero snapshot.
	assistantEntry := &models.HistoryEntry{
		SessionID: sessionID,
		Role:      models.RoleAssistant,
		Content:   reply,
	}
	if err := s.history.AppendExchange(ctx, userEntry, assistantEntry); err != nil {
		return nil, fmt.Errorf("failed to append history: %w", err)
	}

	points := s.policy.Points(snapshot)
	wordCount := scoring.WordCount(message)

	stressScore := session.StressScore
	if newScore, err := s.applyScore(ctx, sessionID, points, wordCount, firstScored); err != nil {
		// Best-effort: the reply still goes out with the last known score.
		log.Printf("chat: scoring update failed for %s: %v", sessionID, err)
	} else {
		stressScore = newScore
	}

	s.enqueueMemoryJob(ctx, sessionID, message, reply, points)
	s.publishStressUpdate(ctx, sessionID, stressScore, points)

	return &models.ChatResponse{Reply: reply, StressScore: stressScore}, nil
}

// applyScore folds the point contribution into the persisted running score.
// The read-modify-write is guarded by a compare-and-swap on the session's
// score version; a lost race is retried with freshly read state, and a
// Conflict is surfaced only once retries exhaust so the update is never
// silently dropped.
func (s *ChatService) applyScore(ctx context.Context, sessionID uuid.UUID, points, wordCount int, firstScored bool) (int, error) {
	for attempt := 0; attempt < scoreRetries; attempt++ {
		previous, version, err := s.sessions.GetScore(ctx, sessionID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return 0, &NotFoundError{Message: "Session not found"}
			}
			return 0, err
		}

		var next int
		if firstScored {
			next = s.policy.FirstScore(points)
		} else {
			next = s.policy.Blend(previous, points, wordCount)
		}

		swapped, err := s.sessions.CompareAndSwapScore(ctx, sessionID, next, version)
		if err != nil {
			return 0, err
		}
		if swapped {
			return next, nil
		}
	}
	return 0, &ConflictError{Message: "Stress score update conflicted repeatedly"}
}

// Dashboard returns the aggregate read view for one session.
func (s *ChatService) Dashboard(ctx context.Context, sessionID uuid.UUID) (*models.SessionAggregates, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Session not found"}
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	backspaces, idleMs, count, err := s.history.Aggregates(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate history: %w", err)
	}

	return &models.SessionAggregates{
		StressScore:     session.StressScore,
		TotalBackspaces: backspaces,
		TotalIdleMs:     idleMs,
		MessageCount:    count,
	}, nil
}

// retrieveMemories embeds the message and searches the vector store for the
// most relevant past exchanges. Memory is a best-effort enrichment; failures
// degrade to an empty context.
func (s *ChatService) retrieveMemories(ctx context.Context, sessionID uuid.UUID, message string) []string {
	vector, err := s.gemini.Embed(ctx, message)
	if err != nil {
		log.Printf("chat: embedding failed for %s: %v", sessionID, err)
		return nil
	}

	results, err := s.memories.Search(ctx, vector, sessionID.String(), memorySearchLimit)
	if err != nil {
		log.Printf("chat: memory search failed for %s: %v", sessionID, err)
		return nil
	}

	contents := make([]string, 0, len(results))
	for _, mem := range results {
		if mem.Content != "" {
			contents = append(contents, mem.Content)
		}
	}
	return contents
}

func (s *ChatService) enqueueMemoryJob(ctx context.Context, sessionID uuid.UUID, message, reply string, points int) {
	job := MemoryJob{
		SessionID: sessionID.String(),
		UserText:  message,
		Reply:     reply,
		Points:    points,
	}
	data, _ := json.Marshal(job)
	if err := s.redis.RPush(ctx, MemoryQueueKey, string(data)).Err(); err != nil {
		log.Printf("chat: failed to enqueue memory job for %s: %v", sessionID, err)
	}
}

func (s *ChatService) publishStressUpdate(ctx context.Context, sessionID uuid.UUID, score, points int) {
	msg := models.WSMessage{
		Type: "stress_update",
		Payload: models.StressUpdate{
			SessionID:   sessionID,
			StressScore: score,
			Points:      points,
		},
	}
	data, _ := json.Marshal(msg)
	if err := s.redis.Publish(ctx, SessionChannel(sessionID), string(data)).Err(); err != nil {
		log.Printf("chat: failed to publish stress update for %s: %v", sessionID, err)
	}
}

// SessionChannel is the pub/sub channel carrying live updates for a session.
func SessionChannel(sessionID uuid.UUID) string {
	return fmt.Sprintf("session_updates:%s", sessionID.String())
}

var namePrefixPattern = regexp.MustCompile(`(?i)^(my name is|i am|i'm|call me|this is|name is)\s+`)

// extractDisplayName pulls a plausible name out of an early message. Accepts
// only a short remainder that looks like a name rather than a sentence.
func extractDisplayName(message string) string {
	cleaned := strings.TrimSpace(namePrefixPattern.ReplaceAllString(message, ""))
	if cleaned == "" || len(cleaned) >= 20 {
		return ""
	}
	if len(strings.Fields(cleaned)) > 3 {
		return ""
	}
	return cleaned
}
