package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"mindpulse-backend/internal/services"
	"mindpulse-backend/internal/vectorstore"
)

const jobMaxAttempts = 3

// Pool drains the memory-indexing queue: each job is one finished chat
// exchange that gets embedded and written to the vector store so the persona
// can recall it in later conversations. Indexing is best-effort; a job that
// keeps failing is logged and dropped.
type Pool struct {
	redis       *redis.Client
	gemini      *services.GeminiService
	memories    vectorstore.MemoryStore
	workerCount int
	stopChan    chan struct{}
}

func NewPool(redisClient *redis.Client, gemini *services.GeminiService, memories vectorstore.MemoryStore, workerCount int) *Pool {
	return &Pool{
		redis:       redisClient,
		gemini:      gemini,
		memories:    memories,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}

	log.Printf("Started %d memory-indexing workers", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout
		result, err := p.redis.BLPop(ctx, 30*time.Second, services.MemoryQueueKey).Result()
		if err != nil {
			continue // Timeout or error, retry
		}

		if len(result) < 2 {
			continue
		}

		var job services.MemoryJob
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Worker %d: failed to parse memory job: %v", id, err)
			continue
		}

		if err := p.process(ctx, job); err != nil {
			log.Printf("Worker %d: dropping memory job for session %s: %v", id, job.SessionID, err)
		}
	}
}

func (p *Pool) process(ctx context.Context, job services.MemoryJob) error {
	// One condensed line per exchange; the stress points travel with it so
	// retrieval surfaces how the user felt, not just what was said.
	content := fmt.Sprintf("User said: %q. Hana replied: %q. Stress points: %d",
		job.UserText, job.Reply, job.Points)

	var lastErr error
	for attempt := 1; attempt <= jobMaxAttempts; attempt++ {
		vector, err := p.gemini.Embed(ctx, content)
		if err != nil {
			lastErr = err
		} else {
			mem := vectorstore.Memory{
				ID:        uuid.New().String(),
				SessionID: job.SessionID,
				Content:   content,
			}
			if err := p.memories.Add(ctx, mem, vector); err != nil {
				lastErr = err
			} else {
				return nil
			}
		}

		select {
		case <-p.stopChan:
			return lastErr
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}

	return lastErr
}
