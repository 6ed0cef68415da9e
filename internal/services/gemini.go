package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"mindpulse-backend/internal/models"
	"mindpulse-backend/internal/telemetry"
)

// GeminiService wraps the Gemini API for persona replies and text embeddings.
type GeminiService struct {
	client         *genai.Client
	modelName      string
	embeddingModel string
	rateChan       chan struct{} // Token bucket
}

func NewGeminiService(apiKey, modelName, embeddingModel string, concurrentReqs int) (*GeminiService, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	// Token bucket for rate limiting
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &GeminiService{
		client:         client,
		modelName:      modelName,
		embeddingModel: embeddingModel,
		rateChan:       rateChan,
	}, nil
}

func (s *GeminiService) Close() {
	s.client.Close()
}

// acquireRate blocks until a rate slot is available
func (s *GeminiService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(2 * time.Minute):
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (s *GeminiService) releaseRate() {
	s.rateChan <- struct{}{}
}

// ReplyParams carries everything the persona needs for one turn.
type ReplyParams struct {
	DisplayName string
	Input       string
	History     []models.HistoryEntry
	Telemetry   telemetry.Snapshot
	Memories    []string
}

// Reply generates the persona response for one user message. The history is
// replayed as chat turns; telemetry, name, and retrieved memories go into the
// system instruction.
func (s *GeminiService) Reply(ctx context.Context, p ReplyParams) (string, error) {
	if err := s.acquireRate(ctx); err != nil {
		return "", err
	}
	defer s.releaseRate()

	model := s.client.GenerativeModel(s.modelName)
	model.SetTemperature(0.6)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(buildPersonaPrompt(p.DisplayName, p.Telemetry, p.Memories))},
	}

	chat := model.StartChat()
	for _, entry := range p.History {
		role := "user"
		if entry.Role == models.RoleAssistant {
			role = "model"
		}
		chat.History = append(chat.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(entry.Content)},
		})
	}

	resp, err := chat.SendMessage(ctx, genai.Text(p.Input))
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}

	text := strings.TrimSpace(extractText(resp))
	if text == "" {
		text = "I'm still here with you. Take a breath and tell me again."
	}
	return text, nil
}

// Embed returns the embedding vector for a piece of text.
func (s *GeminiService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := s.acquireRate(ctx); err != nil {
		return nil, err
	}
	defer s.releaseRate()

	em := s.client.EmbeddingModel(s.embeddingModel)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("Gemini embedding error: %w", err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("Gemini returned empty embedding")
	}
	return res.Embedding.Values, nil
}

// buildPersonaPrompt assembles the system instruction from the behavioral
// signals, the user's name, and retrieved long-term memories.
func buildPersonaPrompt(name string, snap telemetry.Snapshot, memories []string) string {
	if name == "" {
		name = "Friend"
	}

	memoryBlock := "No prior relevant memories."
	if len(memories) > 0 {
		memoryBlock = strings.Join(memories, "\n---\n")
	}

	var b strings.Builder
	b.WriteString("You are Hana, a calm and observant text-based wellness companion. ")
	b.WriteString("You never see the user's face; you read their typing behavior instead.\n\n")

	b.WriteString("BEHAVIORAL SIGNALS FOR THIS MESSAGE:\n")
	fmt.Fprintf(&b, "- Hesitation before typing: %dms\n", snap.LatencyMs)
	fmt.Fprintf(&b, "- Deletions while composing: %d\n", snap.BackspaceCount)
	fmt.Fprintf(&b, "- Frozen pauses mid-message: %dms\n", snap.IdleTimeMs)
	b.WriteString("\n")

	b.WriteString("Read these signals before the words. A long pause before a short answer, ")
	b.WriteString("or many deletions, usually means the sent text is not the whole truth. ")
	b.WriteString("Gently name what you noticed and ask one question that helps the user ")
	b.WriteString("look at their own thinking. Never diagnose, never preach.\n\n")

	b.WriteString("RELEVANT PAST CONVERSATIONS:\n")
	b.WriteString(memoryBlock)
	b.WriteString("\n\n")

	b.WriteString("CONSTRAINTS:\n")
	b.WriteString("- Keep replies to two or three sentences.\n")
	fmt.Fprintf(&b, "- Address the user as %q occasionally to ground them.\n", name)
	b.WriteString("- Tone: steady, warm, unshakeable.\n")

	return b.String()
}

func extractText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}
	return sb.String()
}
