package vectorstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/qdrant/go-client/qdrant"
)

// QdrantConfig holds Qdrant connection configuration.
type QdrantConfig struct {
	// URL is the Qdrant server address (e.g., "https://example.qdrant.io:6334").
	URL string

	// CollectionName is the collection holding session memories.
	CollectionName string

	// APIKey is an optional API key for authentication.
	APIKey string

	// VectorDim is the embedding dimensionality used when the collection
	// has to be created.
	VectorDim int
}

// QdrantStore implements MemoryStore for Qdrant.
type QdrantStore struct {
	client         *qdrant.Client
	collectionName string
	vectorDim      int
}

// NewQdrantStore connects to Qdrant using the gRPC client.
func NewQdrantStore(cfg QdrantConfig) (*QdrantStore, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("qdrant url is required")
	}

	parsedURL := cfg.URL
	if !strings.HasPrefix(parsedURL, "http://") && !strings.HasPrefix(parsedURL, "https://") {
		parsedURL = "https://" + parsedURL
	}

	u, err := url.Parse(parsedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse qdrant url: %w", err)
	}

	host := u.Hostname()
	port := 6334 // default gRPC port
	if u.Port() != "" {
		p, err := strconv.Atoi(u.Port())
		if err != nil {
			return nil, fmt.Errorf("invalid port: %w", err)
		}
		port = p
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: u.Scheme == "https",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &QdrantStore{
		client:         client,
		collectionName: cfg.CollectionName,
		vectorDim:      cfg.VectorDim,
	}, nil
}

// EnsureCollection implements MemoryStore.
func (s *QdrantStore) EnsureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check qdrant collection: %w", err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.vectorDim),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create qdrant collection: %w", err)
	}
	return nil
}

// Add implements MemoryStore.
func (s *QdrantStore) Add(ctx context.Context, mem Memory, vector []float32) error {
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collectionName,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewIDUUID(mem.ID),
				Vectors: qdrant.NewVectors(vector...),
				Payload: qdrant.NewValueMap(map[string]any{
					"session_id": mem.SessionID,
					"content":    mem.Content,
				}),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return nil
}

// Search implements MemoryStore. Results are always filtered to the given
// session so one user's memories never leak into another's prompt.
func (s *QdrantStore) Search(ctx context.Context, vector []float32, sessionID string, limit int) ([]Memory, error) {
	limitUint64 := uint64(limit)
	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collectionName,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limitUint64,
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("session_id", sessionID),
			},
		},
		WithPayload: qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant search failed: %w", err)
	}

	results := make([]Memory, 0, len(points))
	for _, point := range points {
		mem := Memory{Score: point.Score, SessionID: sessionID}

		if point.Id != nil {
			if id := point.Id.GetUuid(); id != "" {
				mem.ID = id
			} else if num := point.Id.GetNum(); num != 0 {
				mem.ID = fmt.Sprintf("%d", num)
			}
		}

		if point.Payload != nil {
			if v, ok := point.Payload["content"]; ok {
				mem.Content = v.GetStringValue()
			}
		}

		results = append(results, mem)
	}

	return results, nil
}

// Close implements MemoryStore.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// Compile-time check that QdrantStore implements MemoryStore.
var _ MemoryStore = (*QdrantStore)(nil)
