package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/dyk-im/Break-Bias/internal/domain"
)

// Storage is a simple in-memory vector store using brute-force cosine
// similarity. Vectors are assumed L2-normalized, so dot product suffices.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float64
	comments  []domain.Comment
}

func NewStorage() *Storage { return &Storage{} }

func (s *Storage) Name() string { return "memory" }

func (s *Storage) Upsert(_ context.Context, comments []domain.Comment, vectors [][]float64) error {
	if len(comments) != len(vectors) {
		return errors.New("comments and vectors length mismatch")
	}
	if len(comments) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimension == 0 {
		s.dimension = len(vectors[0])
	}
	for _, v := range vectors {
		if len(v) != s.dimension {
			return errors.New("vector dimension mismatch")
		}
	}
	s.comments = append(s.comments, comments...)
	s.vectors = append(s.vectors, vectors...)
	return nil
}

func (s *Storage) Search(_ context.Context, vector []float64, topK int) ([]domain.RetrievedComment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if topK <= 0 {
		topK = 5
	}
	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(s.vectors))
	for i := range s.vectors {
		scores[i] = scored{i, clamp01(dot(s.vectors[i], vector))}
	}
	// Equal scores keep their insertion order.
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})
	if topK > len(scores) {
		topK = len(scores)
	}
	results := make([]domain.RetrievedComment, 0, topK)
	for i := 0; i < topK; i++ {
		results = append(results, domain.RetrievedComment{
			Comment:        s.comments[scores[i].idx],
			RelevanceScore: scores[i].score,
		})
	}
	return results, nil
}

func (s *Storage) DeleteByTopic(_ context.Context, topic string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.comments[:0]
	keptVecs := s.vectors[:0]
	for i, c := range s.comments {
		if c.Topic == topic {
			continue
		}
		kept = append(kept, c)
		keptVecs = append(keptVecs, s.vectors[i])
	}
	s.comments = kept
	s.vectors = keptVecs
	return nil
}

func (s *Storage) Stats(_ context.Context) (domain.StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.StoreStats{TotalDocuments: len(s.comments), Collection: "memory"}, nil
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
