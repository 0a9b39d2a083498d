package memory

import (
	"context"
	"testing"

	"github.com/dyk-im/Break-Bias/internal/domain"
)

func TestStorage_SearchRanksBySimilarity(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()

	comments := []domain.Comment{
		{ID: "a", Content: "first", Topic: "t"},
		{ID: "b", Content: "second", Topic: "t"},
	}
	vectors := [][]float64{{1, 0}, {0, 1}}
	if err := s.Upsert(ctx, comments, vectors); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := s.Search(ctx, []float64{0, 1}, 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].ID != "b" {
		t.Fatalf("expected closest comment first, got %q", got[0].ID)
	}
	if got[0].RelevanceScore < got[1].RelevanceScore {
		t.Fatal("results must be ordered by descending relevance")
	}
}

func TestStorage_SearchEmptyStore(t *testing.T) {
	s := NewStorage()
	got, err := s.Search(context.Background(), []float64{1, 0}, 5)
	if err != nil {
		t.Fatalf("search on empty store must not error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no results, got %d", len(got))
	}
}

func TestStorage_TopKBound(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()
	var comments []domain.Comment
	var vectors [][]float64
	for i := 0; i < 10; i++ {
		comments = append(comments, domain.Comment{ID: string(rune('a' + i)), Topic: "t"})
		vectors = append(vectors, []float64{1, 0})
	}
	_ = s.Upsert(ctx, comments, vectors)

	got, err := s.Search(ctx, []float64{1, 0}, 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected topK=3 results, got %d", len(got))
	}
}

func TestStorage_TiedScoresKeepInsertionOrder(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()
	// Two ties behind one closer vector: the displaced element must not
	// jump past its tied peer.
	_ = s.Upsert(ctx, []domain.Comment{
		{ID: "a", Topic: "t"},
		{ID: "b", Topic: "t"},
		{ID: "c", Topic: "t"},
	}, [][]float64{{0.5, 0.5}, {0.5, 0.5}, {1, 0}})

	got, err := s.Search(ctx, []float64{1, 0}, 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if got[0].ID != "c" {
		t.Fatalf("closest first, got %q", got[0].ID)
	}
	if got[1].ID != "a" || got[2].ID != "b" {
		t.Fatalf("tied results out of insertion order: %q, %q", got[1].ID, got[2].ID)
	}
}

func TestStorage_DeleteByTopic(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()
	_ = s.Upsert(ctx, []domain.Comment{
		{ID: "a", Topic: "keep"},
		{ID: "b", Topic: "drop"},
		{ID: "c", Topic: "drop"},
	}, [][]float64{{1, 0}, {0, 1}, {1, 1}})

	if err := s.DeleteByTopic(ctx, "drop"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	stats, _ := s.Stats(ctx)
	if stats.TotalDocuments != 1 {
		t.Fatalf("expected 1 remaining document, got %d", stats.TotalDocuments)
	}

	// Deleting an already-empty topic is idempotent.
	if err := s.DeleteByTopic(ctx, "drop"); err != nil {
		t.Fatalf("second delete must not error: %v", err)
	}
}

func TestStorage_UpsertLengthMismatch(t *testing.T) {
	s := NewStorage()
	err := s.Upsert(context.Background(), []domain.Comment{{ID: "a"}}, nil)
	if err == nil {
		t.Fatal("expected length mismatch error")
	}
}

func TestStorage_ScoreClamped(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()
	_ = s.Upsert(ctx, []domain.Comment{{ID: "a"}}, [][]float64{{-1, 0}})
	got, _ := s.Search(ctx, []float64{1, 0}, 1)
	if got[0].RelevanceScore != 0 {
		t.Fatalf("negative cosine must clamp to 0, got %v", got[0].RelevanceScore)
	}
}
