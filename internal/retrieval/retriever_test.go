package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/dyk-im/Break-Bias/internal/domain"
)

type fakeEmbedder struct {
	vec []float64
	err error
}

func (f *fakeEmbedder) Name() string   { return "fake" }
func (f *fakeEmbedder) Dimension() int { return len(f.vec) }
func (f *fakeEmbedder) Embed(context.Context, string) ([]float64, error) {
	return f.vec, f.err
}

type fakeStore struct {
	results []domain.RetrievedComment
	err     error
	gotTopK int
}

func (f *fakeStore) Name() string { return "fake" }
func (f *fakeStore) Upsert(context.Context, []domain.Comment, [][]float64) error {
	return nil
}
func (f *fakeStore) Search(_ context.Context, _ []float64, topK int) ([]domain.RetrievedComment, error) {
	f.gotTopK = topK
	return f.results, f.err
}
func (f *fakeStore) DeleteByTopic(context.Context, string) error { return nil }
func (f *fakeStore) Stats(context.Context) (domain.StoreStats, error) {
	return domain.StoreStats{}, nil
}

func tagged(id, topic string, score float64) domain.RetrievedComment {
	return domain.RetrievedComment{
		Comment:        domain.Comment{ID: id, Topic: topic},
		RelevanceScore: score,
	}
}

func TestRetrieve_NoFilterPassesThrough(t *testing.T) {
	store := &fakeStore{results: []domain.RetrievedComment{
		tagged("a", "x", 0.9),
		tagged("b", "y", 0.5),
	}}
	r := NewRetriever(&fakeEmbedder{vec: []float64{1}}, store)

	got, err := r.Retrieve(context.Background(), "q", 10, "")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if store.gotTopK != 10 {
		t.Fatalf("expected topK=10 passed to store, got %d", store.gotTopK)
	}
}

func TestRetrieve_TopicPostFilter(t *testing.T) {
	store := &fakeStore{results: []domain.RetrievedComment{
		tagged("a", "x", 0.9),
		tagged("b", "y", 0.8),
		tagged("c", "x", 0.4),
	}}
	r := NewRetriever(&fakeEmbedder{vec: []float64{1}}, store)

	got, err := r.Retrieve(context.Background(), "q", 10, "x")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 topic matches, got %d", len(got))
	}
	if got[0].ID != "a" || got[1].ID != "c" {
		t.Fatalf("filter must preserve relevance order, got %v", got)
	}
}

func TestRetrieve_FilterCanEmptyResults(t *testing.T) {
	store := &fakeStore{results: []domain.RetrievedComment{tagged("a", "y", 0.9)}}
	r := NewRetriever(&fakeEmbedder{vec: []float64{1}}, store)

	got, err := r.Retrieve(context.Background(), "q", 10, "x")
	if err != nil {
		t.Fatalf("zero matches must not error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %d", len(got))
	}
}

func TestRetrieve_DefaultTopK(t *testing.T) {
	store := &fakeStore{}
	r := NewRetriever(&fakeEmbedder{vec: []float64{1}}, store)
	if _, err := r.Retrieve(context.Background(), "q", 0, ""); err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if store.gotTopK != DefaultTopK {
		t.Fatalf("expected default topK %d, got %d", DefaultTopK, store.gotTopK)
	}
}

func TestRetrieve_CollaboratorErrorsPropagate(t *testing.T) {
	boom := errors.New("down")

	r := NewRetriever(&fakeEmbedder{err: boom}, &fakeStore{})
	if _, err := r.Retrieve(context.Background(), "q", 5, ""); !errors.Is(err, boom) {
		t.Fatalf("expected embedder error, got %v", err)
	}

	r = NewRetriever(&fakeEmbedder{vec: []float64{1}}, &fakeStore{err: boom})
	if _, err := r.Retrieve(context.Background(), "q", 5, ""); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}
