package processor

import (
	"context"
	"strings"
	"testing"

	"github.com/dyk-im/Break-Bias/internal/cache"
	"github.com/dyk-im/Break-Bias/internal/chunker"
	"github.com/dyk-im/Break-Bias/internal/domain"
	"github.com/dyk-im/Break-Bias/internal/vectorstore/memory"
)

type fakeSource struct {
	videos   []domain.Video
	comments map[string][]domain.Comment
}

func (f *fakeSource) SearchVideos(context.Context, string, int) ([]domain.Video, error) {
	return f.videos, nil
}

func (f *fakeSource) VideoComments(_ context.Context, videoID string, _ int) ([]domain.Comment, error) {
	return f.comments[videoID], nil
}

type neutralClassifier struct{}

func (neutralClassifier) Classify(context.Context, string) (domain.SentimentStats, error) {
	return domain.SentimentStats{Neutral: 1}, nil
}

type unitEmbedder struct{}

func (unitEmbedder) Name() string   { return "unit" }
func (unitEmbedder) Dimension() int { return 2 }
func (unitEmbedder) Embed(context.Context, string) ([]float64, error) {
	return []float64{1, 0}, nil
}

func newTestProcessor(src *fakeSource, store *memory.Storage, c ProcessedCache) *CommentProcessor {
	return NewCommentProcessor(src, neutralClassifier{}, unitEmbedder{}, store, chunker.NewSentenceChunker(2, 0), c)
}

func TestCollectByTopic_StoresCleanedComments(t *testing.T) {
	src := &fakeSource{
		videos: []domain.Video{{ID: "v1", Title: "영상 제목"}},
		comments: map[string][]domain.Comment{
			"v1": {
				{ID: "c1", Content: "이해하기 쉽게 설명해주셔서 감사합니다"},
				{ID: "c2", Content: "짧음"}, // below the length floor
			},
		},
	}
	store := memory.NewStorage()
	p := newTestProcessor(src, store, nil)

	collected, processed, err := p.CollectByTopic(context.Background(), "주제", 5, 50)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if collected != 2 {
		t.Fatalf("expected 2 collected comments, got %d", collected)
	}
	if processed != 1 {
		t.Fatalf("expected 1 processed chunk, got %d", processed)
	}

	got, _ := store.Search(context.Background(), []float64{1, 0}, 10)
	if len(got) != 1 {
		t.Fatalf("expected 1 stored chunk, got %d", len(got))
	}
	if got[0].Topic != "주제" {
		t.Fatalf("expected topic attached, got %q", got[0].Topic)
	}
	if got[0].VideoTitle != "영상 제목" {
		t.Fatalf("expected video title attached, got %q", got[0].VideoTitle)
	}
	if got[0].Sentiment.Neutral != 1 {
		t.Fatalf("expected classified sentiment stored, got %+v", got[0].Sentiment)
	}
	if got[0].ID == "c1" || got[0].ID == "" {
		t.Fatalf("expected fresh document ID, got %q", got[0].ID)
	}
}

func TestCollectByTopic_DedupesAcrossRuns(t *testing.T) {
	src := &fakeSource{
		videos: []domain.Video{{ID: "v1", Title: "t"}},
		comments: map[string][]domain.Comment{
			"v1": {{ID: "c1", Content: "이해하기 쉽게 설명해주셔서 감사합니다"}},
		},
	}
	store := memory.NewStorage()
	p := newTestProcessor(src, store, cache.NewMemoryCache())
	ctx := context.Background()

	if _, processed, err := p.CollectByTopic(ctx, "주제", 5, 50); err != nil || processed != 1 {
		t.Fatalf("first run: processed=%d err=%v", processed, err)
	}
	if _, processed, err := p.CollectByTopic(ctx, "주제", 5, 50); err != nil || processed != 0 {
		t.Fatalf("second run must skip processed comments: processed=%d err=%v", processed, err)
	}
	stats, _ := store.Stats(ctx)
	if stats.TotalDocuments != 1 {
		t.Fatalf("expected 1 stored document after both runs, got %d", stats.TotalDocuments)
	}
}

func TestCollectVideo_UsesVideoIDAsTopic(t *testing.T) {
	src := &fakeSource{
		comments: map[string][]domain.Comment{
			"v9": {{ID: "c1", Content: "이 주제에 대해 더 알고 싶어요"}},
		},
	}
	store := memory.NewStorage()
	p := newTestProcessor(src, store, nil)

	if _, _, err := p.CollectVideo(context.Background(), "v9", 100); err != nil {
		t.Fatalf("collect video: %v", err)
	}
	got, _ := store.Search(context.Background(), []float64{1, 0}, 10)
	if len(got) != 1 || got[0].Topic != "v9" {
		t.Fatalf("expected video ID as topic, got %v", got)
	}
}

func TestProcess_ChunksLongComments(t *testing.T) {
	long := strings.Repeat("이 영상은 정말 인상적이었습니다. ", 80) // well above the threshold
	src := &fakeSource{
		videos:   []domain.Video{{ID: "v1", Title: "t"}},
		comments: map[string][]domain.Comment{"v1": {{ID: "c1", Content: long}}},
	}
	store := memory.NewStorage()
	p := newTestProcessor(src, store, nil)

	_, processed, err := p.CollectByTopic(context.Background(), "주제", 5, 50)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if processed < 2 {
		t.Fatalf("expected long comment to be chunked, got %d chunks", processed)
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"collapse whitespace", "좋은   영상\n감사합니다", "좋은 영상 감사합니다"},
		{"squeeze laughter", "웃기다ㅋㅋㅋㅋㅋ", "웃기다ㅋㅋ"},
		{"squeeze punctuation", "대박!!!!", "대박!!"},
		{"symbol only rejected", "!!! ???", ""},
		{"plain text untouched", "nice explanation", "nice explanation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanText(tt.in); got != tt.want {
				t.Fatalf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
