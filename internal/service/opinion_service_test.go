package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/dyk-im/Break-Bias/internal/domain"
)

type fakeRetriever struct {
	comments []domain.RetrievedComment
	err      error
}

func (f *fakeRetriever) Retrieve(_ context.Context, _ string, topK int, topicFilter string) ([]domain.RetrievedComment, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.RetrievedComment, 0, len(f.comments))
	for _, c := range f.comments {
		if topicFilter != "" && c.Topic != topicFilter {
			continue
		}
		out = append(out, c)
		if len(out) == topK {
			break
		}
	}
	return out, nil
}

type fakeProcessor struct {
	collected int
	processed int
	err       error
	started   chan struct{}
	startOnce sync.Once
	release   chan struct{}
}

func (f *fakeProcessor) CollectByTopic(context.Context, string, int, int) (int, int, error) {
	if f.started != nil {
		f.startOnce.Do(func() { close(f.started) })
	}
	if f.release != nil {
		<-f.release
	}
	return f.collected, f.processed, f.err
}

func (f *fakeProcessor) CollectVideo(context.Context, string, int) (int, int, error) {
	return f.collected, f.processed, f.err
}

type fakeGenerator struct {
	reply string
	err   error
	calls int
}

func (f *fakeGenerator) Generate(context.Context, string) (string, error) {
	f.calls++
	return f.reply, f.err
}

type fakeEmbedder struct{}

func (fakeEmbedder) Name() string      { return "fake-embedder" }
func (fakeEmbedder) Dimension() int    { return 3 }
func (fakeEmbedder) Embed(_ context.Context, _ string) ([]float64, error) {
	return []float64{1, 0, 0}, nil
}

type fakeStore struct {
	docs    int
	deleted []string
}

func (f *fakeStore) Name() string { return "fake-store" }
func (f *fakeStore) Upsert(context.Context, []domain.Comment, [][]float64) error { return nil }
func (f *fakeStore) Search(context.Context, []float64, int) ([]domain.RetrievedComment, error) {
	return nil, nil
}
func (f *fakeStore) DeleteByTopic(_ context.Context, topic string) error {
	f.deleted = append(f.deleted, topic)
	f.docs = 0
	return nil
}
func (f *fakeStore) Stats(context.Context) (domain.StoreStats, error) {
	return domain.StoreStats{TotalDocuments: f.docs, Collection: "comments"}, nil
}

func sampleComments(topic string) []domain.RetrievedComment {
	return []domain.RetrievedComment{
		{Comment: domain.Comment{ID: "a", Content: "배우 연기가 정말 좋았어요", Author: "kim", LikeCount: 80, Topic: topic, Sentiment: domain.SentimentStats{Positive: 1}}, RelevanceScore: 0.9},
		{Comment: domain.Comment{ID: "b", Content: "스토리 전개가 너무 느려요", Author: "lee", LikeCount: 10, Topic: topic, Sentiment: domain.SentimentStats{Negative: 1}}, RelevanceScore: 0.7},
		{Comment: domain.Comment{ID: "c", Content: "그냥 그랬어요 배우 연기는 괜찮고", Author: "", LikeCount: 0, Topic: topic, Sentiment: domain.SentimentStats{Neutral: 1}}, RelevanceScore: 0.5},
	}
}

func newService(r Retriever, g domain.Generator, store *fakeStore) *OpinionAnalysisService {
	return NewOpinionAnalysisService(r, &fakeProcessor{}, g, fakeEmbedder{}, store, 0, 0)
}

func TestAnalyzeOpinionConsistency(t *testing.T) {
	ret := &fakeRetriever{comments: sampleComments("드라마")}
	gen := &fakeGenerator{reply: "전반적으로 호평이 많습니다."}
	svc := newService(ret, gen, &fakeStore{docs: 3})

	res, err := svc.AnalyzeOpinion(context.Background(), "연기 어때", "드라마", 20, true)
	if err != nil {
		t.Fatalf("AnalyzeOpinion: %v", err)
	}
	if res.TotalRelevantComments != 3 {
		t.Fatalf("TotalRelevantComments = %d, want 3", res.TotalRelevantComments)
	}
	if len(res.RepresentativeComments) != 3 {
		t.Fatalf("representatives = %d, want 3", len(res.RepresentativeComments))
	}
	for _, rep := range res.RepresentativeComments {
		if rep.Topic != "드라마" {
			t.Fatalf("representative from wrong topic %q", rep.Topic)
		}
	}
	if res.AnalysisText != gen.reply {
		t.Fatalf("AnalysisText = %q", res.AnalysisText)
	}
	if res.Sentiment.IsZero() {
		t.Fatal("sentiment not aggregated")
	}
	if len(res.Keywords) == 0 {
		t.Fatal("no keywords extracted")
	}
}

func TestAnalyzeOpinionHonorsConfiguredCounts(t *testing.T) {
	ret := &fakeRetriever{comments: sampleComments("드라마")}
	gen := &fakeGenerator{reply: "요약"}
	svc := NewOpinionAnalysisService(ret, &fakeProcessor{}, gen, fakeEmbedder{}, &fakeStore{docs: 3}, 2, 1)

	res, err := svc.AnalyzeOpinion(context.Background(), "연기 어때", "드라마", 20, true)
	if err != nil {
		t.Fatalf("AnalyzeOpinion: %v", err)
	}
	if len(res.RepresentativeComments) != 2 {
		t.Fatalf("representatives = %d, want 2", len(res.RepresentativeComments))
	}
	if len(res.Keywords) != 1 {
		t.Fatalf("keywords = %d, want 1", len(res.Keywords))
	}

	ov, err := svc.GetTopicOverview(context.Background(), "드라마")
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if len(ov.TopKeywords) != 1 {
		t.Fatalf("overview keywords = %d, want 1", len(ov.TopKeywords))
	}
}

func TestAnalyzeOpinionNoDataSkipsGenerator(t *testing.T) {
	ret := &fakeRetriever{comments: sampleComments("드라마")}
	gen := &fakeGenerator{reply: "should not be used"}
	svc := newService(ret, gen, &fakeStore{})

	res, err := svc.AnalyzeOpinion(context.Background(), "연기 어때", "영화", 20, false)
	if err != nil {
		t.Fatalf("AnalyzeOpinion: %v", err)
	}
	if gen.calls != 0 {
		t.Fatalf("generator called %d times for empty candidate set", gen.calls)
	}
	if res.TotalRelevantComments != 0 {
		t.Fatalf("TotalRelevantComments = %d, want 0", res.TotalRelevantComments)
	}
	if !res.Sentiment.IsZero() {
		t.Fatalf("sentiment = %+v, want zero", res.Sentiment)
	}
	if !strings.Contains(res.AnalysisText, "연기 어때") {
		t.Fatalf("no-data text should echo the query, got %q", res.AnalysisText)
	}
}

func TestAnalyzeOpinionGenerationFailureKeepsResult(t *testing.T) {
	ret := &fakeRetriever{comments: sampleComments("드라마")}
	gen := &fakeGenerator{err: errors.New("rate limited")}
	svc := newService(ret, gen, &fakeStore{docs: 3})

	res, err := svc.AnalyzeOpinion(context.Background(), "연기 어때", "드라마", 20, true)
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("err = %v, want *GenerationError", err)
	}
	if res == nil {
		t.Fatal("result should survive a generation failure")
	}
	if res.TotalRelevantComments != 3 || len(res.RepresentativeComments) == 0 || len(res.Keywords) == 0 {
		t.Fatalf("partial result incomplete: %+v", res)
	}
	if res.AnalysisText != "" {
		t.Fatalf("AnalysisText = %q, want empty on failure", res.AnalysisText)
	}
}

func TestAnalyzeOpinionRetrievalFailure(t *testing.T) {
	ret := &fakeRetriever{err: errors.New("store down")}
	svc := newService(ret, &fakeGenerator{}, &fakeStore{})

	if _, err := svc.AnalyzeOpinion(context.Background(), "q", "", 0, false); err == nil {
		t.Fatal("expected retrieval error to propagate")
	}
}

func TestCollectAndAnalyzeTopicBusy(t *testing.T) {
	proc := &fakeProcessor{
		collected: 5,
		processed: 5,
		started:   make(chan struct{}),
		release:   make(chan struct{}),
	}
	svc := NewOpinionAnalysisService(&fakeRetriever{}, proc, &fakeGenerator{}, fakeEmbedder{}, &fakeStore{}, 0, 0)

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		_, firstErr = svc.CollectAndAnalyzeTopic(context.Background(), "드라마", 3, 20)
	}()
	<-proc.started

	if _, err := svc.CollectAndAnalyzeTopic(context.Background(), "드라마", 3, 20); !errors.Is(err, ErrCollectionBusy) {
		t.Fatalf("concurrent call err = %v, want ErrCollectionBusy", err)
	}
	// A different topic is not blocked.
	if err := svc.lockTopic("영화"); err != nil {
		t.Fatalf("unrelated topic blocked: %v", err)
	}
	svc.unlockTopic("영화")

	close(proc.release)
	wg.Wait()
	if firstErr != nil {
		t.Fatalf("first collection: %v", firstErr)
	}

	// The lock is released after completion.
	sum, err := svc.CollectAndAnalyzeTopic(context.Background(), "드라마", 3, 20)
	if err != nil {
		t.Fatalf("second collection: %v", err)
	}
	if sum.Status != "completed" || sum.CollectedComments != 5 {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestClearTopicDataIdempotent(t *testing.T) {
	store := &fakeStore{docs: 3}
	ret := &fakeRetriever{}
	svc := newService(ret, &fakeGenerator{}, store)

	for i := 0; i < 2; i++ {
		if err := svc.ClearTopicData(context.Background(), "드라마"); err != nil {
			t.Fatalf("clear #%d: %v", i+1, err)
		}
	}
	ov, err := svc.GetTopicOverview(context.Background(), "드라마")
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if ov.TotalComments != 0 || !ov.Sentiment.IsZero() || len(ov.TopKeywords) != 0 {
		t.Fatalf("overview after clear = %+v", ov)
	}
}

func TestGetTopicOverview(t *testing.T) {
	ret := &fakeRetriever{comments: sampleComments("드라마")}
	svc := newService(ret, &fakeGenerator{}, &fakeStore{docs: 3})

	ov, err := svc.GetTopicOverview(context.Background(), "드라마")
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if ov.TotalComments != 3 {
		t.Fatalf("TotalComments = %d, want 3", ov.TotalComments)
	}
	if ov.CollectionStats.TotalDocuments != 3 {
		t.Fatalf("CollectionStats = %+v", ov.CollectionStats)
	}
	if len(ov.TopKeywords) == 0 {
		t.Fatal("no keywords in overview")
	}
}

func TestGetSystemStats(t *testing.T) {
	svc := newService(&fakeRetriever{}, &fakeGenerator{}, &fakeStore{docs: 42})

	stats, err := svc.GetSystemStats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalStoredComments != 42 {
		t.Fatalf("TotalStoredComments = %d", stats.TotalStoredComments)
	}
	if stats.EmbeddingModel != "fake-embedder" || stats.VectorStoreType != "fake-store" {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.Status != "operational" {
		t.Fatalf("Status = %q", stats.Status)
	}
}

func TestGenerateResponseReturnsSources(t *testing.T) {
	comments := sampleComments("드라마")
	for i := range comments {
		comments[i].VideoTitle = "드라마 리뷰"
	}
	ret := &fakeRetriever{comments: comments}
	gen := &fakeGenerator{reply: "댓글 반응은 대체로 긍정적입니다."}
	svc := newService(ret, gen, &fakeStore{})

	answer, sources, err := svc.GenerateResponse(context.Background(), "반응 어때?", nil)
	if err != nil {
		t.Fatalf("GenerateResponse: %v", err)
	}
	if answer != gen.reply {
		t.Fatalf("answer = %q", answer)
	}
	if len(sources) != 3 {
		t.Fatalf("sources = %v", sources)
	}
	if !strings.Contains(sources[0], "드라마 리뷰") {
		t.Fatalf("source %q missing video title", sources[0])
	}
}

func TestGenerateDirectResponseError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("timeout")}
	svc := newService(&fakeRetriever{}, gen, &fakeStore{})

	_, err := svc.GenerateDirectResponse(context.Background(), "안녕", nil)
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("err = %v, want *GenerationError", err)
	}
}
