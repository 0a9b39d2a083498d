package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dyk-im/Break-Bias/internal/analysis"
	"github.com/dyk-im/Break-Bias/internal/domain"
	"github.com/dyk-im/Break-Bias/internal/embedding"
	"github.com/dyk-im/Break-Bias/internal/generation"
	"github.com/dyk-im/Break-Bias/internal/retrieval"
	"github.com/dyk-im/Break-Bias/internal/vectorstore"
)

const (
	// defaultKeywordCount bounds the keyword list of an analysis report.
	defaultKeywordCount = 10
	// overviewTopK is the retrieval breadth backing a topic overview. The
	// overview is only an approximation bounded by this breadth.
	overviewTopK = 50
	// chatContextTopK bounds retrieval for conversational answers.
	chatContextTopK = 5
)

// ErrCollectionBusy is returned when a collection for the same topic is
// already running.
var ErrCollectionBusy = errors.New("collection already running for this topic")

// GenerationError marks a narrative-generation failure. The orchestration
// core surfaces it explicitly; the presentation layer decides whether to
// render it as a soft message or a hard failure.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string { return "narrative generation failed: " + e.Err.Error() }
func (e *GenerationError) Unwrap() error { return e.Err }

// Retriever is the retrieval coordinator port.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int, topicFilter string) ([]domain.RetrievedComment, error)
}

// Processor is the comment collection pipeline port.
type Processor interface {
	CollectByTopic(ctx context.Context, topic string, maxVideos, maxCommentsPerVideo int) (int, int, error)
	CollectVideo(ctx context.Context, videoID string, maxComments int) (int, int, error)
}

// OpinionAnalysisService is the top-level workflow over one analysis
// request. It holds no state between requests beyond the shared vector
// index behind the retriever and the per-topic collection locks.
type OpinionAnalysisService struct {
	retriever Retriever
	processor Processor
	generator domain.Generator
	extractor *analysis.KeywordExtractor
	embedder  embedding.Embedder
	store     vectorstore.Storage

	repCount     int
	keywordCount int

	mu         sync.Mutex
	collecting map[string]struct{}
}

// NewOpinionAnalysisService wires the orchestrator. Non-positive counts
// fall back to the defaults.
func NewOpinionAnalysisService(r Retriever, p Processor, g domain.Generator, emb embedding.Embedder, store vectorstore.Storage, representativeCount, keywordCount int) *OpinionAnalysisService {
	if representativeCount <= 0 {
		representativeCount = analysis.DefaultRepresentativeCount
	}
	if keywordCount <= 0 {
		keywordCount = defaultKeywordCount
	}
	return &OpinionAnalysisService{
		retriever:    r,
		processor:    p,
		generator:    g,
		extractor:    analysis.NewKeywordExtractor(),
		embedder:     emb,
		store:        store,
		repCount:     representativeCount,
		keywordCount: keywordCount,
		collecting:   make(map[string]struct{}),
	}
}

// CollectAndAnalyzeTopic runs the collection pipeline for a topic. At most
// one collection per topic runs at a time; a concurrent second call gets
// ErrCollectionBusy. Collaborator failures propagate as hard failures.
func (s *OpinionAnalysisService) CollectAndAnalyzeTopic(ctx context.Context, topic string, maxVideos, maxCommentsPerVideo int) (domain.CollectionSummary, error) {
	if err := s.lockTopic(topic); err != nil {
		return domain.CollectionSummary{}, err
	}
	defer s.unlockTopic(topic)

	collected, processed, err := s.processor.CollectByTopic(ctx, topic, maxVideos, maxCommentsPerVideo)
	if err != nil {
		return domain.CollectionSummary{}, fmt.Errorf("collect topic %q: %w", topic, err)
	}
	return domain.CollectionSummary{
		Topic:             topic,
		CollectedComments: collected,
		ProcessedChunks:   processed,
		Status:            "completed",
	}, nil
}

// CollectVideoComments collects the comments of a single video, using the
// video ID as the topic.
func (s *OpinionAnalysisService) CollectVideoComments(ctx context.Context, videoID string, maxComments int) (domain.CollectionSummary, error) {
	if err := s.lockTopic(videoID); err != nil {
		return domain.CollectionSummary{}, err
	}
	defer s.unlockTopic(videoID)

	collected, processed, err := s.processor.CollectVideo(ctx, videoID, maxComments)
	if err != nil {
		return domain.CollectionSummary{}, fmt.Errorf("collect video %q: %w", videoID, err)
	}
	return domain.CollectionSummary{
		Topic:             videoID,
		CollectedComments: collected,
		ProcessedChunks:   processed,
		Status:            "completed",
	}, nil
}

// AnalyzeOpinion retrieves the candidate set for the query, then derives
// evidence, keywords, aggregated sentiment and a synthesized narrative
// from that one set, so the report cannot diverge internally.
//
// Retrieval failures propagate. A generation failure returns the
// otherwise-complete result together with a *GenerationError; the caller
// decides how to present it. An empty candidate set yields a canned
// no-data narrative without calling the model.
func (s *OpinionAnalysisService) AnalyzeOpinion(ctx context.Context, query, topic string, topK int, detailed bool) (*domain.AnalysisResult, error) {
	if topK <= 0 {
		topK = retrieval.DefaultTopK
	}
	candidates, err := s.retriever.Retrieve(ctx, query, topK, topic)
	if err != nil {
		return nil, err
	}

	result := &domain.AnalysisResult{
		Query:                 query,
		Topic:                 topic,
		TotalRelevantComments: len(candidates),
	}
	if len(candidates) == 0 {
		result.AnalysisText = generation.NoDataResponse(query)
		return result, nil
	}

	// Sentiment feeds the synthesis prompt, so it is aggregated up front;
	// ranking, keyword extraction and synthesis then fan out over the same
	// candidate set and join before assembly.
	result.Sentiment = analysis.Aggregate(candidates)

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Content
	}

	var narrative string
	var genErr error
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		prompt := generation.AnalysisPrompt(query, candidates, result.Sentiment, detailed)
		narrative, genErr = s.generator.Generate(ctx, prompt)
	}()
	go func() {
		defer wg.Done()
		result.RepresentativeComments = analysis.Rank(candidates, s.repCount)
	}()
	go func() {
		defer wg.Done()
		result.Keywords = s.extractor.Extract(texts, s.keywordCount)
	}()
	wg.Wait()

	if genErr != nil {
		return result, &GenerationError{Err: genErr}
	}
	result.AnalysisText = narrative
	return result, nil
}

// GetTopicOverview approximates a whole-topic summary through one broad
// retrieval filtered to the topic. Large topics may be undercounted.
func (s *OpinionAnalysisService) GetTopicOverview(ctx context.Context, topic string) (*domain.TopicOverview, error) {
	candidates, err := s.retriever.Retrieve(ctx, topic, overviewTopK, topic)
	if err != nil {
		return nil, err
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("store stats: %w", err)
	}
	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Content
	}
	return &domain.TopicOverview{
		Topic:           topic,
		TotalComments:   len(candidates),
		Sentiment:       analysis.Aggregate(candidates),
		TopKeywords:     s.extractor.Extract(texts, s.keywordCount),
		CollectionStats: stats,
	}, nil
}

// ClearTopicData removes every stored comment of the topic. Clearing an
// already-empty topic is not an error.
func (s *OpinionAnalysisService) ClearTopicData(ctx context.Context, topic string) error {
	if err := s.store.DeleteByTopic(ctx, topic); err != nil {
		return fmt.Errorf("clear topic %q: %w", topic, err)
	}
	slog.Info("[OpinionService] topic data cleared", slog.String("topic", topic))
	return nil
}

// GetSystemStats reports read-only introspection over the system.
func (s *OpinionAnalysisService) GetSystemStats(ctx context.Context) (domain.SystemStats, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return domain.SystemStats{}, fmt.Errorf("store stats: %w", err)
	}
	return domain.SystemStats{
		TotalStoredComments: stats.TotalDocuments,
		EmbeddingModel:      s.embedder.Name(),
		VectorStoreType:     s.store.Name(),
		Status:              "operational",
	}, nil
}

// GenerateResponse answers a conversational query grounded on retrieved
// comments, returning the answer and its sources. Generation failures are
// returned as *GenerationError for the presentation layer to soften.
func (s *OpinionAnalysisService) GenerateResponse(ctx context.Context, query string, history []domain.ChatMessage) (string, []string, error) {
	candidates, err := s.retriever.Retrieve(ctx, query, chatContextTopK, "")
	if err != nil {
		return "", nil, err
	}
	contexts := make([]string, len(candidates))
	sources := make([]string, len(candidates))
	for i, c := range candidates {
		contexts[i] = c.Content
		sources[i] = fmt.Sprintf("%s (댓글)", c.VideoTitle)
	}
	answer, err := s.generator.Generate(ctx, generation.RAGPrompt(query, contexts, history))
	if err != nil {
		return "", nil, &GenerationError{Err: err}
	}
	return answer, sources, nil
}

// GenerateDirectResponse answers a conversational query without retrieval.
func (s *OpinionAnalysisService) GenerateDirectResponse(ctx context.Context, query string, history []domain.ChatMessage) (string, error) {
	answer, err := s.generator.Generate(ctx, generation.DirectPrompt(query, history))
	if err != nil {
		return "", &GenerationError{Err: err}
	}
	return answer, nil
}

func (s *OpinionAnalysisService) lockTopic(topic string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.collecting[topic]; busy {
		return fmt.Errorf("topic %q: %w", topic, ErrCollectionBusy)
	}
	s.collecting[topic] = struct{}{}
	return nil
}

func (s *OpinionAnalysisService) unlockTopic(topic string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collecting, topic)
}
