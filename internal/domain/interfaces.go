package domain

import "context"

// Generator produces narrative text from a prompt. Implementations wrap an
// external LLM service and are expected to enforce their own timeouts.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// SentimentClassifier scores a single text into a sentiment distribution.
type SentimentClassifier interface {
	Classify(ctx context.Context, text string) (SentimentStats, error)
}

// CommentSource discovers videos for a topic and lists their comments.
type CommentSource interface {
	SearchVideos(ctx context.Context, query string, maxResults int) ([]Video, error)
	VideoComments(ctx context.Context, videoID string, maxResults int) ([]Comment, error)
}

// OpinionService defines the operations exposed by the application core.
type OpinionService interface {
	CollectAndAnalyzeTopic(ctx context.Context, topic string, maxVideos, maxCommentsPerVideo int) (CollectionSummary, error)
	CollectVideoComments(ctx context.Context, videoID string, maxComments int) (CollectionSummary, error)
	AnalyzeOpinion(ctx context.Context, query, topic string, topK int, detailed bool) (*AnalysisResult, error)
	GetTopicOverview(ctx context.Context, topic string) (*TopicOverview, error)
	ClearTopicData(ctx context.Context, topic string) error
	GetSystemStats(ctx context.Context) (SystemStats, error)
	GenerateResponse(ctx context.Context, query string, history []ChatMessage) (string, []string, error)
	GenerateDirectResponse(ctx context.Context, query string, history []ChatMessage) (string, error)
}
