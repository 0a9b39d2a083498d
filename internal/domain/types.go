package domain

// SentimentStats is a three-way proportion over positive/negative/neutral
// sentiment for a comment or a comment set. Proportions sum to 1, or are
// all zero for an empty set.
type SentimentStats struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
}

// Dominant returns the label of the strongest component, defaulting to
// "neutral" when no component strictly dominates.
func (s SentimentStats) Dominant() string {
	if s.Positive > s.Negative && s.Positive > s.Neutral {
		return "positive"
	}
	if s.Negative > s.Positive && s.Negative > s.Neutral {
		return "negative"
	}
	return "neutral"
}

// IsZero reports whether all components are zero.
func (s SentimentStats) IsZero() bool {
	return s.Positive == 0 && s.Negative == 0 && s.Neutral == 0
}

// Comment is a single stored comment. Comments are immutable once stored;
// they are created at collection time and only ever removed by topic.
type Comment struct {
	ID          string         `json:"id"`
	Content     string         `json:"content"`
	Author      string         `json:"author"`
	LikeCount   int            `json:"like_count"`
	VideoID     string         `json:"video_id"`
	VideoTitle  string         `json:"video_title"`
	PublishedAt string         `json:"published_at"`
	Topic       string         `json:"topic"`
	Sentiment   SentimentStats `json:"sentiment"`
}

// RetrievedComment is a Comment plus its similarity to one query.
// The score is only meaningful relative to the query that produced it.
type RetrievedComment struct {
	Comment
	RelevanceScore float64 `json:"relevance_score"`
}

// RepresentativeComment is an ephemeral projection of a RetrievedComment
// used as report evidence, carrying the blended relevance/popularity score.
type RepresentativeComment struct {
	RetrievedComment
	CombinedScore float64 `json:"combined_score"`
}

// AnalysisResult is the structured output of one opinion analysis request.
type AnalysisResult struct {
	AnalysisText           string                  `json:"analysis_text"`
	Sentiment              SentimentStats          `json:"sentiment_stats"`
	RepresentativeComments []RepresentativeComment `json:"representative_comments"`
	Keywords               []string                `json:"keywords"`
	TotalRelevantComments  int                     `json:"total_relevant_comments"`
	Query                  string                  `json:"query"`
	Topic                  string                  `json:"topic,omitempty"`
}

// CollectionSummary describes the outcome of one topic collection run.
type CollectionSummary struct {
	Topic             string `json:"topic"`
	CollectedComments int    `json:"collected_comments"`
	ProcessedChunks   int    `json:"processed_chunks"`
	Status            string `json:"status"`
}

// StoreStats is the vector store's own view of its contents.
type StoreStats struct {
	TotalDocuments int    `json:"total_documents"`
	Collection     string `json:"collection"`
}

// TopicOverview summarizes everything known about one topic. It is a
// best-effort approximation bounded by retrieval breadth, not a full scan.
type TopicOverview struct {
	Topic           string         `json:"topic"`
	TotalComments   int            `json:"total_comments"`
	Sentiment       SentimentStats `json:"sentiment_overview"`
	TopKeywords     []string       `json:"top_keywords"`
	CollectionStats StoreStats     `json:"collection_stats"`
}

// SystemStats is read-only introspection over the whole system.
type SystemStats struct {
	TotalStoredComments int    `json:"total_stored_comments"`
	EmbeddingModel      string `json:"embedding_model"`
	VectorStoreType     string `json:"vector_store_type"`
	Status              string `json:"status"`
}

// Video is a discovered video whose comments can be collected.
type Video struct {
	ID           string `json:"video_id"`
	Title        string `json:"title"`
	ChannelTitle string `json:"channel_title"`
	PublishedAt  string `json:"published_at"`
	Description  string `json:"description"`
}

// ChatMessage is one turn of a conversational exchange.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}
