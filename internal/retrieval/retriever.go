package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dyk-im/Break-Bias/internal/domain"
	"github.com/dyk-im/Break-Bias/internal/embedding"
	"github.com/dyk-im/Break-Bias/internal/vectorstore"
)

// DefaultTopK bounds a retrieval when the caller passes no limit.
const DefaultTopK = 20

// Retriever composes query embedding with nearest-neighbor search and an
// optional post-hoc topic filter. Embedding and search are delegated to the
// injected collaborators.
type Retriever struct {
	embedder embedding.Embedder
	store    vectorstore.Storage
}

func NewRetriever(embedder embedding.Embedder, store vectorstore.Storage) *Retriever {
	return &Retriever{embedder: embedder, store: store}
}

// Retrieve returns up to topK comments ordered by descending relevance.
// When topicFilter is non-empty, results are narrowed to exact topic
// matches after the search, so the effective count may be smaller than
// topK. Zero matches yield an empty slice, never an error.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int, topicFilter string) ([]domain.RetrievedComment, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	results, err := r.store.Search(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	if topicFilter == "" {
		return results, nil
	}
	filtered := results[:0]
	for _, rc := range results {
		if rc.Topic == topicFilter {
			filtered = append(filtered, rc)
		}
	}
	if len(filtered) < len(results) {
		slog.Debug("[Retriever] topic filter narrowed results",
			slog.String("topic", topicFilter),
			slog.Int("before", len(results)),
			slog.Int("after", len(filtered)))
	}
	return filtered, nil
}
