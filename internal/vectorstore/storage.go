package vectorstore

import (
	"context"

	"github.com/dyk-im/Break-Bias/internal/domain"
)

// Storage persists comment vectors and supports similarity search.
// Every stored comment carries its topic, which scopes deletion.
type Storage interface {
	Name() string
	Upsert(ctx context.Context, comments []domain.Comment, vectors [][]float64) error
	Search(ctx context.Context, vector []float64, topK int) ([]domain.RetrievedComment, error)
	DeleteByTopic(ctx context.Context, topic string) error
	Stats(ctx context.Context) (domain.StoreStats, error)
}
