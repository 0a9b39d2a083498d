package embedding

import "context"

// Embedder converts free text into a numeric vector representation.
// Comments arrive incrementally, so implementations must not require a
// preparation pass over a fixed corpus.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}
