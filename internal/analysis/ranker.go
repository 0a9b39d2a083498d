package analysis

import (
	"sort"

	"github.com/dyk-im/Break-Bias/internal/domain"
)

const (
	relevanceWeight  = 0.7
	popularityWeight = 0.3
	// likeSaturation is the like count at which the popularity term maxes
	// out, so virality cannot dominate semantic relevance. Tune per
	// deployment.
	likeSaturation = 100.0

	// AnonymousAuthor replaces a missing author field.
	AnonymousAuthor = "익명"

	// DefaultRepresentativeCount bounds the evidence subset of a report.
	DefaultRepresentativeCount = 5
)

// Rank scores and selects up to maxCount representative comments from a
// retrieved set. Combined score blends semantic relevance with a capped
// social signal. Missing like counts and relevance scores default to zero;
// the sort is stable so equal scores keep retrieval order.
func Rank(comments []domain.RetrievedComment, maxCount int) []domain.RepresentativeComment {
	if maxCount <= 0 {
		maxCount = DefaultRepresentativeCount
	}
	if len(comments) == 0 {
		return nil
	}
	scored := make([]domain.RepresentativeComment, len(comments))
	for i, c := range comments {
		if c.Author == "" {
			c.Author = AnonymousAuthor
		}
		scored[i] = domain.RepresentativeComment{
			RetrievedComment: c,
			CombinedScore:    combinedScore(c.RelevanceScore, c.LikeCount),
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].CombinedScore > scored[j].CombinedScore
	})
	if maxCount < len(scored) {
		scored = scored[:maxCount]
	}
	return scored
}

func combinedScore(relevance float64, likeCount int) float64 {
	if relevance < 0 {
		relevance = 0
	}
	popularity := float64(likeCount) / likeSaturation
	if popularity > 1 {
		popularity = 1
	}
	if popularity < 0 {
		popularity = 0
	}
	return relevanceWeight*relevance + popularityWeight*popularity
}
