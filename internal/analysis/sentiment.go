package analysis

import (
	"context"

	"github.com/dyk-im/Break-Bias/internal/domain"
)

// Aggregate reduces the attached per-comment sentiment distributions of a
// comment set to one averaged distribution. An empty set yields all zeros;
// the division guard makes absence of data a value, not an error.
func Aggregate(comments []domain.RetrievedComment) domain.SentimentStats {
	if len(comments) == 0 {
		return domain.SentimentStats{}
	}
	var sum domain.SentimentStats
	for _, c := range comments {
		sum.Positive += c.Sentiment.Positive
		sum.Negative += c.Sentiment.Negative
		sum.Neutral += c.Sentiment.Neutral
	}
	n := float64(len(comments))
	return domain.SentimentStats{
		Positive: sum.Positive / n,
		Negative: sum.Negative / n,
		Neutral:  sum.Neutral / n,
	}
}

// AggregateWithClassifier classifies each raw text with the given
// classifier and averages the results. Texts the classifier fails on are
// skipped; if every classification fails the zero distribution is returned
// together with the last error.
func AggregateWithClassifier(ctx context.Context, texts []string, classifier domain.SentimentClassifier) (domain.SentimentStats, error) {
	if len(texts) == 0 {
		return domain.SentimentStats{}, nil
	}
	var sum domain.SentimentStats
	var lastErr error
	classified := 0
	for _, text := range texts {
		dist, err := classifier.Classify(ctx, text)
		if err != nil {
			lastErr = err
			continue
		}
		sum.Positive += dist.Positive
		sum.Negative += dist.Negative
		sum.Neutral += dist.Neutral
		classified++
	}
	if classified == 0 {
		return domain.SentimentStats{}, lastErr
	}
	n := float64(classified)
	return domain.SentimentStats{
		Positive: sum.Positive / n,
		Negative: sum.Negative / n,
		Neutral:  sum.Neutral / n,
	}, nil
}
