package sentiment

import (
	"context"
	"regexp"
	"strings"

	"github.com/jonreiter/govader"

	"github.com/dyk-im/Break-Bias/internal/domain"
)

var (
	markdownLinkPattern = regexp.MustCompile(`\[(.*?)\]\((https?://[^\s)]+)\)`)
	urlPattern          = regexp.MustCompile(`https?://\S+|www\.\S+`)
)

// RemoveLinks strips markdown links (keeping the link text) and bare URLs,
// which carry no sentiment signal.
func RemoveLinks(input string) string {
	input = markdownLinkPattern.ReplaceAllString(input, "$1")
	input = urlPattern.ReplaceAllString(input, "")
	return strings.Join(strings.Fields(input), " ")
}

// VADERClassifier scores texts locally with the VADER lexicon. It never
// calls out and never fails, making it the offline fallback classifier.
type VADERClassifier struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVADERClassifier() *VADERClassifier {
	return &VADERClassifier{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Classify returns the positive/negative/neutral proportions for one text.
// Empty or link-only texts classify as fully neutral.
func (v *VADERClassifier) Classify(_ context.Context, text string) (domain.SentimentStats, error) {
	plain := RemoveLinks(text)
	if strings.TrimSpace(plain) == "" {
		return domain.SentimentStats{Neutral: 1}, nil
	}
	scores := v.analyzer.PolarityScores(plain)
	return normalize(domain.SentimentStats{
		Positive: scores.Positive,
		Negative: scores.Negative,
		Neutral:  scores.Neutral,
	}), nil
}

func normalize(s domain.SentimentStats) domain.SentimentStats {
	total := s.Positive + s.Negative + s.Neutral
	if total <= 0 {
		return domain.SentimentStats{Neutral: 1}
	}
	return domain.SentimentStats{
		Positive: s.Positive / total,
		Negative: s.Negative / total,
		Neutral:  s.Neutral / total,
	}
}
