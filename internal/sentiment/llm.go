package sentiment

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dyk-im/Break-Bias/internal/domain"
)

const classifyPromptFormat = `다음 댓글의 감정을 분석해주세요. 긍정, 부정, 중립 점수의 합이 1이 되도록 분석해주세요.

댓글: %s

다음 형식으로 응답해주세요:
positive: (0~1 사이 숫자)
negative: (0~1 사이 숫자)
neutral: (0~1 사이 숫자)`

// LLMClassifier scores texts by prompting the narrative generator and
// parsing the line-oriented response.
type LLMClassifier struct {
	generator domain.Generator
}

func NewLLMClassifier(generator domain.Generator) *LLMClassifier {
	return &LLMClassifier{generator: generator}
}

// Classify returns the model's sentiment distribution for one text.
// Generator failures propagate; malformed responses degrade to neutral.
func (c *LLMClassifier) Classify(ctx context.Context, text string) (domain.SentimentStats, error) {
	response, err := c.generator.Generate(ctx, fmt.Sprintf(classifyPromptFormat, text))
	if err != nil {
		return domain.SentimentStats{}, fmt.Errorf("classify sentiment: %w", err)
	}
	return ParseDistribution(response), nil
}

// ParseDistribution reads "label: score" lines out of a model response and
// normalizes them to sum to 1. Unparseable responses yield fully neutral.
func ParseDistribution(response string) domain.SentimentStats {
	var stats domain.SentimentStats
	for _, line := range strings.Split(response, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		score, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || score < 0 {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "positive", "긍정":
			stats.Positive = score
		case "negative", "부정":
			stats.Negative = score
		case "neutral", "중립":
			stats.Neutral = score
		}
	}
	return normalize(stats)
}
