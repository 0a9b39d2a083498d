package generation

import (
	"fmt"
	"strings"

	"github.com/dyk-im/Break-Bias/internal/domain"
)

const (
	// maxPromptComments bounds how many comments are quoted in a prompt.
	maxPromptComments = 20
	// maxCommentRunes truncates each quoted comment.
	maxCommentRunes = 200
	// historyWindow is how many trailing conversation turns the model sees.
	historyWindow = 5
)

const analysisSystemPrompt = `당신은 유튜브 댓글을 분석하는 전문가입니다.
주어진 댓글들을 바탕으로 사용자의 질문에 대한 여론을 분석하고 요약해주세요.

분석 시 다음 사항을 고려하세요:
1. 댓글의 전반적인 감정(긍정/부정/중립)
2. 주요 논점과 의견들
3. 찬성/반대 의견의 근거
4. 여론의 전반적인 방향성

다음 형식으로 답변해주세요:
### 📊 여론 분석 요약
[전체적인 여론 동향과 주요 포인트]

### 💭 주요 의견들
[긍정적 의견]
[부정적 의견]
[중립적/기타 의견]

### 🎯 결론
[종합적인 분석 결과]`

const summarySystemPrompt = `주어진 댓글들을 바탕으로 질문에 대한 간단한 답변을 제공해주세요.
답변은 한국어로 작성하고, 3-5문장으로 핵심만 요약해주세요.`

// AnalysisPrompt builds the opinion analysis prompt over the candidate set.
// detailed selects the full report template over the short summary one.
func AnalysisPrompt(query string, comments []domain.RetrievedComment, stats domain.SentimentStats, detailed bool) string {
	system := summarySystemPrompt
	if detailed {
		system = analysisSystemPrompt
	}
	var b strings.Builder
	b.WriteString(system)
	b.WriteString("\n\n관련 댓글들:\n")
	b.WriteString(formatComments(comments))
	b.WriteString("\n감정 분석 결과:\n")
	b.WriteString(FormatSentimentStats(stats, len(comments)))
	b.WriteString("\n질문: ")
	b.WriteString(query)
	return b.String()
}

// RAGPrompt builds a conversational prompt grounded on retrieved contexts.
func RAGPrompt(query string, contexts []string, history []domain.ChatMessage) string {
	var b strings.Builder
	b.WriteString("다음 정보를 바탕으로 사용자의 질문에 답변해주세요.\n\n관련 정보:\n")
	for i, ctx := range contexts {
		if i >= 3 {
			break
		}
		b.WriteString("- ")
		b.WriteString(truncateRunes(ctx, maxCommentRunes))
		b.WriteString("\n")
	}
	b.WriteString("\n이전 대화:\n")
	b.WriteString(formatHistory(history))
	b.WriteString("\n질문: ")
	b.WriteString(query)
	b.WriteString("\n\n답변:")
	return b.String()
}

// DirectPrompt builds a plain conversational prompt without retrieval.
func DirectPrompt(query string, history []domain.ChatMessage) string {
	var b strings.Builder
	b.WriteString("사용자와 자연스럽게 대화해주세요.\n\n이전 대화:\n")
	b.WriteString(formatHistory(history))
	b.WriteString("\n사용자: ")
	b.WriteString(query)
	b.WriteString("\n\n어시스턴트:")
	return b.String()
}

// NoDataResponse is the canned narrative for a query with no relevant
// comments. Produced without calling the model.
func NoDataResponse(query string) string {
	return fmt.Sprintf(`### ⚠️ 데이터 부족
'%s'와 관련된 댓글을 찾을 수 없습니다.

다음을 확인해보세요:
1. 검색어가 정확한지 확인
2. 해당 주제의 댓글이 수집되었는지 확인
3. 더 일반적인 키워드로 다시 시도

먼저 해당 주제의 유튜브 댓글을 수집해주세요.`, query)
}

// FormatSentimentStats renders a sentiment distribution for prompt use.
func FormatSentimentStats(stats domain.SentimentStats, totalComments int) string {
	return fmt.Sprintf("긍정: %.1f%%\n부정: %.1f%%\n중립: %.1f%%\n전체 댓글 수: %d개\n지배적 감정: %s\n",
		stats.Positive*100, stats.Negative*100, stats.Neutral*100, totalComments, stats.Dominant())
}

func formatComments(comments []domain.RetrievedComment) string {
	var b strings.Builder
	for i, c := range comments {
		if i >= maxPromptComments {
			break
		}
		author := c.Author
		if author == "" {
			author = "익명"
		}
		fmt.Fprintf(&b, "[댓글 %d] %s (👍%d): %s\n",
			i+1, author, c.LikeCount, truncateRunes(c.Content, maxCommentRunes))
	}
	return b.String()
}

func formatHistory(history []domain.ChatMessage) string {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	var b strings.Builder
	for _, msg := range history {
		b.WriteString(msg.Role)
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	return b.String()
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
