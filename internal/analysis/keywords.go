package analysis

import (
	"regexp"
	"sort"
	"strings"
)

// KeywordExtractor pulls salient terms out of a comment collection,
// filtering stopwords and short tokens.
type KeywordExtractor struct {
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

// NewKeywordExtractor creates a frequency-based keyword extractor.
func NewKeywordExtractor() *KeywordExtractor {
	return &KeywordExtractor{
		// Runs of >=2 Hangul syllables or >=3 Latin letters. Single Hangul
		// tokens are mostly particles; Latin acronyms carry signal from 3
		// characters up.
		tokenPattern: regexp.MustCompile(`[가-힣]{2,}|[a-zA-Z]{3,}`),
		stopwords:    defaultStopwords(),
	}
}

// Extract returns up to maxCount distinct terms ordered by descending
// frequency across all texts. Ties keep first-seen order. An input that
// yields no surviving tokens returns an empty slice, never an error.
func (e *KeywordExtractor) Extract(texts []string, maxCount int) []string {
	if maxCount <= 0 || len(texts) == 0 {
		return nil
	}
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	order := 0
	for _, text := range texts {
		for _, tok := range e.tokenPattern.FindAllString(text, -1) {
			tok = strings.ToLower(tok)
			if _, ok := e.stopwords[tok]; ok {
				continue
			}
			// The pattern already forbids length-1 tokens; enforced anyway.
			if len([]rune(tok)) <= 1 {
				continue
			}
			if _, ok := counts[tok]; !ok {
				firstSeen[tok] = order
				order++
			}
			counts[tok]++
		}
	}
	if len(counts) == 0 {
		return nil
	}
	terms := make([]string, 0, len(counts))
	for term := range counts {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return firstSeen[terms[i]] < firstSeen[terms[j]]
	})
	if maxCount < len(terms) {
		terms = terms[:maxCount]
	}
	return terms
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		// deictics and connectives
		"이거", "저거", "그거", "이것", "저것", "그것", "여기", "저기", "거기",
		"이런", "저런", "그런", "근데", "그리고", "그래서", "하지만", "그래도",
		"이제", "오늘", "내일", "어제", "우리", "자기", "누가", "뭔가",
		// filler intensifiers
		"정말", "진짜", "완전", "너무", "되게", "엄청", "아주", "그냥", "많이",
		"조금", "약간", "같이", "해서", "하는", "있는", "없는", "합니다", "입니다",
		// platform boilerplate
		"영상", "채널", "구독", "댓글", "좋아요", "알림", "유튜브", "알고리즘",
		"the", "and", "for", "that", "this", "with", "was", "are", "you",
		"have", "not", "but", "all", "can", "just", "like", "video", "videos",
		"channel", "subscribe", "comment", "comments", "youtube",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
