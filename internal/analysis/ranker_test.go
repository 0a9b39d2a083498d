package analysis

import (
	"math"
	"testing"

	"github.com/dyk-im/Break-Bias/internal/domain"
)

func retrieved(content string, likes int, relevance float64) domain.RetrievedComment {
	return domain.RetrievedComment{
		Comment:        domain.Comment{Content: content, LikeCount: likes},
		RelevanceScore: relevance,
	}
}

func TestRank_CombinedScoreBlend(t *testing.T) {
	comments := []domain.RetrievedComment{
		retrieved("정말 좋은 영상", 150, 0.9),
		retrieved("별로임", 0, 0.4),
	}

	got := Rank(comments, 5)
	if len(got) != 2 {
		t.Fatalf("expected both comments, got %d", len(got))
	}
	if got[0].Content != "정말 좋은 영상" {
		t.Fatalf("expected highest combined score first, got %q", got[0].Content)
	}
	if math.Abs(got[0].CombinedScore-0.93) > 1e-9 {
		t.Fatalf("expected combined score 0.93, got %v", got[0].CombinedScore)
	}
	if math.Abs(got[1].CombinedScore-0.28) > 1e-9 {
		t.Fatalf("expected combined score 0.28, got %v", got[1].CombinedScore)
	}
}

func TestRank_LikeCountCapped(t *testing.T) {
	got := Rank([]domain.RetrievedComment{retrieved("viral", 100000, 0)}, 5)
	if got[0].CombinedScore != popularityWeight {
		t.Fatalf("popularity term must saturate at 1, got score %v", got[0].CombinedScore)
	}
}

func TestRank_ScoresWithinUnitInterval(t *testing.T) {
	comments := []domain.RetrievedComment{
		retrieved("a", 0, 0),
		retrieved("b", 50, 0.5),
		retrieved("c", 1000, 1),
	}
	for _, rc := range Rank(comments, 10) {
		if rc.CombinedScore < 0 || rc.CombinedScore > 1 {
			t.Fatalf("combined score out of [0,1]: %v", rc.CombinedScore)
		}
	}
}

func TestRank_SortedDescendingAndTruncated(t *testing.T) {
	comments := []domain.RetrievedComment{
		retrieved("low", 0, 0.1),
		retrieved("high", 0, 0.9),
		retrieved("mid", 0, 0.5),
	}
	got := Rank(comments, 2)
	if len(got) != 2 {
		t.Fatalf("expected truncation to 2, got %d", len(got))
	}
	if got[0].CombinedScore < got[1].CombinedScore {
		t.Fatal("expected descending order by combined score")
	}
	if got[0].Content != "high" {
		t.Fatalf("expected 'high' first, got %q", got[0].Content)
	}
}

func TestRank_StableForEqualScores(t *testing.T) {
	comments := []domain.RetrievedComment{
		retrieved("first", 10, 0.5),
		retrieved("second", 10, 0.5),
	}
	got := Rank(comments, 5)
	if got[0].Content != "first" || got[1].Content != "second" {
		t.Fatal("equal scores must keep retrieval order")
	}
}

func TestRank_DefaultsForMissingFields(t *testing.T) {
	got := Rank([]domain.RetrievedComment{{}}, 5)
	if len(got) != 1 {
		t.Fatalf("expected 1 result, got %d", len(got))
	}
	if got[0].CombinedScore != 0 {
		t.Fatalf("missing fields must default to zero score, got %v", got[0].CombinedScore)
	}
	if got[0].Author != AnonymousAuthor {
		t.Fatalf("expected anonymization placeholder, got %q", got[0].Author)
	}
}

func TestRank_EmptyInput(t *testing.T) {
	if got := Rank(nil, 5); len(got) != 0 {
		t.Fatalf("expected empty output, got %v", got)
	}
}
