package processor

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/dyk-im/Break-Bias/internal/chunker"
	"github.com/dyk-im/Break-Bias/internal/domain"
	"github.com/dyk-im/Break-Bias/internal/embedding"
	"github.com/dyk-im/Break-Bias/internal/vectorstore"
)

const (
	// minCommentRunes drops comments too short to carry an opinion.
	minCommentRunes = 10
	// chunkThresholdRunes is the comment length above which the text is
	// split into sentence chunks before storage.
	chunkThresholdRunes = 1000
)

// ProcessedCache remembers source comment IDs across collection runs so a
// repeated collection does not store duplicates. Implementations may lose
// entries; that only costs duplicate work, not correctness of reads.
type ProcessedCache interface {
	IsProcessed(ctx context.Context, topic, commentID string) bool
	MarkProcessed(ctx context.Context, topic string, commentIDs []string) error
}

// CommentProcessor drives the collection pipeline: fetch comments, clean
// and chunk their text, classify sentiment, embed, and upsert into the
// vector store. All collaborators are injected.
type CommentProcessor struct {
	source     domain.CommentSource
	classifier domain.SentimentClassifier
	embedder   embedding.Embedder
	store      vectorstore.Storage
	chunker    *chunker.SentenceChunker
	cache      ProcessedCache // optional
}

func NewCommentProcessor(source domain.CommentSource, classifier domain.SentimentClassifier, embedder embedding.Embedder, store vectorstore.Storage, ch *chunker.SentenceChunker, cache ProcessedCache) *CommentProcessor {
	if ch == nil {
		ch = chunker.NewSentenceChunker(5, 1)
	}
	return &CommentProcessor{
		source:     source,
		classifier: classifier,
		embedder:   embedder,
		store:      store,
		chunker:    ch,
		cache:      cache,
	}
}

// CollectByTopic searches videos for the topic, fetches their comments and
// stores the processed chunks. It returns the raw comment count and the
// stored chunk count.
func (p *CommentProcessor) CollectByTopic(ctx context.Context, topic string, maxVideos, maxCommentsPerVideo int) (int, int, error) {
	videos, err := p.source.SearchVideos(ctx, topic, maxVideos)
	if err != nil {
		return 0, 0, fmt.Errorf("search videos for %q: %w", topic, err)
	}
	slog.Info("[Processor] videos found", slog.String("topic", topic), slog.Int("count", len(videos)))

	var all []domain.Comment
	for _, video := range videos {
		comments, err := p.source.VideoComments(ctx, video.ID, maxCommentsPerVideo)
		if err != nil {
			return 0, 0, fmt.Errorf("comments for video %s: %w", video.ID, err)
		}
		for i := range comments {
			comments[i].VideoTitle = video.Title
		}
		slog.Info("[Processor] comments collected",
			slog.String("video", video.Title), slog.Int("count", len(comments)))
		all = append(all, comments...)
	}

	processed, err := p.process(ctx, all, topic)
	if err != nil {
		return 0, 0, err
	}
	return len(all), processed, nil
}

// CollectVideo fetches and stores the comments of one video, using the
// video ID as the topic.
func (p *CommentProcessor) CollectVideo(ctx context.Context, videoID string, maxComments int) (int, int, error) {
	comments, err := p.source.VideoComments(ctx, videoID, maxComments)
	if err != nil {
		return 0, 0, fmt.Errorf("comments for video %s: %w", videoID, err)
	}
	for i := range comments {
		if comments[i].VideoTitle == "" {
			comments[i].VideoTitle = "Video " + videoID
		}
	}
	processed, err := p.process(ctx, comments, videoID)
	if err != nil {
		return 0, 0, err
	}
	return len(comments), processed, nil
}

func (p *CommentProcessor) process(ctx context.Context, comments []domain.Comment, topic string) (int, error) {
	var docs []domain.Comment
	var vectors [][]float64
	var sourceIDs []string

	for _, comment := range comments {
		cleaned := CleanText(comment.Content)
		if len([]rune(cleaned)) < minCommentRunes {
			continue
		}
		if p.cache != nil && p.cache.IsProcessed(ctx, topic, comment.ID) {
			continue
		}

		sentiment, err := p.classifier.Classify(ctx, cleaned)
		if err != nil {
			// Unclassified comments degrade to neutral rather than
			// failing the whole collection run.
			slog.Warn("[Processor] sentiment classification failed",
				slog.String("comment_id", comment.ID), slog.String("error", err.Error()))
			sentiment = domain.SentimentStats{Neutral: 1}
		}

		chunks := []string{cleaned}
		if len([]rune(cleaned)) > chunkThresholdRunes {
			chunks = p.chunker.Split(cleaned)
		}
		for _, text := range chunks {
			vector, err := p.embedder.Embed(ctx, text)
			if err != nil {
				return 0, fmt.Errorf("embed comment %s: %w", comment.ID, err)
			}
			doc := comment
			doc.ID = uuid.NewString()
			doc.Content = text
			doc.Topic = topic
			doc.Sentiment = sentiment
			docs = append(docs, doc)
			vectors = append(vectors, vector)
		}
		sourceIDs = append(sourceIDs, comment.ID)
	}

	if len(docs) == 0 {
		return 0, nil
	}
	if err := p.store.Upsert(ctx, docs, vectors); err != nil {
		return 0, fmt.Errorf("upsert %d chunks: %w", len(docs), err)
	}
	if p.cache != nil {
		if err := p.cache.MarkProcessed(ctx, topic, sourceIDs); err != nil {
			slog.Warn("[Processor] failed to mark comments processed",
				slog.String("topic", topic), slog.String("error", err.Error()))
		}
	}
	slog.Info("[Processor] chunks stored", slog.String("topic", topic), slog.Int("count", len(docs)))
	return len(docs), nil
}

var (
	whitespacePattern = regexp.MustCompile(`\s+`)
	meaningfulPattern = regexp.MustCompile(`[가-힣a-zA-Z0-9]`)
)

// CleanText normalizes a raw comment: collapses whitespace, squeezes
// repeated laughter and punctuation runs (ㅋㅋㅋㅋ → ㅋㅋ, !!!! → !!), and
// rejects symbol-only text by returning an empty string.
func CleanText(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = whitespacePattern.ReplaceAllString(cleaned, " ")
	cleaned = squeezeRuns(cleaned)
	if !meaningfulPattern.MatchString(cleaned) {
		return ""
	}
	return cleaned
}

// squeezeRuns caps runs of laughter and terminal punctuation at two
// characters. RE2 has no backreferences, so this walks runes directly.
func squeezeRuns(s string) string {
	squeezable := map[rune]bool{'ㅋ': true, 'ㅎ': true, '!': true, '?': true, '.': true}
	var b strings.Builder
	b.Grow(len(s))
	var prev rune
	run := 0
	for _, r := range s {
		if r == prev && squeezable[r] {
			run++
			if run > 2 {
				continue
			}
		} else {
			run = 1
			prev = r
		}
		b.WriteRune(r)
	}
	return b.String()
}
