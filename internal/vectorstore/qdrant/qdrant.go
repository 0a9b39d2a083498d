package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dyk-im/Break-Bias/internal/domain"
)

// Storage is a minimal REST client to Qdrant.
// It assumes cosine distance and creates the collection on first upsert.
type Storage struct {
	url        string
	apiKey     string
	collection string
	dimension  int
	client     *http.Client
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func NewStorage(cfg Config) *Storage {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	collection := cfg.Collection
	if collection == "" {
		collection = "youtube_comments"
	}
	return &Storage{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: collection,
		client:     &http.Client{Timeout: timeout},
	}
}

func (s *Storage) Name() string { return "qdrant" }

func (s *Storage) ensureCollection(ctx context.Context, dimension int) error {
	if s.dimension == dimension {
		return nil
	}
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	// Qdrant returns 200 OK if the collection already exists with the same
	// schema; any other error propagates.
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	if err := s.putJSON(ctx, fmt.Sprintf("%s/collections/%s", s.url, s.collection), body); err != nil {
		return err
	}
	s.dimension = dimension
	return nil
}

func (s *Storage) Upsert(ctx context.Context, comments []domain.Comment, vectors [][]float64) error {
	if len(comments) != len(vectors) {
		return errors.New("comments and vectors length mismatch")
	}
	if len(comments) == 0 {
		return nil
	}
	if err := s.ensureCollection(ctx, len(vectors[0])); err != nil {
		return err
	}
	points := make([]map[string]any, len(comments))
	for i, c := range comments {
		points[i] = map[string]any{
			"id":     c.ID,
			"vector": vectors[i],
			"payload": map[string]any{
				"content":            c.Content,
				"author":             c.Author,
				"like_count":         c.LikeCount,
				"video_id":           c.VideoID,
				"video_title":        c.VideoTitle,
				"published_at":       c.PublishedAt,
				"topic":              c.Topic,
				"sentiment_positive": c.Sentiment.Positive,
				"sentiment_negative": c.Sentiment.Negative,
				"sentiment_neutral":  c.Sentiment.Neutral,
			},
		}
	}
	body := map[string]any{"points": points}
	return s.putJSON(ctx, fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, s.collection), body)
}

func (s *Storage) Search(ctx context.Context, vector []float64, topK int) ([]domain.RetrievedComment, error) {
	if topK <= 0 {
		topK = 5
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			ID      any            `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	err := s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/search", s.url, s.collection), req, &resp)
	if err != nil {
		if isNotFound(err) {
			// Nothing has ever been collected into this store.
			return nil, nil
		}
		return nil, err
	}
	results := make([]domain.RetrievedComment, 0, len(resp.Result))
	for _, r := range resp.Result {
		c := commentFromPayload(r.Payload)
		if id, ok := r.ID.(string); ok {
			c.ID = id
		}
		score := r.Score
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
		results = append(results, domain.RetrievedComment{Comment: c, RelevanceScore: score})
	}
	return results, nil
}

func (s *Storage) DeleteByTopic(ctx context.Context, topic string) error {
	body := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": "topic", "match": map[string]any{"value": topic}},
			},
		},
	}
	err := s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/delete?wait=true", s.url, s.collection), body, nil)
	if err != nil && isNotFound(err) {
		// Deleting from a collection that was never created is a no-op.
		return nil
	}
	return err
}

func (s *Storage) Stats(ctx context.Context) (domain.StoreStats, error) {
	body := map[string]any{"exact": true}
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	err := s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/count", s.url, s.collection), body, &resp)
	if err != nil {
		if isNotFound(err) {
			return domain.StoreStats{Collection: s.collection}, nil
		}
		return domain.StoreStats{}, err
	}
	return domain.StoreStats{TotalDocuments: resp.Result.Count, Collection: s.collection}, nil
}

func commentFromPayload(payload map[string]any) domain.Comment {
	c := domain.Comment{}
	if v, ok := payload["content"].(string); ok {
		c.Content = v
	}
	if v, ok := payload["author"].(string); ok {
		c.Author = v
	}
	if v, ok := payload["like_count"].(float64); ok {
		c.LikeCount = int(v)
	}
	if v, ok := payload["video_id"].(string); ok {
		c.VideoID = v
	}
	if v, ok := payload["video_title"].(string); ok {
		c.VideoTitle = v
	}
	if v, ok := payload["published_at"].(string); ok {
		c.PublishedAt = v
	}
	if v, ok := payload["topic"].(string); ok {
		c.Topic = v
	}
	if v, ok := payload["sentiment_positive"].(float64); ok {
		c.Sentiment.Positive = v
	}
	if v, ok := payload["sentiment_negative"].(float64); ok {
		c.Sentiment.Negative = v
	}
	if v, ok := payload["sentiment_neutral"].(float64); ok {
		c.Sentiment.Neutral = v
	}
	return c
}

type statusError struct {
	code   int
	method string
	url    string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("qdrant %s %s failed: status %d", e.method, e.url, e.code)
}

func isNotFound(err error) bool {
	var se *statusError
	return errors.As(err, &se) && se.code == http.StatusNotFound
}

func (s *Storage) putJSON(ctx context.Context, url string, body any) error {
	data, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return &statusError{code: resp.StatusCode, method: http.MethodPut, url: url}
	}
	return nil
}

func (s *Storage) postJSON(ctx context.Context, url string, body any, out any) error {
	data, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return &statusError{code: resp.StatusCode, method: http.MethodPost, url: url}
	}
	if out != nil {
		dec := json.NewDecoder(resp.Body)
		return dec.Decode(out)
	}
	return nil
}
