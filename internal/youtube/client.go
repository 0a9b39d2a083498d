package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dyk-im/Break-Bias/internal/domain"
)

const defaultBaseURL = "https://www.googleapis.com/youtube/v3"

// Client fetches videos and comment threads from the YouTube Data API v3.
// Without an API key it serves deterministic dummy data so the rest of the
// pipeline stays exercisable offline.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	if cfg.APIKey == "" {
		slog.Warn("[YouTube] no API key configured, serving dummy data")
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// SearchVideos returns up to maxResults videos matching the query, ordered
// by relevance.
func (c *Client) SearchVideos(ctx context.Context, query string, maxResults int) ([]domain.Video, error) {
	if maxResults <= 0 {
		maxResults = 10
	}
	if c.apiKey == "" {
		return dummyVideos(query), nil
	}
	params := url.Values{
		"part":       {"id,snippet"},
		"type":       {"video"},
		"order":      {"relevance"},
		"q":          {query},
		"maxResults": {strconv.Itoa(maxResults)},
		"key":        {c.apiKey},
	}
	var resp struct {
		Items []struct {
			ID struct {
				VideoID string `json:"videoId"`
			} `json:"id"`
			Snippet struct {
				Title        string `json:"title"`
				ChannelTitle string `json:"channelTitle"`
				PublishedAt  string `json:"publishedAt"`
				Description  string `json:"description"`
			} `json:"snippet"`
		} `json:"items"`
	}
	if err := c.getJSON(ctx, "/search", params, &resp); err != nil {
		return nil, fmt.Errorf("search videos: %w", err)
	}
	videos := make([]domain.Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		videos = append(videos, domain.Video{
			ID:           item.ID.VideoID,
			Title:        item.Snippet.Title,
			ChannelTitle: item.Snippet.ChannelTitle,
			PublishedAt:  item.Snippet.PublishedAt,
			Description:  item.Snippet.Description,
		})
	}
	return videos, nil
}

// VideoComments returns up to maxResults top-level comments of one video,
// ordered by relevance. The returned comments carry no topic or video
// title; the caller attaches those.
func (c *Client) VideoComments(ctx context.Context, videoID string, maxResults int) ([]domain.Comment, error) {
	if maxResults <= 0 {
		maxResults = 100
	}
	if c.apiKey == "" {
		return dummyComments(videoID), nil
	}
	params := url.Values{
		"part":       {"snippet"},
		"videoId":    {videoID},
		"order":      {"relevance"},
		"textFormat": {"plainText"},
		"maxResults": {strconv.Itoa(maxResults)},
		"key":        {c.apiKey},
	}
	var resp struct {
		Items []struct {
			Snippet struct {
				TopLevelComment struct {
					ID      string `json:"id"`
					Snippet struct {
						TextDisplay       string `json:"textDisplay"`
						AuthorDisplayName string `json:"authorDisplayName"`
						LikeCount         int    `json:"likeCount"`
						PublishedAt       string `json:"publishedAt"`
					} `json:"snippet"`
				} `json:"topLevelComment"`
			} `json:"snippet"`
		} `json:"items"`
	}
	if err := c.getJSON(ctx, "/commentThreads", params, &resp); err != nil {
		return nil, fmt.Errorf("video comments %s: %w", videoID, err)
	}
	comments := make([]domain.Comment, 0, len(resp.Items))
	for _, item := range resp.Items {
		top := item.Snippet.TopLevelComment
		comments = append(comments, domain.Comment{
			ID:          top.ID,
			Content:     top.Snippet.TextDisplay,
			Author:      top.Snippet.AuthorDisplayName,
			LikeCount:   top.Snippet.LikeCount,
			VideoID:     videoID,
			PublishedAt: top.Snippet.PublishedAt,
		})
	}
	return comments, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("youtube GET %s failed: %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func dummyVideos(query string) []domain.Video {
	videos := make([]domain.Video, 3)
	for i := range videos {
		videos[i] = domain.Video{
			ID:           fmt.Sprintf("dummy_video_%d", i),
			Title:        fmt.Sprintf("%s 관련 영상 %d", query, i+1),
			ChannelTitle: fmt.Sprintf("채널 %d", i+1),
			PublishedAt:  "2024-01-01T00:00:00Z",
			Description:  fmt.Sprintf("%s에 대한 설명입니다.", query),
		}
	}
	return videos
}

func dummyComments(videoID string) []domain.Comment {
	texts := []string{
		"정말 좋은 영상이네요! 👍",
		"이 주제에 대해 더 알고 싶어요",
		"반대 의견입니다. 다른 관점도 있어요",
		"완전 동감해요!",
		"이해하기 쉽게 설명해주셔서 감사합니다",
		"좀 더 자세한 설명이 필요할 것 같아요",
		"훌륭한 분석입니다",
		"이 부분은 틀린 것 같은데요?",
		"다음 영상도 기대됩니다",
		"구독하고 갑니다!",
	}
	comments := make([]domain.Comment, len(texts))
	for i, text := range texts {
		comments[i] = domain.Comment{
			ID:          fmt.Sprintf("dummy_comment_%s_%d", videoID, i),
			Content:     text,
			Author:      fmt.Sprintf("사용자%d", i+1),
			LikeCount:   i * 2,
			VideoID:     videoID,
			PublishedAt: "2024-01-01T00:00:00Z",
		}
	}
	return comments
}
