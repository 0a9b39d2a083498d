package cache

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"time"

	"github.com/valkey-io/valkey-go"
)

// processedKeyTTL expires a topic's processed set a day after its last
// collection, bounding cache growth for abandoned topics.
const processedKeyTTL = 86400

// ValkeyCache remembers which comment IDs have already been processed for
// a topic, so repeated collection runs skip duplicates.
type ValkeyCache struct {
	client valkey.Client
}

type ValkeyConfig struct {
	Address  string
	Password string
	UseTLS   bool
}

func NewValkeyCache(cfg ValkeyConfig) (*ValkeyCache, error) {
	opts := valkey.ClientOption{
		InitAddress:      []string{cfg.Address},
		Password:         cfg.Password,
		ConnWriteTimeout: 5 * time.Second,
		SelectDB:         0,
	}
	if cfg.UseTLS {
		opts.TLSConfig = &tls.Config{}
	}
	client, err := valkey.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("create valkey client: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping valkey: %w", err)
	}
	slog.Info("[Cache] connected to valkey", slog.String("address", cfg.Address))
	return &ValkeyCache{client: client}, nil
}

func (c *ValkeyCache) Close() { c.client.Close() }

// IsProcessed reports whether the comment was already stored for the topic.
// Cache errors degrade to "not processed" so collection can proceed.
func (c *ValkeyCache) IsProcessed(ctx context.Context, topic, commentID string) bool {
	res := c.client.Do(ctx, c.client.B().Sismember().Key(topicKey(topic)).Member(commentID).Build())
	if err := res.Error(); err != nil {
		slog.Warn("[Cache] membership check failed", slog.String("error", err.Error()))
		return false
	}
	ok, err := res.AsBool()
	if err != nil {
		return false
	}
	return ok
}

// MarkProcessed records the comment IDs for the topic and refreshes the
// set's expiry.
func (c *ValkeyCache) MarkProcessed(ctx context.Context, topic string, commentIDs []string) error {
	if len(commentIDs) == 0 {
		return nil
	}
	key := topicKey(topic)
	commands := []valkey.Completed{
		c.client.B().Sadd().Key(key).Member(commentIDs...).Build(),
		c.client.B().Expire().Key(key).Seconds(processedKeyTTL).Build(),
	}
	for _, res := range c.client.DoMulti(ctx, commands...) {
		if err := res.Error(); err != nil {
			return fmt.Errorf("mark processed: %w", err)
		}
	}
	return nil
}

func topicKey(topic string) string {
	return "breakbias:processed:" + topic
}
