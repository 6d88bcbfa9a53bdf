package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"duo-trivia-service/internal/domain"
)

// ContentLoader fetches session content from the backing store.
type ContentLoader interface {
	LoadSessionContent(ctx context.Context, sessionID string) (domain.SessionContent, error)
}

// ContentCache caches session content in Redis (JSON per session) and falls
// back to the loader on a miss. Session content is immutable, so the cache
// never needs invalidation beyond its TTL.
type ContentCache struct {
	client *redis.Client
	loader ContentLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewContentCache(client *redis.Client, loader ContentLoader, ttl time.Duration) *ContentCache {
	return &ContentCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *ContentCache) SessionContent(ctx context.Context, sessionID string) (domain.SessionContent, error) {
	key := c.key(sessionID)

	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil && len(raw) > 0 {
		var content domain.SessionContent
		if err := json.Unmarshal(raw, &content); err == nil {
			return content, nil
		}
	}

	result, err, _ := c.sf.Do(sessionID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if raw, err := c.client.Get(ctx, key).Bytes(); err == nil && len(raw) > 0 {
			var content domain.SessionContent
			if err := json.Unmarshal(raw, &content); err == nil {
				return content, nil
			}
		}

		content, err := c.loader.LoadSessionContent(ctx, sessionID)
		if err != nil {
			return domain.SessionContent{}, err
		}

		raw, err := json.Marshal(content)
		if err != nil {
			return domain.SessionContent{}, fmt.Errorf("marshal session content: %w", err)
		}
		_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
		return content, nil
	})
	if err != nil {
		return domain.SessionContent{}, err
	}
	return result.(domain.SessionContent), nil
}

func (c *ContentCache) key(sessionID string) string {
	return "session:" + sessionID + ":content"
}

func (c *ContentCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
