package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RunLock serialises pairing passes per category across processes with a
// SET NX PX lease. The TTL bounds how long a crashed holder can block the
// category.
type RunLock struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRunLock(client *redis.Client, ttl time.Duration) *RunLock {
	return &RunLock{client: client, ttl: ttl}
}

func (l *RunLock) TryAcquire(ctx context.Context, category string) (func(), bool, error) {
	key := l.key(category)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		// Only delete a lease we still own; a lease that expired and was
		// re-acquired elsewhere is left alone.
		current, err := l.client.Get(context.Background(), key).Result()
		if err != nil || current != token {
			return
		}
		_ = l.client.Del(context.Background(), key).Err()
	}
	return release, true, nil
}

func (l *RunLock) key(category string) string {
	return "pairing:lock:" + category
}
