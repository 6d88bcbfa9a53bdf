package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"duo-trivia-service/internal/domain"
	"duo-trivia-service/internal/infra/memory"
)

func TestContentCacheCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	loader := &countingLoader{
		ContentLoader: memory.NewStaticContentStore(map[string]domain.SessionContent{
			"session-1": sampleContent(),
		}),
	}
	cache := NewContentCache(client, loader, time.Minute)

	content, err := cache.SessionContent(context.Background(), "session-1")
	if err != nil {
		t.Fatalf("load session content: %v", err)
	}
	if content.ID != "session-1" || len(content.Questions) != 1 {
		t.Fatalf("unexpected content: %+v", content)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("session:session-1:content") {
		t.Fatalf("expected redis key to be set")
	}

	// Second call should hit cache, loader not incremented.
	content, err = cache.SessionContent(context.Background(), "session-1")
	if err != nil {
		t.Fatalf("load session content again: %v", err)
	}
	if content.ID != "session-1" {
		t.Fatalf("unexpected cached content: %+v", content)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
}

func TestContentCacheMissingSession(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	loader := &countingLoader{
		ContentLoader: memory.NewStaticContentStore(nil),
	}
	cache := NewContentCache(client, loader, time.Minute)

	_, err = cache.SessionContent(context.Background(), "session-missing")
	if err == nil {
		t.Fatalf("expected error for missing session")
	}
	if mr.Exists("session:session-missing:content") {
		t.Fatalf("miss should not be cached")
	}
}

type countingLoader struct {
	ContentLoader
	calls int
}

func (l *countingLoader) LoadSessionContent(ctx context.Context, sessionID string) (domain.SessionContent, error) {
	l.calls++
	return l.ContentLoader.LoadSessionContent(ctx, sessionID)
}

func sampleContent() domain.SessionContent {
	return domain.SessionContent{
		ID:       "session-1",
		Category: "general",
		Questions: []domain.Question{
			{
				ID:     "q1",
				Prompt: "Capital of Kenya?",
				Choices: []domain.Choice{
					{ID: "c1", Text: "Nairobi"},
					{ID: "c2", Text: "Mombasa"},
				},
				AnswerChoiceID: "c1",
			},
		},
	}
}
