package memory

import (
	"context"

	"duo-trivia-service/internal/domain"
)

// StaticContentStore serves session content from an in-memory map (useful
// for tests and local runs without Postgres).
type StaticContentStore struct {
	sessions map[string]domain.SessionContent
}

func NewStaticContentStore(sessions map[string]domain.SessionContent) *StaticContentStore {
	return &StaticContentStore{sessions: sessions}
}

func (s *StaticContentStore) SessionContent(_ context.Context, sessionID string) (domain.SessionContent, error) {
	if content, ok := s.sessions[sessionID]; ok {
		return content, nil
	}
	return domain.SessionContent{}, domain.ErrSessionNotFound
}

// LoadSessionContent makes the store usable as a cache loader as well.
func (s *StaticContentStore) LoadSessionContent(ctx context.Context, sessionID string) (domain.SessionContent, error) {
	return s.SessionContent(ctx, sessionID)
}
