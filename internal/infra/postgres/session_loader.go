package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"duo-trivia-service/internal/domain"
)

// SessionLoader loads session content JSONB from Postgres.
type SessionLoader struct {
	pool *pgxpool.Pool
}

func NewSessionLoader(pool *pgxpool.Pool) *SessionLoader {
	return &SessionLoader{pool: pool}
}

func (l *SessionLoader) LoadSessionContent(ctx context.Context, sessionID string) (domain.SessionContent, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM sessions WHERE id=$1`, sessionID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.SessionContent{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.SessionContent{}, fmt.Errorf("load session: %w", err)
	}
	var content domain.SessionContent
	if err := json.Unmarshal(raw, &content); err != nil {
		return domain.SessionContent{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return content, nil
}
