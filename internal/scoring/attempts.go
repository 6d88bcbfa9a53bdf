package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"duo-trivia-service/internal/domain"
)

// ResultInserter creates new attempt records.
type ResultInserter interface {
	InsertResult(ctx context.Context, result domain.Result) error
}

// AttemptConfig fixes the lifecycle of a new attempt.
type AttemptConfig struct {
	// Duration is how long the player has to submit answers; expires_at is
	// set to creation time plus this.
	Duration time.Duration
	// ExitBuffer is added on top of expires_at to form exits_at, the point
	// at which the result becomes eligible for pairing.
	ExitBuffer time.Duration
	// Stake is the amount wagered per attempt.
	Stake decimal.Decimal
}

// AttemptService opens new attempts: one active Result per quiz request,
// with its deadlines and stake fixed at creation.
type AttemptService struct {
	results ResultInserter
	content ContentSource
	cfg     AttemptConfig
	now     func() time.Time
}

func NewAttemptService(results ResultInserter, content ContentSource, cfg AttemptConfig) *AttemptService {
	return &AttemptService{
		results: results,
		content: content,
		cfg:     cfg,
		now:     time.Now,
	}
}

// WithClock overrides the service clock for deterministic tests.
func (s *AttemptService) WithClock(now func() time.Time) *AttemptService {
	s.now = now
	return s
}

// Open creates the Result record for one player's attempt at a session.
func (s *AttemptService) Open(ctx context.Context, userID, sessionID string) (domain.Result, error) {
	content, err := s.content.SessionContent(ctx, sessionID)
	if err != nil {
		return domain.Result{}, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	now := s.now()
	expiresAt := now.Add(s.cfg.Duration)
	result := domain.Result{
		ID:        uuid.NewString(),
		UserID:    userID,
		SessionID: content.ID,
		Category:  content.Category,
		Stake:     s.cfg.Stake,
		ExpiresAt: expiresAt,
		ExitsAt:   expiresAt.Add(s.cfg.ExitBuffer),
		IsActive:  true,
		CreatedAt: now,
	}
	if err := s.results.InsertResult(ctx, result); err != nil {
		return domain.Result{}, fmt.Errorf("insert result: %w", err)
	}
	return result, nil
}
