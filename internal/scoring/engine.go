// Package scoring grades a submitted attempt and persists the scores onto
// its result record. It runs at submission time, well before pairing.
package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"duo-trivia-service/internal/domain"
)

// noAnswerSentinel is the literal clients send for a question left blank.
const noAnswerSentinel = "null"

// ResultStore reads the result under scoring and writes the graded result
// together with its answer rows in one transaction.
type ResultStore interface {
	Result(ctx context.Context, id string) (domain.Result, error)
	SaveScore(ctx context.Context, result domain.Result, answers []domain.UserAnswer) error
}

// ContentSource loads the immutable session content an attempt is graded
// against.
type ContentSource interface {
	SessionContent(ctx context.Context, sessionID string) (domain.SessionContent, error)
}

// Weights configures the score computation and the moderation rescale.
type Weights struct {
	QuestionsPerSession int
	AnsweredWeight      float64
	CorrectWeight       float64
	ModeratedLowest     float64
	ModeratedHighest    float64
	// SubmissionBuffer is the grace period past expires_at during which a
	// submission is still graded. Later submissions are dropped silently.
	SubmissionBuffer time.Duration
}

// ChoiceSubmission is one (question, free-text choice) pair from a client.
type ChoiceSubmission struct {
	QuestionID string
	ChoiceText string
}

type Engine struct {
	results ResultStore
	content ContentSource
	weights Weights
	log     *zap.Logger
	now     func() time.Time
}

func NewEngine(results ResultStore, content ContentSource, weights Weights, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		results: results,
		content: content,
		weights: weights,
		log:     log,
		now:     time.Now,
	}
}

// WithClock overrides the engine clock for deterministic tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// CalculateScore grades the submitted choices and persists totals, the raw
// weighted score and the moderated score onto the result. Submissions past
// expires_at plus the buffer are dropped without touching the result.
// Unknown questions or choices fail the whole submission; no partial credit
// is ever written.
func (e *Engine) CalculateScore(ctx context.Context, resultID, userID string, choices []ChoiceSubmission) error {
	result, err := e.results.Result(ctx, resultID)
	if err != nil {
		return fmt.Errorf("load result %s: %w", resultID, err)
	}
	if result.UserID != userID {
		return domain.ErrResultMismatch
	}

	now := e.now()
	if now.After(result.ExpiresAt.Add(e.weights.SubmissionBuffer)) {
		e.log.Info("dropping late submission",
			zap.String("result_id", resultID),
			zap.Time("expires_at", result.ExpiresAt),
		)
		return nil
	}

	content, err := e.content.SessionContent(ctx, result.SessionID)
	if err != nil {
		return fmt.Errorf("load session %s: %w", result.SessionID, err)
	}

	answered, correct := 0, 0
	var answers []domain.UserAnswer
	for _, submitted := range choices {
		if submitted.ChoiceText == "" || submitted.ChoiceText == noAnswerSentinel {
			continue
		}
		question, ok := content.QuestionByID(submitted.QuestionID)
		if !ok {
			return fmt.Errorf("question %s in session %s: %w", submitted.QuestionID, content.ID, domain.ErrQuestionNotFound)
		}
		choice, ok := question.ChoiceByText(submitted.ChoiceText)
		if !ok {
			return fmt.Errorf("choice %q for question %s: %w", submitted.ChoiceText, question.ID, domain.ErrChoiceNotFound)
		}

		answered++
		isCorrect := choice.ID == question.AnswerChoiceID
		if isCorrect {
			correct++
		}
		answers = append(answers, domain.UserAnswer{
			ID:         uuid.NewString(),
			UserID:     result.UserID,
			SessionID:  result.SessionID,
			QuestionID: question.ID,
			ChoiceID:   choice.ID,
			IsCorrect:  isCorrect,
			CreatedAt:  now,
		})
	}

	raw := e.rawScore(answered, correct)
	result.TotalAnswered = answered
	result.TotalCorrect = correct
	result.Total = raw
	result.Score = e.moderate(raw)

	if err := e.results.SaveScore(ctx, result, answers); err != nil {
		return fmt.Errorf("save score for result %s: %w", resultID, err)
	}
	return nil
}

// rawScore is the weighted participation/correctness score scaled to 0-100.
func (e *Engine) rawScore(answered, correct int) float64 {
	n := float64(e.weights.QuestionsPerSession)
	weighted := e.weights.AnsweredWeight*(float64(answered)/n) + e.weights.CorrectWeight*(float64(correct)/n)
	return weighted * 100
}

// moderate linearly rescales a 0-100 raw score into the configured band.
func (e *Engine) moderate(raw float64) float64 {
	return (raw/100)*(e.weights.ModeratedHighest-e.weights.ModeratedLowest) + e.weights.ModeratedLowest
}
