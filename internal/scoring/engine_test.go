package scoring_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duo-trivia-service/internal/domain"
	"duo-trivia-service/internal/infra/memory"
	"duo-trivia-service/internal/scoring"
)

var scoringNow = time.Date(2025, 8, 11, 12, 0, 0, 0, time.UTC)

func testWeights() scoring.Weights {
	return scoring.Weights{
		QuestionsPerSession: 2,
		AnsweredWeight:      0.3,
		CorrectWeight:       0.7,
		ModeratedLowest:     35,
		ModeratedHighest:    95,
		SubmissionBuffer:    30 * time.Second,
	}
}

func testContent() *memory.StaticContentStore {
	return memory.NewStaticContentStore(map[string]domain.SessionContent{
		"session-1": {
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
				{
					ID:     "q2",
					Prompt: "Largest planet?",
					Choices: []domain.Choice{
						{ID: "c3", Text: "Jupiter"},
						{ID: "c4", Text: "Mars"},
					},
					AnswerChoiceID: "c3",
				},
			},
		},
	})
}

func newScoringFixture(t *testing.T) (*scoring.Engine, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	engine := scoring.NewEngine(store, testContent(), testWeights(), nil).
		WithClock(func() time.Time { return scoringNow })
	require.NoError(t, store.InsertResult(context.Background(), domain.Result{
		ID:        "res-1",
		UserID:    "u1",
		SessionID: "session-1",
		Category:  "general",
		Stake:     decimal.NewFromInt(100),
		ExpiresAt: scoringNow.Add(time.Minute),
		ExitsAt:   scoringNow.Add(2 * time.Minute),
		IsActive:  true,
	}))
	return engine, store
}

func TestCalculateScoreOneCorrectOneBlank(t *testing.T) {
	ctx := context.Background()
	engine, store := newScoringFixture(t)

	err := engine.CalculateScore(ctx, "res-1", "u1", []scoring.ChoiceSubmission{
		{QuestionID: "q1", ChoiceText: "Nairobi"},
		{QuestionID: "q2", ChoiceText: ""},
	})
	require.NoError(t, err)

	result, err := store.Result(ctx, "res-1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalAnswered)
	assert.Equal(t, 1, result.TotalCorrect)
	// raw = (0.3 + 0.7) * 0.5 * 100 = 50; moderated = 0.5*(95-35) + 35 = 65.
	assert.InDelta(t, 50, result.Total, 1e-9)
	assert.InDelta(t, 65, result.Score, 1e-9)

	answers := store.UserAnswers()
	require.Len(t, answers, 1)
	assert.Equal(t, "q1", answers[0].QuestionID)
	assert.Equal(t, "c1", answers[0].ChoiceID)
	assert.True(t, answers[0].IsCorrect)
}

func TestCalculateScoreWrongAnswerCountsAnsweredOnly(t *testing.T) {
	ctx := context.Background()
	engine, store := newScoringFixture(t)

	err := engine.CalculateScore(ctx, "res-1", "u1", []scoring.ChoiceSubmission{
		{QuestionID: "q1", ChoiceText: "Mombasa"},
		{QuestionID: "q2", ChoiceText: "Jupiter"},
	})
	require.NoError(t, err)

	result, err := store.Result(ctx, "res-1")
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalAnswered)
	assert.Equal(t, 1, result.TotalCorrect)
	// raw = (0.3*1 + 0.7*0.5) * 100 = 65; moderated = 0.65*60 + 35 = 74.
	assert.InDelta(t, 65, result.Total, 1e-9)
	assert.InDelta(t, 74, result.Score, 1e-9)
}

func TestCalculateScoreFiltersNullSentinel(t *testing.T) {
	ctx := context.Background()
	engine, store := newScoringFixture(t)

	err := engine.CalculateScore(ctx, "res-1", "u1", []scoring.ChoiceSubmission{
		{QuestionID: "q1", ChoiceText: "null"},
		{QuestionID: "q2", ChoiceText: ""},
	})
	require.NoError(t, err)

	result, err := store.Result(ctx, "res-1")
	require.NoError(t, err)
	assert.Zero(t, result.TotalAnswered)
	assert.Zero(t, result.TotalCorrect)
	assert.Zero(t, result.Total)
	// Even an all-blank submission gets the moderated floor.
	assert.InDelta(t, 35, result.Score, 1e-9)
	assert.Empty(t, store.UserAnswers())
}

func TestCalculateScoreDropsLateSubmission(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	engine := scoring.NewEngine(store, testContent(), testWeights(), nil).
		WithClock(func() time.Time { return scoringNow })

	// Expired more than the buffer ago.
	require.NoError(t, store.InsertResult(ctx, domain.Result{
		ID:        "res-late",
		UserID:    "u1",
		SessionID: "session-1",
		Category:  "general",
		ExpiresAt: scoringNow.Add(-time.Minute),
		ExitsAt:   scoringNow,
		IsActive:  true,
	}))

	err := engine.CalculateScore(ctx, "res-late", "u1", []scoring.ChoiceSubmission{
		{QuestionID: "q1", ChoiceText: "Nairobi"},
	})
	require.NoError(t, err)

	// The result keeps its defaults; the answer is not recorded.
	result, err := store.Result(ctx, "res-late")
	require.NoError(t, err)
	assert.Zero(t, result.TotalAnswered)
	assert.Zero(t, result.Score)
	assert.Empty(t, store.UserAnswers())
}

func TestCalculateScoreWithinBufferStillGraded(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	engine := scoring.NewEngine(store, testContent(), testWeights(), nil).
		WithClock(func() time.Time { return scoringNow })

	// Expired, but inside the grace buffer.
	require.NoError(t, store.InsertResult(ctx, domain.Result{
		ID:        "res-grace",
		UserID:    "u1",
		SessionID: "session-1",
		Category:  "general",
		ExpiresAt: scoringNow.Add(-10 * time.Second),
		ExitsAt:   scoringNow.Add(time.Minute),
		IsActive:  true,
	}))

	err := engine.CalculateScore(ctx, "res-grace", "u1", []scoring.ChoiceSubmission{
		{QuestionID: "q1", ChoiceText: "Nairobi"},
	})
	require.NoError(t, err)

	result, err := store.Result(ctx, "res-grace")
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalAnswered)
}

func TestCalculateScoreUnknownQuestionFails(t *testing.T) {
	ctx := context.Background()
	engine, store := newScoringFixture(t)

	err := engine.CalculateScore(ctx, "res-1", "u1", []scoring.ChoiceSubmission{
		{QuestionID: "q-missing", ChoiceText: "Nairobi"},
	})
	assert.ErrorIs(t, err, domain.ErrQuestionNotFound)

	// No partial write happened.
	result, err := store.Result(ctx, "res-1")
	require.NoError(t, err)
	assert.Zero(t, result.TotalAnswered)
	assert.Empty(t, store.UserAnswers())
}

func TestCalculateScoreUnknownChoiceFails(t *testing.T) {
	ctx := context.Background()
	engine, _ := newScoringFixture(t)

	err := engine.CalculateScore(ctx, "res-1", "u1", []scoring.ChoiceSubmission{
		{QuestionID: "q1", ChoiceText: "Kisumu"},
	})
	assert.ErrorIs(t, err, domain.ErrChoiceNotFound)
}

func TestCalculateScoreRejectsWrongUser(t *testing.T) {
	ctx := context.Background()
	engine, _ := newScoringFixture(t)

	err := engine.CalculateScore(ctx, "res-1", "u2", nil)
	assert.ErrorIs(t, err, domain.ErrResultMismatch)
}

func TestCalculateScoreMissingResult(t *testing.T) {
	ctx := context.Background()
	engine, _ := newScoringFixture(t)

	err := engine.CalculateScore(ctx, "res-missing", "u1", nil)
	assert.ErrorIs(t, err, domain.ErrResultNotFound)
}
