package pairing

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duo-trivia-service/internal/domain"
)

func makeQueue(scores ...float64) []domain.Result {
	base := time.Date(2025, 8, 11, 12, 0, 0, 0, time.UTC)
	results := make([]domain.Result, len(scores))
	for i, score := range scores {
		results[i] = domain.Result{
			ID:            fmt.Sprintf("res-%02d", i),
			UserID:        fmt.Sprintf("user-%02d", i),
			SessionID:     "session-1",
			Category:      "general",
			TotalAnswered: 3,
			Score:         score,
			ExitsAt:       base.Add(time.Duration(i) * time.Minute),
			IsActive:      true,
		}
	}
	return results
}

func TestPartitionProperty(t *testing.T) {
	for _, size := range []int{5, 10, 25, 60} {
		scores := make([]float64, size)
		for i := range scores {
			scores[i] = float64(30 + i)
		}
		byScore := makeQueue(scores...)

		bottom, top := 2, 3
		toPair, toExclude := partition(byScore, bottom, top)

		require.Len(t, toExclude, bottom+top)
		require.Len(t, toPair, size-bottom-top)
		// toPair is exactly the middle slice of the score ordering.
		assert.Equal(t, byScore[bottom:size-top], toPair)
		assert.Equal(t, byScore[:bottom], toExclude[:bottom])
		assert.Equal(t, byScore[size-top:], toExclude[bottom:])
	}
}

func TestPartitionBandsCoverPopulation(t *testing.T) {
	byScore := makeQueue(10, 20, 30)
	toPair, toExclude := partition(byScore, 2, 2)
	assert.Empty(t, toPair)
	assert.Len(t, toExclude, 3)
}

func TestNewRoundOrdersAndExcludes(t *testing.T) {
	// Queue arrives in exits_at order with scores out of order.
	queue := makeQueue(50, 90, 40, 70, 60, 80, 45, 75, 55, 65)
	round := NewRound("general", queue)

	require.Len(t, round.ByScore, len(queue))
	for i := 1; i < len(round.ByScore); i++ {
		assert.LessOrEqual(t, round.ByScore[i-1].Score, round.ByScore[i].Score)
	}
	assert.Equal(t, queue, round.Queue)

	assert.Len(t, round.ToPair, len(queue)-round.BottomCount-round.TopCount)
	assert.Equal(t, round.BottomCount+round.TopCount, round.ExcludedCount())

	// Lowest and highest scorers sit in the bands.
	if round.BottomCount > 0 {
		assert.True(t, round.IsExcluded(round.ByScore[0].ID))
	}
	if round.TopCount > 0 {
		assert.True(t, round.IsExcluded(round.ByScore[len(round.ByScore)-1].ID))
	}
}

func TestNewRoundStableScoreOrdering(t *testing.T) {
	// Equal scores keep their exits_at ordering in the score partition.
	queue := makeQueue(60, 60, 60, 50, 70)
	round := NewRound("general", queue)

	var equalIDs []string
	for _, r := range round.ByScore {
		if r.Score == 60 {
			equalIDs = append(equalIDs, r.ID)
		}
	}
	assert.Equal(t, []string{"res-00", "res-01", "res-02"}, equalIDs)
}

func TestNewRoundEmptyQueue(t *testing.T) {
	round := NewRound("general", nil)
	assert.Zero(t, round.Skewness)
	assert.Empty(t, round.ToPair)
	assert.Zero(t, round.ExcludedCount())
}
