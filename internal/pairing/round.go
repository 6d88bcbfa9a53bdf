package pairing

import (
	"sort"

	"duo-trivia-service/internal/domain"
)

// Round is the immutable snapshot one pairing pass works from. All stages
// read from it; nothing carries state between passes.
type Round struct {
	Category string
	// Queue holds every active result in the category, ordered ascending by
	// exits_at. This is the iteration order of the resolver walk.
	Queue []domain.Result
	// ByScore is the same set ordered ascending by score, the order the
	// exclusion bands slice against.
	ByScore []domain.Result

	Skewness    float64
	BottomCount int
	TopCount    int

	// ToPair is the middle slice of ByScore left after band exclusion.
	ToPair []domain.Result

	excluded map[string]struct{}
}

// NewRound characterises the category queue and partitions it for pairing.
// queue must already be ordered ascending by exits_at.
func NewRound(category string, queue []domain.Result) Round {
	byScore := make([]domain.Result, len(queue))
	copy(byScore, queue)
	sort.SliceStable(byScore, func(i, j int) bool {
		return byScore[i].Score < byScore[j].Score
	})

	scores := make([]float64, len(byScore))
	for i := range byScore {
		scores[i] = byScore[i].Score
	}

	skew := Skewness(scores)
	bottom, top := ExclusionBands(skew, len(byScore))
	toPair, toExclude := partition(byScore, bottom, top)

	excluded := make(map[string]struct{}, len(toExclude))
	for i := range toExclude {
		excluded[toExclude[i].ID] = struct{}{}
	}

	return Round{
		Category:    category,
		Queue:       queue,
		ByScore:     byScore,
		Skewness:    skew,
		BottomCount: bottom,
		TopCount:    top,
		ToPair:      toPair,
		excluded:    excluded,
	}
}

// IsExcluded reports whether a result sits in this round's exclusion bands.
func (r Round) IsExcluded(resultID string) bool {
	_, ok := r.excluded[resultID]
	return ok
}

// ExcludedCount returns how many results the bands withheld this round.
func (r Round) ExcludedCount() int {
	return len(r.excluded)
}

// partition slices the score-ordered queue into the pairable middle band
// and the excluded tails. When the bands cover the whole population the
// pairable slice is empty and everything is excluded for the round.
func partition(byScore []domain.Result, bottom, top int) (toPair, toExclude []domain.Result) {
	n := len(byScore)
	if bottom+top >= n {
		return nil, byScore
	}
	toExclude = make([]domain.Result, 0, bottom+top)
	toExclude = append(toExclude, byScore[:bottom]...)
	toExclude = append(toExclude, byScore[n-top:]...)
	return byScore[bottom : n-top], toExclude
}
