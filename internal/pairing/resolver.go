package pairing

import (
	"math"
	"time"

	"duo-trivia-service/internal/domain"
)

// OutcomeKind classifies how a result left the active pool.
type OutcomeKind string

const (
	OutcomePaired        OutcomeKind = "paired"
	OutcomeFullRefund    OutcomeKind = "full_refund"
	OutcomePartialRefund OutcomeKind = "partial_refund"
)

// Outcome describes one settled unit produced by a round: a single refunded
// result, or a matched pair with its winner.
type Outcome struct {
	Kind     OutcomeKind
	Target   domain.Result
	Opponent *domain.Result
	Winner   *domain.Result
}

// ResultIDs lists the results this outcome consumes.
func (o Outcome) ResultIDs() []string {
	ids := []string{o.Target.ID}
	if o.Opponent != nil {
		ids = append(ids, o.Opponent.ID)
	}
	return ids
}

// resolveRound walks the exit-time-ordered queue once and decides every
// result: pair, refund, or leave active for a later round. Results consumed
// as an opponent earlier in the walk are skipped.
//
// A result whose player answered nothing is partially refunded before any
// readiness check applies; it has nothing to wait for.
func resolveRound(r Round, now time.Time, lookahead time.Duration, recentlyPaired func(userA, userB string) bool) []Outcome {
	consumed := make(map[string]struct{}, len(r.Queue))
	var outcomes []Outcome

	for i := range r.Queue {
		target := r.Queue[i]
		if _, done := consumed[target.ID]; done {
			continue
		}

		if target.TotalAnswered == 0 {
			consumed[target.ID] = struct{}{}
			outcomes = append(outcomes, Outcome{Kind: OutcomePartialRefund, Target: target})
			continue
		}

		if !isReadyForPairing(target, now, lookahead) {
			continue
		}

		if isFullRefund(target, now, r) {
			consumed[target.ID] = struct{}{}
			outcomes = append(outcomes, Outcome{Kind: OutcomeFullRefund, Target: target})
			continue
		}

		opponent := findClosest(target, r.ToPair, consumed, recentlyPaired)
		if opponent == nil {
			// No admissible opponent this pass; the result stays active
			// and is retried on the next tick.
			continue
		}

		consumed[target.ID] = struct{}{}
		consumed[opponent.ID] = struct{}{}
		winner := winnerOf(target, *opponent)
		outcomes = append(outcomes, Outcome{
			Kind:     OutcomePaired,
			Target:   target,
			Opponent: opponent,
			Winner:   winner,
		})
	}
	return outcomes
}

// isReadyForPairing reports whether the result is due, or due within the
// lookahead window. The window boundary is inclusive.
func isReadyForPairing(res domain.Result, now time.Time, lookahead time.Duration) bool {
	return !res.ExitsAt.After(now.Add(lookahead))
}

// isFullRefund holds for hard-overdue results and for results the current
// round's bands excluded: neither should be left dangling once due.
func isFullRefund(res domain.Result, now time.Time, r Round) bool {
	return res.ExitsAt.Before(now) || r.IsExcluded(res.ID)
}

// findClosest returns the unconsumed pool candidate with the smallest
// absolute score distance from target, or nil when none is admissible.
// Exact score ties are not pairable, a player never faces themselves or an
// opponent who answered nothing, and recently paired users are kept apart.
// Equidistant candidates break ties by earliest exits_at, then ID.
func findClosest(target domain.Result, pool []domain.Result, consumed map[string]struct{}, recentlyPaired func(userA, userB string) bool) *domain.Result {
	var best *domain.Result
	var bestDist float64

	for i := range pool {
		candidate := &pool[i]
		if candidate.ID == target.ID {
			continue
		}
		if _, done := consumed[candidate.ID]; done {
			continue
		}
		if candidate.TotalAnswered == 0 {
			continue
		}
		if candidate.UserID == target.UserID {
			continue
		}
		if candidate.Score == target.Score {
			continue
		}
		if recentlyPaired != nil && recentlyPaired(target.UserID, candidate.UserID) {
			continue
		}

		dist := math.Abs(candidate.Score - target.Score)
		switch {
		case best == nil, dist < bestDist:
			best, bestDist = candidate, dist
		case dist == bestDist && earlierOf(candidate, best) == candidate:
			best = candidate
		}
	}
	return best
}

// winnerOf picks the higher-scoring result. Exact ties cannot reach this
// point through the matcher, but the earlier exits_at wins one regardless so
// the function stays total.
func winnerOf(a, b domain.Result) *domain.Result {
	if a.Score > b.Score {
		return &a
	}
	if b.Score > a.Score {
		return &b
	}
	return earlierOf(&a, &b)
}

func earlierOf(a, b *domain.Result) *domain.Result {
	if a.ExitsAt.Before(b.ExitsAt) {
		return a
	}
	if b.ExitsAt.Before(a.ExitsAt) {
		return b
	}
	if a.ID < b.ID {
		return a
	}
	return b
}
