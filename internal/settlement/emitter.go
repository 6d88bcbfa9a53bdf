// Package settlement turns pairing outcomes into durable financial events.
// Creating the duo session record and the ledger credits is one atomic
// commit; notifications follow best-effort after the commit succeeds.
package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"duo-trivia-service/internal/domain"
	"duo-trivia-service/internal/ledger"
	"duo-trivia-service/internal/notify"
	"duo-trivia-service/internal/pairing"
)

// Store commits one settled unit atomically: the duo session insert, the
// ledger credits (idempotent on their external IDs), and the deactivation
// of the member results. Either all of it lands or none of it does.
type Store interface {
	CommitSettlement(ctx context.Context, ds domain.DuoSession, credits []ledger.Entry, resultIDs []string) error
}

// Ratios are the payout multipliers applied to a result's stake. All
// payouts are floored; the house never rounds up.
type Ratios struct {
	PartialRefund decimal.Decimal
	Refund        decimal.Decimal
	Win           decimal.Decimal
}

type Emitter struct {
	store    Store
	notifier notify.Notifier
	ratios   Ratios
	log      *zap.Logger
	now      func() time.Time
}

func NewEmitter(store Store, notifier notify.Notifier, ratios Ratios, log *zap.Logger) *Emitter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Emitter{
		store:    store,
		notifier: notifier,
		ratios:   ratios,
		log:      log,
		now:      time.Now,
	}
}

// WithClock overrides the emitter clock for deterministic tests.
func (e *Emitter) WithClock(now func() time.Time) *Emitter {
	e.now = now
	return e
}

// Settle resolves one outcome. The duo session ID seeds the idempotency
// keys of every credit, so a retried settlement cannot double-pay.
func (e *Emitter) Settle(ctx context.Context, outcome pairing.Outcome) error {
	ds := domain.DuoSession{
		ID:        uuid.NewString(),
		PartyA:    outcome.Target.UserID,
		SessionID: outcome.Target.SessionID,
		Category:  outcome.Target.Category,
		Amount:    outcome.Target.Stake,
		CreatedAt: e.now(),
	}

	var credits []ledger.Entry
	var notifications []notify.Notification

	switch outcome.Kind {
	case pairing.OutcomePartialRefund:
		ds.Status = domain.StatusPartiallyRefunded
		amount := e.ratios.PartialRefund.Mul(outcome.Target.Stake).Floor()
		credits = append(credits, creditEntry(ds.ID, outcome.Target.UserID, ledger.Refund, amount,
			"partial refund: no questions answered"))
		notifications = append(notifications, notify.Notification{
			UserID:  outcome.Target.UserID,
			Type:    "pairing.partial_refund",
			Title:   "Partial refund issued",
			Message: fmt.Sprintf("You answered no questions this round, so %s was returned to your wallet.", amount.StringFixed(2)),
		})

	case pairing.OutcomeFullRefund:
		ds.Status = domain.StatusRefunded
		amount := e.ratios.Refund.Mul(outcome.Target.Stake).Floor()
		credits = append(credits, creditEntry(ds.ID, outcome.Target.UserID, ledger.Refund, amount,
			"refund: no opponent available"))
		notifications = append(notifications, notify.Notification{
			UserID:  outcome.Target.UserID,
			Type:    "pairing.refund",
			Title:   "Stake refunded",
			Message: fmt.Sprintf("We could not find you an opponent this round; %s was returned to your wallet.", amount.StringFixed(2)),
		})

	case pairing.OutcomePaired:
		if outcome.Opponent == nil || outcome.Winner == nil {
			return fmt.Errorf("paired outcome for result %s missing opponent or winner", outcome.Target.ID)
		}
		ds.Status = domain.StatusPaired
		partyB := outcome.Opponent.UserID
		winnerID := outcome.Winner.UserID
		ds.PartyB = &partyB
		ds.WinnerID = &winnerID

		amount := e.ratios.Win.Mul(outcome.Target.Stake).Floor()
		credits = append(credits, creditEntry(ds.ID, winnerID, ledger.Reward, amount,
			"duo session win"))

		loserID := outcome.Target.UserID
		if winnerID == loserID {
			loserID = outcome.Opponent.UserID
		}
		notifications = append(notifications,
			notify.Notification{
				UserID:  winnerID,
				Type:    "pairing.win",
				Title:   "You won your duo session!",
				Message: fmt.Sprintf("Your score beat your opponent's. %s has been credited to your wallet.", amount.StringFixed(2)),
			},
			notify.Notification{
				UserID:  loserID,
				Type:    "pairing.loss",
				Title:   "Duo session result",
				Message: "Your opponent scored higher this time. Better luck in the next round.",
			},
		)

	default:
		return fmt.Errorf("unknown outcome kind %q for result %s", outcome.Kind, outcome.Target.ID)
	}

	if err := e.store.CommitSettlement(ctx, ds, credits, outcome.ResultIDs()); err != nil {
		return fmt.Errorf("commit settlement %s: %w", ds.ID, err)
	}

	for _, n := range notifications {
		if err := e.notifier.Notify(ctx, n); err != nil {
			e.log.Warn("notification delivery failed",
				zap.String("user_id", n.UserID),
				zap.String("type", n.Type),
				zap.Error(err),
			)
		}
	}
	return nil
}

func creditEntry(duoSessionID, userID string, typ ledger.Type, amount decimal.Decimal, description string) ledger.Entry {
	return ledger.Entry{
		UserID:      userID,
		Direction:   ledger.Inward,
		Type:        typ,
		Amount:      amount,
		Description: description,
		ExternalID:  duoSessionID + ":" + userID,
	}
}
