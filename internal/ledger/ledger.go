// Package ledger defines the narrow wallet interface the pairing core
// consumes. The core only ever records transactions; it never mutates a
// balance directly.
package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

type Direction string

const (
	Inward  Direction = "INWARD"
	Outward Direction = "OUTWARD"
)

type Type string

const (
	Reward     Type = "REWARD"
	Refund     Type = "REFUND"
	Withdrawal Type = "WITHDRAWAL"
	Deposit    Type = "DEPOSIT"
	Bonus      Type = "BONUS"
)

// Entry is one wallet movement. ExternalID is the idempotency key: a
// recorder must treat a repeated ExternalID as already applied.
type Entry struct {
	UserID      string
	Direction   Direction
	Type        Type
	Amount      decimal.Decimal
	Description string
	ExternalID  string
}

// Recorder persists wallet movements and answers balance queries.
type Recorder interface {
	Record(ctx context.Context, entry Entry) (transactionID string, err error)
	UserBalance(ctx context.Context, userID string) (decimal.Decimal, error)
}
