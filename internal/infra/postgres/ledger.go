package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"duo-trivia-service/internal/ledger"
)

// transactionRow is the append-only wallet movement table. external_id is
// unique: replays of the same settlement are no-ops.
type transactionRow struct {
	bun.BaseModel `bun:"table:transactions,alias:t"`

	ID          string          `bun:"id,pk"`
	UserID      string          `bun:"user_id,notnull"`
	Direction   string          `bun:"direction,notnull"`
	Type        string          `bun:"type,notnull"`
	Amount      decimal.Decimal `bun:"amount,notnull,type:numeric(12,2)"`
	Description string          `bun:"description"`
	ExternalID  string          `bun:"external_id,notnull,unique"`
	CreatedAt   time.Time       `bun:"created_at,notnull,default:current_timestamp"`
}

func transactionRowFromEntry(entry ledger.Entry, at time.Time) transactionRow {
	return transactionRow{
		ID:          uuid.NewString(),
		UserID:      entry.UserID,
		Direction:   string(entry.Direction),
		Type:        string(entry.Type),
		Amount:      entry.Amount,
		Description: entry.Description,
		ExternalID:  entry.ExternalID,
		CreatedAt:   at,
	}
}

// Ledger is the bun-backed ledger.Recorder.
type Ledger struct {
	db *bun.DB
}

func NewLedger(db *bun.DB) *Ledger {
	return &Ledger{db: db}
}

func (l *Ledger) Record(ctx context.Context, entry ledger.Entry) (string, error) {
	row := transactionRowFromEntry(entry, time.Now())
	_, err := l.db.NewInsert().
		Model(&row).
		On("CONFLICT (external_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return "", fmt.Errorf("record transaction: %w", err)
	}
	return row.ID, nil
}

// UserBalance sums the user's signed movements.
func (l *Ledger) UserBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	var raw string
	err := l.db.NewSelect().
		Model((*transactionRow)(nil)).
		ColumnExpr("COALESCE(SUM(CASE WHEN direction = ? THEN amount ELSE -amount END), 0)", string(ledger.Inward)).
		Where("user_id = ?", userID).
		Scan(ctx, &raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum balance: %w", err)
	}
	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse balance %q: %w", raw, err)
	}
	return balance, nil
}
