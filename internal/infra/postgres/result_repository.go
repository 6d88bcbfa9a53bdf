package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"duo-trivia-service/internal/domain"
	"duo-trivia-service/internal/ledger"
)

// ResultRepository is the bun-backed store for results, user answers and
// duo sessions.
type ResultRepository struct {
	db *bun.DB
}

func NewResultRepository(db *bun.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// ActiveByCategory returns the category's active results ordered ascending
// by exits_at, ties broken by ID so the order is stable. Band slicing
// depends on this ordering.
func (r *ResultRepository) ActiveByCategory(ctx context.Context, category string) ([]domain.Result, error) {
	var results []domain.Result
	err := r.db.NewSelect().
		Model(&results).
		Where("r.category = ?", category).
		Where("r.is_active").
		Order("r.exits_at ASC", "r.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select active results: %w", err)
	}
	return results, nil
}

// PairedUserPairsSince lists the user pairs of PAIRED duo sessions created
// at or after since, for the anti-collusion window.
func (r *ResultRepository) PairedUserPairsSince(ctx context.Context, since time.Time) ([][2]string, error) {
	var rows []domain.DuoSession
	err := r.db.NewSelect().
		Model(&rows).
		Column("ds.party_a", "ds.party_b").
		Where("ds.status = ?", domain.StatusPaired).
		Where("ds.party_b IS NOT NULL").
		Where("ds.created_at >= ?", since).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select recent pairs: %w", err)
	}
	pairs := make([][2]string, 0, len(rows))
	for _, row := range rows {
		if row.PartyB == nil {
			continue
		}
		pairs = append(pairs, [2]string{row.PartyA, *row.PartyB})
	}
	return pairs, nil
}

// Result loads one result by ID.
func (r *ResultRepository) Result(ctx context.Context, id string) (domain.Result, error) {
	var result domain.Result
	err := r.db.NewSelect().Model(&result).Where("r.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Result{}, domain.ErrResultNotFound
	}
	if err != nil {
		return domain.Result{}, fmt.Errorf("select result: %w", err)
	}
	return result, nil
}

// InsertResult creates a new attempt record.
func (r *ResultRepository) InsertResult(ctx context.Context, result domain.Result) error {
	if _, err := r.db.NewInsert().Model(&result).Exec(ctx); err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

// SaveScore writes the graded totals onto the result and appends its answer
// rows in one transaction, so a failed write never leaves partial credit.
func (r *ResultRepository) SaveScore(ctx context.Context, result domain.Result, answers []domain.UserAnswer) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model(&result).
			Column("total_answered", "total_correct", "total", "score").
			WherePK().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("update result score: %w", err)
		}
		if affected, err := res.RowsAffected(); err == nil && affected == 0 {
			return domain.ErrResultNotFound
		}
		if len(answers) > 0 {
			if _, err := tx.NewInsert().Model(&answers).Exec(ctx); err != nil {
				return fmt.Errorf("insert user answers: %w", err)
			}
		}
		return nil
	})
}

// CommitSettlement persists one settled unit atomically: the duo session,
// its ledger credits and the deactivation of the member results. Credits
// conflict-skip on external_id so a retried commit cannot double-pay.
func (r *ResultRepository) CommitSettlement(ctx context.Context, ds domain.DuoSession, credits []ledger.Entry, resultIDs []string) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&ds).Exec(ctx); err != nil {
			return fmt.Errorf("insert duo session: %w", err)
		}
		for _, credit := range credits {
			row := transactionRowFromEntry(credit, ds.CreatedAt)
			_, err := tx.NewInsert().
				Model(&row).
				On("CONFLICT (external_id) DO NOTHING").
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("insert ledger transaction: %w", err)
			}
		}
		if len(resultIDs) > 0 {
			_, err := tx.NewUpdate().
				Model((*domain.Result)(nil)).
				Set("is_active = FALSE").
				Where("id IN (?)", bun.In(resultIDs)).
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("deactivate results: %w", err)
			}
		}
		return nil
	})
}
