// Package memory provides in-process implementations of the service's
// stores, used in unit tests and local runs without Postgres.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"duo-trivia-service/internal/domain"
	"duo-trivia-service/internal/ledger"
)

// Store holds results, user answers, duo sessions and ledger transactions
// behind one mutex, mirroring the single shared mutable resource the
// Postgres store represents.
type Store struct {
	mu           sync.RWMutex
	results      map[string]domain.Result
	answers      []domain.UserAnswer
	duoSessions  []domain.DuoSession
	transactions map[string]storedTransaction // keyed by external ID
}

type storedTransaction struct {
	ID    string
	Entry ledger.Entry
	At    time.Time
}

func NewStore() *Store {
	return &Store{
		results:      make(map[string]domain.Result),
		transactions: make(map[string]storedTransaction),
	}
}

// InsertResult seeds an attempt record.
func (s *Store) InsertResult(_ context.Context, result domain.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.ID] = result
	return nil
}

// Result loads one result by ID.
func (s *Store) Result(_ context.Context, id string) (domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.results[id]
	if !ok {
		return domain.Result{}, domain.ErrResultNotFound
	}
	return result, nil
}

// SaveScore persists graded totals and appends answer rows.
func (s *Store) SaveScore(_ context.Context, result domain.Result, answers []domain.UserAnswer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.results[result.ID]; !ok {
		return domain.ErrResultNotFound
	}
	s.results[result.ID] = result
	s.answers = append(s.answers, answers...)
	return nil
}

// ActiveByCategory returns active results ordered by exits_at, then ID.
func (s *Store) ActiveByCategory(_ context.Context, category string) ([]domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var queue []domain.Result
	for _, result := range s.results {
		if result.Category == category && result.IsActive {
			queue = append(queue, result)
		}
	}
	sort.Slice(queue, func(i, j int) bool {
		if !queue[i].ExitsAt.Equal(queue[j].ExitsAt) {
			return queue[i].ExitsAt.Before(queue[j].ExitsAt)
		}
		return queue[i].ID < queue[j].ID
	})
	return queue, nil
}

// PairedUserPairsSince lists user pairs of PAIRED duo sessions created at
// or after since.
func (s *Store) PairedUserPairsSince(_ context.Context, since time.Time) ([][2]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var pairs [][2]string
	for _, ds := range s.duoSessions {
		if ds.Status != domain.StatusPaired || ds.PartyB == nil || ds.CreatedAt.Before(since) {
			continue
		}
		pairs = append(pairs, [2]string{ds.PartyA, *ds.PartyB})
	}
	return pairs, nil
}

// CommitSettlement applies one settled unit atomically under the store lock.
func (s *Store) CommitSettlement(_ context.Context, ds domain.DuoSession, credits []ledger.Entry, resultIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.duoSessions = append(s.duoSessions, ds)
	for _, credit := range credits {
		if _, exists := s.transactions[credit.ExternalID]; exists {
			continue
		}
		s.transactions[credit.ExternalID] = storedTransaction{
			ID:    uuid.NewString(),
			Entry: credit,
			At:    ds.CreatedAt,
		}
	}
	for _, id := range resultIDs {
		result, ok := s.results[id]
		if !ok {
			continue
		}
		result.IsActive = false
		s.results[id] = result
	}
	return nil
}

// Record implements ledger.Recorder.
func (s *Store) Record(_ context.Context, entry ledger.Entry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.transactions[entry.ExternalID]; ok {
		return existing.ID, nil
	}
	tx := storedTransaction{ID: uuid.NewString(), Entry: entry, At: time.Now()}
	s.transactions[entry.ExternalID] = tx
	return tx.ID, nil
}

// UserBalance implements ledger.Recorder.
func (s *Store) UserBalance(_ context.Context, userID string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	balance := decimal.Zero
	for _, tx := range s.transactions {
		if tx.Entry.UserID != userID {
			continue
		}
		if tx.Entry.Direction == ledger.Inward {
			balance = balance.Add(tx.Entry.Amount)
		} else {
			balance = balance.Sub(tx.Entry.Amount)
		}
	}
	return balance, nil
}

// DuoSessions snapshots the settlement records, for assertions.
func (s *Store) DuoSessions() []domain.DuoSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.DuoSession, len(s.duoSessions))
	copy(out, s.duoSessions)
	return out
}

// UserAnswers snapshots the recorded answer rows, for assertions.
func (s *Store) UserAnswers() []domain.UserAnswer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.UserAnswer, len(s.answers))
	copy(out, s.answers)
	return out
}
