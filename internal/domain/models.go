package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Choice is one selectable answer option for a question.
type Choice struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question is a prompt with exactly one correct choice.
type Question struct {
	ID             string   `json:"id"`
	Prompt         string   `json:"prompt"`
	Choices        []Choice `json:"choices"`
	AnswerChoiceID string   `json:"answerChoiceId"`
}

// SessionContent is the immutable quiz bundle a player attempts: a category
// plus a fixed-size ordered list of questions. Loaded from the session store,
// never mutated after seeding.
type SessionContent struct {
	ID        string     `json:"id"`
	Category  string     `json:"category"`
	Questions []Question `json:"questions"`
}

// QuestionByID returns the question with the given ID, if present.
func (c SessionContent) QuestionByID(id string) (Question, bool) {
	for i := range c.Questions {
		if c.Questions[i].ID == id {
			return c.Questions[i], true
		}
	}
	return Question{}, false
}

// ChoiceByText matches a submitted free-text choice against the question's
// options.
func (q Question) ChoiceByText(text string) (Choice, bool) {
	for i := range q.Choices {
		if q.Choices[i].Text == text {
			return q.Choices[i], true
		}
	}
	return Choice{}, false
}

// Result is one player's attempt at one session: the unit of pairing.
// Created when the player requests a quiz, scored on submission, resolved
// exactly once by settlement. Never deleted.
type Result struct {
	bun.BaseModel `bun:"table:results,alias:r"`

	ID            string          `bun:"id,pk"`
	UserID        string          `bun:"user_id,notnull"`
	SessionID     string          `bun:"session_id,notnull"`
	Category      string          `bun:"category,notnull"`
	TotalAnswered int             `bun:"total_answered,notnull,default:0"`
	TotalCorrect  int             `bun:"total_correct,notnull,default:0"`
	Total         float64         `bun:"total,notnull,default:0"`
	Score         float64         `bun:"score,notnull,default:0"`
	Stake         decimal.Decimal `bun:"stake,notnull,type:numeric(12,2)"`
	ExpiresAt     time.Time       `bun:"expires_at,notnull"`
	ExitsAt       time.Time       `bun:"exits_at,notnull"`
	IsActive      bool            `bun:"is_active,notnull,default:true"`
	CreatedAt     time.Time       `bun:"created_at,notnull,default:current_timestamp"`
}

// UserAnswer is an append-only record of one answered question, kept so
// correctness can be audited or recomputed.
type UserAnswer struct {
	bun.BaseModel `bun:"table:user_answers,alias:ua"`

	ID         string    `bun:"id,pk"`
	UserID     string    `bun:"user_id,notnull"`
	SessionID  string    `bun:"session_id,notnull"`
	QuestionID string    `bun:"question_id,notnull"`
	ChoiceID   string    `bun:"choice_id,notnull"`
	IsCorrect  bool      `bun:"is_correct,notnull,default:false"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// DuoSessionStatus is the terminal state of a settled result (or pair).
type DuoSessionStatus string

const (
	StatusPaired            DuoSessionStatus = "PAIRED"
	StatusRefunded          DuoSessionStatus = "REFUNDED"
	StatusPartiallyRefunded DuoSessionStatus = "PARTIALLY_REFUNDED"
)

// DuoSession is the immutable settlement record of a pairing decision.
// Exactly one exists per settled result (or pair of results); creating it is
// the durable commit point for the associated ledger credits.
type DuoSession struct {
	bun.BaseModel `bun:"table:duo_sessions,alias:ds"`

	ID        string           `bun:"id,pk"`
	PartyA    string           `bun:"party_a,notnull"`
	PartyB    *string          `bun:"party_b"`
	SessionID string           `bun:"session_id,notnull"`
	Category  string           `bun:"category,notnull"`
	Amount    decimal.Decimal  `bun:"amount,notnull,type:numeric(12,2)"`
	Status    DuoSessionStatus `bun:"status,notnull"`
	WinnerID  *string          `bun:"winner_id"`
	CreatedAt time.Time        `bun:"created_at,notnull,default:current_timestamp"`
}
