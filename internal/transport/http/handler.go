// Package http exposes the service's thin JSON surface: answer submission,
// a manual pairing trigger for operations, and a health check.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"duo-trivia-service/internal/domain"
	"duo-trivia-service/internal/scoring"
)

// PairingRunner triggers one pairing pass for a category.
type PairingRunner interface {
	RunPairingPass(ctx context.Context, category string) error
}

// Wallet answers balance queries for the read endpoint.
type Wallet interface {
	UserBalance(ctx context.Context, userID string) (decimal.Decimal, error)
}

type Handler struct {
	scoring  *scoring.Engine
	attempts *scoring.AttemptService
	pairing  PairingRunner
	wallet   Wallet
	log      *zap.Logger
}

func NewHandler(scoringEngine *scoring.Engine, attempts *scoring.AttemptService, pairing PairingRunner, wallet Wallet, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{scoring: scoringEngine, attempts: attempts, pairing: pairing, wallet: wallet, log: log}
}

// Register wires the handler's routes onto the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/results", h.OpenAttempt)
	mux.HandleFunc("POST /v1/results/{id}/answers", h.SubmitAnswers)
	mux.HandleFunc("GET /v1/users/{id}/balance", h.Balance)
	mux.HandleFunc("POST /internal/pairing/run", h.RunPairing)
}

type openAttemptRequest struct {
	UserID    string `json:"userId"`
	SessionID string `json:"sessionId"`
}

type openAttemptResponse struct {
	ResultID  string `json:"resultId"`
	ExpiresAt string `json:"expiresAt"`
	ExitsAt   string `json:"exitsAt"`
}

// OpenAttempt creates the Result record for one player's quiz attempt.
func (h *Handler) OpenAttempt(w http.ResponseWriter, r *http.Request) {
	var req openAttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}
	if req.UserID == "" || req.SessionID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "missing userId or sessionId"})
		return
	}

	result, err := h.attempts.Open(r.Context(), req.UserID, req.SessionID)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Message: err.Error()})
	case err != nil:
		h.log.Error("open attempt failed", zap.String("session_id", req.SessionID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "open attempt failed"})
	default:
		writeJSON(w, http.StatusCreated, openAttemptResponse{
			ResultID:  result.ID,
			ExpiresAt: result.ExpiresAt.Format(time.RFC3339),
			ExitsAt:   result.ExitsAt.Format(time.RFC3339),
		})
	}
}

type submitAnswersRequest struct {
	UserID  string `json:"userId"`
	Choices []struct {
		QuestionID string `json:"questionId"`
		Choice     string `json:"choice"`
	} `json:"choices"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// SubmitAnswers grades a player's submission for a result.
func (h *Handler) SubmitAnswers(w http.ResponseWriter, r *http.Request) {
	resultID := r.PathValue("id")

	var req submitAnswersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "missing userId"})
		return
	}

	choices := make([]scoring.ChoiceSubmission, 0, len(req.Choices))
	for _, c := range req.Choices {
		choices = append(choices, scoring.ChoiceSubmission{
			QuestionID: c.QuestionID,
			ChoiceText: c.Choice,
		})
	}

	err := h.scoring.CalculateScore(r.Context(), resultID, req.UserID, choices)
	switch {
	case errors.Is(err, domain.ErrResultNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Message: err.Error()})
	case errors.Is(err, domain.ErrResultMismatch):
		writeJSON(w, http.StatusForbidden, errorResponse{Message: err.Error()})
	case errors.Is(err, domain.ErrQuestionNotFound), errors.Is(err, domain.ErrChoiceNotFound):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Message: err.Error()})
	case err != nil:
		h.log.Error("submission failed", zap.String("result_id", resultID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "submission failed"})
	default:
		w.WriteHeader(http.StatusAccepted)
	}
}

type balanceResponse struct {
	UserID  string `json:"userId"`
	Balance string `json:"balance"`
}

// Balance returns the user's wallet balance.
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")

	balance, err := h.wallet.UserBalance(r.Context(), userID)
	if err != nil {
		h.log.Error("balance lookup failed", zap.String("user_id", userID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "balance lookup failed"})
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{
		UserID:  userID,
		Balance: balance.StringFixed(2),
	})
}

// RunPairing triggers one pairing pass for the category query parameter.
func (h *Handler) RunPairing(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "missing category"})
		return
	}

	err := h.pairing.RunPairingPass(r.Context(), category)
	switch {
	case errors.Is(err, domain.ErrRunInProgress):
		writeJSON(w, http.StatusConflict, errorResponse{Message: err.Error()})
	case err != nil:
		h.log.Error("manual pairing run failed", zap.String("category", category), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "pairing run failed"})
	default:
		w.WriteHeader(http.StatusAccepted)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
