package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"competition-ledger/internal/apperrors"
	"competition-ledger/internal/domain/models"
	"competition-ledger/internal/service"
)

type (
	AddPointsRequest struct {
		UserID *string `json:"user_id" validate:"omitempty,uuid"`
		TeamID *string `json:"team_id" validate:"omitempty,uuid"`
		Delta  int     `json:"delta"`
		Reason string  `json:"reason" validate:"max=500"`
	}

	TransactionResponse struct {
		Transaction *models.PointTransaction `json:"transaction"`
	}

	LedgerResponse struct {
		Recipient    models.Participant        `json:"recipient"`
		Transactions []models.PointTransaction `json:"transactions"`
	}
)

type PointsHandler struct {
	scoring  *service.ScoringService
	validate *validator.Validate
	log      *slog.Logger
}

func NewPointsHandler(scoring *service.ScoringService, validate *validator.Validate, log *slog.Logger) *PointsHandler {
	return &PointsHandler{
		scoring:  scoring,
		validate: validate,
		log:      log,
	}
}

func (h *PointsHandler) AddPoints(w http.ResponseWriter, r *http.Request) {
	const op = "handler.points.AddPoints"

	log := requestLog(h.log, op, r)

	var req AddPointsRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		respondError(w, log, "invalid request body", err)
		return
	}

	var target models.Participant
	switch {
	case req.UserID != nil && req.TeamID == nil:
		target = models.UserParticipant(*req.UserID)
	case req.TeamID != nil && req.UserID == nil:
		target = models.TeamParticipant(*req.TeamID)
	default:
		respondError(w, log, "invalid points target", apperrors.ErrPointsTarget)
		return
	}

	tx, err := h.scoring.AddPoints(r.Context(), actorID(r), service.AddPointsInput{
		Target: target,
		Delta:  req.Delta,
		Reason: req.Reason,
	})
	if err != nil {
		respondError(w, log, "failed to add points", err)
		return
	}

	respondJSON(w, http.StatusCreated, TransactionResponse{Transaction: tx})
	log.Info("points adjusted", slog.String("recipient", target.String()), slog.Int("delta", req.Delta))
}

func (h *PointsHandler) UserLedger(w http.ResponseWriter, r *http.Request) {
	h.ledger(w, r, "handler.points.UserLedger", "userID", models.UserParticipant)
}

func (h *PointsHandler) TeamLedger(w http.ResponseWriter, r *http.Request) {
	h.ledger(w, r, "handler.points.TeamLedger", "teamID", models.TeamParticipant)
}

func (h *PointsHandler) ledger(w http.ResponseWriter, r *http.Request, op, param string, participant func(string) models.Participant) {
	log := requestLog(h.log, op, r)

	id, err := pathID(r, param)
	if err != nil {
		respondError(w, log, "invalid id", err)
		return
	}

	recipient := participant(id)
	txs, err := h.scoring.ListTransactions(r.Context(), recipient)
	if err != nil {
		respondError(w, log, "failed to list transactions", err)
		return
	}

	respondJSON(w, http.StatusOK, LedgerResponse{Recipient: recipient, Transactions: orEmpty(txs)})
}
