package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"competition-ledger/internal/apperrors"
	"competition-ledger/internal/domain/models"
	"competition-ledger/internal/service"
)

type LeaderboardResponse struct {
	Kind    models.ParticipantKind    `json:"kind"`
	Entries []models.LeaderboardEntry `json:"entries"`
}

type LeaderboardHandler struct {
	leaderboard *service.LeaderboardService
	log         *slog.Logger
}

func NewLeaderboardHandler(leaderboard *service.LeaderboardService, log *slog.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboard: leaderboard,
		log:         log,
	}
}

func (h *LeaderboardHandler) TopUsers(w http.ResponseWriter, r *http.Request) {
	h.top(w, r, "handler.leaderboard.TopUsers", models.ParticipantUser, h.leaderboard.TopUsers)
}

func (h *LeaderboardHandler) TopTeams(w http.ResponseWriter, r *http.Request) {
	h.top(w, r, "handler.leaderboard.TopTeams", models.ParticipantTeam, h.leaderboard.TopTeams)
}

func (h *LeaderboardHandler) top(
	w http.ResponseWriter,
	r *http.Request,
	op string,
	kind models.ParticipantKind,
	fetch func(ctx context.Context, limit int) ([]models.LeaderboardEntry, error),
) {
	log := requestLog(h.log, op, r)

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, log, "invalid limit", apperrors.ErrInvalidLimit)
			return
		}
		limit = n
	}

	entries, err := fetch(r.Context(), limit)
	if err != nil {
		respondError(w, log, "failed to load leaderboard", err)
		return
	}

	respondJSON(w, http.StatusOK, LeaderboardResponse{Kind: kind, Entries: orEmpty(entries)})
}
