package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"competition-ledger/internal/domain/models"
	"competition-ledger/internal/service"
)

type (
	CreateTeamRequest struct {
		Name        string `json:"name" validate:"required,max=100"`
		Description string `json:"description" validate:"max=1000"`
		Slogan      string `json:"slogan" validate:"max=200"`
	}

	JoinTeamRequest struct {
		InvitationCode string `json:"invitation_code" validate:"required,max=32"`
	}

	MemberRequest struct {
		EmailOrUsername string `json:"email_or_username" validate:"required,max=255"`
	}

	TeamResponse struct {
		Team *models.Team `json:"team"`
	}

	UserResponse struct {
		User *models.User `json:"user"`
	}
)

type TeamHandler struct {
	membership *service.MembershipService
	validate   *validator.Validate
	log        *slog.Logger
}

func NewTeamHandler(membership *service.MembershipService, validate *validator.Validate, log *slog.Logger) *TeamHandler {
	return &TeamHandler{
		membership: membership,
		validate:   validate,
		log:        log,
	}
}

func (h *TeamHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	const op = "handler.team.CreateTeam"

	log := requestLog(h.log, op, r)

	var req CreateTeamRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		respondError(w, log, "invalid request body", err)
		return
	}

	team, err := h.membership.CreateTeam(r.Context(), actorID(r), service.CreateTeamInput{
		Name:        req.Name,
		Description: req.Description,
		Slogan:      req.Slogan,
	})
	if err != nil {
		respondError(w, log, "failed to create team", err)
		return
	}

	respondJSON(w, http.StatusCreated, TeamResponse{Team: team})
	log.Info("team created", slog.String("team_id", team.ID))
}

func (h *TeamHandler) JoinByCode(w http.ResponseWriter, r *http.Request) {
	const op = "handler.team.JoinByCode"

	log := requestLog(h.log, op, r)

	var req JoinTeamRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		respondError(w, log, "invalid request body", err)
		return
	}

	team, err := h.membership.JoinByCode(r.Context(), actorID(r), req.InvitationCode)
	if err != nil {
		respondError(w, log, "failed to join team", err)
		return
	}

	respondJSON(w, http.StatusOK, TeamResponse{Team: team})
	log.Info("team joined", slog.String("team_id", team.ID))
}

func (h *TeamHandler) GetMyTeam(w http.ResponseWriter, r *http.Request) {
	const op = "handler.team.GetMyTeam"

	log := requestLog(h.log, op, r)

	team, err := h.membership.GetMyTeam(r.Context(), actorID(r))
	if err != nil {
		respondError(w, log, "failed to get team", err)
		return
	}

	respondJSON(w, http.StatusOK, TeamResponse{Team: team})
}

func (h *TeamHandler) GetTeam(w http.ResponseWriter, r *http.Request) {
	const op = "handler.team.GetTeam"

	log := requestLog(h.log, op, r)

	teamID, err := pathID(r, "teamID")
	if err != nil {
		respondError(w, log, "invalid team id", err)
		return
	}

	team, err := h.membership.GetTeam(r.Context(), teamID)
	if err != nil {
		respondError(w, log, "failed to get team", err)
		return
	}

	respondJSON(w, http.StatusOK, TeamResponse{Team: team})
}

func (h *TeamHandler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	const op = "handler.team.DeleteTeam"

	log := requestLog(h.log, op, r)

	teamID, err := pathID(r, "teamID")
	if err != nil {
		respondError(w, log, "invalid team id", err)
		return
	}

	if err := h.membership.DeleteTeam(r.Context(), actorID(r), teamID); err != nil {
		respondError(w, log, "failed to delete team", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
	log.Info("team deleted", slog.String("team_id", teamID))
}

func (h *TeamHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	const op = "handler.team.AddMember"

	log := requestLog(h.log, op, r)

	teamID, err := pathID(r, "teamID")
	if err != nil {
		respondError(w, log, "invalid team id", err)
		return
	}

	var req MemberRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		respondError(w, log, "invalid request body", err)
		return
	}

	team, err := h.membership.AddMember(r.Context(), actorID(r), teamID, req.EmailOrUsername)
	if err != nil {
		respondError(w, log, "failed to add member", err)
		return
	}

	respondJSON(w, http.StatusOK, TeamResponse{Team: team})
	log.Info("member added", slog.String("team_id", teamID))
}

func (h *TeamHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	h.teamUserAction(w, r, "handler.team.RemoveMember", "member removed", h.membership.RemoveMember)
}

func (h *TeamHandler) GiveLeadership(w http.ResponseWriter, r *http.Request) {
	h.teamUserAction(w, r, "handler.team.GiveLeadership", "leadership given", h.membership.GiveLeadership)
}

func (h *TeamHandler) RemoveLeadership(w http.ResponseWriter, r *http.Request) {
	h.teamUserAction(w, r, "handler.team.RemoveLeadership", "leadership removed", h.membership.RemoveLeadership)
}

func (h *TeamHandler) LeaveTeam(w http.ResponseWriter, r *http.Request) {
	const op = "handler.team.LeaveTeam"

	log := requestLog(h.log, op, r)

	teamID, err := pathID(r, "teamID")
	if err != nil {
		respondError(w, log, "invalid team id", err)
		return
	}

	user, err := h.membership.LeaveTeam(r.Context(), actorID(r), teamID)
	if err != nil {
		respondError(w, log, "failed to leave team", err)
		return
	}

	respondJSON(w, http.StatusOK, UserResponse{User: user})
	log.Info("team left", slog.String("team_id", teamID))
}

type teamUserFunc func(ctx context.Context, actorID, teamID, targetID string) (*models.Team, error)

// teamUserAction serves the routes shaped /teams/{teamID}/.../{userID}.
func (h *TeamHandler) teamUserAction(w http.ResponseWriter, r *http.Request, op, done string, action teamUserFunc) {
	log := requestLog(h.log, op, r)

	teamID, err := pathID(r, "teamID")
	if err != nil {
		respondError(w, log, "invalid team id", err)
		return
	}
	userID, err := pathID(r, "userID")
	if err != nil {
		respondError(w, log, "invalid user id", err)
		return
	}

	team, err := action(r.Context(), actorID(r), teamID, userID)
	if err != nil {
		respondError(w, log, "team update failed", err)
		return
	}

	respondJSON(w, http.StatusOK, TeamResponse{Team: team})
	log.Info(done, slog.String("team_id", teamID), slog.String("user_id", userID))
}
