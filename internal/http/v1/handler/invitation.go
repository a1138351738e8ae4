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
	InvitationResponse struct {
		Invitation *models.TeamInvitation `json:"invitation"`
	}

	InvitationsResponse struct {
		Invitations []models.TeamInvitation `json:"invitations"`
	}
)

type InvitationHandler struct {
	invitations *service.InvitationService
	validate    *validator.Validate
	log         *slog.Logger
}

func NewInvitationHandler(invitations *service.InvitationService, validate *validator.Validate, log *slog.Logger) *InvitationHandler {
	return &InvitationHandler{
		invitations: invitations,
		validate:    validate,
		log:         log,
	}
}

func (h *InvitationHandler) Invite(w http.ResponseWriter, r *http.Request) {
	const op = "handler.invitation.Invite"

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

	inv, err := h.invitations.Invite(r.Context(), actorID(r), teamID, req.EmailOrUsername)
	if err != nil {
		respondError(w, log, "failed to invite", err)
		return
	}

	respondJSON(w, http.StatusCreated, InvitationResponse{Invitation: inv})
	log.Info("invitation sent", slog.String("invitation_id", inv.ID))
}

func (h *InvitationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	const op = "handler.invitation.ListMine"

	log := requestLog(h.log, op, r)

	invitations, err := h.invitations.ListForUser(r.Context(), actorID(r))
	if err != nil {
		respondError(w, log, "failed to list invitations", err)
		return
	}

	respondJSON(w, http.StatusOK, InvitationsResponse{Invitations: orEmpty(invitations)})
}

func (h *InvitationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	const op = "handler.invitation.Accept"

	log := requestLog(h.log, op, r)

	invitationID, err := pathID(r, "invitationID")
	if err != nil {
		respondError(w, log, "invalid invitation id", err)
		return
	}

	team, err := h.invitations.Accept(r.Context(), actorID(r), invitationID)
	if err != nil {
		respondError(w, log, "failed to accept invitation", err)
		return
	}

	respondJSON(w, http.StatusOK, TeamResponse{Team: team})
	log.Info("invitation accepted", slog.String("invitation_id", invitationID))
}

func (h *InvitationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "handler.invitation.Reject", h.invitations.Reject)
}

func (h *InvitationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "handler.invitation.Cancel", h.invitations.Cancel)
}

func (h *InvitationHandler) respond(
	w http.ResponseWriter,
	r *http.Request,
	op string,
	action func(ctx context.Context, actorID, invitationID string) (*models.TeamInvitation, error),
) {
	log := requestLog(h.log, op, r)

	invitationID, err := pathID(r, "invitationID")
	if err != nil {
		respondError(w, log, "invalid invitation id", err)
		return
	}

	inv, err := action(r.Context(), actorID(r), invitationID)
	if err != nil {
		respondError(w, log, "invitation update failed", err)
		return
	}

	respondJSON(w, http.StatusOK, InvitationResponse{Invitation: inv})
	log.Info("invitation updated", slog.String("invitation_id", inv.ID), slog.String("status", string(inv.Status)))
}
