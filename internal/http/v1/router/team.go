package router

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"competition-ledger/internal/http/v1/handler"
	"competition-ledger/internal/service"
)

type TeamRouter struct {
	teams       *handler.TeamHandler
	invitations *handler.InvitationHandler
}

func NewTeamRouter(
	membership *service.MembershipService,
	invitations *service.InvitationService,
	validate *validator.Validate,
	log *slog.Logger,
) *TeamRouter {
	return &TeamRouter{
		teams:       handler.NewTeamHandler(membership, validate, log),
		invitations: handler.NewInvitationHandler(invitations, validate, log),
	}
}

func (tr *TeamRouter) SetupRoutes(r chi.Router) {
	r.Route("/teams", func(r chi.Router) {
		r.Post("/", tr.teams.CreateTeam)
		r.Post("/join", tr.teams.JoinByCode)
		r.Get("/me", tr.teams.GetMyTeam)

		r.Route("/{teamID}", func(r chi.Router) {
			r.Get("/", tr.teams.GetTeam)
			r.Delete("/", tr.teams.DeleteTeam)
			r.Post("/leave", tr.teams.LeaveTeam)

			r.Post("/members", tr.teams.AddMember)
			r.Delete("/members/{userID}", tr.teams.RemoveMember)

			r.Post("/leaders/{userID}", tr.teams.GiveLeadership)
			r.Delete("/leaders/{userID}", tr.teams.RemoveLeadership)

			r.Post("/invitations", tr.invitations.Invite)
		})
	})

	r.Route("/invitations", func(r chi.Router) {
		r.Get("/", tr.invitations.ListMine)
		r.Post("/{invitationID}/accept", tr.invitations.Accept)
		r.Post("/{invitationID}/reject", tr.invitations.Reject)
		r.Post("/{invitationID}/cancel", tr.invitations.Cancel)
	})
}
