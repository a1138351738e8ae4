package router

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"competition-ledger/internal/http/v1/handler"
	"competition-ledger/internal/http/v1/middleware"
	"competition-ledger/internal/service"
)

type PointsRouter struct {
	points      *handler.PointsHandler
	leaderboard *handler.LeaderboardHandler
}

func NewPointsRouter(
	scoring *service.ScoringService,
	leaderboard *service.LeaderboardService,
	validate *validator.Validate,
	log *slog.Logger,
) *PointsRouter {
	return &PointsRouter{
		points:      handler.NewPointsHandler(scoring, validate, log),
		leaderboard: handler.NewLeaderboardHandler(leaderboard, log),
	}
}

func (pt *PointsRouter) SetupRoutes(r chi.Router) {
	r.Route("/points", func(r chi.Router) {
		r.With(middleware.RequireAdmin).Post("/", pt.points.AddPoints)
		r.Get("/users/{userID}", pt.points.UserLedger)
		r.Get("/teams/{teamID}", pt.points.TeamLedger)
	})

	r.Route("/leaderboard", func(r chi.Router) {
		r.Get("/users", pt.leaderboard.TopUsers)
		r.Get("/teams", pt.leaderboard.TopTeams)
	})
}
