package v1

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"competition-ledger/internal/http/v1/handler"
	"competition-ledger/internal/http/v1/middleware"
	"competition-ledger/internal/http/v1/router"
	"competition-ledger/internal/service"
)

type Router interface {
	SetupRoutes(r chi.Router)
}

type RouterDependencies struct {
	Tokens              middleware.TokenParser
	Users               middleware.UserGetter
	UserService         *service.UserService
	MembershipService   *service.MembershipService
	InvitationService   *service.InvitationService
	RegistrationService *service.RegistrationService
	ProjectService      *service.ProjectService
	ScoringService      *service.ScoringService
	LeaderboardService  *service.LeaderboardService
	RequestTimeout      time.Duration
}

func SetupRoutes(r chi.Router, deps *RouterDependencies, log *slog.Logger) {
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(chimiddleware.Recoverer)
	if deps.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(deps.RequestTimeout))
	}

	r.Get("/health", handler.NewHealthHandler().Health)

	validate := handler.NewValidator()

	routers := []Router{
		router.NewUserRouter(deps.UserService, validate, log),
		router.NewTeamRouter(deps.MembershipService, deps.InvitationService, validate, log),
		router.NewProjectRouter(deps.ProjectService, deps.RegistrationService, deps.ScoringService, validate, log),
		router.NewPointsRouter(deps.ScoringService, deps.LeaderboardService, validate, log),
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(deps.Tokens, deps.Users, log))

		for _, serviceRouter := range routers {
			serviceRouter.SetupRoutes(r)
		}
	})
}
