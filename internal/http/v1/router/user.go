package router

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"competition-ledger/internal/http/v1/handler"
	"competition-ledger/internal/http/v1/middleware"
	"competition-ledger/internal/service"
)

type UserRouter struct {
	handler *handler.UserHandler
}

func NewUserRouter(users *service.UserService, validate *validator.Validate, log *slog.Logger) *UserRouter {
	return &UserRouter{
		handler: handler.NewUserHandler(users, validate, log),
	}
}

func (ur *UserRouter) SetupRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Get("/me", ur.handler.Me)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Post("/", ur.handler.CreateUser)
			r.Get("/{userID}", ur.handler.GetUser)
		})
	})
}
