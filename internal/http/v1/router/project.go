package router

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"competition-ledger/internal/http/v1/handler"
	"competition-ledger/internal/http/v1/middleware"
	"competition-ledger/internal/service"
)

type ProjectRouter struct {
	projects    *handler.ProjectHandler
	submissions *handler.SubmissionHandler
}

func NewProjectRouter(
	projects *service.ProjectService,
	registration *service.RegistrationService,
	scoring *service.ScoringService,
	validate *validator.Validate,
	log *slog.Logger,
) *ProjectRouter {
	return &ProjectRouter{
		projects:    handler.NewProjectHandler(projects, registration, validate, log),
		submissions: handler.NewSubmissionHandler(scoring, validate, log),
	}
}

func (pr *ProjectRouter) SetupRoutes(r chi.Router) {
	r.Route("/projects", func(r chi.Router) {
		r.Get("/", pr.projects.ListProjects)
		r.With(middleware.RequireAdmin).Post("/", pr.projects.CreateProject)

		r.Route("/{projectID}", func(r chi.Router) {
			r.Get("/", pr.projects.GetProject)
			r.With(middleware.RequireAdmin).Patch("/status", pr.projects.UpdateStatus)
			r.Post("/register", pr.projects.Register)

			r.Post("/submissions", pr.submissions.CreateSubmission)
			r.With(middleware.RequireAdmin).Get("/submissions", pr.submissions.ListProjectSubmissions)
		})
	})

	r.Route("/submissions/{submissionID}", func(r chi.Router) {
		r.Get("/", pr.submissions.GetSubmission)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Post("/review", pr.submissions.Review)
			r.Post("/rank", pr.submissions.Rank)
		})
	})
}
