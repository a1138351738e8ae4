package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"competition-ledger/internal/apperrors"
	"competition-ledger/internal/domain/models"
	"competition-ledger/internal/service"
)

type (
	RewardsRequest struct {
		FirstPlacePoints        int `json:"first_place_points" validate:"min=0"`
		SecondPlacePoints       int `json:"second_place_points" validate:"min=0"`
		ThirdPlacePoints        int `json:"third_place_points" validate:"min=0"`
		OtherParticipantsPoints int `json:"other_participants_points" validate:"min=0"`
	}

	CreateProjectRequest struct {
		Title       string         `json:"title" validate:"required,max=200"`
		Description string         `json:"description" validate:"max=5000"`
		Type        string         `json:"type" validate:"required"`
		Status      string         `json:"status"`
		StartDate   time.Time      `json:"start_date" validate:"required"`
		EndDate     time.Time      `json:"end_date" validate:"required"`
		Rewards     RewardsRequest `json:"rewards"`
	}

	UpdateProjectStatusRequest struct {
		Status string `json:"status" validate:"required"`
	}

	ProjectResponse struct {
		Project *models.Project `json:"project"`
	}

	ProjectsResponse struct {
		Projects []models.Project `json:"projects"`
	}
)

type ProjectHandler struct {
	projects     *service.ProjectService
	registration *service.RegistrationService
	validate     *validator.Validate
	log          *slog.Logger
}

func NewProjectHandler(
	projects *service.ProjectService,
	registration *service.RegistrationService,
	validate *validator.Validate,
	log *slog.Logger,
) *ProjectHandler {
	return &ProjectHandler{
		projects:     projects,
		registration: registration,
		validate:     validate,
		log:          log,
	}
}

func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	const op = "handler.project.CreateProject"

	log := requestLog(h.log, op, r)

	var req CreateProjectRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		respondError(w, log, "invalid request body", err)
		return
	}

	project, err := h.projects.CreateProject(r.Context(), actorID(r), service.CreateProjectInput{
		Title:       req.Title,
		Description: req.Description,
		Type:        models.ProjectType(req.Type),
		Status:      models.ProjectStatus(req.Status),
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Rewards: models.Rewards{
			FirstPlacePoints:        req.Rewards.FirstPlacePoints,
			SecondPlacePoints:       req.Rewards.SecondPlacePoints,
			ThirdPlacePoints:        req.Rewards.ThirdPlacePoints,
			OtherParticipantsPoints: req.Rewards.OtherParticipantsPoints,
		},
	})
	if err != nil {
		respondError(w, log, "failed to create project", err)
		return
	}

	respondJSON(w, http.StatusCreated, ProjectResponse{Project: project})
	log.Info("project created", slog.String("project_id", project.ID))
}

func (h *ProjectHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	const op = "handler.project.UpdateStatus"

	log := requestLog(h.log, op, r)

	projectID, err := pathID(r, "projectID")
	if err != nil {
		respondError(w, log, "invalid project id", err)
		return
	}

	var req UpdateProjectStatusRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		respondError(w, log, "invalid request body", err)
		return
	}

	project, err := h.projects.UpdateProjectStatus(r.Context(), actorID(r), projectID, models.ProjectStatus(req.Status))
	if err != nil {
		respondError(w, log, "failed to update project status", err)
		return
	}

	respondJSON(w, http.StatusOK, ProjectResponse{Project: project})
	log.Info("project status updated", slog.String("project_id", projectID), slog.String("status", req.Status))
}

func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	const op = "handler.project.GetProject"

	log := requestLog(h.log, op, r)

	projectID, err := pathID(r, "projectID")
	if err != nil {
		respondError(w, log, "invalid project id", err)
		return
	}

	project, err := h.projects.GetProject(r.Context(), projectID)
	if err != nil {
		respondError(w, log, "failed to get project", err)
		return
	}

	respondJSON(w, http.StatusOK, ProjectResponse{Project: project})
}

func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	const op = "handler.project.ListProjects"

	log := requestLog(h.log, op, r)

	var status *models.ProjectStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := models.ProjectStatus(raw)
		if !s.Valid() {
			respondError(w, log, "invalid status filter", apperrors.ErrInvalidProjectStatus)
			return
		}
		status = &s
	}

	projects, err := h.projects.ListProjects(r.Context(), status)
	if err != nil {
		respondError(w, log, "failed to list projects", err)
		return
	}

	respondJSON(w, http.StatusOK, ProjectsResponse{Projects: orEmpty(projects)})
}

func (h *ProjectHandler) Register(w http.ResponseWriter, r *http.Request) {
	const op = "handler.project.Register"

	log := requestLog(h.log, op, r)

	projectID, err := pathID(r, "projectID")
	if err != nil {
		respondError(w, log, "invalid project id", err)
		return
	}

	project, err := h.registration.RegisterToProject(r.Context(), actorID(r), projectID)
	if err != nil {
		respondError(w, log, "failed to register", err)
		return
	}

	respondJSON(w, http.StatusOK, ProjectResponse{Project: project})
	log.Info("registered to project", slog.String("project_id", projectID))
}
