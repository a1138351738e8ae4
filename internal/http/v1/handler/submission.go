package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"competition-ledger/internal/domain/models"
	"competition-ledger/internal/service"
)

type (
	CreateSubmissionRequest struct {
		GithubLink  string `json:"github_link" validate:"required,max=500"`
		Description string `json:"description" validate:"max=5000"`
	}

	ReviewSubmissionRequest struct {
		Status   string `json:"status" validate:"required"`
		Score    *int   `json:"score"`
		Feedback string `json:"feedback" validate:"max=5000"`
	}

	RankSubmissionRequest struct {
		Ranking int `json:"ranking"`
	}

	SubmissionResponse struct {
		Submission *models.Submission `json:"submission"`
	}

	SubmissionsResponse struct {
		Submissions []models.Submission `json:"submissions"`
	}
)

type SubmissionHandler struct {
	scoring  *service.ScoringService
	validate *validator.Validate
	log      *slog.Logger
}

func NewSubmissionHandler(scoring *service.ScoringService, validate *validator.Validate, log *slog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		scoring:  scoring,
		validate: validate,
		log:      log,
	}
}

func (h *SubmissionHandler) CreateSubmission(w http.ResponseWriter, r *http.Request) {
	const op = "handler.submission.CreateSubmission"

	log := requestLog(h.log, op, r)

	projectID, err := pathID(r, "projectID")
	if err != nil {
		respondError(w, log, "invalid project id", err)
		return
	}

	var req CreateSubmissionRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		respondError(w, log, "invalid request body", err)
		return
	}

	sub, err := h.scoring.CreateSubmission(r.Context(), actorID(r), projectID, service.CreateSubmissionInput{
		GithubLink:  req.GithubLink,
		Description: req.Description,
	})
	if err != nil {
		respondError(w, log, "failed to create submission", err)
		return
	}

	respondJSON(w, http.StatusCreated, SubmissionResponse{Submission: sub})
	log.Info("submission created", slog.String("submission_id", sub.ID))
}

func (h *SubmissionHandler) ListProjectSubmissions(w http.ResponseWriter, r *http.Request) {
	const op = "handler.submission.ListProjectSubmissions"

	log := requestLog(h.log, op, r)

	projectID, err := pathID(r, "projectID")
	if err != nil {
		respondError(w, log, "invalid project id", err)
		return
	}

	subs, err := h.scoring.ListProjectSubmissions(r.Context(), actorID(r), projectID)
	if err != nil {
		respondError(w, log, "failed to list submissions", err)
		return
	}

	respondJSON(w, http.StatusOK, SubmissionsResponse{Submissions: orEmpty(subs)})
}

func (h *SubmissionHandler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	const op = "handler.submission.GetSubmission"

	log := requestLog(h.log, op, r)

	submissionID, err := pathID(r, "submissionID")
	if err != nil {
		respondError(w, log, "invalid submission id", err)
		return
	}

	sub, err := h.scoring.GetSubmission(r.Context(), submissionID)
	if err != nil {
		respondError(w, log, "failed to get submission", err)
		return
	}

	respondJSON(w, http.StatusOK, SubmissionResponse{Submission: sub})
}

func (h *SubmissionHandler) Review(w http.ResponseWriter, r *http.Request) {
	const op = "handler.submission.Review"

	log := requestLog(h.log, op, r)

	submissionID, err := pathID(r, "submissionID")
	if err != nil {
		respondError(w, log, "invalid submission id", err)
		return
	}

	var req ReviewSubmissionRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		respondError(w, log, "invalid request body", err)
		return
	}

	sub, err := h.scoring.ReviewSubmission(r.Context(), actorID(r), submissionID, service.ReviewInput{
		Status:   models.SubmissionStatus(req.Status),
		Score:    req.Score,
		Feedback: req.Feedback,
	})
	if err != nil {
		respondError(w, log, "failed to review submission", err)
		return
	}

	respondJSON(w, http.StatusOK, SubmissionResponse{Submission: sub})
	log.Info("submission reviewed", slog.String("submission_id", sub.ID), slog.String("status", string(sub.Status)))
}

func (h *SubmissionHandler) Rank(w http.ResponseWriter, r *http.Request) {
	const op = "handler.submission.Rank"

	log := requestLog(h.log, op, r)

	submissionID, err := pathID(r, "submissionID")
	if err != nil {
		respondError(w, log, "invalid submission id", err)
		return
	}

	var req RankSubmissionRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		respondError(w, log, "invalid request body", err)
		return
	}

	distribution, err := h.scoring.RankSubmission(r.Context(), actorID(r), submissionID, req.Ranking)
	if err != nil {
		respondError(w, log, "failed to rank submission", err)
		return
	}

	respondJSON(w, http.StatusOK, distribution)
	log.Info("submission ranked",
		slog.String("submission_id", submissionID),
		slog.Int("ranking", req.Ranking),
		slog.Int("points_awarded", distribution.PointsAwarded),
	)
}
