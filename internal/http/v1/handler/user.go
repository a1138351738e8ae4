package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"competition-ledger/internal/domain/models"
	"competition-ledger/internal/service"
)

type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Role     string `json:"role"`
}

type UserHandler struct {
	users    *service.UserService
	validate *validator.Validate
	log      *slog.Logger
}

func NewUserHandler(users *service.UserService, validate *validator.Validate, log *slog.Logger) *UserHandler {
	return &UserHandler{
		users:    users,
		validate: validate,
		log:      log,
	}
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	const op = "handler.user.CreateUser"

	log := requestLog(h.log, op, r)

	var req CreateUserRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		respondError(w, log, "invalid request body", err)
		return
	}

	user, err := h.users.CreateUser(r.Context(), actorID(r), service.CreateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Role:     models.Role(req.Role),
	})
	if err != nil {
		respondError(w, log, "failed to create user", err)
		return
	}

	respondJSON(w, http.StatusCreated, UserResponse{User: user})
	log.Info("user created", slog.String("user_id", user.ID))
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	const op = "handler.user.Me"

	log := requestLog(h.log, op, r)

	user, err := h.users.GetUser(r.Context(), actorID(r))
	if err != nil {
		respondError(w, log, "failed to get user", err)
		return
	}

	respondJSON(w, http.StatusOK, UserResponse{User: user})
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	const op = "handler.user.GetUser"

	log := requestLog(h.log, op, r)

	userID, err := pathID(r, "userID")
	if err != nil {
		respondError(w, log, "invalid user id", err)
		return
	}

	user, err := h.users.GetUser(r.Context(), userID)
	if err != nil {
		respondError(w, log, "failed to get user", err)
		return
	}

	respondJSON(w, http.StatusOK, UserResponse{User: user})
}
