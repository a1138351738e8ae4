package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"competition-ledger/internal/apperrors"
	"competition-ledger/internal/domain/models"
	"competition-ledger/internal/lib/logger/sl"
)

// UserService is the user directory the identity layer resolves actors from.
type UserService struct {
	log   *slog.Logger
	users UserRepository
	opts  options
}

func NewUserService(log *slog.Logger, users UserRepository, opts ...Option) *UserService {
	return &UserService{
		log:   log,
		users: users,
		opts:  buildOptions(opts),
	}
}

type CreateUserInput struct {
	ID       string
	Username string
	Email    string
	Role     models.Role
}

// CreateUser adds an account on behalf of an admin.
func (s *UserService) CreateUser(ctx context.Context, adminID string, in CreateUserInput) (*models.User, error) {
	const op = "service.user.CreateUser"

	log := s.log.With(
		slog.String("op", op),
		slog.String("admin_id", adminID),
		slog.String("username", in.Username),
	)

	if _, err := requireAdmin(ctx, s.users, adminID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.create(ctx, in)
	if err != nil {
		log.Error("failed to create user", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user created", slog.String("user_id", user.ID))

	return user, nil
}

// EnsureUser creates the account unless it exists already. Without an id the
// account is looked up by email.
func (s *UserService) EnsureUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	const op = "service.user.EnsureUser"

	var (
		existing *models.User
		err      error
	)
	if in.ID != "" {
		existing, err = s.users.GetUser(ctx, in.ID)
	} else {
		existing, err = s.users.GetUserByLogin(ctx, strings.TrimSpace(in.Email))
	}
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.create(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user provisioned", slog.String("op", op), slog.String("user_id", user.ID))

	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	const op = "service.user.GetUser"

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

func (s *UserService) create(ctx context.Context, in CreateUserInput) (*models.User, error) {
	if in.Role == "" {
		in.Role = models.RoleUser
	}
	if in.Role != models.RoleUser && in.Role != models.RoleAdmin {
		return nil, apperrors.ErrInvalidRole
	}
	if in.ID == "" {
		in.ID = s.opts.newID()
	}

	user := &models.User{
		ID:        in.ID,
		Username:  strings.TrimSpace(in.Username),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Role:      in.Role,
		CreatedAt: s.opts.clock(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return s.users.GetUser(ctx, user.ID)
}
