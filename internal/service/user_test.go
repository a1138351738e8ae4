package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"competition-ledger/internal/apperrors"
	"competition-ledger/internal/domain/models"
	"competition-ledger/internal/service"
)

func TestUserDirectory(t *testing.T) {
	e := newEnv(t)
	alice := e.user("alice")

	_, err := e.users.CreateUser(e.ctx, alice, service.CreateUserInput{Username: "bob", Email: "bob@example.com"})
	assert.ErrorIs(t, err, apperrors.ErrAdminRequired)

	_, err = e.users.CreateUser(e.ctx, e.admin, service.CreateUserInput{Username: "Alice", Email: "new@example.com"})
	assert.ErrorIs(t, err, apperrors.ErrUserExists)

	_, err = e.users.CreateUser(e.ctx, e.admin, service.CreateUserInput{Username: "bob", Email: "bob@example.com", Role: "root"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidRole)

	bob, err := e.users.CreateUser(e.ctx, e.admin, service.CreateUserInput{Username: "bob", Email: " Bob@Example.com "})
	require.NoError(t, err)
	assert.NotEmpty(t, bob.ID)
	assert.Equal(t, "bob@example.com", bob.Email)
	assert.Equal(t, models.RoleUser, bob.Role)

	again, err := e.users.EnsureUser(e.ctx, service.CreateUserInput{ID: e.admin, Username: "ignored", Email: "ignored@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "admin", again.Username)
	assert.True(t, again.IsAdmin())

	root, err := e.users.EnsureUser(e.ctx, service.CreateUserInput{Username: "root", Email: "root@example.com", Role: models.RoleAdmin})
	require.NoError(t, err)
	rootAgain, err := e.users.EnsureUser(e.ctx, service.CreateUserInput{Username: "root", Email: "ROOT@example.com", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, root.ID, rootAgain.ID)

	_, err = e.users.GetUser(e.ctx, "ghost")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}
