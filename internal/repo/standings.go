package repo

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"competition-ledger/internal/domain/models"
	"competition-ledger/internal/storage/postgresql"
)

// StandingsRepo ranks balances straight from the users and teams tables.
// Admins never appear in the user standings.
type StandingsRepo struct {
	storage postgresql.Conn
}

func NewStandingsRepo(storage postgresql.Conn) *StandingsRepo {
	return &StandingsRepo{storage: storage}
}

func (r *StandingsRepo) TopUsers(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	const op = "repo.standings.TopUsers"

	query := `
		SELECT id, username AS name, points
		FROM users
		WHERE role <> 'admin'
		ORDER BY points DESC, username
		LIMIT $1
	`

	entries, err := r.top(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return entries, nil
}

func (r *StandingsRepo) TopTeams(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	const op = "repo.standings.TopTeams"

	query := `
		SELECT id, name, points
		FROM teams
		ORDER BY points DESC, name
		LIMIT $1
	`

	entries, err := r.top(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return entries, nil
}

// top runs a standings query. A non-positive limit returns every row.
func (r *StandingsRepo) top(ctx context.Context, query string, limit int) ([]models.LeaderboardEntry, error) {
	var arg any
	if limit > 0 {
		arg = limit
	}

	var entries []models.LeaderboardEntry
	if err := sqlx.SelectContext(ctx, r.storage.Executor(ctx), &entries, query, arg); err != nil {
		return nil, err
	}

	for i := range entries {
		entries[i].Rank = i + 1
	}

	return entries, nil
}
