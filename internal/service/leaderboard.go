package service

import (
	"context"
	"fmt"
	"log/slog"

	"competition-ledger/internal/domain/models"
	"competition-ledger/internal/lib/logger/sl"
)

const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
)

// LeaderboardService serves standings from the cache when it has them and
// from storage otherwise.
type LeaderboardService struct {
	log       *slog.Logger
	standings StandingsRepository
	cache     LeaderboardCache
}

// NewLeaderboardService builds the leaderboard. cache may be nil.
func NewLeaderboardService(log *slog.Logger, standings StandingsRepository, cache LeaderboardCache) *LeaderboardService {
	return &LeaderboardService{
		log:       log,
		standings: standings,
		cache:     cache,
	}
}

func (s *LeaderboardService) TopUsers(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	const op = "service.leaderboard.TopUsers"
	return s.top(ctx, op, models.ParticipantUser, limit)
}

func (s *LeaderboardService) TopTeams(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	const op = "service.leaderboard.TopTeams"
	return s.top(ctx, op, models.ParticipantTeam, limit)
}

func (s *LeaderboardService) top(ctx context.Context, op string, kind models.ParticipantKind, limit int) ([]models.LeaderboardEntry, error) {
	log := s.log.With(slog.String("op", op))

	limit = clampLimit(limit)

	if s.cache != nil {
		entries, ok, err := s.cache.Top(ctx, kind, limit)
		switch {
		case err != nil:
			log.Warn("leaderboard cache unavailable, falling back to storage", sl.Err(err))
		case ok:
			return entries, nil
		}
	}

	entries, err := s.fromStorage(ctx, kind, limit)
	if err != nil {
		log.Error("failed to load standings", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return entries, nil
}

// Rebuild replaces the cached standings with the full standings from storage.
func (s *LeaderboardService) Rebuild(ctx context.Context) error {
	const op = "service.leaderboard.Rebuild"

	if s.cache == nil {
		return nil
	}

	log := s.log.With(slog.String("op", op))

	for _, kind := range []models.ParticipantKind{models.ParticipantUser, models.ParticipantTeam} {
		entries, err := s.fromStorage(ctx, kind, 0)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if err := s.cache.Replace(ctx, kind, entries); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		log.Info("leaderboard rebuilt", slog.String("kind", string(kind)), slog.Int("entries", len(entries)))
	}
	return nil
}

func (s *LeaderboardService) fromStorage(ctx context.Context, kind models.ParticipantKind, limit int) ([]models.LeaderboardEntry, error) {
	if kind == models.ParticipantTeam {
		return s.standings.TopTeams(ctx, limit)
	}
	return s.standings.TopUsers(ctx, limit)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		return MaxLeaderboardLimit
	}
	return limit
}
