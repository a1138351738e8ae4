package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"competition-ledger/internal/app/rest"
	"competition-ledger/internal/auth"
	"competition-ledger/internal/cache/leaderboard"
	"competition-ledger/internal/config"
	"competition-ledger/internal/domain/models"
	v1 "competition-ledger/internal/http/v1"
	"competition-ledger/internal/lib/logger/sl"
	"competition-ledger/internal/lib/migrator"
	"competition-ledger/internal/repo"
	"competition-ledger/internal/repo/memory"
	"competition-ledger/internal/service"
	"competition-ledger/internal/storage/postgresql"
)

type App struct {
	log     *slog.Logger
	storage *postgresql.Storage
	redis   *redis.Client
	restApp *rest.App
}

func MustNew(log *slog.Logger, cfg *config.Config) *App {
	const op = "app.MustNew"

	startLog := log.With(slog.String("op", op))
	ctx := context.Background()

	a := &App{log: log}

	var store service.Storage
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		startLog.Warn("using in-memory storage, data is lost on restart")
		store = memory.New()
	default:
		if err := migrator.RunMigrations(cfg.Postgres, startLog); err != nil {
			startLog.Error("failed to run migrations", sl.Err(err))
			panic(err)
		}
		a.storage = postgresql.Init(cfg.Postgres)
		store = repo.NewStore(a.storage)
	}

	var cache service.LeaderboardCache
	if cfg.Redis.Enabled {
		rdb, err := leaderboard.Connect(ctx, cfg.Redis)
		if err != nil {
			startLog.Error("leaderboard cache disabled", sl.Err(err))
		} else {
			a.redis = rdb
			cache = leaderboard.New(rdb, "")
		}
	}

	limits := service.TeamLimits{MinMembers: cfg.Team.MinMembers, MaxMembers: cfg.Team.MaxMembers}

	userService := service.NewUserService(log, store)
	membershipService := service.NewMembershipService(log, store, store, store, store, store, cache, limits)
	invitationService := service.NewInvitationService(log, store, store, store, store, membershipService, cfg.Team.InvitationTTL)
	registrationService := service.NewRegistrationService(log, store, store, store, store)
	projectService := service.NewProjectService(log, store, store)
	scoringService := service.NewScoringService(log, store, store, store, store, store, store, cache)
	leaderboardService := service.NewLeaderboardService(log, store, cache)

	if cfg.Admin.Enabled() {
		admin, err := userService.EnsureUser(ctx, service.CreateUserInput{
			ID:       cfg.Admin.ID,
			Username: cfg.Admin.Username,
			Email:    cfg.Admin.Email,
			Role:     models.RoleAdmin,
		})
		if err != nil {
			startLog.Error("failed to provision bootstrap admin", sl.Err(err))
			panic(err)
		}
		startLog.Info("bootstrap admin ready", slog.String("user_id", admin.ID))
	}

	if err := leaderboardService.Rebuild(ctx); err != nil {
		startLog.Warn("failed to warm leaderboard cache", sl.Err(err))
	}

	routerDependencies := v1.RouterDependencies{
		Tokens:              auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Users:               store,
		UserService:         userService,
		MembershipService:   membershipService,
		InvitationService:   invitationService,
		RegistrationService: registrationService,
		ProjectService:      projectService,
		ScoringService:      scoringService,
		LeaderboardService:  leaderboardService,
		RequestTimeout:      cfg.Server.Timeout,
	}

	a.restApp = rest.New(log, &routerDependencies, cfg.Server)

	return a
}

func (a *App) MustRun() {
	const op = "app.MustRun"
	a.log.With(slog.String("op", op)).Info("starting application")

	if err := a.restApp.Run(); err != nil {
		panic(err)
	}
}

func (a *App) GracefulShutdown() {
	const op = "app.GracefulShutdown"

	log := a.log.With(slog.String("op", op))
	log.Info("shutting down application")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.restApp.Stop(ctx); err != nil {
		log.Error("failed to stop HTTP server", sl.Err(err))
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Error("failed to close redis client", sl.Err(err))
		}
	}

	if a.storage != nil {
		a.storage.Close()
		log.Info("database connection closed")
	}
}
