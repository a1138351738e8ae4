package integration

import (
	"context"
	"fmt"
	"log/slog"
	"net/http/httptest"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"competition-ledger/internal/auth"
	"competition-ledger/internal/domain/models"
	v1 "competition-ledger/internal/http/v1"
	"competition-ledger/internal/lib/migrator"
	"competition-ledger/internal/repo"
	"competition-ledger/internal/repo/memory"
	"competition-ledger/internal/service"
	"competition-ledger/internal/storage/postgresql"
)

const (
	AdminID = "00000000-0000-4000-8000-000000000001"
	AliceID = "00000000-0000-4000-8000-000000000002"
	BobID   = "00000000-0000-4000-8000-000000000003"
	CarolID = "00000000-0000-4000-8000-000000000004"
)

type TestServer struct {
	Server  *httptest.Server
	Tokens  *auth.TokenManager
	Users   *service.UserService
	storage *postgresql.Storage
}

// NewTestServer serves the full API over the in-memory store. Setting
// TEST_PG_DSN runs the same routes against PostgreSQL instead.
func NewTestServer() (*TestServer, error) {
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))

	ts := &TestServer{}

	var store service.Storage
	if dsn := os.Getenv("TEST_PG_DSN"); dsn != "" {
		if err := migrator.RunMigrationsDSN(dsn, log); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		storage, err := postgresql.Open(dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		ts.storage = storage
		store = repo.NewStore(storage)
	} else {
		store = memory.New()
	}

	limits := service.TeamLimits{MinMembers: 2, MaxMembers: 3}

	ts.Users = service.NewUserService(log, store)
	membership := service.NewMembershipService(log, store, store, store, store, store, nil, limits)
	leaderboard := service.NewLeaderboardService(log, store, nil)
	ts.Tokens = auth.NewTokenManager("integration-secret", time.Hour)

	r := chi.NewRouter()
	v1.SetupRoutes(r, &v1.RouterDependencies{
		Tokens:              ts.Tokens,
		Users:               store,
		UserService:         ts.Users,
		MembershipService:   membership,
		InvitationService:   service.NewInvitationService(log, store, store, store, store, membership, 0),
		RegistrationService: service.NewRegistrationService(log, store, store, store, store),
		ProjectService:      service.NewProjectService(log, store, store),
		ScoringService:      service.NewScoringService(log, store, store, store, store, store, store, nil),
		LeaderboardService:  leaderboard,
	}, log)

	ts.Server = httptest.NewServer(r)

	return ts, nil
}

func (s *TestServer) LoadFixtures() error {
	if s.storage != nil {
		tables := []string{
			"point_transactions", "team_invitations", "submissions", "team_projects",
			"user_projects", "project_participants", "projects", "users", "teams",
		}
		for _, table := range tables {
			_, err := s.storage.GetDB().Exec(fmt.Sprintf("TRUNCATE %s RESTART IDENTITY CASCADE", table))
			if err != nil {
				return fmt.Errorf("failed to truncate %s: %w", table, err)
			}
		}
	}

	fixtures := []service.CreateUserInput{
		{ID: AdminID, Username: "admin", Email: "admin@example.com", Role: models.RoleAdmin},
		{ID: AliceID, Username: "alice", Email: "alice@example.com"},
		{ID: BobID, Username: "bob", Email: "bob@example.com"},
		{ID: CarolID, Username: "carol", Email: "carol@example.com"},
	}
	for _, in := range fixtures {
		if _, err := s.Users.EnsureUser(context.Background(), in); err != nil {
			return fmt.Errorf("failed to load fixture %s: %w", in.Username, err)
		}
	}

	return nil
}

func (s *TestServer) Token(userID string) string {
	token, err := s.Tokens.Mint(userID, 0)
	if err != nil {
		panic(err)
	}
	return token
}

func (s *TestServer) Close() {
	s.Server.Close()
	if s.storage != nil {
		s.storage.Close()
	}
}
