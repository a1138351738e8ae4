package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/google/uuid"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"

	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	Env           string         `env:"ENV" env-default:"dev"`
	StorageDriver string         `env:"STORAGE_DRIVER" env-default:"postgres"`
	Server        HTTPServer     `env-prefix:"SERVER_"`
	Postgres      PostgresConfig `env-prefix:"PG_"`
	Redis         RedisConfig    `env-prefix:"REDIS_"`
	Auth          AuthConfig     `env-prefix:"AUTH_"`
	Team          TeamConfig     `env-prefix:"TEAM_"`
	Admin         AdminConfig    `env-prefix:"BOOTSTRAP_ADMIN_"`
}

type HTTPServer struct {
	Port         string        `env:"PORT" env-default:"8080"`
	Timeout      time.Duration `env:"TIMEOUT" env-default:"5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" env-default:"15s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" env-default:"15s"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT" env-default:"60s"`
}

type PostgresConfig struct {
	Host     string `env:"HOST" env-default:"localhost"`
	Port     int    `env:"PORT" env-default:"5432"`
	User     string `env:"USER" env-default:"postgres"`
	Password string `env:"PASSWORD" env-default:"postgres"`
	DbName   string `env:"DBNAME" env-default:"competition_db"`
	SslMode  string `env:"SSLMODE" env-default:"disable"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DbName, c.SslMode)
}

type RedisConfig struct {
	Enabled  bool   `env:"ENABLED" env-default:"false"`
	Addr     string `env:"ADDR" env-default:"localhost:6379"`
	Password string `env:"PASSWORD" env-default:""`
	DB       int    `env:"DB" env-default:"0"`
}

type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET" env-required:"true"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" env-default:"24h"`
}

type TeamConfig struct {
	MinMembers    int           `env:"MIN_MEMBERS" env-default:"2"`
	MaxMembers    int           `env:"MAX_MEMBERS" env-default:"5"`
	InvitationTTL time.Duration `env:"INVITATION_TTL" env-default:"168h"`
}

// AdminConfig describes an admin account provisioned at startup when it does
// not exist yet.
type AdminConfig struct {
	ID       string `env:"ID" env-default:""`
	Username string `env:"USERNAME" env-default:""`
	Email    string `env:"EMAIL" env-default:""`
}

func (c AdminConfig) Enabled() bool {
	return c.Username != "" && c.Email != ""
}

// Load reads an optional .env file and then the process environment.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: failed to load env file: %w", err)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: failed to read environment: %w", err)
	}

	if cfg.Team.MinMembers < 1 || cfg.Team.MinMembers > cfg.Team.MaxMembers {
		return nil, fmt.Errorf("config: invalid team bounds %d..%d", cfg.Team.MinMembers, cfg.Team.MaxMembers)
	}
	if cfg.StorageDriver != StorageDriverPostgres && cfg.StorageDriver != StorageDriverMemory {
		return nil, fmt.Errorf("config: unknown storage driver %q", cfg.StorageDriver)
	}
	if cfg.Admin.ID != "" {
		if err := uuid.Validate(cfg.Admin.ID); err != nil {
			return nil, fmt.Errorf("config: bootstrap admin id: %w", err)
		}
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	return cfg
}
