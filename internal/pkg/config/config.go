package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET, required"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	// APIBaseURL is where the survey wizard reaches the REST API. It
	// defaults to this same process.
	APIBaseURL     string        `env:"API_BASE_URL"`
	BackendTimeout time.Duration `env:"BACKEND_TIMEOUT, default=15s"`

	AuthCookie string        `env:"AUTH_COOKIE, default=token"`
	RoleCookie string        `env:"ROLE_COOKIE, default=role"`
	TokenTTL   time.Duration `env:"TOKEN_TTL,   default=24h"`

	AttachmentMaxBytes int64         `env:"ATTACHMENT_MAX_BYTES, default=10485760"`
	DraftTTL           time.Duration `env:"DRAFT_TTL,            default=168h"`
	SaveLockTTL        time.Duration `env:"SAVE_LOCK_TTL,        default=30s"`
	AuditWorkers       int           `env:"AUDIT_WORKERS,        default=4"`

	Mongo MongoConfig
	Redis RedisConfig
	S3    S3Config
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=sgirs_cali"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type S3Config struct {
	Bucket    string `env:"S3_BUCKET,     default=sgirs-attachments"`
	Endpoint  string `env:"S3_ENDPOINT"`
	PathStyle bool   `env:"S3_PATH_STYLE, default=false"`
}

// Production reports whether the portal runs with production settings.
func (c *Config) Production() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "http://localhost:" + cfg.Port + "/api"
	}
	if cfg.AuditWorkers < 1 {
		cfg.AuditWorkers = 1
	}
	return &cfg, nil
}
