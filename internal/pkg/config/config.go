package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Auth  AuthConfig
	Mongo MongoConfig
	Redis RedisConfig
	Media MediaConfig

	// HistoryWorkers is the number of sharded watch-history workers.
	HistoryWorkers int `env:"HISTORY_WORKERS, default=4"`
}

type AuthConfig struct {
	AccessTokenSecret  string        `env:"ACCESS_TOKEN_SECRET"`
	RefreshTokenSecret string        `env:"REFRESH_TOKEN_SECRET"`
	AccessTokenTTL     time.Duration `env:"ACCESS_TOKEN_TTL,  default=15m"`
	RefreshTokenTTL    time.Duration `env:"REFRESH_TOKEN_TTL, default=240h"`
	// RevokeSessionsOnPasswordChange clears the refresh-token slot when a
	// password changes, forcing a fresh login.
	RevokeSessionsOnPasswordChange bool `env:"REVOKE_SESSIONS_ON_PASSWORD_CHANGE, default=false"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=vidhub"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type MediaConfig struct {
	Endpoint      string `env:"MEDIA_ENDPOINT,    default=localhost:9000"`
	AccessKey     string `env:"MEDIA_ACCESS_KEY"`
	SecretKey     string `env:"MEDIA_SECRET_KEY"`
	Bucket        string `env:"MEDIA_BUCKET,      default=vidhub-media"`
	UseSSL        bool   `env:"MEDIA_USE_SSL,     default=false"`
	PublicBaseURL string `env:"MEDIA_PUBLIC_BASE_URL"`
}

// Load reads configuration from environment variables using go-envconfig.
// In development a .env file is loaded first when present.
func Load() *Config {
	if os.Getenv("ENV") != "production" {
		_ = godotenv.Load()
	}

	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
