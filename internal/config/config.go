package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/crypto/bcrypt"

	"roomchat/pkg/logger"
)

const devJWTSecret = "dev-secret-change-me"

type Config struct {
	Port            string        `envconfig:"PORT" default:"3001"`
	AllowedOrigins  []string      `envconfig:"ALLOWED_ORIGINS" default:"*"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	MongoURI      string `envconfig:"MONGODB_URI" default:"mongodb://localhost:27017"`
	MongoDatabase string `envconfig:"MONGODB_DATABASE" default:"chat"`

	JWTSecret        string        `envconfig:"JWT_SECRET"`
	AccessTokenTTL   time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"24h"`
	RequireJoinToken bool          `envconfig:"REQUIRE_JOIN_TOKEN" default:"false"`
	BcryptCost       int           `envconfig:"BCRYPT_COST" default:"10"`
	LoginMaxFailures int           `envconfig:"LOGIN_MAX_FAILURES" default:"5"`
	LoginLockout     time.Duration `envconfig:"LOGIN_LOCKOUT" default:"1m"`

	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisPrefix   string        `envconfig:"REDIS_PREFIX" default:"chat"`
	ServerID      string        `envconfig:"SERVER_ID"`
	PresenceTTL   time.Duration `envconfig:"PRESENCE_TTL" default:"1m"`

	NatsURL     string `envconfig:"NATS_URL"`
	NatsSubject string `envconfig:"NATS_SUBJECT" default:"chat.room"`

	SendBuffer     int   `envconfig:"SEND_BUFFER" default:"256"`
	MaxMessageSize int64 `envconfig:"MAX_MESSAGE_SIZE" default:"4096"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogJSON  bool   `envconfig:"LOG_JSON" default:"false"`
	LogFile  string `envconfig:"LOG_FILE"`
}

// Load reads an optional .env file, then the process environment.
func Load() (Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	if cfg.ServerID == "" {
		host, err := os.Hostname()
		if err != nil || host == "" {
			host = "server-1"
		}
		cfg.ServerID = host
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("PORT must not be empty"))
	}
	if c.MongoDatabase == "" {
		errs = append(errs, errors.New("MONGODB_DATABASE must not be empty"))
	}
	if c.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_TTL must be positive"))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be within [%d, %d]", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.LoginMaxFailures <= 0 {
		errs = append(errs, errors.New("LOGIN_MAX_FAILURES must be positive"))
	}
	if c.SendBuffer <= 0 {
		errs = append(errs, errors.New("SEND_BUFFER must be positive"))
	}
	if c.MaxMessageSize <= 0 {
		errs = append(errs, errors.New("MAX_MESSAGE_SIZE must be positive"))
	}
	if c.RedisAddr != "" && c.PresenceTTL <= 0 {
		errs = append(errs, errors.New("PRESENCE_TTL must be positive when REDIS_ADDR is set"))
	}
	return errors.Join(errs...)
}

// Secret returns the signing key and whether it is the development fallback.
func (c Config) Secret() (string, bool) {
	if c.JWTSecret == "" {
		return devJWTSecret, true
	}
	return c.JWTSecret, false
}

func (c Config) Addr() string {
	return ":" + c.Port
}

func (c Config) Logger() logger.Config {
	lc := logger.DefaultConfig()
	lc.Level = c.LogLevel
	lc.JSON = c.LogJSON
	lc.FilePath = c.LogFile
	return lc
}
