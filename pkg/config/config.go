package config

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/itsDrac/e-auc-live/pkg/utils"
)

const (
	// Token Expiration Durations
	AccessTokenDuration  = 15 * time.Minute
	RefreshTokenDuration = 7 * 24 * time.Hour

	// Context Keys
	UserClaimKey = "user_claims"

	//HttpOnly Cookie Name
	RefreshTokenCookieName = "refresh_token"

	ProductionEnv = "production"
)

// UserClaims is the payload for the Access Token
type UserClaims struct {
	UserID uuid.UUID `json:"user_id"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload for the Refresh token
type RefreshClaims struct {
	UserID uuid.UUID `json:"user_id"`
	jwt.RegisteredClaims
}

// Config holds every runtime knob of the service. Optional collaborators
// (Postgres, Redis, MinIO, RabbitMQ) are disabled when their address is empty.
type Config struct {
	Env  string
	Host string
	Port string

	DBDsn          string
	MigrationsPath string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string

	AMQPURL       string
	OutboundQueue string

	AccessSecret  string
	RefreshSecret string

	SweepInterval     time.Duration
	BidLockTTL        time.Duration
	BidLockWait       time.Duration
	NotificationLimit int
}

// Load reads the configuration from the environment.
func Load() Config {
	return Config{
		Env:  utils.GetEnv("GO_ENV", "development"),
		Host: utils.GetEnv("SERVER_HOST", "0.0.0.0"),
		Port: utils.GetEnv("SERVER_PORT", "8080"),

		DBDsn:          utils.GetEnv("DB_DSN", ""),
		MigrationsPath: utils.GetEnv("MIGRATIONS_PATH", ""),

		RedisAddr:     utils.GetEnv("REDIS_ADDR", ""),
		RedisPassword: utils.GetEnv("REDIS_PASSWORD", ""),
		RedisDB:       utils.GetIntEnv("REDIS_DB", 0),

		MinioEndpoint:  utils.GetEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: utils.GetEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey: utils.GetEnv("MINIO_SECRET_KEY", "minioadmin"),
		MinioBucket:    utils.GetEnv("MINIO_BUCKET", "auction-images"),

		AMQPURL:       utils.GetEnv("AMQP_URL", ""),
		OutboundQueue: utils.GetEnv("OUTBOUND_QUEUE", "outbound_notifications"),

		AccessSecret:  utils.GetEnv("ACCESS_TOKEN_SECRET", ""),
		RefreshSecret: utils.GetEnv("REFRESH_TOKEN_SECRET", ""),

		SweepInterval:     utils.GetDurationEnv("SWEEP_INTERVAL", 30*time.Second),
		BidLockTTL:        utils.GetDurationEnv("BID_LOCK_TTL", 5*time.Second),
		BidLockWait:       utils.GetDurationEnv("BID_LOCK_WAIT", 250*time.Millisecond),
		NotificationLimit: utils.GetIntEnv("NOTIFICATION_LIMIT", 50),
	}
}

// Addr is the listen address of the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func (c Config) IsProduction() bool {
	return c.Env == ProductionEnv
}
