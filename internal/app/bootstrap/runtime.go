package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/voice-intake/internal/booking"
	appconfig "github.com/wolfman30/voice-intake/internal/config"
	"github.com/wolfman30/voice-intake/internal/intake"
	"github.com/wolfman30/voice-intake/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildSessionStore returns the Redis session store, or the in-process store
// when Redis is disabled.
func BuildSessionStore(redisClient *redis.Client, cfg *appconfig.Config, logger *logging.Logger) intake.SessionStore {
	if redisClient == nil {
		if logger != nil {
			logger.Warn("redis not configured; intake sessions are kept in memory")
		}
		return intake.NewMemorySessionStore()
	}
	ttl := intake.DefaultSessionTTL
	if cfg != nil && cfg.SessionTTL > 0 {
		ttl = cfg.SessionTTL
	}
	return intake.NewRedisSessionStore(redisClient, ttl)
}

// BuildLedger connects the appointment ledger when DATABASE_URL is set. The
// returned pool must be closed by the caller; both are nil when disabled.
func BuildLedger(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*booking.Ledger, *pgxpool.Pool, error) {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, nil, nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: connect ledger: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("bootstrap: ping ledger: %w", err)
	}
	logger.Info("appointment ledger enabled")
	return booking.NewLedger(pool), pool, nil
}
