package persistence

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
)

const (
	redisDialTimeout  = 2 * time.Second
	redisWriteTimeout = time.Second
)

// Redis holds the client used for realtime fan-out.
type Redis struct {
	Client *redis.Client
	addr   string
	logger *zap.Logger
}

// NewRedis builds the client and probes it once. Publishing is best-effort,
// so an unreachable server only produces a warning.
func NewRedis(ctx context.Context, cfg config.RedisConfig, appName string, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ClientName:   appName,
		DialTimeout:  redisDialTimeout,
		WriteTimeout: redisWriteTimeout,
	})
	r := &Redis{Client: client, addr: cfg.Addr, logger: logger}

	probeCtx, cancel := context.WithTimeout(ctx, redisDialTimeout)
	defer cancel()
	if err := client.Ping(probeCtx).Err(); err != nil {
		logger.Warn("redis unreachable, broadcasts will fail until it recovers", zap.String("addr", cfg.Addr), zap.Error(err))
	} else {
		logger.Info("redis connected", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	}
	return r
}

// Close releases the client.
func (r *Redis) Close() {
	if r == nil || r.Client == nil {
		return
	}
	if err := r.Client.Close(); err != nil {
		r.logger.Warn("redis close failed", zap.String("addr", r.addr), zap.Error(err))
	}
}
