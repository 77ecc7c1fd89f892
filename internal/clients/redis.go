package clients

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/velotrace/velotrace-backend/internal/logger"
	"github.com/velotrace/velotrace-backend/internal/utils"
)

// NewRedisClient connects to the cache when REDIS_ADDR is set and returns nil
// otherwise. Callers treat a nil client as "caching disabled".
func NewRedisClient(log *logger.Logger) *redis.Client {
	addr := utils.GetEnv("REDIS_ADDR", "", log)
	if addr == "" {
		log.Info("REDIS_ADDR not set, caching disabled")
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: utils.GetEnv("REDIS_PASSWORD", "", log),
		DB:       utils.GetEnvAsInt("REDIS_DB", 0, log),
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("redis ping failed, caching disabled", "addr", addr, "error", err)
		return nil
	}
	log.Info("redis connected", "addr", addr)
	return client
}
