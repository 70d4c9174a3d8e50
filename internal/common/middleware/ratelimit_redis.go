package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/FleetGuardian/FleetGuardian/internal/common/logger"
	"github.com/redis/go-redis/v9"
)

// RedisWindow 集中式固定窗口限流器：
// 计数放在 Redis（INCR + 首次置 EXPIRE），多实例共享同一份额度。
// Redis 不可用时放行（fail-open），并记录告警日志——限流是保护手段，
// 不能因为计数后端故障而拒绝全部流量。
type RedisWindow struct {
	client      *redis.Client
	keyPrefix   string
	window      time.Duration
	maxRequests int64
	log         logger.Logger
}

// NewRedisWindow 创建集中式窗口限流器
func NewRedisWindow(client *redis.Client, keyPrefix string, window time.Duration, maxRequests int, log logger.Logger) *RedisWindow {
	if window <= 0 {
		window = time.Second
	}
	if maxRequests <= 0 {
		maxRequests = 100
	}
	return &RedisWindow{
		client:      client,
		keyPrefix:   keyPrefix,
		window:      window,
		maxRequests: int64(maxRequests),
		log:         log,
	}
}

// Allow 检查是否允许请求
func (rw *RedisWindow) Allow(ctx context.Context) bool {
	if rw == nil || rw.client == nil {
		return true
	}

	// 按窗口起点分桶，同一窗口内所有实例 INCR 同一个 key
	bucket := time.Now().UnixNano() / int64(rw.window)
	key := fmt.Sprintf("%s:%d", rw.keyPrefix, bucket)

	pipe := rw.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, rw.window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		if rw.log != nil {
			rw.log.Warnf("redis rate limit unavailable, failing open: %v", err)
		}
		return true
	}
	return incr.Val() <= rw.maxRequests
}

// NewRedisClient 按配置创建 go-redis 客户端。
func NewRedisClient(host string, port int, password string, db, poolSize int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
		PoolSize: poolSize,
	})
}
