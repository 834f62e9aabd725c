package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lvdashuaibi/ledgervote/config"
)

const (
	// 只刷新自己持有的锁
	refreshScript = `
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("PEXPIRE", KEYS[1], ARGV[2])
		else
			return 0
		end
	`

	// 只释放自己持有的锁
	unlockScript = `
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		else
			return 0
		end
	`
)

// RedLock 多个独立Redis节点上的Redlock
type RedLock struct {
	clients []*redis.Client
	addrs   []string
	logger  *zap.SugaredLogger
	retries int

	mu    sync.Mutex
	locks map[string]string // key是锁名，value是token值
}

// NewRedLock 创建新的分布式锁客户端
func NewRedLock(ctx context.Context, cfg config.RedisConfig, retries int, logger *zap.SugaredLogger) (*RedLock, error) {
	var clients []*redis.Client

	for _, addr := range cfg.LockAddresses {
		client := redis.NewClient(&redis.Options{
			Addr:         addr,
			Password:     cfg.Password,
			DB:           cfg.DB,
			PoolSize:     cfg.PoolSize,
			MaxRetries:   cfg.MaxRetries,
			DialTimeout:  cfg.Timeout,
			ReadTimeout:  cfg.Timeout,
			WriteTimeout: cfg.Timeout,
		})

		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			for _, c := range clients {
				c.Close()
			}
			return nil, fmt.Errorf("Redis锁节点 %s 连接测试失败: %w", addr, err)
		}

		clients = append(clients, client)
	}

	if retries <= 0 {
		retries = 1
	}

	return &RedLock{
		clients: clients,
		addrs:   cfg.LockAddresses,
		logger:  logger.With("module", "redlock"),
		retries: retries,
		locks:   make(map[string]string),
	}, nil
}

func (r *RedLock) quorum() int {
	return len(r.clients)/2 + 1
}

// AcquireLock 获取分布式锁
func (r *RedLock) AcquireLock(ctx context.Context, lockName string, ttl time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.locks[lockName]; ok {
		return true, nil
	}

	token := uuid.NewString()

	// Redlock算法: 尝试在多个节点上获取锁
	for attempt := 0; attempt < r.retries; attempt++ {
		success := 0
		start := time.Now()

		for i, client := range r.clients {
			ok, err := client.SetNX(ctx, lockName, token, ttl).Result()
			if err != nil {
				r.logger.Warnw("在节点获取锁失败", "node", r.addrs[i], "lock", lockName, "err", err)
				continue
			}
			if ok {
				success++
			}
		}

		// 判断是否在多数节点获取成功
		validityTime := ttl - time.Since(start)
		if success >= r.quorum() && validityTime > 0 {
			r.locks[lockName] = token
			r.logger.Infow("获取锁成功", "lock", lockName)
			return true, nil
		}

		// 获取失败，释放所有节点上的锁
		r.unlockAll(ctx, lockName, token)

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}

	return false, nil
}

// RefreshLock 刷新锁的过期时间
func (r *RedLock) RefreshLock(ctx context.Context, lockName string, ttl time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, exists := r.locks[lockName]
	if !exists {
		return false, nil
	}

	success := 0
	for i, client := range r.clients {
		result, err := client.Eval(ctx, refreshScript, []string{lockName}, token, ttl.Milliseconds()).Int64()
		if err != nil {
			r.logger.Warnw("在节点刷新锁失败", "node", r.addrs[i], "lock", lockName, "err", err)
			continue
		}
		if result == 1 {
			success++
		}
	}

	if success >= r.quorum() {
		return true, nil
	}

	delete(r.locks, lockName)
	r.logger.Warnw("刷新锁未达多数节点，锁已丢失", "lock", lockName, "success", success)
	return false, nil
}

// ReleaseLock 释放分布式锁
func (r *RedLock) ReleaseLock(ctx context.Context, lockName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, exists := r.locks[lockName]
	if !exists {
		return nil
	}

	r.unlockAll(ctx, lockName, token)
	delete(r.locks, lockName)
	r.logger.Infow("释放锁成功", "lock", lockName)
	return nil
}

// unlockAll 在所有节点上释放锁
func (r *RedLock) unlockAll(ctx context.Context, lockName string, token string) {
	for i, client := range r.clients {
		if err := client.Eval(ctx, unlockScript, []string{lockName}, token).Err(); err != nil {
			r.logger.Warnw("在节点释放锁失败", "node", r.addrs[i], "lock", lockName, "err", err)
		}
	}
}

// ReleaseAllLocks 释放所有持有的锁
func (r *RedLock) ReleaseAllLocks(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, token := range r.locks {
		r.unlockAll(ctx, name, token)
	}
	r.locks = make(map[string]string)
}

// Close 关闭分布式锁客户端
func (r *RedLock) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	r.ReleaseAllLocks(ctx)

	for i, client := range r.clients {
		if err := client.Close(); err != nil {
			r.logger.Warnw("关闭Redis客户端失败", "node", r.addrs[i], "err", err)
		}
	}
	return nil
}
