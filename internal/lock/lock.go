package lock

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lvdashuaibi/ledgervote/config"
)

// Lock 分布式锁接口
type Lock interface {
	// AcquireLock 获取分布式锁，已持有时直接返回true
	// 返回值：bool表示是否成功获取锁，error表示获取过程中的错误
	AcquireLock(ctx context.Context, lockName string, ttl time.Duration) (bool, error)

	// RefreshLock 刷新锁的过期时间，返回false表示锁已丢失
	RefreshLock(ctx context.Context, lockName string, ttl time.Duration) (bool, error)

	// ReleaseLock 释放分布式锁
	ReleaseLock(ctx context.Context, lockName string) error

	// ReleaseAllLocks 释放所有持有的锁
	ReleaseAllLocks(ctx context.Context)

	// Close 关闭分布式锁客户端
	Close() error
}

const (
	BackendEtcd  = "etcd"
	BackendRedis = "redis"
	BackendLocal = "local"
)

// New 按配置选择锁实现，对应后端未配置地址时退回进程内锁
func New(ctx context.Context, cfg config.Config, logger *zap.SugaredLogger) (Lock, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	switch cfg.Archive.LockBackend {
	case BackendEtcd:
		if len(cfg.ETCD.Endpoints) > 0 {
			return NewETCDLock(cfg.ETCD, logger)
		}
	case BackendRedis:
		if len(cfg.Redis.LockAddresses) > 0 {
			return NewRedLock(ctx, cfg.Redis, cfg.Archive.LockRetryCount, logger)
		}
	case BackendLocal, "":
	default:
		return nil, fmt.Errorf("未知的锁类型: %q", cfg.Archive.LockBackend)
	}

	logger.Infow("未配置分布式锁地址，使用进程内锁", "backend", cfg.Archive.LockBackend)
	return NewLocalLock(), nil
}
