package lock

import (
	"context"
	"sync"
	"time"
)

// LocalLock 进程内锁，单实例部署和测试使用
type LocalLock struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

func NewLocalLock() *LocalLock {
	return &LocalLock{expires: make(map[string]time.Time), now: time.Now}
}

func (l *LocalLock) AcquireLock(_ context.Context, lockName string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.expires[lockName] = l.now().Add(ttl)
	return true, nil
}

func (l *LocalLock) RefreshLock(_ context.Context, lockName string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	exp, ok := l.expires[lockName]
	if !ok || l.now().After(exp) {
		delete(l.expires, lockName)
		return false, nil
	}
	l.expires[lockName] = l.now().Add(ttl)
	return true, nil
}

func (l *LocalLock) ReleaseLock(_ context.Context, lockName string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.expires, lockName)
	return nil
}

func (l *LocalLock) ReleaseAllLocks(context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.expires = make(map[string]time.Time)
}

func (l *LocalLock) Close() error {
	l.ReleaseAllLocks(context.Background())
	return nil
}
