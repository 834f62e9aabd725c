package lock

import (
	"context"
	"testing"
	"time"

	"github.com/lvdashuaibi/ledgervote/config"
)

func TestLocalLockLifecycle(t *testing.T) {
	ctx := context.Background()
	l := NewLocalLock()
	now := time.Unix(1000, 0)
	l.now = func() time.Time { return now }

	if ok, _ := l.RefreshLock(ctx, "archive", time.Second); ok {
		t.Fatalf("refresh without holding should fail")
	}
	if ok, err := l.AcquireLock(ctx, "archive", time.Second); !ok || err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if ok, _ := l.RefreshLock(ctx, "archive", time.Second); !ok {
		t.Errorf("refresh while holding should succeed")
	}

	now = now.Add(2 * time.Second)
	if ok, _ := l.RefreshLock(ctx, "archive", time.Second); ok {
		t.Errorf("refresh after expiry should report the lock lost")
	}

	l.AcquireLock(ctx, "archive", time.Second)
	if err := l.ReleaseLock(ctx, "archive"); err != nil {
		t.Fatal(err)
	}
	if ok, _ := l.RefreshLock(ctx, "archive", time.Second); ok {
		t.Errorf("refresh after release should fail")
	}
}

func TestNewFallsBackToLocal(t *testing.T) {
	cfg := config.Default()
	cfg.ETCD.Endpoints = nil

	l, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := l.(*LocalLock); !ok {
		t.Errorf("expected LocalLock without etcd endpoints, got %T", l)
	}

	cfg.Archive.LockBackend = "zookeeper"
	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Errorf("unknown backend should be rejected")
	}
}

func TestTTLSeconds(t *testing.T) {
	if ttlSeconds(500*time.Millisecond) != minTTLSeconds || ttlSeconds(30*time.Second) != 30 {
		t.Errorf("unexpected ttl conversion")
	}
}
