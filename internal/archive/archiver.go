package archive

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lvdashuaibi/ledgervote/config"
	"github.com/lvdashuaibi/ledgervote/internal/lock"
	"github.com/lvdashuaibi/ledgervote/internal/model"
	"github.com/lvdashuaibi/ledgervote/internal/service"
)

const (
	ArchiveLockName = "ledgervote:archive:lock"
)

// Store 归档存储
type Store interface {
	SaveHistoryEntries(ctx context.Context, entries []model.ArchiveEntry) (int64, error)
	CountByKind(ctx context.Context) ([]model.ArchiveStat, error)
}

// Archiver 定时把历史列表追加写入MySQL，多实例部署时只有持有锁的实例写入
type Archiver struct {
	election *service.ElectionService
	store    Store
	lock     lock.Lock
	interval time.Duration
	lockTTL  time.Duration
	logger   *zap.SugaredLogger

	stopChan chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	started  bool

	mu       sync.Mutex
	isLeader bool
	lastRun  time.Time
}

func NewArchiver(election *service.ElectionService, store Store, distributedLock lock.Lock, cfg config.ArchiveConfig, logger *zap.SugaredLogger) *Archiver {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	ttl := cfg.LockTimeout
	if ttl < interval {
		ttl = 2 * interval
	}
	return &Archiver{
		election: election,
		store:    store,
		lock:     distributedLock,
		interval: interval,
		lockTTL:  ttl,
		logger:   logger.With("module", "archiver"),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start 启动归档定时器
func (a *Archiver) Start() {
	a.mu.Lock()
	a.started = true
	a.mu.Unlock()

	ticker := time.NewTicker(a.interval)

	go func() {
		defer close(a.done)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), a.interval)
				if _, err := a.RunOnce(ctx); err != nil {
					a.logger.Warnw("归档失败", "err", err)
				}
				cancel()
			case <-a.stopChan:
				a.logger.Info("归档器已停止")
				return
			}
		}
	}()

	a.logger.Infow("归档器已启动", "interval", a.interval)
}

// Stop 停止定时器并释放锁
func (a *Archiver) Stop() {
	a.stopOnce.Do(func() {
		close(a.stopChan)
		a.mu.Lock()
		started := a.started
		a.mu.Unlock()
		if started {
			<-a.done
		}

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		a.mu.Lock()
		defer a.mu.Unlock()
		if a.isLeader {
			if err := a.lock.ReleaseLock(ctx, ArchiveLockName); err != nil {
				a.logger.Warnw("释放归档锁失败", "err", err)
			}
			a.isLeader = false
		}
	})
}

// IsLeader 当前实例是否负责归档
func (a *Archiver) IsLeader() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.isLeader
}

// ensureLeader 已持有则续期，否则尝试获取
func (a *Archiver) ensureLeader(ctx context.Context) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.isLeader {
		ok, err := a.lock.RefreshLock(ctx, ArchiveLockName, a.lockTTL)
		if err != nil {
			return false, fmt.Errorf("刷新归档锁失败: %w", err)
		}
		if ok {
			return true, nil
		}
		a.logger.Warn("归档锁已丢失")
		a.isLeader = false
	}

	acquired, err := a.lock.AcquireLock(ctx, ArchiveLockName, a.lockTTL)
	if err != nil {
		return false, fmt.Errorf("获取归档锁失败: %w", err)
	}
	if acquired {
		a.logger.Info("获得归档锁，本实例负责归档")
	}
	a.isLeader = acquired
	return acquired, nil
}

// RunOnce 执行一轮归档，未持有锁时直接返回
func (a *Archiver) RunOnce(ctx context.Context) (int64, error) {
	leader, err := a.ensureLeader(ctx)
	if err != nil || !leader {
		return 0, err
	}

	var (
		entries []model.ArchiveEntry
		errs    []error
	)
	collect := func(kind model.Kind, build func() ([]model.ArchiveEntry, error)) {
		if err := a.election.Refresh(ctx, kind); err != nil {
			// 当前状态失败不影响历史归档，历史本身失败时下面会跳过
			a.logger.Debugw("刷新失败", "kind", kind, "err", err)
		}
		e, err := build()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", kind, err))
			return
		}
		entries = append(entries, e...)
	}

	collect(model.KindCandidate, func() ([]model.ArchiveEntry, error) {
		v := a.election.Candidates(model.ModeHistory, "")
		if v.Err != nil {
			return nil, v.Err
		}
		return CandidateEntries(v.Rows)
	})
	collect(model.KindVoter, func() ([]model.ArchiveEntry, error) {
		v := a.election.Voters(model.ModeHistory, "")
		if v.Err != nil {
			return nil, v.Err
		}
		return VoterEntries(v.Rows)
	})
	collect(model.KindVote, func() ([]model.ArchiveEntry, error) {
		v := a.election.Tallies(model.ModeHistory, "")
		if v.Err != nil {
			return nil, v.Err
		}
		return TallyEntries(v.Rows)
	})

	inserted, err := a.store.SaveHistoryEntries(ctx, entries)
	if err != nil {
		errs = append(errs, err)
	}

	a.mu.Lock()
	a.lastRun = time.Now()
	a.mu.Unlock()

	a.logger.Infow("归档完成", "entries", len(entries), "inserted", inserted)
	return inserted, errors.Join(errs...)
}

// Stats 每种实体已归档的条数
func (a *Archiver) Stats(ctx context.Context) ([]model.ArchiveStat, error) {
	return a.store.CountByKind(ctx)
}

// LastRun 最近一次执行归档的时间
func (a *Archiver) LastRun() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastRun
}
