package archive

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"

	"github.com/lvdashuaibi/ledgervote/config"
	"github.com/lvdashuaibi/ledgervote/internal/bignum"
	"github.com/lvdashuaibi/ledgervote/internal/client"
	"github.com/lvdashuaibi/ledgervote/internal/client/mocks"
	"github.com/lvdashuaibi/ledgervote/internal/lock"
	"github.com/lvdashuaibi/ledgervote/internal/model"
	"github.com/lvdashuaibi/ledgervote/internal/service"
)

// memStore 以 (kind, key) 去重的内存归档
type memStore struct {
	rows map[string]model.ArchiveEntry
}

func newMemStore() *memStore {
	return &memStore{rows: map[string]model.ArchiveEntry{}}
}

func (s *memStore) SaveHistoryEntries(_ context.Context, entries []model.ArchiveEntry) (int64, error) {
	var inserted int64
	for _, e := range entries {
		k := string(e.Kind) + "/" + e.Key
		if _, ok := s.rows[k]; ok {
			continue
		}
		s.rows[k] = e
		inserted++
	}
	return inserted, nil
}

func (s *memStore) CountByKind(context.Context) ([]model.ArchiveStat, error) {
	counts := map[model.Kind]int64{}
	for _, e := range s.rows {
		counts[e.Kind]++
	}
	var out []model.ArchiveStat
	for _, k := range model.Kinds {
		if counts[k] > 0 {
			out = append(out, model.ArchiveStat{Kind: k, Count: counts[k]})
		}
	}
	return out, nil
}

// busyLock 锁总被其它实例持有
type busyLock struct{ lock.LocalLock }

func (*busyLock) AcquireLock(context.Context, string, time.Duration) (bool, error) { return false, nil }

var bodies = map[client.Endpoint]string{
	client.EndpointCandidates:         `{"candidates": []}`,
	client.EndpointCandidateHistories: `[[{"hex":"0x01"}, "Alice", "v", "m", {"hex":"0x65a0bc00"}, "0x1234", {"hex":"0x10"}], [{"hex":"0x01"}, "Alice", "v", "m", {"hex":"0x65a0bc00"}, "0x1234", {"hex":"0x10"}]]`,
	client.EndpointVoters:             `{"voters": []}`,
	client.EndpointVoterHistories:     `[[{"hex":"0x2ef4"}, "Dave", "d@x", true, null, {"hex":"0x65a0bc01"}]]`,
	client.EndpointVoteCounts:         `{"voteCounts": []}`,
	client.EndpointVoteHistories:      `[[{"hex":"0x01"}, {"hex":"0x01"}, {"hex":"0x65a0bc02"}]]`,
}

func newElection(t *testing.T) *service.ElectionService {
	ctrl := gomock.NewController(t)
	api := mocks.NewMockAPI(ctrl)
	api.EXPECT().Fetch(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, e client.Endpoint) ([]byte, error) {
			return []byte(bodies[e]), nil
		}).AnyTimes()
	return service.NewElectionService(api, nil, nil, nil)
}

func TestRunOnceArchivesHistoryIdempotently(t *testing.T) {
	store := newMemStore()
	a := NewArchiver(newElection(t), store, lock.NewLocalLock(), config.Default().Archive, nil)
	ctx := context.Background()

	inserted, err := a.RunOnce(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 重复的候选人历史只归档一次
	if inserted != 3 {
		t.Errorf("expected 3 new entries, got %d", inserted)
	}
	if !a.IsLeader() {
		t.Errorf("archiver should hold the lock after running")
	}

	inserted, err = a.RunOnce(ctx)
	if err != nil || inserted != 0 {
		t.Errorf("second run should insert nothing, got %d, %v", inserted, err)
	}

	stats, _ := a.Stats(ctx)
	if len(stats) != 3 {
		t.Errorf("expected stats for 3 kinds, got %+v", stats)
	}
}

func TestRunOnceWithoutLockDoesNothing(t *testing.T) {
	store := newMemStore()
	a := NewArchiver(newElection(t), store, &busyLock{}, config.Default().Archive, nil)

	inserted, err := a.RunOnce(context.Background())
	if err != nil || inserted != 0 || len(store.rows) != 0 {
		t.Errorf("followers must not write, got %d, %v", inserted, err)
	}
	if a.IsLeader() {
		t.Errorf("archiver should not be leader")
	}
}

type failingStore struct{ memStore }

func (failingStore) SaveHistoryEntries(context.Context, []model.ArchiveEntry) (int64, error) {
	return 0, errors.New("mysql down")
}

func TestRunOnceReportsStoreError(t *testing.T) {
	a := NewArchiver(newElection(t), &failingStore{}, lock.NewLocalLock(), config.Default().Archive, nil)
	if _, err := a.RunOnce(context.Background()); err == nil {
		t.Errorf("expected store error")
	}
}

func TestCandidateEntries(t *testing.T) {
	c := model.Candidate{
		Source:          model.SourceHistory,
		ID:              bignum.FromUint64(10),
		Name:            "Carol",
		LastUpdated:     bignum.FromUint64(1705032704),
		TransactionHash: model.ParseTxHash("0x1234"),
	}
	entries, err := CandidateEntries([]model.Candidate{c, {Source: model.SourceHistory, ID: bignum.FromUint64(10), Name: "Carol"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e := entries[0]
	if e.RecordID != "10" || e.ObservedTS == nil || *e.ObservedTS != 1705032704 || e.TxHash == "" || e.BlockNumber != "" {
		t.Errorf("unexpected entry %+v", e)
	}
	if entries[1].ObservedTS != nil || entries[1].TxHash != "" {
		t.Errorf("absent fields should be stored as NULL, got %+v", entries[1])
	}
	if e.Key == entries[1].Key || len(e.Key) != 66 {
		t.Errorf("keys should be distinct content hashes, got %s / %s", e.Key, entries[1].Key)
	}

	var payload map[string]string
	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		t.Fatalf("payload should be JSON: %v", err)
	}
	if payload["lastUpdated"] != "2024-01-12T04:11:44Z" || payload["blockNumber"] != bignum.NotAvailable {
		t.Errorf("unexpected payload %v", payload)
	}
}

func TestStopWithoutStart(t *testing.T) {
	a := NewArchiver(newElection(t), newMemStore(), lock.NewLocalLock(), config.Default().Archive, nil)
	a.Stop()
	a.Stop()
}
