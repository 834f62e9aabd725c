package view

import (
	"sync"

	"github.com/lvdashuaibi/ledgervote/internal/bignum"
	"github.com/lvdashuaibi/ledgervote/internal/model"
)

// ListSpec 某一实体列表的匹配、排序、去重规则
type ListSpec[T any] struct {
	Match       func(T, string) bool
	Timestamp   func(T) bignum.Int
	Fingerprint func(T) string
	Key         func(T) string
}

var (
	CandidateSpec = ListSpec[model.Candidate]{
		Match:       MatchCandidate,
		Timestamp:   CandidateTimestamp,
		Fingerprint: CandidateFingerprint,
		Key:         CandidateKey,
	}
	VoterSpec = ListSpec[model.Voter]{
		Match:       MatchVoter,
		Timestamp:   VoterTimestamp,
		Fingerprint: VoterFingerprint,
		Key:         VoterKey,
	}
	TallySpec = ListSpec[model.VoteTally]{
		Match:       MatchVoteTally,
		Timestamp:   TallyTimestamp,
		Fingerprint: TallyFingerprint,
		Key:         TallyKey,
	}
)

// ListState 一个列表页面的状态：两份数据源、当前模式、查询词和派生出的可见行。
// 可见行只由 (数据源, 模式, 查询词) 决定。
type ListState[T any] struct {
	mu      sync.RWMutex
	spec    ListSpec[T]
	current []T
	history []T
	mode    model.Mode
	query   string
	rows    []T
}

func NewListState[T any](spec ListSpec[T]) *ListState[T] {
	return &ListState[T]{spec: spec, mode: model.ModeCurrent}
}

// SetCurrent 替换当前状态数据源
func (s *ListState[T]) SetCurrent(items []T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = items
	s.derive()
}

// SetHistory 替换历史数据源
func (s *ListState[T]) SetHistory(items []T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = items
	s.derive()
}

// SetMode 切换视图，同时清空查询词
func (s *ListState[T]) SetMode(mode model.Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
	s.query = ""
	s.derive()
}

// SetQuery 设置查询词
func (s *ListState[T]) SetQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = query
	s.derive()
}

func (s *ListState[T]) Mode() model.Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

func (s *ListState[T]) Query() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query
}

// Rows 返回可见行的副本
func (s *ListState[T]) Rows() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, len(s.rows))
	copy(out, s.rows)
	return out
}

// Keys 可见行对应的唯一键
func (s *ListState[T]) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Keys(s.rows, s.spec.Key)
}

func (s *ListState[T]) derive() {
	s.rows = Derive(s.spec, s.current, s.history, s.mode, s.query)
}

// Derive 无状态版本：历史按时间倒序并去重，当前状态保持接口返回的顺序，再按查询词过滤
func Derive[T any](spec ListSpec[T], current, history []T, mode model.Mode, query string) []T {
	src := current
	if mode == model.ModeHistory {
		src = Dedupe(SortByRecency(history, spec.Timestamp), spec.Fingerprint)
	}
	return Filter(src, query, spec.Match)
}
