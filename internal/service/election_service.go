package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/lvdashuaibi/ledgervote/internal/bignum"
	"github.com/lvdashuaibi/ledgervote/internal/client"
	"github.com/lvdashuaibi/ledgervote/internal/model"
	"github.com/lvdashuaibi/ledgervote/internal/normalize"
	"github.com/lvdashuaibi/ledgervote/internal/view"
)

var (
	// ErrInvalidInput 请求参数不合法，未发送到后端
	ErrInvalidInput = errors.New("invalid input")
	// ErrDuplicateID 新增时ID已存在
	ErrDuplicateID = errors.New("id already exists")
)

// SnapshotCache 接口响应快照缓存
type SnapshotCache interface {
	Generation(ctx context.Context, kind model.Kind) (string, error)
	GetSnapshot(ctx context.Context, kind model.Kind, endpoint string) ([]byte, bool, error)
	SetSnapshot(ctx context.Context, kind model.Kind, endpoint, generation string, body []byte) (bool, error)
	Invalidate(ctx context.Context, kind model.Kind, endpoints ...string) error
}

// EventPublisher 刷新事件发布
type EventPublisher interface {
	SendRefreshEvent(ctx context.Context, event *model.RefreshEvent) error
}

// list 一次拉取的结果，失败时为空列表加错误
type list[T any] struct {
	items     []T
	err       error
	fetchedAt time.Time
}

type state struct {
	candidates       list[model.Candidate]
	candidateHistory list[model.Candidate]
	voters           list[model.Voter]
	voterHistory     list[model.Voter]
	tallies          list[model.VoteTally]
	tallyHistory     list[model.VoteTally]
}

// ElectionService 持有各列表的最新快照，每次刷新整体替换
type ElectionService struct {
	api        client.API
	cache      SnapshotCache
	publisher  EventPublisher
	logger     *zap.SugaredLogger
	instanceID string
	now        func() time.Time

	mu    sync.RWMutex
	state state
}

// NewElectionService cache 和 publisher 可以为 nil
func NewElectionService(api client.API, cache SnapshotCache, publisher EventPublisher, logger *zap.SugaredLogger) *ElectionService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &ElectionService{
		api:        api,
		cache:      cache,
		publisher:  publisher,
		logger:     logger.With("module", "election"),
		instanceID: uuid.NewString(),
		now:        time.Now,
	}
}

// InstanceID 本实例标识，用于识别自己发出的刷新事件
func (s *ElectionService) InstanceID() string {
	return s.instanceID
}

// Refresh 并发拉取某类实体的当前状态和历史，两者互不影响，优先使用快照缓存
func (s *ElectionService) Refresh(ctx context.Context, kind model.Kind) error {
	return s.refresh(ctx, kind, false)
}

// ForceRefresh 用户主动刷新：跳过快照缓存直接请求后端，结果仍写回缓存。
// 不传 kinds 时刷新全部实体。
func (s *ElectionService) ForceRefresh(ctx context.Context, kinds ...model.Kind) error {
	if len(kinds) == 0 {
		kinds = model.Kinds
	}
	return s.refreshKinds(ctx, kinds, true)
}

func (s *ElectionService) refresh(ctx context.Context, kind model.Kind, fresh bool) error {
	switch kind {
	case model.KindCandidate:
		cur, hist := refreshPair(ctx, s, kind, fresh, normalize.Candidates, normalize.CandidateHistories)
		s.mu.Lock()
		s.state.candidates, s.state.candidateHistory = cur, hist
		s.mu.Unlock()
		return errors.Join(cur.err, hist.err)
	case model.KindVoter:
		cur, hist := refreshPair(ctx, s, kind, fresh, normalize.Voters, normalize.VoterHistories)
		s.mu.Lock()
		s.state.voters, s.state.voterHistory = cur, hist
		s.mu.Unlock()
		return errors.Join(cur.err, hist.err)
	case model.KindVote:
		cur, hist := refreshPair(ctx, s, kind, fresh, normalize.VoteCounts, normalize.VoteHistories)
		s.mu.Lock()
		s.state.tallies, s.state.tallyHistory = cur, hist
		s.mu.Unlock()
		return errors.Join(cur.err, hist.err)
	}
	return fmt.Errorf("%w: 未知的实体类型 %q", ErrInvalidInput, kind)
}

// RefreshAll 刷新全部实体
func (s *ElectionService) RefreshAll(ctx context.Context) error {
	return s.refreshKinds(ctx, model.Kinds, false)
}

func (s *ElectionService) refreshKinds(ctx context.Context, kinds []model.Kind, fresh bool) error {
	p := pool.New().WithErrors()
	for _, kind := range kinds {
		kind := kind
		p.Go(func() error {
			return s.refresh(ctx, kind, fresh)
		})
	}
	return p.Wait()
}

type parseFunc[T any] func(endpoint string, body []byte) ([]T, error)

func refreshPair[T any](ctx context.Context, s *ElectionService, kind model.Kind, fresh bool, parseCurrent, parseHistory parseFunc[T]) (cur, hist list[T]) {
	curEndpoint, histEndpoint := client.Endpoints(kind)

	var wg conc.WaitGroup
	wg.Go(func() { cur = fetchList(ctx, s, kind, curEndpoint, fresh, parseCurrent) })
	wg.Go(func() { hist = fetchList(ctx, s, kind, histEndpoint, fresh, parseHistory) })
	wg.Wait()
	return cur, hist
}

// fetchList 先查缓存，未命中或 fresh 时请求后端；只缓存能正常解析的响应
func fetchList[T any](ctx context.Context, s *ElectionService, kind model.Kind, endpoint client.Endpoint, fresh bool, parse parseFunc[T]) list[T] {
	log := s.logger.With("kind", kind, "endpoint", endpoint)

	if s.cache != nil && !fresh {
		body, ok, err := s.cache.GetSnapshot(ctx, kind, string(endpoint))
		if err != nil {
			log.Warnw("读取快照缓存失败", "err", err)
		} else if ok {
			if items, err := parse(string(endpoint), body); err == nil {
				return list[T]{items: items, fetchedAt: s.now()}
			}
			log.Warnw("缓存快照无法解析，重新拉取")
		}
	}

	// 拉取之前记录代数，期间发生的失效会让这次写回作废
	var generation string
	if s.cache != nil {
		gen, err := s.cache.Generation(ctx, kind)
		if err != nil {
			log.Warnw("读取快照代数失败", "err", err)
		}
		generation = gen
	}

	body, err := s.api.Fetch(ctx, endpoint)
	if err != nil {
		log.Warnw("拉取列表失败", "err", err)
		return list[T]{items: []T{}, err: err, fetchedAt: s.now()}
	}

	items, err := parse(string(endpoint), body)
	if err != nil {
		log.Warnw("列表数据格式错误", "err", err)
		return list[T]{items: []T{}, err: err, fetchedAt: s.now()}
	}

	if s.cache != nil && generation != "" {
		if _, err := s.cache.SetSnapshot(ctx, kind, string(endpoint), generation, body); err != nil {
			log.Warnw("写入快照缓存失败", "err", err)
		}
	}
	return list[T]{items: items, fetchedAt: s.now()}
}

// ListView 某个列表在给定模式和查询词下的可见行
type ListView[T any] struct {
	Mode      model.Mode
	Query     string
	Rows      []T
	Keys      []string
	Err       error
	FetchedAt time.Time
}

func buildView[T any](spec view.ListSpec[T], cur, hist list[T], mode model.Mode, query string) ListView[T] {
	src := cur
	if mode == model.ModeHistory {
		src = hist
	}
	rows := view.Derive(spec, cur.items, hist.items, mode, query)
	return ListView[T]{
		Mode:      mode,
		Query:     query,
		Rows:      rows,
		Keys:      view.Keys(rows, spec.Key),
		Err:       src.err,
		FetchedAt: src.fetchedAt,
	}
}

func (s *ElectionService) Candidates(mode model.Mode, query string) ListView[model.Candidate] {
	s.mu.RLock()
	cur, hist := s.state.candidates, s.state.candidateHistory
	s.mu.RUnlock()
	return buildView(view.CandidateSpec, cur, hist, mode, query)
}

func (s *ElectionService) Voters(mode model.Mode, query string) ListView[model.Voter] {
	s.mu.RLock()
	cur, hist := s.state.voters, s.state.voterHistory
	s.mu.RUnlock()
	return buildView(view.VoterSpec, cur, hist, mode, query)
}

func (s *ElectionService) Tallies(mode model.Mode, query string) ListView[model.VoteTally] {
	s.mu.RLock()
	cur, hist := s.state.tallies, s.state.tallyHistory
	s.mu.RUnlock()
	return buildView(view.TallySpec, cur, hist, mode, query)
}

// Shares 当前得票占比；计票接口不可用时使用候选人列表中的票数
func (s *ElectionService) Shares() ([]model.VoteShare, error) {
	s.mu.RLock()
	candidates, tallies := s.state.candidates, s.state.tallies
	s.mu.RUnlock()

	names := view.CandidateNames(candidates.items)
	if tallies.err == nil && len(tallies.items) > 0 {
		return view.Shares(tallies.items, names), nil
	}
	if candidates.err == nil && len(candidates.items) > 0 {
		return view.Shares(view.TalliesFromCandidates(candidates.items), names), nil
	}
	if tallies.err != nil {
		return nil, tallies.err
	}
	return []model.VoteShare{}, nil
}

// ListStatus 单个列表的状态，用于健康检查
type ListStatus struct {
	Endpoint  client.Endpoint
	Count     int
	Err       error
	FetchedAt time.Time
}

func status[T any](endpoint client.Endpoint, l list[T]) ListStatus {
	return ListStatus{Endpoint: endpoint, Count: len(l.items), Err: l.err, FetchedAt: l.fetchedAt}
}

func (s *ElectionService) Status() []ListStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return []ListStatus{
		status(client.EndpointCandidates, s.state.candidates),
		status(client.EndpointCandidateHistories, s.state.candidateHistory),
		status(client.EndpointVoters, s.state.voters),
		status(client.EndpointVoterHistories, s.state.voterHistory),
		status(client.EndpointVoteCounts, s.state.tallies),
		status(client.EndpointVoteHistories, s.state.tallyHistory),
	}
}

// HandleRefreshEvent 处理其它实例发出的刷新事件（消费者使用）
func (s *ElectionService) HandleRefreshEvent(ctx context.Context, event *model.RefreshEvent) error {
	if event.Origin == s.instanceID {
		return nil
	}
	s.logger.Debugw("收到刷新事件", "eventId", event.EventID, "origin", event.Origin, "kinds", event.Kinds)

	var errs []error
	for _, kind := range event.Kinds {
		if err := s.Refresh(ctx, kind); err != nil {
			errs = append(errs, fmt.Errorf("刷新 %s 失败: %w", kind, err))
		}
	}
	return errors.Join(errs...)
}

// afterWrite 写操作成功后：清缓存、重新拉取、通知其它实例
func (s *ElectionService) afterWrite(ctx context.Context, reason string, kinds ...model.Kind) {
	if s.cache != nil {
		for _, kind := range kinds {
			cur, hist := client.Endpoints(kind)
			if err := s.cache.Invalidate(ctx, kind, string(cur), string(hist)); err != nil {
				s.logger.Warnw("删除快照缓存失败", "kind", kind, "err", err)
			}
		}
	}

	for _, kind := range kinds {
		if err := s.Refresh(ctx, kind); err != nil {
			s.logger.Warnw("写操作后刷新失败", "kind", kind, "reason", reason, "err", err)
		}
	}

	if s.publisher != nil {
		event := &model.RefreshEvent{
			EventID:  uuid.NewString(),
			Origin:   s.instanceID,
			Kinds:    kinds,
			Reason:   reason,
			IssuedAt: s.now(),
		}
		if err := s.publisher.SendRefreshEvent(ctx, event); err != nil {
			s.logger.Warnw("发送刷新事件到Kafka失败", "reason", reason, "err", err)
		}
	}
}

// parseHexID 校验十六进制ID
func parseHexID(field, id string) (bignum.Int, error) {
	v := bignum.ParseHex(id)
	if !v.Valid() {
		return v, fmt.Errorf("%w: %s 不是有效的十六进制ID: %q", ErrInvalidInput, field, id)
	}
	return v, nil
}

func parseDecimalID(field, id string) error {
	if !bignum.ParseDecimal(id).Valid() {
		return fmt.Errorf("%w: %s 不是有效的十进制ID: %q", ErrInvalidInput, field, id)
	}
	return nil
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s 不能为空", ErrInvalidInput, field)
	}
	return nil
}

// AddCandidate 新增候选人，先拉取最新列表检查ID是否重复
func (s *ElectionService) AddCandidate(ctx context.Context, in model.CandidateInput) error {
	id, err := parseHexID("id", in.ID)
	if err != nil {
		return err
	}
	if err := required("name", in.Name); err != nil {
		return err
	}

	body, err := s.api.Fetch(ctx, client.EndpointCandidates)
	if err != nil {
		return fmt.Errorf("检查候选人ID失败: %w", err)
	}
	existing, err := normalize.Candidates(string(client.EndpointCandidates), body)
	if err != nil {
		return fmt.Errorf("检查候选人ID失败: %w", err)
	}
	for _, c := range existing {
		if c.ID.Valid() && c.ID.Equal(id) {
			return fmt.Errorf("%w: 候选人 %s", ErrDuplicateID, id)
		}
	}

	if err := s.api.AddCandidate(ctx, in); err != nil {
		return fmt.Errorf("新增候选人失败: %w", err)
	}
	s.afterWrite(ctx, "add-candidate", model.KindCandidate, model.KindVote)
	return nil
}

func (s *ElectionService) UpdateCandidate(ctx context.Context, hexID string, in model.CandidateInput) error {
	if _, err := parseHexID("id", hexID); err != nil {
		return err
	}
	if err := s.api.UpdateCandidate(ctx, hexID, in); err != nil {
		return fmt.Errorf("修改候选人失败: %w", err)
	}
	s.afterWrite(ctx, "update-candidate", model.KindCandidate, model.KindVote)
	return nil
}

func (s *ElectionService) DeleteCandidate(ctx context.Context, hexID string) error {
	if _, err := parseHexID("id", hexID); err != nil {
		return err
	}
	if err := s.api.DeleteCandidate(ctx, hexID); err != nil {
		return fmt.Errorf("删除候选人失败: %w", err)
	}
	s.afterWrite(ctx, "delete-candidate", model.KindCandidate, model.KindVote)
	return nil
}

// AddVoter 新增选民，先拉取最新列表检查ID是否重复
func (s *ElectionService) AddVoter(ctx context.Context, in model.VoterInput) error {
	id, err := parseHexID("id", in.ID)
	if err != nil {
		return err
	}
	if err := required("name", in.Name); err != nil {
		return err
	}
	if err := required("password", in.Password); err != nil {
		return err
	}

	body, err := s.api.Fetch(ctx, client.EndpointVoters)
	if err != nil {
		return fmt.Errorf("检查选民ID失败: %w", err)
	}
	existing, err := normalize.Voters(string(client.EndpointVoters), body)
	if err != nil {
		return fmt.Errorf("检查选民ID失败: %w", err)
	}
	for _, v := range existing {
		if v.ID.Valid() && v.ID.Equal(id) {
			return fmt.Errorf("%w: 选民 %s", ErrDuplicateID, id)
		}
	}

	if err := s.api.AddVoter(ctx, in); err != nil {
		return fmt.Errorf("新增选民失败: %w", err)
	}
	s.afterWrite(ctx, "add-voter", model.KindVoter)
	return nil
}

func (s *ElectionService) UpdateVoter(ctx context.Context, hexID string, in model.VoterInput) error {
	if _, err := parseHexID("id", hexID); err != nil {
		return err
	}
	if err := s.api.UpdateVoter(ctx, hexID, in); err != nil {
		return fmt.Errorf("修改选民失败: %w", err)
	}
	s.afterWrite(ctx, "update-voter", model.KindVoter)
	return nil
}

func (s *ElectionService) DeleteVoter(ctx context.Context, hexID string) error {
	if _, err := parseHexID("id", hexID); err != nil {
		return err
	}
	if err := s.api.DeleteVoter(ctx, hexID); err != nil {
		return fmt.Errorf("删除选民失败: %w", err)
	}
	s.afterWrite(ctx, "delete-voter", model.KindVoter)
	return nil
}

// Vote 投票，ID为十进制
func (s *ElectionService) Vote(ctx context.Context, in model.VoteInput) error {
	if err := parseDecimalID("voterId", in.VoterID); err != nil {
		return err
	}
	if err := parseDecimalID("candidateId", in.CandidateID); err != nil {
		return err
	}
	if err := required("password", in.Password); err != nil {
		return err
	}
	if err := s.api.Vote(ctx, in); err != nil {
		return fmt.Errorf("投票失败: %w", err)
	}
	s.afterWrite(ctx, "vote", model.Kinds...)
	return nil
}

func (s *ElectionService) Login(ctx context.Context, in model.LoginInput) (model.LoginResult, error) {
	if err := required("voterId", in.VoterID); err != nil {
		return model.LoginResult{}, err
	}
	res, err := s.api.Login(ctx, in)
	if err != nil {
		return model.LoginResult{}, fmt.Errorf("登录失败: %w", err)
	}
	return res, nil
}

// Voter 单个选民，id 为十进制
func (s *ElectionService) Voter(ctx context.Context, id string) (model.Voter, error) {
	if err := parseDecimalID("id", id); err != nil {
		return model.Voter{}, err
	}
	return s.api.Voter(ctx, id)
}

func (s *ElectionService) VoteStatus(ctx context.Context, id string) (bool, error) {
	if err := parseDecimalID("id", id); err != nil {
		return false, err
	}
	return s.api.VoteStatus(ctx, id)
}
