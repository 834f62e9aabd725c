package graph

import (
	"context"
	"time"

	"github.com/lvdashuaibi/ledgervote/internal/bignum"
	"github.com/lvdashuaibi/ledgervote/internal/model"
	"github.com/lvdashuaibi/ledgervote/internal/service"
	"github.com/lvdashuaibi/ledgervote/internal/view"
)

// Election 解析器依赖的应用服务
type Election interface {
	Refresh(ctx context.Context, kind model.Kind) error
	RefreshAll(ctx context.Context) error
	ForceRefresh(ctx context.Context, kinds ...model.Kind) error
	Candidates(mode model.Mode, query string) service.ListView[model.Candidate]
	Voters(mode model.Mode, query string) service.ListView[model.Voter]
	Tallies(mode model.Mode, query string) service.ListView[model.VoteTally]
	Shares() ([]model.VoteShare, error)

	AddCandidate(ctx context.Context, in model.CandidateInput) error
	UpdateCandidate(ctx context.Context, hexID string, in model.CandidateInput) error
	DeleteCandidate(ctx context.Context, hexID string) error
	AddVoter(ctx context.Context, in model.VoterInput) error
	UpdateVoter(ctx context.Context, hexID string, in model.VoterInput) error
	DeleteVoter(ctx context.Context, hexID string) error
	Vote(ctx context.Context, in model.VoteInput) error
	Login(ctx context.Context, in model.LoginInput) (model.LoginResult, error)
	Voter(ctx context.Context, id string) (model.Voter, error)
	VoteStatus(ctx context.Context, id string) (bool, error)
}

var _ Election = &service.ElectionService{}

// Resolver GraphQL解析器
type Resolver struct {
	election Election
	stats    StatsSource
	format   bignum.DateFormat
}

// NewResolver 创建新的解析器
func NewResolver(election Election, stats StatsSource, format bignum.DateFormat) *Resolver {
	return &Resolver{election: election, stats: stats, format: format}
}

type listArgs struct {
	View  *string
	Query *string
}

func (a listArgs) parse() (model.Mode, string, error) {
	var viewName, query string
	if a.View != nil {
		viewName = *a.View
	}
	if a.Query != nil {
		query = *a.Query
	}
	mode, err := model.ParseMode(viewName)
	return mode, query, err
}

// listResolver 列表查询结果
type listResolver[T any, R any] struct {
	v    service.ListView[T]
	rows []R
}

func newListResolver[T any, R any](v service.ListView[T], rows []R) *listResolver[T, R] {
	return &listResolver[T, R]{v: v, rows: rows}
}

func (r *listResolver[T, R]) View() string  { return string(r.v.Mode) }
func (r *listResolver[T, R]) Query() string { return r.v.Query }

func (r *listResolver[T, R]) Error() *string {
	if r.v.Err == nil {
		return nil
	}
	msg := r.v.Err.Error()
	return &msg
}

func (r *listResolver[T, R]) FetchedAt() *string {
	if r.v.FetchedAt.IsZero() {
		return nil
	}
	s := r.v.FetchedAt.UTC().Format(time.RFC3339)
	return &s
}

func (r *listResolver[T, R]) Rows() []*R {
	out := make([]*R, len(r.rows))
	for i := range r.rows {
		out[i] = &r.rows[i]
	}
	return out
}

func (r *Resolver) Candidates(args listArgs) (*listResolver[model.Candidate, view.CandidateRow], error) {
	mode, query, err := args.parse()
	if err != nil {
		return nil, err
	}
	v := r.election.Candidates(mode, query)
	return newListResolver(v, view.CandidateRows(v.Rows, r.format)), nil
}

func (r *Resolver) Voters(args listArgs) (*listResolver[model.Voter, view.VoterRow], error) {
	mode, query, err := args.parse()
	if err != nil {
		return nil, err
	}
	v := r.election.Voters(mode, query)
	return newListResolver(v, view.VoterRows(v.Rows, r.format)), nil
}

func (r *Resolver) Votes(args listArgs) (*listResolver[model.VoteTally, view.TallyRow], error) {
	mode, query, err := args.parse()
	if err != nil {
		return nil, err
	}
	v := r.election.Tallies(mode, query)
	return newListResolver(v, view.TallyRows(v.Rows, r.format)), nil
}

// VoteShareResolver 得票占比解析器
type VoteShareResolver struct {
	share model.VoteShare
}

func (r *VoteShareResolver) CandidateID() string { return r.share.CandidateID.String() }
func (r *VoteShareResolver) Name() string        { return r.share.Name }
func (r *VoteShareResolver) Votes() string       { return r.share.Votes.String() }
func (r *VoteShareResolver) Percent() float64    { return r.share.Percent }

func (r *Resolver) VoteShares() ([]*VoteShareResolver, error) {
	shares, err := r.election.Shares()
	if err != nil {
		return nil, err
	}
	out := make([]*VoteShareResolver, len(shares))
	for i, s := range shares {
		out[i] = &VoteShareResolver{share: s}
	}
	return out, nil
}

func (r *Resolver) VoteStatus(ctx context.Context, args struct{ VoterID string }) (bool, error) {
	return r.election.VoteStatus(ctx, args.VoterID)
}

func (r *Resolver) Voter(ctx context.Context, args struct{ ID string }) (*view.VoterRow, error) {
	v, err := r.election.Voter(ctx, args.ID)
	if err != nil {
		return nil, err
	}
	rows := view.VoterRows([]model.Voter{v}, r.format)
	return &rows[0], nil
}

// ArchiveStatResolver 归档统计解析器
type ArchiveStatResolver struct {
	stat model.ArchiveStat
}

func (r *ArchiveStatResolver) Kind() string { return string(r.stat.Kind) }
func (r *ArchiveStatResolver) Count() int32 { return int32(r.stat.Count) }

func (r *Resolver) ArchiveStats(ctx context.Context) ([]*ArchiveStatResolver, error) {
	if r.stats == nil {
		return []*ArchiveStatResolver{}, nil
	}
	stats, err := r.stats.Stats(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*ArchiveStatResolver, len(stats))
	for i, s := range stats {
		out[i] = &ArchiveStatResolver{stat: s}
	}
	return out, nil
}
