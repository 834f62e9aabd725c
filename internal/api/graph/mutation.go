package graph

import (
	"context"
	"strings"

	"github.com/lvdashuaibi/ledgervote/internal/model"
)

// MutationResult 写操作结果，失败原因放在 message 中
type MutationResult struct {
	Success bool
	Message string
}

func result(err error, ok string) *MutationResult {
	if err != nil {
		return &MutationResult{Success: false, Message: err.Error()}
	}
	return &MutationResult{Success: true, Message: ok}
}

type CandidateInput struct {
	ID   string
	Name string
	Visi string
	Misi string
}

func (in CandidateInput) model() model.CandidateInput {
	return model.CandidateInput{ID: in.ID, Name: in.Name, Visi: in.Visi, Misi: in.Misi}
}

type VoterInput struct {
	ID       string
	Name     string
	Email    string
	Password *string
}

func (in VoterInput) model() model.VoterInput {
	out := model.VoterInput{ID: in.ID, Name: in.Name, Email: in.Email}
	if in.Password != nil {
		out.Password = *in.Password
	}
	return out
}

type VoteInput struct {
	VoterID     string
	CandidateID string
	Password    string
}

func (r *Resolver) Refresh(ctx context.Context, args struct{ Kind string }) *MutationResult {
	if strings.EqualFold(args.Kind, "all") {
		return result(r.election.ForceRefresh(ctx), "刷新成功")
	}
	kind, err := model.ParseKind(args.Kind)
	if err != nil {
		return result(err, "")
	}
	return result(r.election.ForceRefresh(ctx, kind), "刷新成功")
}

func (r *Resolver) AddCandidate(ctx context.Context, args struct{ Input CandidateInput }) *MutationResult {
	return result(r.election.AddCandidate(ctx, args.Input.model()), "新增候选人成功")
}

func (r *Resolver) UpdateCandidate(ctx context.Context, args struct {
	ID    string
	Input CandidateInput
}) *MutationResult {
	return result(r.election.UpdateCandidate(ctx, args.ID, args.Input.model()), "修改候选人成功")
}

func (r *Resolver) DeleteCandidate(ctx context.Context, args struct{ ID string }) *MutationResult {
	return result(r.election.DeleteCandidate(ctx, args.ID), "删除候选人成功")
}

func (r *Resolver) AddVoter(ctx context.Context, args struct{ Input VoterInput }) *MutationResult {
	return result(r.election.AddVoter(ctx, args.Input.model()), "新增选民成功")
}

func (r *Resolver) UpdateVoter(ctx context.Context, args struct {
	ID    string
	Input VoterInput
}) *MutationResult {
	return result(r.election.UpdateVoter(ctx, args.ID, args.Input.model()), "修改选民成功")
}

func (r *Resolver) DeleteVoter(ctx context.Context, args struct{ ID string }) *MutationResult {
	return result(r.election.DeleteVoter(ctx, args.ID), "删除选民成功")
}

func (r *Resolver) Vote(ctx context.Context, args struct{ Input VoteInput }) *MutationResult {
	in := model.VoteInput{
		VoterID:     args.Input.VoterID,
		CandidateID: args.Input.CandidateID,
		Password:    args.Input.Password,
	}
	return result(r.election.Vote(ctx, in), "投票成功")
}

// LoginResultResolver 登录结果解析器
type LoginResultResolver struct {
	res model.LoginResult
}

func (r *LoginResultResolver) Token() string  { return r.res.Token }
func (r *LoginResultResolver) UserID() string { return r.res.UserID }

func (r *Resolver) Login(ctx context.Context, args struct {
	VoterID  string
	Password string
}) (*LoginResultResolver, error) {
	res, err := r.election.Login(ctx, model.LoginInput{VoterID: args.VoterID, Password: args.Password})
	if err != nil {
		return nil, err
	}
	return &LoginResultResolver{res: res}, nil
}
