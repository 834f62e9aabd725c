package view

import (
	"math/big"

	"github.com/lvdashuaibi/ledgervote/internal/bignum"
	"github.com/lvdashuaibi/ledgervote/internal/model"
)

// CandidateNames 十进制候选人ID到名称的映射
func CandidateNames(candidates []model.Candidate) map[string]string {
	names := make(map[string]string, len(candidates))
	for _, c := range candidates {
		if c.ID.Valid() {
			names[c.ID.String()] = c.Name
		}
	}
	return names
}

// TalliesFromCandidates 计票接口不可用时，用候选人自带的票数构造计票行
func TalliesFromCandidates(candidates []model.Candidate) []model.VoteTally {
	out := make([]model.VoteTally, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, model.VoteTally{
			Source:      model.SourceCurrent,
			CandidateID: c.ID,
			Count:       c.VoteCount,
			Timestamp:   c.LastUpdated,
		})
	}
	return out
}

// Shares 计算每个候选人的得票百分比，总票数为0时全部为0。
// 无效票数按0计入。
func Shares(tallies []model.VoteTally, names map[string]string) []model.VoteShare {
	total := new(big.Int)
	for _, t := range tallies {
		if t.Count.Valid() {
			total.Add(total, t.Count.Big())
		}
	}

	out := make([]model.VoteShare, 0, len(tallies))
	for _, t := range tallies {
		share := model.VoteShare{
			CandidateID: t.CandidateID,
			Name:        names[t.CandidateID.String()],
			Votes:       t.Count,
		}
		if total.Sign() > 0 && t.Count.Valid() {
			num := new(big.Int).Mul(t.Count.Big(), big.NewInt(100))
			share.Percent, _ = new(big.Rat).SetFrac(num, total).Float64()
		}
		if !share.Votes.Valid() {
			share.Votes = bignum.FromUint64(0)
		}
		out = append(out, share)
	}
	return out
}
