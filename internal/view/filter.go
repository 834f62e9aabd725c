package view

import (
	"strings"

	"github.com/lvdashuaibi/ledgervote/internal/bignum"
	"github.com/lvdashuaibi/ledgervote/internal/model"
)

// containsFold 不区分大小写的子串匹配，q 已转为小写
func containsFold(field, q string) bool {
	return strings.Contains(strings.ToLower(field), q)
}

// containsID 与十进制表示匹配，而不是原始十六进制
func containsID(id bignum.Int, q string) bool {
	return id.Valid() && strings.Contains(id.String(), q)
}

// MatchCandidate 按姓名、十进制ID、愿景、使命匹配
func MatchCandidate(c model.Candidate, query string) bool {
	q := strings.ToLower(query)
	return containsFold(c.Name, q) ||
		containsID(c.ID, q) ||
		containsFold(c.Visi, q) ||
		containsFold(c.Misi, q)
}

// MatchVoter 按姓名、十进制ID、邮箱、是否已投票匹配
func MatchVoter(v model.Voter, query string) bool {
	q := strings.ToLower(query)
	return containsFold(v.Name, q) ||
		containsID(v.ID, q) ||
		containsFold(v.Email, q) ||
		(v.HasVoted != nil && strings.Contains(v.HasVotedText(), q))
}

// MatchVoteTally 按十进制候选人ID匹配
func MatchVoteTally(t model.VoteTally, query string) bool {
	return containsID(t.CandidateID, strings.ToLower(query))
}

// Filter 空查询返回原列表，否则返回匹配项组成的新切片
func Filter[T any](items []T, query string, match func(T, string) bool) []T {
	if query == "" {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if match(item, query) {
			out = append(out, item)
		}
	}
	return out
}
