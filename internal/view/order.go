package view

import (
	"fmt"
	"slices"
	"strings"

	"github.com/lvdashuaibi/ledgervote/internal/bignum"
	"github.com/lvdashuaibi/ledgervote/internal/model"
)

func CandidateTimestamp(c model.Candidate) bignum.Int { return c.LastUpdated }
func VoterTimestamp(v model.Voter) bignum.Int         { return v.LastUpdated }
func TallyTimestamp(t model.VoteTally) bignum.Int     { return t.Timestamp }

// SortByRecency 按时间戳降序稳定排序，时间相同保持原顺序，无效时间排在最后。
// 返回新切片，不修改输入。
func SortByRecency[T any](items []T, ts func(T) bignum.Int) []T {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b T) int {
		return ts(b).Cmp(ts(a))
	})
	return out
}

// Dedupe 去掉完全相同的记录，保留第一次出现的位置
func Dedupe[T any](items []T, fingerprint func(T) string) []T {
	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		fp := fingerprint(item)
		if _, ok := seen[fp]; ok {
			continue
		}
		seen[fp] = struct{}{}
		out = append(out, item)
	}
	return out
}

func CandidateFingerprint(c model.Candidate) string {
	return strings.Join([]string{
		c.Source.String(), c.ID.String(), c.Name, c.Visi, c.Misi, c.VoteCount.String(),
		c.LastUpdated.String(), c.TransactionHash.String(), c.BlockNumber.String(),
	}, "\x00")
}

func VoterFingerprint(v model.Voter) string {
	return strings.Join([]string{
		v.Source.String(), v.ID.String(), v.Name, v.Email, v.HasVotedText(),
		v.LastUpdated.String(), v.TransactionHash.String(), v.BlockNumber.String(),
	}, "\x00")
}

func TallyFingerprint(t model.VoteTally) string {
	return strings.Join([]string{
		t.Source.String(), t.CandidateID.String(), t.Count.String(), t.Timestamp.String(),
		t.TransactionHash.String(), t.BlockNumber.String(),
	}, "\x00")
}

// CandidateKey 列表键：ID + 名称；历史快照优先使用ID + 更新时间
func CandidateKey(c model.Candidate) string {
	if c.Source == model.SourceHistory && c.LastUpdated.Valid() {
		return fmt.Sprintf("%s-%s", c.ID, c.LastUpdated)
	}
	return fmt.Sprintf("%s-%s", c.ID, c.Name)
}

// VoterKey 列表键：ID + 邮箱；历史快照优先使用ID + 更新时间
func VoterKey(v model.Voter) string {
	if v.Source == model.SourceHistory && v.LastUpdated.Valid() {
		return fmt.Sprintf("%s-%s", v.ID, v.LastUpdated)
	}
	return fmt.Sprintf("%s-%s", v.ID, v.Email)
}

// TallyKey 当前计票每个候选人一行；历史按候选人 + 时间
func TallyKey(t model.VoteTally) string {
	if t.Source == model.SourceHistory {
		if t.Timestamp.Valid() {
			return fmt.Sprintf("%s-%s", t.CandidateID, t.Timestamp)
		}
		return fmt.Sprintf("%s-%s", t.CandidateID, t.Count)
	}
	return t.CandidateID.String()
}

// Keys 生成唯一列表键，重复时追加 #2、#3 …，跳过已被占用的后缀
func Keys[T any](items []T, key func(T) string) []string {
	used := make(map[string]bool, len(items))
	next := make(map[string]int)
	out := make([]string, len(items))
	for i, item := range items {
		base := key(item)
		k := base
		if used[k] {
			n := next[base]
			if n < 2 {
				n = 2
			}
			for {
				k = fmt.Sprintf("%s#%d", base, n)
				n++
				if !used[k] {
					break
				}
			}
			next[base] = n
		}
		used[k] = true
		out[i] = k
	}
	return out
}
