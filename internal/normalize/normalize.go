package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/lvdashuaibi/ledgervote/internal/model"
)

// ErrMalformedPayload 顶层数据结构与预期不符，整张列表视为不可用
var ErrMalformedPayload = errors.New("malformed payload")

// PayloadError 带接口和原因的格式错误
type PayloadError struct {
	Endpoint string
	Reason   string
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("%s 返回的数据格式错误: %s", e.Endpoint, e.Reason)
}

func (e *PayloadError) Unwrap() error {
	return ErrMalformedPayload
}

// EnvelopeError 后端在响应体中返回 error: true
type EnvelopeError struct {
	Endpoint string
	Message  string
}

func (e *EnvelopeError) Error() string {
	return e.Message
}

func malformed(endpoint, format string, args ...interface{}) error {
	return &PayloadError{Endpoint: endpoint, Reason: fmt.Sprintf(format, args...)}
}

// 各实体字段布局：元组位置 + 对象键名
var (
	candidateID          = field{0, []string{"id"}}
	candidateName        = field{1, []string{"name"}}
	candidateVisi        = field{2, []string{"visi"}}
	candidateMisi        = field{3, []string{"misi"}}
	candidateLastUpdated = field{4, []string{"lastUpdated"}}
	candidateTxHash      = field{5, []string{"transactionHash"}}
	candidateBlockNumber = field{6, []string{"blockNumber"}}
	candidateVoteCount   = field{-1, []string{"voteCount"}}

	voterID          = field{0, []string{"id"}}
	voterName        = field{1, []string{"name"}}
	voterEmail       = field{2, []string{"email"}}
	voterHasVoted    = field{3, []string{"hasVoted"}}
	voterTxHash      = field{4, []string{"transactionHash"}}
	voterLastUpdated = field{5, []string{"lastUpdated"}}
	voterBlockNumber = field{6, []string{"blockNumber"}}

	tallyCandidate   = field{0, []string{"candidate", "id"}}
	tallyCount       = field{1, []string{"count", "voteCount"}}
	tallyTimestamp   = field{2, []string{"timestamp", "lastUpdated"}}
	tallyTxHash      = field{3, []string{"transactionHash"}}
	tallyBlockNumber = field{4, []string{"blockNumber"}}
)

// Candidates 解析 /candidates 返回的 {error, message, candidates}
func Candidates(endpoint string, body []byte) ([]model.Candidate, error) {
	elems, err := envelope(endpoint, body, "candidates")
	if err != nil {
		return nil, err
	}
	return toCandidates(elems), nil
}

// CandidateHistories 解析候选人历史元组数组
func CandidateHistories(endpoint string, body []byte) ([]model.Candidate, error) {
	elems, err := list(endpoint, body, true, false)
	if err != nil {
		return nil, err
	}
	return toCandidates(elems), nil
}

// Voters 解析 /voters 返回的 {error, message, voters}
func Voters(endpoint string, body []byte) ([]model.Voter, error) {
	elems, err := envelope(endpoint, body, "voters")
	if err != nil {
		return nil, err
	}
	return toVoters(elems), nil
}

// VoterHistories 解析选民历史元组数组
func VoterHistories(endpoint string, body []byte) ([]model.Voter, error) {
	elems, err := list(endpoint, body, true, false)
	if err != nil {
		return nil, err
	}
	return toVoters(elems), nil
}

// VoteCounts 解析 {voteCounts: [...]}
func VoteCounts(endpoint string, body []byte) ([]model.VoteTally, error) {
	elems, err := envelope(endpoint, body, "voteCounts")
	if err != nil {
		return nil, err
	}
	return toTallies(elems), nil
}

// VoteHistories 解析计票历史，后端不同版本分别返回元组和对象，两种都接受
func VoteHistories(endpoint string, body []byte) ([]model.VoteTally, error) {
	elems, err := list(endpoint, body, true, true)
	if err != nil {
		return nil, err
	}
	out := toTallies(elems)
	for i := range out {
		out[i].Source = model.SourceHistory
	}
	return out, nil
}

func toCandidates(elems []element) []model.Candidate {
	out := make([]model.Candidate, 0, len(elems))
	for _, e := range elems {
		out = append(out, model.Candidate{
			Source:          e.source(),
			ID:              e.int(candidateID),
			Name:            e.text(candidateName),
			Visi:            e.text(candidateVisi),
			Misi:            e.text(candidateMisi),
			VoteCount:       e.int(candidateVoteCount),
			LastUpdated:     e.int(candidateLastUpdated),
			TransactionHash: e.txHash(candidateTxHash),
			BlockNumber:     e.int(candidateBlockNumber),
		})
	}
	return out
}

func toVoters(elems []element) []model.Voter {
	out := make([]model.Voter, 0, len(elems))
	for _, e := range elems {
		out = append(out, model.Voter{
			Source:          e.source(),
			ID:              e.int(voterID),
			Name:            e.text(voterName),
			Email:           e.text(voterEmail),
			HasVoted:        e.flag(voterHasVoted),
			LastUpdated:     e.int(voterLastUpdated),
			TransactionHash: e.txHash(voterTxHash),
			BlockNumber:     e.int(voterBlockNumber),
		})
	}
	return out
}

func toTallies(elems []element) []model.VoteTally {
	out := make([]model.VoteTally, 0, len(elems))
	for _, e := range elems {
		out = append(out, model.VoteTally{
			Source:          e.source(),
			CandidateID:     e.int(tallyCandidate),
			Count:           e.int(tallyCount),
			Timestamp:       e.int(tallyTimestamp),
			TransactionHash: e.txHash(tallyTxHash),
			BlockNumber:     e.int(tallyBlockNumber),
		})
	}
	return out
}

// envelope 解析 {error, message, <key>: [...]} 形式的当前状态响应
func envelope(endpoint string, body []byte, key string) ([]element, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return nil, malformed(endpoint, "顶层应为对象")
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, malformed(endpoint, "无法解析JSON: %v", err)
	}

	if raw, ok := top["error"]; ok {
		var failed bool
		if json.Unmarshal(raw, &failed) == nil && failed {
			var msg string
			_ = json.Unmarshal(top["message"], &msg)
			if msg == "" {
				msg = "后端返回错误"
			}
			return nil, &EnvelopeError{Endpoint: endpoint, Message: msg}
		}
	}

	raw, ok := top[key]
	if !ok {
		return nil, malformed(endpoint, "缺少字段 %s", key)
	}
	if isNull(raw) {
		return []element{}, nil
	}
	return list(endpoint, raw, false, true)
}

// list 解析记录数组。顶层不是数组时拒绝整个响应；单条记录类型不符时
// 保留一条空记录，字段全部显示占位符，其余记录照常解析。
func list(endpoint string, body []byte, allowTuple, allowObject bool) ([]element, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '[' {
		return nil, malformed(endpoint, "应为数组")
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, malformed(endpoint, "无法解析JSON: %v", err)
	}

	// 类型不符的记录沿用该接口的来源标记
	fallback := model.SourceHistory
	if !allowTuple {
		fallback = model.SourceCurrent
	}

	elems := make([]element, 0, len(items))
	for i, item := range items {
		item = bytes.TrimSpace(item)
		switch {
		case allowTuple && len(item) > 0 && item[0] == '[':
			var tuple []json.RawMessage
			if err := json.Unmarshal(item, &tuple); err != nil {
				return nil, malformed(endpoint, "第%d条记录无法解析: %v", i, err)
			}
			elems = append(elems, element{src: model.SourceHistory, tuple: tuple})
		case allowObject && len(item) > 0 && item[0] == '{':
			var obj map[string]json.RawMessage
			if err := json.Unmarshal(item, &obj); err != nil {
				return nil, malformed(endpoint, "第%d条记录无法解析: %v", i, err)
			}
			elems = append(elems, element{src: model.SourceCurrent, obj: obj})
		default:
			zap.S().Debugw("记录类型不符，以占位符显示", "endpoint", endpoint, "index", i)
			elems = append(elems, element{src: fallback})
		}
	}
	return elems, nil
}
