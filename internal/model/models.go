package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lvdashuaibi/ledgervote/internal/bignum"
)

// Kind 实体类型
type Kind string

const (
	KindCandidate Kind = "candidate"
	KindVoter     Kind = "voter"
	KindVote      Kind = "vote"
)

// Kinds 全部实体类型，按刷新顺序排列
var Kinds = []Kind{KindCandidate, KindVoter, KindVote}

// ParseKind 解析实体类型，兼容复数写法
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "candidate", "candidates":
		return KindCandidate, nil
	case "voter", "voters":
		return KindVoter, nil
	case "vote", "votes", "votecount", "votecounts", "vote-counts":
		return KindVote, nil
	}
	return "", fmt.Errorf("未知的实体类型: %q", s)
}

// Mode 视图模式：当前状态或历史记录
type Mode string

const (
	ModeCurrent Mode = "current"
	ModeHistory Mode = "history"
)

// ParseMode 空字符串视为当前状态
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "current", "valid":
		return ModeCurrent, nil
	case "history":
		return ModeHistory, nil
	}
	return "", fmt.Errorf("未知的视图模式: %q", s)
}

// Source 记录来源：键值对象(当前状态)或位置元组(历史)
type Source uint8

const (
	SourceCurrent Source = iota + 1
	SourceHistory
)

func (s Source) String() string {
	switch s {
	case SourceCurrent:
		return "current"
	case SourceHistory:
		return "history"
	}
	return "unknown"
}

// TxHash 交易哈希，后端旧版本可能不返回
type TxHash struct {
	hash  common.Hash
	valid bool
}

// ParseTxHash 解析32字节交易哈希，非法或为空时不可用
func ParseTxHash(s string) TxHash {
	// BigNumber形式的哈希会丢掉前导零，统一按整数解析后补齐32字节
	i := bignum.ParseHex(s)
	if !i.Valid() {
		return TxHash{}
	}
	return TxHash{hash: common.BigToHash(i.Big()), valid: true}
}

func (h TxHash) Valid() bool {
	return h.valid
}

func (h TxHash) String() string {
	if !h.valid {
		return bignum.NotAvailable
	}
	return h.hash.Hex()
}

// Candidate 候选人，当前状态与历史快照共用
type Candidate struct {
	Source          Source
	ID              bignum.Int
	Name            string
	Visi            string
	Misi            string
	VoteCount       bignum.Int
	LastUpdated     bignum.Int
	TransactionHash TxHash
	BlockNumber     bignum.Int
}

// Voter 选民，密码只写不读
type Voter struct {
	Source          Source
	ID              bignum.Int
	Name            string
	Email           string
	HasVoted        *bool
	LastUpdated     bignum.Int
	TransactionHash TxHash
	BlockNumber     bignum.Int
}

// HasVotedText 与后端一致的 true/false 文本，缺失时为 N/A
func (v Voter) HasVotedText() string {
	if v.HasVoted == nil {
		return bignum.NotAvailable
	}
	if *v.HasVoted {
		return "true"
	}
	return "false"
}

// VoteTally 得票记录：当前计票行或计票变更事件
type VoteTally struct {
	Source          Source
	CandidateID     bignum.Int
	Count           bignum.Int
	Timestamp       bignum.Int
	TransactionHash TxHash
	BlockNumber     bignum.Int
}

// VoteShare 候选人得票占比
type VoteShare struct {
	CandidateID bignum.Int
	Name        string
	Votes       bignum.Int
	Percent     float64
}

// CandidateInput 新增/修改候选人的请求体，id 为十六进制
type CandidateInput struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Visi string `json:"visi"`
	Misi string `json:"misi"`
}

// VoterInput 新增/修改选民的请求体
type VoterInput struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
}

// VoteInput 投票请求体，id 为十进制
type VoteInput struct {
	VoterID     string `json:"voterId"`
	CandidateID string `json:"candidateId"`
	Password    string `json:"password"`
}

// LoginInput 登录请求体
type LoginInput struct {
	VoterID  string `json:"voterId"`
	Password string `json:"password"`
}

// LoginResult 登录结果
type LoginResult struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

// RefreshEvent Kafka刷新事件，写操作后通知所有实例重新拉取
type RefreshEvent struct {
	EventID  string    `json:"eventId"`
	Origin   string    `json:"origin"`
	Kinds    []Kind    `json:"kinds"`
	Reason   string    `json:"reason"`
	IssuedAt time.Time `json:"issuedAt"`
}

// ArchiveEntry 归档的历史记录
type ArchiveEntry struct {
	Kind        Kind
	Key         string
	RecordID    string
	ObservedTS  *int64
	TxHash      string
	BlockNumber string
	Payload     []byte
}

// ArchiveStat 每种实体已归档的条数
type ArchiveStat struct {
	Kind  Kind
	Count int64
}
