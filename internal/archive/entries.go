package archive

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/lvdashuaibi/ledgervote/internal/bignum"
	"github.com/lvdashuaibi/ledgervote/internal/model"
	"github.com/lvdashuaibi/ledgervote/internal/view"
)

// payloadFormat 归档内容中的时间统一用UTC
var payloadFormat = bignum.DateFormat{Location: time.UTC, Layout: time.RFC3339}

// recordKey 内容指纹的keccak256，同一条历史重复归档时键相同
func recordKey(fingerprint string) string {
	return crypto.Keccak256Hash([]byte(fingerprint)).Hex()
}

func observed(ts bignum.Int) *int64 {
	v, ok := ts.Uint64()
	if !ok || v > math.MaxInt64 {
		return nil
	}
	n := int64(v)
	return &n
}

func optional(i bignum.Int) string {
	if !i.Valid() {
		return ""
	}
	return i.String()
}

func txHash(h model.TxHash) string {
	if !h.Valid() {
		return ""
	}
	return h.String()
}

func entry[R any](kind model.Kind, fingerprint string, id bignum.Int, ts bignum.Int, tx model.TxHash, block bignum.Int, row R) (model.ArchiveEntry, error) {
	payload, err := json.Marshal(row)
	if err != nil {
		return model.ArchiveEntry{}, fmt.Errorf("序列化归档内容失败: %w", err)
	}
	return model.ArchiveEntry{
		Kind:        kind,
		Key:         recordKey(fingerprint),
		RecordID:    id.String(),
		ObservedTS:  observed(ts),
		TxHash:      txHash(tx),
		BlockNumber: optional(block),
		Payload:     payload,
	}, nil
}

// CandidateEntries 候选人历史转为归档记录
func CandidateEntries(items []model.Candidate) ([]model.ArchiveEntry, error) {
	rows := view.CandidateRows(items, payloadFormat)
	out := make([]model.ArchiveEntry, 0, len(items))
	for i, c := range items {
		e, err := entry(model.KindCandidate, view.CandidateFingerprint(c), c.ID, c.LastUpdated, c.TransactionHash, c.BlockNumber, rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func VoterEntries(items []model.Voter) ([]model.ArchiveEntry, error) {
	rows := view.VoterRows(items, payloadFormat)
	out := make([]model.ArchiveEntry, 0, len(items))
	for i, v := range items {
		e, err := entry(model.KindVoter, view.VoterFingerprint(v), v.ID, v.LastUpdated, v.TransactionHash, v.BlockNumber, rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func TallyEntries(items []model.VoteTally) ([]model.ArchiveEntry, error) {
	rows := view.TallyRows(items, payloadFormat)
	out := make([]model.ArchiveEntry, 0, len(items))
	for i, t := range items {
		e, err := entry(model.KindVote, view.TallyFingerprint(t), t.CandidateID, t.Timestamp, t.TransactionHash, t.BlockNumber, rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
