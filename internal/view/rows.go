package view

import (
	"github.com/lvdashuaibi/ledgervote/internal/bignum"
	"github.com/lvdashuaibi/ledgervote/internal/model"
)

func orNA(s string) string {
	if s == "" {
		return bignum.NotAvailable
	}
	return s
}

// CandidateRow 候选人表格行，所有字段已格式化
type CandidateRow struct {
	Key             string `json:"key"`
	ID              string `json:"id"`
	Name            string `json:"name"`
	Visi            string `json:"visi"`
	Misi            string `json:"misi"`
	VoteCount       string `json:"voteCount"`
	LastUpdated     string `json:"lastUpdated"`
	TransactionHash string `json:"transactionHash"`
	BlockNumber     string `json:"blockNumber"`
}

type VoterRow struct {
	Key             string `json:"key"`
	ID              string `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	HasVoted        string `json:"hasVoted"`
	LastUpdated     string `json:"lastUpdated"`
	TransactionHash string `json:"transactionHash"`
	BlockNumber     string `json:"blockNumber"`
}

type TallyRow struct {
	Key             string `json:"key"`
	CandidateID     string `json:"candidateId"`
	Count           string `json:"count"`
	Timestamp       string `json:"timestamp"`
	TransactionHash string `json:"transactionHash"`
	BlockNumber     string `json:"blockNumber"`
}

func CandidateRows(items []model.Candidate, f bignum.DateFormat) []CandidateRow {
	keys := Keys(items, CandidateKey)
	out := make([]CandidateRow, 0, len(items))
	for i, c := range items {
		out = append(out, CandidateRow{
			Key:             keys[i],
			ID:              c.ID.String(),
			Name:            orNA(c.Name),
			Visi:            orNA(c.Visi),
			Misi:            orNA(c.Misi),
			VoteCount:       c.VoteCount.String(),
			LastUpdated:     f.Format(c.LastUpdated),
			TransactionHash: c.TransactionHash.String(),
			BlockNumber:     c.BlockNumber.String(),
		})
	}
	return out
}

func VoterRows(items []model.Voter, f bignum.DateFormat) []VoterRow {
	keys := Keys(items, VoterKey)
	out := make([]VoterRow, 0, len(items))
	for i, v := range items {
		out = append(out, VoterRow{
			Key:             keys[i],
			ID:              v.ID.String(),
			Name:            orNA(v.Name),
			Email:           orNA(v.Email),
			HasVoted:        v.HasVotedText(),
			LastUpdated:     f.Format(v.LastUpdated),
			TransactionHash: v.TransactionHash.String(),
			BlockNumber:     v.BlockNumber.String(),
		})
	}
	return out
}

func TallyRows(items []model.VoteTally, f bignum.DateFormat) []TallyRow {
	keys := Keys(items, TallyKey)
	out := make([]TallyRow, 0, len(items))
	for i, t := range items {
		out = append(out, TallyRow{
			Key:             keys[i],
			CandidateID:     t.CandidateID.String(),
			Count:           t.Count.String(),
			Timestamp:       f.Format(t.Timestamp),
			TransactionHash: t.TransactionHash.String(),
			BlockNumber:     t.BlockNumber.String(),
		})
	}
	return out
}
