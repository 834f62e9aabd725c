package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/lvdashuaibi/ledgervote/internal/bignum"
	"github.com/lvdashuaibi/ledgervote/internal/model"
	"github.com/lvdashuaibi/ledgervote/internal/view"
)

type table struct {
	header []string
	rows   [][]string
}

func (t table) write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.header, "\t"))
	for _, row := range t.rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func candidateTable(items []model.Candidate, f bignum.DateFormat) table {
	t := table{header: []string{"ID", "NAME", "VISI", "MISI", "VOTES", "UPDATED", "TX", "BLOCK"}}
	for _, r := range view.CandidateRows(items, f) {
		t.rows = append(t.rows, []string{r.ID, r.Name, r.Visi, r.Misi, r.VoteCount, r.LastUpdated, r.TransactionHash, r.BlockNumber})
	}
	return t
}

func voterTable(items []model.Voter, f bignum.DateFormat) table {
	t := table{header: []string{"ID", "NAME", "EMAIL", "VOTED", "UPDATED", "TX", "BLOCK"}}
	for _, r := range view.VoterRows(items, f) {
		t.rows = append(t.rows, []string{r.ID, r.Name, r.Email, r.HasVoted, r.LastUpdated, r.TransactionHash, r.BlockNumber})
	}
	return t
}

func tallyTable(items []model.VoteTally, f bignum.DateFormat) table {
	t := table{header: []string{"CANDIDATE", "COUNT", "TIME", "TX", "BLOCK"}}
	for _, r := range view.TallyRows(items, f) {
		t.rows = append(t.rows, []string{r.CandidateID, r.Count, r.Timestamp, r.TransactionHash, r.BlockNumber})
	}
	return t
}

func shareTable(shares []model.VoteShare) table {
	t := table{header: []string{"CANDIDATE", "NAME", "VOTES", "PERCENT"}}
	for _, s := range shares {
		name := s.Name
		if name == "" {
			name = bignum.NotAvailable
		}
		t.rows = append(t.rows, []string{s.CandidateID.String(), name, s.Votes.String(), fmt.Sprintf("%.2f%%", s.Percent)})
	}
	return t
}
