package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lvdashuaibi/ledgervote/internal/bignum"
	"github.com/lvdashuaibi/ledgervote/internal/model"
	"github.com/lvdashuaibi/ledgervote/internal/service"
)

var utc = bignum.DateFormat{Location: time.UTC, Layout: time.RFC3339}

// stubElection 记录写操作参数，读操作返回固定数据
type stubElection struct {
	candidates []model.Candidate
	listErr    error
	writeErr   error

	refreshed []model.Kind
	forced    []model.Kind
	added     model.CandidateInput
	voted     model.VoteInput
}

func (s *stubElection) Refresh(_ context.Context, kind model.Kind) error {
	s.refreshed = append(s.refreshed, kind)
	return nil
}

func (s *stubElection) RefreshAll(ctx context.Context) error {
	for _, k := range model.Kinds {
		s.Refresh(ctx, k)
	}
	return nil
}

func (s *stubElection) ForceRefresh(_ context.Context, kinds ...model.Kind) error {
	if len(kinds) == 0 {
		kinds = model.Kinds
	}
	s.forced = append(s.forced, kinds...)
	return nil
}

func (s *stubElection) Candidates(mode model.Mode, query string) service.ListView[model.Candidate] {
	return service.ListView[model.Candidate]{Mode: mode, Query: query, Rows: s.candidates, Err: s.listErr}
}

func (s *stubElection) Voters(mode model.Mode, query string) service.ListView[model.Voter] {
	return service.ListView[model.Voter]{Mode: mode, Query: query}
}

func (s *stubElection) Tallies(mode model.Mode, query string) service.ListView[model.VoteTally] {
	return service.ListView[model.VoteTally]{Mode: mode, Query: query}
}

func (s *stubElection) Shares() ([]model.VoteShare, error) {
	return []model.VoteShare{
		{CandidateID: bignum.FromUint64(1), Name: "Alice", Votes: bignum.FromUint64(5), Percent: 25},
		{CandidateID: bignum.FromUint64(2), Name: "Bob", Votes: bignum.FromUint64(15), Percent: 75},
	}, nil
}

func (s *stubElection) AddCandidate(_ context.Context, in model.CandidateInput) error {
	s.added = in
	return s.writeErr
}

func (s *stubElection) UpdateCandidate(context.Context, string, model.CandidateInput) error {
	return s.writeErr
}
func (s *stubElection) DeleteCandidate(context.Context, string) error { return s.writeErr }
func (s *stubElection) AddVoter(context.Context, model.VoterInput) error {
	return s.writeErr
}
func (s *stubElection) UpdateVoter(context.Context, string, model.VoterInput) error {
	return s.writeErr
}
func (s *stubElection) DeleteVoter(context.Context, string) error { return s.writeErr }

func (s *stubElection) Vote(_ context.Context, in model.VoteInput) error {
	s.voted = in
	return s.writeErr
}

func (s *stubElection) Login(_ context.Context, in model.LoginInput) (model.LoginResult, error) {
	if in.Password != "secret" {
		return model.LoginResult{}, errors.New("密码错误")
	}
	return model.LoginResult{Token: "tok", UserID: in.VoterID}, nil
}

func (s *stubElection) Voter(_ context.Context, id string) (model.Voter, error) {
	voted := true
	return model.Voter{Source: model.SourceCurrent, ID: bignum.ParseDecimal(id), Name: "Dave", Email: "d@x", HasVoted: &voted}, nil
}

func (s *stubElection) VoteStatus(context.Context, string) (bool, error) { return true, nil }

type stubStats struct{}

func (stubStats) Stats(context.Context) ([]model.ArchiveStat, error) {
	return []model.ArchiveStat{{Kind: model.KindCandidate, Count: 3}}, nil
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func exec(t *testing.T, srv *GraphQLServer, query string, vars map[string]interface{}) gqlResponse {
	t.Helper()
	body, _ := json.Marshal(map[string]interface{}{"query": query, "variables": vars})
	req := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var resp gqlResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestCandidatesQuery(t *testing.T) {
	election := &stubElection{candidates: []model.Candidate{{
		Source:      model.SourceCurrent,
		ID:          bignum.FromUint64(1),
		Name:        "Alice",
		VoteCount:   bignum.FromUint64(5),
		LastUpdated: bignum.FromUint64(1705032704),
	}}}
	srv := NewGraphQLServer(election, nil, utc, "/graphql")

	resp := exec(t, srv, `{ candidates(view: "current", query: "ali") { view query error rows { key id name voteCount lastUpdated transactionHash } } }`, nil)
	if len(resp.Errors) > 0 {
		t.Fatalf("unexpected errors: %+v", resp.Errors)
	}

	var data struct {
		Candidates struct {
			View  string
			Query string
			Error *string
			Rows  []map[string]string
		}
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.Candidates.View != "current" || data.Candidates.Query != "ali" || data.Candidates.Error != nil {
		t.Errorf("unexpected list metadata %+v", data.Candidates)
	}
	if len(data.Candidates.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(data.Candidates.Rows))
	}
	row := data.Candidates.Rows[0]
	if row["id"] != "1" || row["name"] != "Alice" || row["voteCount"] != "5" {
		t.Errorf("unexpected row %v", row)
	}
	if row["lastUpdated"] != "2024-01-12T04:11:44Z" || row["transactionHash"] != bignum.NotAvailable {
		t.Errorf("unexpected formatted fields %v", row)
	}
	if row["key"] == "" {
		t.Errorf("rows must carry a key")
	}
}

func TestListErrorIsReported(t *testing.T) {
	srv := NewGraphQLServer(&stubElection{listErr: errors.New("后端不可用")}, nil, utc, "/graphql")
	resp := exec(t, srv, `{ candidates { error rows { id } } }`, nil)
	if len(resp.Errors) > 0 {
		t.Fatalf("list errors belong in the payload, got %+v", resp.Errors)
	}
	if !strings.Contains(string(resp.Data), "后端不可用") {
		t.Errorf("expected error message in %s", resp.Data)
	}
}

func TestUnknownViewRejected(t *testing.T) {
	srv := NewGraphQLServer(&stubElection{}, nil, utc, "/graphql")
	resp := exec(t, srv, `{ voters(view: "bogus") { view } }`, nil)
	if len(resp.Errors) == 0 {
		t.Errorf("unknown view should be an error")
	}
}

func TestVoteSharesAndStats(t *testing.T) {
	srv := NewGraphQLServer(&stubElection{}, stubStats{}, utc, "/graphql")
	resp := exec(t, srv, `{ voteShares { candidateId name votes percent } archiveStats { kind count } }`, nil)
	if len(resp.Errors) > 0 {
		t.Fatalf("unexpected errors: %+v", resp.Errors)
	}
	var data struct {
		VoteShares []struct {
			CandidateID string `json:"candidateId"`
			Name        string
			Votes       string
			Percent     float64
		}
		ArchiveStats []struct {
			Kind  string
			Count int
		}
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatal(err)
	}
	if len(data.VoteShares) != 2 || data.VoteShares[1].Percent != 75 || data.VoteShares[1].Votes != "15" {
		t.Errorf("unexpected shares %+v", data.VoteShares)
	}
	if len(data.ArchiveStats) != 1 || data.ArchiveStats[0].Count != 3 {
		t.Errorf("unexpected stats %+v", data.ArchiveStats)
	}
}

func TestArchiveStatsWithoutArchiver(t *testing.T) {
	srv := NewGraphQLServer(&stubElection{}, nil, utc, "/graphql")
	resp := exec(t, srv, `{ archiveStats { kind } }`, nil)
	if len(resp.Errors) > 0 || !strings.Contains(string(resp.Data), `"archiveStats":[]`) {
		t.Errorf("expected empty stats, got %s %+v", resp.Data, resp.Errors)
	}
}

func TestVoterQuery(t *testing.T) {
	srv := NewGraphQLServer(&stubElection{}, nil, utc, "/graphql")
	resp := exec(t, srv, `{ voter(id: "12020") { id name hasVoted } voteStatus(voterId: "12020") }`, nil)
	if len(resp.Errors) > 0 {
		t.Fatalf("unexpected errors: %+v", resp.Errors)
	}
	if !strings.Contains(string(resp.Data), `"hasVoted":"true"`) || !strings.Contains(string(resp.Data), `"voteStatus":true`) {
		t.Errorf("unexpected data %s", resp.Data)
	}
}

func TestAddCandidateMutation(t *testing.T) {
	election := &stubElection{}
	srv := NewGraphQLServer(election, nil, utc, "/graphql")
	resp := exec(t, srv, `mutation($in: CandidateInput!) { addCandidate(input: $in) { success message } }`,
		map[string]interface{}{"in": map[string]string{"id": "0x0a", "name": "Carol", "visi": "V", "misi": "M"}})
	if len(resp.Errors) > 0 {
		t.Fatalf("unexpected errors: %+v", resp.Errors)
	}
	if election.added.ID != "0x0a" || election.added.Name != "Carol" {
		t.Errorf("input not forwarded: %+v", election.added)
	}
	if !strings.Contains(string(resp.Data), `"success":true`) {
		t.Errorf("unexpected data %s", resp.Data)
	}
}

func TestMutationFailureCarriesMessage(t *testing.T) {
	srv := NewGraphQLServer(&stubElection{writeErr: errors.New("ID已存在")}, nil, utc, "/graphql")
	resp := exec(t, srv, `mutation { deleteVoter(id: "0x01") { success message } }`, nil)
	if len(resp.Errors) > 0 {
		t.Fatalf("unexpected errors: %+v", resp.Errors)
	}
	if !strings.Contains(string(resp.Data), `"success":false`) || !strings.Contains(string(resp.Data), "ID已存在") {
		t.Errorf("unexpected data %s", resp.Data)
	}
}

func TestVoteAndRefreshMutations(t *testing.T) {
	election := &stubElection{}
	srv := NewGraphQLServer(election, nil, utc, "/graphql")
	resp := exec(t, srv, `mutation {
	  vote(input: {voterId: "12020", candidateId: "1", password: "pw"}) { success }
	  refresh(kind: "all") { success }
	}`, nil)
	if len(resp.Errors) > 0 {
		t.Fatalf("unexpected errors: %+v", resp.Errors)
	}
	if election.voted.VoterID != "12020" || election.voted.CandidateID != "1" {
		t.Errorf("vote not forwarded: %+v", election.voted)
	}
	if len(election.forced) != len(model.Kinds) {
		t.Errorf("refresh all should force every kind, got %v", election.forced)
	}
	if len(election.refreshed) != 0 {
		t.Errorf("refresh mutation should bypass the snapshot cache, got cached refresh %v", election.refreshed)
	}
}

func TestRefreshMutationSingleKind(t *testing.T) {
	election := &stubElection{}
	srv := NewGraphQLServer(election, nil, utc, "/graphql")
	resp := exec(t, srv, `mutation { refresh(kind: "voter") { success } }`, nil)
	if len(resp.Errors) > 0 {
		t.Fatalf("unexpected errors: %+v", resp.Errors)
	}
	if len(election.forced) != 1 || election.forced[0] != model.KindVoter {
		t.Errorf("expected forced voter refresh, got %v", election.forced)
	}
}

func TestLoginMutation(t *testing.T) {
	srv := NewGraphQLServer(&stubElection{}, nil, utc, "/graphql")
	resp := exec(t, srv, `mutation { login(voterId: "7", password: "secret") { token userId } }`, nil)
	if len(resp.Errors) > 0 || !strings.Contains(string(resp.Data), `"token":"tok"`) {
		t.Errorf("unexpected login response %s %+v", resp.Data, resp.Errors)
	}

	resp = exec(t, srv, `mutation { login(voterId: "7", password: "wrong") { token } }`, nil)
	if len(resp.Errors) == 0 || resp.Errors[0].Message != "密码错误" {
		t.Errorf("login failure should surface as an error, got %+v", resp.Errors)
	}
}

func TestPlaygroundUsesEndpoint(t *testing.T) {
	srv := NewGraphQLServer(&stubElection{}, nil, utc, "/gql")
	rec := httptest.NewRecorder()
	srv.PlaygroundHandler()(rec, httptest.NewRequest(http.MethodGet, "/playground", nil))
	if !strings.Contains(rec.Body.String(), "endpoint: '/gql'") {
		t.Errorf("playground should point at the configured path")
	}
}
