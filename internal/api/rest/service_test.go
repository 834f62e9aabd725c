package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"

	"github.com/lvdashuaibi/ledgervote/internal/api/graph"
	"github.com/lvdashuaibi/ledgervote/internal/bignum"
	"github.com/lvdashuaibi/ledgervote/internal/client"
	"github.com/lvdashuaibi/ledgervote/internal/client/mocks"
	"github.com/lvdashuaibi/ledgervote/internal/model"
	"github.com/lvdashuaibi/ledgervote/internal/service"
)

var utc = bignum.DateFormat{Location: time.UTC, Layout: time.RFC3339}

var fixtures = map[client.Endpoint]string{
	client.EndpointCandidates: `{"error": false, "candidates": [
		{"id": {"hex":"0x01"}, "name": "Alice", "visi": "v", "misi": "m", "voteCount": {"hex":"0x05"}, "lastUpdated": {"hex":"0x65a0bc00"}},
		{"id": {"hex":"0x02"}, "name": "Bob", "visi": "v", "misi": "m", "voteCount": {"hex":"0x0f"}, "lastUpdated": {"hex":"0x65a0bc01"}}
	]}`,
	client.EndpointCandidateHistories: `[[{"hex":"0x01"}, "Alice", "v", "m", {"hex":"0x10"}]]`,
	client.EndpointVoters:             `{"error": false, "voters": []}`,
	client.EndpointVoterHistories:     `[]`,
	client.EndpointVoteCounts:         `{"voteCounts": [{"id": {"hex":"0x01"}, "voteCount": {"hex":"0x05"}}, {"id": {"hex":"0x02"}, "voteCount": {"hex":"0x0f"}}]}`,
	client.EndpointVoteHistories:      `<html>`,
}

func serveFixtures(_ context.Context, endpoint client.Endpoint) ([]byte, error) {
	body, ok := fixtures[endpoint]
	if !ok {
		return nil, errors.New("unexpected endpoint " + string(endpoint))
	}
	return []byte(body), nil
}

func newTestService(t *testing.T) (*Service, *mocks.MockAPI) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)
	api := mocks.NewMockAPI(ctrl)
	api.EXPECT().Fetch(gomock.Any(), gomock.Any()).DoAndReturn(serveFixtures).AnyTimes()

	election := service.NewElectionService(api, nil, nil, nil)
	if err := election.RefreshAll(context.Background()); err == nil {
		t.Fatalf("malformed vote history should surface as a refresh error")
	}
	gql := graph.NewGraphQLServer(election, nil, utc, "/graphql")
	return NewService(":0", election, gql, "/graphql", utc, nil), api
}

func do(t *testing.T, s *Service, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestListCandidatesHistory(t *testing.T) {
	s, _ := newTestService(t)
	rec := do(t, s, http.MethodGet, "/api/lists/candidates?view=history", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body)
	}
	var resp struct {
		View  string
		Error string
		Rows  []map[string]string
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.View != "history" || len(resp.Rows) != 1 || resp.Rows[0]["voteCount"] != bignum.NotAvailable {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestListFilter(t *testing.T) {
	s, _ := newTestService(t)
	rec := do(t, s, http.MethodGet, "/api/lists/candidate?q=BOB", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"name":"Bob"`) || strings.Contains(rec.Body.String(), "Alice") {
		t.Errorf("unexpected filter result %d: %s", rec.Code, rec.Body)
	}
}

func TestListFailureIsPerList(t *testing.T) {
	s, _ := newTestService(t)
	rec := do(t, s, http.MethodGet, "/api/lists/votes?view=history", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("a failed list is still a valid response, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"error"`) || !strings.Contains(rec.Body.String(), `"rows":[]`) {
		t.Errorf("failed list should be empty with an error: %s", rec.Body)
	}

	rec = do(t, s, http.MethodGet, "/api/lists/votes", "")
	if strings.Contains(rec.Body.String(), `"error"`) {
		t.Errorf("current tallies should be unaffected: %s", rec.Body)
	}
}

func TestUnknownKindAndView(t *testing.T) {
	s, _ := newTestService(t)
	if rec := do(t, s, http.MethodGet, "/api/lists/ballots", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown kind should be 404, got %d", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/api/lists/voters?view=past", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown view should be 400, got %d", rec.Code)
	}
}

func TestShares(t *testing.T) {
	s, _ := newTestService(t)
	rec := do(t, s, http.MethodGet, "/api/shares", "")
	var resp struct {
		Shares []struct {
			Name    string
			Percent float64
		}
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Shares) != 2 || resp.Shares[0].Percent != 25 || resp.Shares[1].Percent != 75 {
		t.Errorf("unexpected shares %+v", resp.Shares)
	}
}

func TestHealthReportsListErrors(t *testing.T) {
	s, _ := newTestService(t)
	rec := do(t, s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("partial failure should not be 503, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"healthy":false`) || !strings.Contains(rec.Body.String(), string(client.EndpointVoteHistories)) {
		t.Errorf("unexpected health body %s", rec.Body)
	}
}

func TestInvalidInputIs400(t *testing.T) {
	s, _ := newTestService(t)
	rec := do(t, s, http.MethodPost, "/api/candidates", `{"id": "zz", "name": "Eve"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body)
	}
}

func TestDuplicateCandidateIs409(t *testing.T) {
	s, _ := newTestService(t)
	rec := do(t, s, http.MethodPost, "/api/candidates", `{"id": "0x01", "name": "Alice"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d: %s", rec.Code, rec.Body)
	}
}

func TestBackendErrorStatusPassesThrough(t *testing.T) {
	s, api := newTestService(t)
	api.EXPECT().DeleteVoter(gomock.Any(), "0x2ef4").
		Return(&client.APIError{Method: http.MethodDelete, Path: "/voters/0x2ef4", Status: http.StatusNotFound, Message: "voter not found"})

	rec := do(t, s, http.MethodDelete, "/api/voters/0x2ef4", "")
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "voter not found") {
		t.Errorf("unexpected response %d: %s", rec.Code, rec.Body)
	}
}

func TestVoteForwarded(t *testing.T) {
	s, api := newTestService(t)
	api.EXPECT().Vote(gomock.Any(), model.VoteInput{VoterID: "12020", CandidateID: "1", Password: "pw"}).Return(nil)

	rec := do(t, s, http.MethodPost, "/api/vote", `{"voterId": "12020", "candidateId": "1", "password": "pw"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("unexpected status %d: %s", rec.Code, rec.Body)
	}
}

func TestGraphQLMounted(t *testing.T) {
	s, _ := newTestService(t)
	rec := do(t, s, http.MethodPost, "/graphql", `{"query": "{ candidates { rows { name } } }"}`)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Alice") {
		t.Errorf("unexpected graphql response %d: %s", rec.Code, rec.Body)
	}
}
