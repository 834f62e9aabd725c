package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lvdashuaibi/ledgervote/config"
	"github.com/lvdashuaibi/ledgervote/internal/model"
	"github.com/lvdashuaibi/ledgervote/internal/normalize"
)

func newTestClient(t *testing.T, h http.Handler) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewHTTPClient(config.APIConfig{BaseURL: srv.URL, Timeout: time.Second}, nil)
	if err != nil {
		t.Fatalf("NewHTTPClient: %v", err)
	}
	return c
}

func TestFetchReturnsBody(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/all-candidate-histories" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		io.WriteString(w, `[[{"hex":"0x01"},"Alice","v","m",{"hex":"0x01"}]]`)
	}))
	body, err := c.Fetch(context.Background(), EndpointCandidateHistories)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := normalize.CandidateHistories(string(EndpointCandidateHistories), body)
	if err != nil || len(got) != 1 || got[0].Name != "Alice" {
		t.Errorf("unexpected result %+v, %v", got, err)
	}
}

func TestNon2xxIsAPIError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error": true, "message": "Voter already voted"}`)
	}))
	err := c.Vote(context.Background(), model.VoteInput{VoterID: "1", CandidateID: "2", Password: "x"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Message != "Voter already voted" {
		t.Errorf("unexpected error %+v", apiErr)
	}
}

func TestWriteRequests(t *testing.T) {
	type call struct {
		method, path string
		body         map[string]interface{}
	}
	var calls []call
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}
		calls = append(calls, call{r.Method, r.URL.Path, body})
		io.WriteString(w, `{"error": false, "message": "ok"}`)
	}))
	ctx := context.Background()

	in := model.CandidateInput{ID: "0x0a", Name: "Carol", Visi: "v", Misi: "m"}
	if err := c.AddCandidate(ctx, in); err != nil {
		t.Fatal(err)
	}
	if err := c.UpdateCandidate(ctx, "0x0a", in); err != nil {
		t.Fatal(err)
	}
	if err := c.DeleteVoter(ctx, "0x2ef4"); err != nil {
		t.Fatal(err)
	}
	if err := c.Vote(ctx, model.VoteInput{VoterID: "12020", CandidateID: "10", Password: "pw"}); err != nil {
		t.Fatal(err)
	}

	want := []struct{ method, path string }{
		{http.MethodPost, "/candidates"},
		{http.MethodPut, "/candidates/0x0a"},
		{http.MethodDelete, "/voters/0x2ef4"},
		{http.MethodPost, "/vote"},
	}
	if len(calls) != len(want) {
		t.Fatalf("expected %d calls, got %d", len(want), len(calls))
	}
	for i, w := range want {
		if calls[i].method != w.method || calls[i].path != w.path {
			t.Errorf("call %d: got %s %s, want %s %s", i, calls[i].method, calls[i].path, w.method, w.path)
		}
	}
	if calls[0].body["name"] != "Carol" || calls[3].body["voterId"] != "12020" {
		t.Errorf("unexpected request bodies %+v", calls)
	}
}

func TestVoterAndVoteStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/voters/12020", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id":{"type":"BigNumber","hex":"0x2ef4"},"name":"Dave","email":"d@x","hasVoted":true}`)
	})
	mux.HandleFunc("/voteStatus/12020", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"hasVoted": false}`)
	})
	c := newTestClient(t, mux)

	v, err := c.Voter(context.Background(), "12020")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.ID.String() != "12020" || v.Name != "Dave" || v.HasVotedText() != "true" {
		t.Errorf("unexpected voter %+v", v)
	}

	voted, err := c.VoteStatus(context.Background(), "12020")
	if err != nil || voted {
		t.Errorf("expected not voted, got %v, %v", voted, err)
	}
}

func TestLogin(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in model.LoginInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in.Password != "secret" {
			io.WriteString(w, `{"error": true, "message": "Invalid password"}`)
			return
		}
		io.WriteString(w, `{"error": false, "loginResult": {"token": "tok", "userId": 12020}}`)
	}))

	res, err := c.Login(context.Background(), model.LoginInput{VoterID: "12020", Password: "secret"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Token != "tok" || res.UserID != "12020" {
		t.Errorf("unexpected login result %+v", res)
	}

	_, err = c.Login(context.Background(), model.LoginInput{VoterID: "12020", Password: "wrong"})
	var ee *normalize.EnvelopeError
	if !errors.As(err, &ee) || ee.Message != "Invalid password" {
		t.Errorf("expected envelope error, got %v", err)
	}
}

func TestContextCancel(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Fetch(ctx, EndpointVoters); err == nil {
		t.Errorf("expected error for cancelled context")
	}
}

func TestInvalidBaseURL(t *testing.T) {
	if _, err := NewHTTPClient(config.APIConfig{BaseURL: "not a url"}, nil); err == nil {
		t.Errorf("expected error for invalid base url")
	}
}
