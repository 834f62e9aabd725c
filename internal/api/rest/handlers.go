package rest

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lvdashuaibi/ledgervote/internal/model"
	"github.com/lvdashuaibi/ledgervote/internal/service"
	"github.com/lvdashuaibi/ledgervote/internal/view"
)

type listResponse[R any] struct {
	View      model.Mode `json:"view"`
	Query     string     `json:"query"`
	Error     string     `json:"error,omitempty"`
	FetchedAt string     `json:"fetchedAt,omitempty"`
	Rows      []R        `json:"rows"`
}

func newListResponse[T any, R any](v service.ListView[T], rows []R) listResponse[R] {
	resp := listResponse[R]{View: v.Mode, Query: v.Query, Rows: rows}
	if v.Err != nil {
		resp.Error = v.Err.Error()
	}
	if !v.FetchedAt.IsZero() {
		resp.FetchedAt = v.FetchedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

// handleList GET /api/lists/:kind?view=current|history&q=...
func (s *Service) handleList(c *gin.Context) {
	kind, err := model.ParseKind(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": true, "message": err.Error()})
		return
	}
	mode, err := model.ParseMode(c.Query("view"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": err.Error()})
		return
	}
	query := c.Query("q")

	switch kind {
	case model.KindCandidate:
		v := s.election.Candidates(mode, query)
		c.JSON(http.StatusOK, newListResponse(v, view.CandidateRows(v.Rows, s.format)))
	case model.KindVoter:
		v := s.election.Voters(mode, query)
		c.JSON(http.StatusOK, newListResponse(v, view.VoterRows(v.Rows, s.format)))
	case model.KindVote:
		v := s.election.Tallies(mode, query)
		c.JSON(http.StatusOK, newListResponse(v, view.TallyRows(v.Rows, s.format)))
	}
}

type shareResponse struct {
	CandidateID string  `json:"candidateId"`
	Name        string  `json:"name"`
	Votes       string  `json:"votes"`
	Percent     float64 `json:"percent"`
}

func (s *Service) handleShares(c *gin.Context) {
	shares, err := s.election.Shares()
	if err != nil {
		fail(c, err)
		return
	}
	resp := make([]shareResponse, 0, len(shares))
	for _, sh := range shares {
		resp = append(resp, shareResponse{
			CandidateID: sh.CandidateID.String(),
			Name:        sh.Name,
			Votes:       sh.Votes.String(),
			Percent:     sh.Percent,
		})
	}
	c.JSON(http.StatusOK, gin.H{"shares": resp})
}

// handleRefresh POST /api/refresh/:kind，kind 为 all 时刷新全部
func (s *Service) handleRefresh(c *gin.Context) {
	ctx := c.Request.Context()
	if strings.EqualFold(c.Param("kind"), "all") {
		if err := s.election.ForceRefresh(ctx); err != nil {
			fail(c, err)
			return
		}
		ok(c, "刷新成功")
		return
	}
	kind, err := model.ParseKind(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": true, "message": err.Error()})
		return
	}
	if err := s.election.ForceRefresh(ctx, kind); err != nil {
		fail(c, err)
		return
	}
	ok(c, "刷新成功")
}

func (s *Service) handleAddCandidate(c *gin.Context) {
	var req model.CandidateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": err.Error()})
		return
	}
	if err := s.election.AddCandidate(c.Request.Context(), req); err != nil {
		fail(c, err)
		return
	}
	ok(c, "新增候选人成功")
}

func (s *Service) handleUpdateCandidate(c *gin.Context) {
	var req model.CandidateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": err.Error()})
		return
	}
	if err := s.election.UpdateCandidate(c.Request.Context(), c.Param("id"), req); err != nil {
		fail(c, err)
		return
	}
	ok(c, "修改候选人成功")
}

func (s *Service) handleDeleteCandidate(c *gin.Context) {
	if err := s.election.DeleteCandidate(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	ok(c, "删除候选人成功")
}

func (s *Service) handleAddVoter(c *gin.Context) {
	var req model.VoterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": err.Error()})
		return
	}
	if err := s.election.AddVoter(c.Request.Context(), req); err != nil {
		fail(c, err)
		return
	}
	ok(c, "新增选民成功")
}

func (s *Service) handleUpdateVoter(c *gin.Context) {
	var req model.VoterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": err.Error()})
		return
	}
	if err := s.election.UpdateVoter(c.Request.Context(), c.Param("id"), req); err != nil {
		fail(c, err)
		return
	}
	ok(c, "修改选民成功")
}

func (s *Service) handleDeleteVoter(c *gin.Context) {
	if err := s.election.DeleteVoter(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	ok(c, "删除选民成功")
}

func (s *Service) handleGetVoter(c *gin.Context) {
	voter, err := s.election.Voter(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	rows := view.VoterRows([]model.Voter{voter}, s.format)
	c.JSON(http.StatusOK, gin.H{"error": false, "voter": rows[0]})
}

func (s *Service) handleVoteStatus(c *gin.Context) {
	voted, err := s.election.VoteStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hasVoted": voted})
}

func (s *Service) handleVote(c *gin.Context) {
	var req model.VoteInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": err.Error()})
		return
	}
	if err := s.election.Vote(c.Request.Context(), req); err != nil {
		fail(c, err)
		return
	}
	ok(c, "投票成功")
}

func (s *Service) handleLogin(c *gin.Context) {
	var req model.LoginInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": err.Error()})
		return
	}
	res, err := s.election.Login(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"error": false, "loginResult": res})
}
