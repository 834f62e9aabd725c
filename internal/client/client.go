package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lvdashuaibi/ledgervote/config"
	"github.com/lvdashuaibi/ledgervote/internal/model"
	"github.com/lvdashuaibi/ledgervote/internal/normalize"
)

// Endpoint 只读列表接口
type Endpoint string

const (
	EndpointCandidates         Endpoint = "/candidates"
	EndpointCandidateHistories Endpoint = "/all-candidate-histories"
	EndpointVoters             Endpoint = "/voters"
	EndpointVoterHistories     Endpoint = "/all-voter-histories"
	EndpointVoteCounts         Endpoint = "/vote-counts"
	EndpointVoteHistories      Endpoint = "/all-vote-count-histories"
)

// Endpoints 返回某类实体的当前状态和历史接口
func Endpoints(kind model.Kind) (current, history Endpoint) {
	switch kind {
	case model.KindCandidate:
		return EndpointCandidates, EndpointCandidateHistories
	case model.KindVoter:
		return EndpointVoters, EndpointVoterHistories
	default:
		return EndpointVoteCounts, EndpointVoteHistories
	}
}

//go:generate mockgen -destination=mocks/mock_api.go -package=mocks github.com/lvdashuaibi/ledgervote/internal/client API

// API 选举后端接口
type API interface {
	Fetch(ctx context.Context, endpoint Endpoint) ([]byte, error)
	Voter(ctx context.Context, id string) (model.Voter, error)
	VoteStatus(ctx context.Context, id string) (bool, error)

	AddCandidate(ctx context.Context, in model.CandidateInput) error
	UpdateCandidate(ctx context.Context, hexID string, in model.CandidateInput) error
	DeleteCandidate(ctx context.Context, hexID string) error
	AddVoter(ctx context.Context, in model.VoterInput) error
	UpdateVoter(ctx context.Context, hexID string, in model.VoterInput) error
	DeleteVoter(ctx context.Context, hexID string) error
	Vote(ctx context.Context, in model.VoteInput) error
	Login(ctx context.Context, in model.LoginInput) (model.LoginResult, error)
}

var _ API = &HTTPClient{}

const maxMessageLen = 256

// APIError 后端返回非2xx状态码
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s 失败(%d): %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s 失败(%d)", e.Method, e.Path, e.Status)
}

// HTTPClient 基于 net/http 的后端客户端
type HTTPClient struct {
	baseURL string
	http    *http.Client
	logger  *zap.SugaredLogger
}

// NewHTTPClient 创建客户端，logger 为空时不输出日志
func NewHTTPClient(cfg config.APIConfig, logger *zap.SugaredLogger) (*HTTPClient, error) {
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("后端地址无效: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With("module", "client"),
	}, nil
}

// Fetch 获取列表接口的原始响应体
func (c *HTTPClient) Fetch(ctx context.Context, endpoint Endpoint) ([]byte, error) {
	return c.do(ctx, http.MethodGet, string(endpoint), nil)
}

// Voter 获取单个选民，id 为十进制
func (c *HTTPClient) Voter(ctx context.Context, id string) (model.Voter, error) {
	path := "/voters/" + url.PathEscape(id)
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return model.Voter{}, err
	}
	// 单条记录复用列表解析
	wrapped := append(append([]byte(`{"voters":[`), body...), ']', '}')
	voters, err := normalize.Voters(path, wrapped)
	if err != nil {
		return model.Voter{}, err
	}
	if len(voters) != 1 {
		return model.Voter{}, &normalize.PayloadError{Endpoint: path, Reason: "应为单条选民记录"}
	}
	return voters[0], nil
}

// VoteStatus 查询选民是否已投票
func (c *HTTPClient) VoteStatus(ctx context.Context, id string) (bool, error) {
	path := "/voteStatus/" + url.PathEscape(id)
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return false, err
	}
	var resp struct {
		HasVoted *bool `json:"hasVoted"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || resp.HasVoted == nil {
		return false, &normalize.PayloadError{Endpoint: path, Reason: "缺少 hasVoted"}
	}
	return *resp.HasVoted, nil
}

func (c *HTTPClient) AddCandidate(ctx context.Context, in model.CandidateInput) error {
	_, err := c.do(ctx, http.MethodPost, "/candidates", in)
	return err
}

func (c *HTTPClient) UpdateCandidate(ctx context.Context, hexID string, in model.CandidateInput) error {
	_, err := c.do(ctx, http.MethodPut, "/candidates/"+url.PathEscape(hexID), in)
	return err
}

func (c *HTTPClient) DeleteCandidate(ctx context.Context, hexID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/candidates/"+url.PathEscape(hexID), nil)
	return err
}

func (c *HTTPClient) AddVoter(ctx context.Context, in model.VoterInput) error {
	_, err := c.do(ctx, http.MethodPost, "/voters", in)
	return err
}

func (c *HTTPClient) UpdateVoter(ctx context.Context, hexID string, in model.VoterInput) error {
	_, err := c.do(ctx, http.MethodPut, "/voters/"+url.PathEscape(hexID), in)
	return err
}

func (c *HTTPClient) DeleteVoter(ctx context.Context, hexID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/voters/"+url.PathEscape(hexID), nil)
	return err
}

func (c *HTTPClient) Vote(ctx context.Context, in model.VoteInput) error {
	_, err := c.do(ctx, http.MethodPost, "/vote", in)
	return err
}

// Login 登录，响应体 {error, message, loginResult}
func (c *HTTPClient) Login(ctx context.Context, in model.LoginInput) (model.LoginResult, error) {
	body, err := c.do(ctx, http.MethodPost, "/login", in)
	if err != nil {
		return model.LoginResult{}, err
	}
	var resp struct {
		Error       bool   `json:"error"`
		Message     string `json:"message"`
		LoginResult *struct {
			Token  string          `json:"token"`
			UserID json.RawMessage `json:"userId"`
		} `json:"loginResult"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.LoginResult{}, &normalize.PayloadError{Endpoint: "/login", Reason: err.Error()}
	}
	if resp.Error {
		return model.LoginResult{}, &normalize.EnvelopeError{Endpoint: "/login", Message: resp.Message}
	}
	if resp.LoginResult == nil {
		return model.LoginResult{}, &normalize.PayloadError{Endpoint: "/login", Reason: "缺少 loginResult"}
	}
	// userId 可能是数字也可能是字符串
	userID := strings.Trim(string(resp.LoginResult.UserID), `"`)
	return model.LoginResult{Token: resp.LoginResult.Token, UserID: userID}, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("序列化请求失败: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		c.logger.Warnw("请求后端失败", "method", method, "path", path, "err", err)
		return nil, fmt.Errorf("请求 %s 失败: %w", path, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("读取 %s 响应失败: %w", path, err)
	}
	c.logger.Debugw("后端响应", "method", method, "path", path, "status", res.StatusCode, "elapsed", time.Since(start))

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &APIError{Method: method, Path: path, Status: res.StatusCode, Message: errorMessage(body)}
	}
	return body, nil
}

func errorMessage(body []byte) string {
	var resp struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &resp) == nil && resp.Message != "" {
		return resp.Message
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxMessageLen {
		msg = msg[:maxMessageLen]
	}
	return msg
}
