package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lvdashuaibi/ledgervote/internal/api/graph"
	"github.com/lvdashuaibi/ledgervote/internal/bignum"
	"github.com/lvdashuaibi/ledgervote/internal/client"
	"github.com/lvdashuaibi/ledgervote/internal/service"
)

// Election REST接口依赖的应用服务
type Election interface {
	graph.Election
	Status() []service.ListStatus
}

// Service HTTP服务：REST接口 + GraphQL
type Service struct {
	engine   *gin.Engine
	election Election
	graphQL  *graph.GraphQLServer
	format   bignum.DateFormat
	logger   *zap.SugaredLogger
	server   *http.Server
}

// NewService 创建HTTP服务，graphQL 为 nil 时不挂载GraphQL
func NewService(listenAddr string, election Election, graphQL *graph.GraphQLServer, graphPath string, format bignum.DateFormat, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	r := gin.New()
	r.Use(gin.Recovery(), accessLog(logger))

	s := &Service{
		engine:   r,
		election: election,
		graphQL:  graphQL,
		format:   format,
		logger:   logger,
		server:   &http.Server{Addr: listenAddr, Handler: r},
	}

	r.GET("/healthz", s.handleHealth)

	api := r.Group("/api")
	api.GET("/lists/:kind", s.handleList)
	api.GET("/shares", s.handleShares)
	api.POST("/refresh/:kind", s.handleRefresh)

	api.POST("/candidates", s.handleAddCandidate)
	api.PUT("/candidates/:id", s.handleUpdateCandidate)
	api.DELETE("/candidates/:id", s.handleDeleteCandidate)
	api.POST("/voters", s.handleAddVoter)
	api.PUT("/voters/:id", s.handleUpdateVoter)
	api.DELETE("/voters/:id", s.handleDeleteVoter)
	api.GET("/voters/:id", s.handleGetVoter)
	api.GET("/voteStatus/:id", s.handleVoteStatus)
	api.POST("/vote", s.handleVote)
	api.POST("/login", s.handleLogin)

	if graphQL != nil {
		r.POST(graphPath, gin.WrapH(graphQL.Handler()))
		r.GET("/playground", gin.WrapF(graphQL.PlaygroundHandler()))
	}
	return s
}

// Handler 供测试使用
func (s *Service) Handler() http.Handler {
	return s.engine
}

// Start 阻塞直到服务关闭
func (s *Service) Start() error {
	s.logger.Infow("HTTP服务启动", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 优雅关闭
func (s *Service) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func accessLog(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debugw("HTTP请求",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start))
	}
}

// statusCode 将业务错误映射为HTTP状态码
func statusCode(err error) int {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrDuplicateID):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500:
		return apiErr.Status
	}
	return http.StatusBadGateway
}

func fail(c *gin.Context, err error) {
	c.JSON(statusCode(err), gin.H{"error": true, "message": err.Error()})
}

func ok(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"error": false, "message": message})
}

type listStatusResponse struct {
	Endpoint  string `json:"endpoint"`
	Count     int    `json:"count"`
	Error     string `json:"error,omitempty"`
	FetchedAt string `json:"fetchedAt,omitempty"`
}

// handleHealth 各列表的最近一次拉取结果，全部失败时返回503
func (s *Service) handleHealth(c *gin.Context) {
	statuses := s.election.Status()
	resp := make([]listStatusResponse, 0, len(statuses))
	failed := 0
	for _, st := range statuses {
		item := listStatusResponse{Endpoint: string(st.Endpoint), Count: st.Count}
		if st.Err != nil {
			item.Error = st.Err.Error()
			failed++
		}
		if !st.FetchedAt.IsZero() {
			item.FetchedAt = st.FetchedAt.UTC().Format(time.RFC3339)
		}
		resp = append(resp, item)
	}

	code := http.StatusOK
	if len(statuses) > 0 && failed == len(statuses) {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"healthy": failed == 0, "lists": resp})
}
