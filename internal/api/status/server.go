// Package status 提供 watch 模式下的本地状态服务
//
// 服务仅监听本地地址，暴露健康检查、Prometheus 指标与被跟踪赏金的状态提示。
// 状态提示来自协调器缓存，不访问账本。
package status

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/weisyn/bounty/internal/core/bounty"
	logInterface "github.com/weisyn/bounty/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/bounty/pkg/types"
)

// WatchList 被跟踪的赏金
type WatchList interface {
	Watched() []types.ContractID
}

// SnapshotSource 状态提示来源
type SnapshotSource interface {
	Snapshot(ctx context.Context, id types.ContractID) (*bounty.Snapshot, bool)
}

// Server 本地状态服务
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	logger     logInterface.Logger

	watched   WatchList
	snapshots SnapshotSource

	mu        sync.Mutex
	isRunning bool
	startTime time.Time
	addr      string
}

// NewServer 创建状态服务
func NewServer(addr string, gatherer prometheus.Gatherer, watched WatchList, snapshots SnapshotSource, logger logInterface.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		router:    router,
		logger:    logger,
		watched:   watched,
		snapshots: snapshots,
		addr:      addr,
	}
	s.setupRoutes(gatherer)
	return s
}

func (s *Server) setupRoutes(gatherer prometheus.Gatherer) {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.started()).Truncate(time.Second).String(),
			"watched": len(s.watched.Watched()),
		})
	})

	if gatherer != nil {
		s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	bounties := s.router.Group("/bounties")
	{
		bounties.GET("", s.listSnapshots)
		bounties.GET("/:id", s.getSnapshot)
	}
}

func (s *Server) listSnapshots(c *gin.Context) {
	ids := s.watched.Watched()
	out := make([]*bounty.Snapshot, 0, len(ids))
	for _, id := range ids {
		if snap, ok := s.snapshots.Snapshot(c.Request.Context(), id); ok {
			out = append(out, snap)
			continue
		}
		// 尚未完成第一轮刷新
		out = append(out, &bounty.Snapshot{ContractID: id})
	}
	c.JSON(http.StatusOK, gin.H{"bounties": out})
}

func (s *Server) getSnapshot(c *gin.Context) {
	id, err := types.ParseContractID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snap, ok := s.snapshots.Snapshot(c.Request.Context(), id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no state observed for contract %s", id)})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Handler 返回路由，供测试使用
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) started() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startTime
}

// Start 绑定地址并在后台提供服务；地址被占用时立即返回错误
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return errors.New("status server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.addr = listener.Addr().String()
	s.startTime = time.Now()
	s.isRunning = true

	server := s.httpServer
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorf("状态服务异常退出: %v", err)
		}
	}()
	s.logger.Infof("状态服务已启动: addr=%s", s.addr)
	return nil
}

// Addr 实际监听地址
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Stop 停止服务
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	server := s.httpServer
	running := s.isRunning
	s.isRunning = false
	s.mu.Unlock()

	if !running {
		return nil
	}
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown status server: %w", err)
	}
	s.logger.Debug("状态服务已停止")
	return nil
}
