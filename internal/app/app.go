// Package app 组装一次连接会话所需的全部模块
//
// 会话在连接时构建一次，断开时通过 Stop 统一释放存储、事件总线与轮询器。
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/weisyn/bounty/internal/core/bounty"
	"github.com/weisyn/bounty/internal/core/bounty/watcher"
	"github.com/weisyn/bounty/pkg/interfaces/config"
	"github.com/weisyn/bounty/pkg/interfaces/infrastructure/event"
	logInterface "github.com/weisyn/bounty/pkg/interfaces/infrastructure/log"
)

// stopTimeout 停止超时，留出时间让 badger 完成落盘
const stopTimeout = 30 * time.Second

// Session 一次连接会话
type Session struct {
	Coordinator *bounty.Coordinator
	Watcher     *watcher.Watcher
	Provider    config.Provider
	Registry    *prometheus.Registry
	Events      event.EventBus
	Logger      logInterface.Logger

	bootstrap *Bootstrap
}

// sessionDeps 从容器中取出的会话组件
type sessionDeps struct {
	fx.In

	Coordinator *bounty.Coordinator
	Watcher     *watcher.Watcher
	Provider    config.Provider
	Registry    *prometheus.Registry
	Events      event.EventBus
	Logger      logInterface.Logger
}

// Start 构建并启动会话
func Start(appOptions ...Option) (*Session, error) {
	opts := newOptions(appOptions...)

	var deps sessionDeps
	opts.extra = append(opts.extra, fx.Populate(&deps))

	bootstrap := NewBootstrap(opts)
	if err := bootstrap.CreateFxApp(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()
	if err := bootstrap.StartApp(ctx); err != nil {
		return nil, err
	}

	deps.Logger.Debugf("会话已启动: data_root=%s, endpoint=%s",
		deps.Provider.GetDataRoot(), deps.Provider.GetLedger().Endpoint)

	return &Session{
		Coordinator: deps.Coordinator,
		Watcher:     deps.Watcher,
		Provider:    deps.Provider,
		Registry:    deps.Registry,
		Events:      deps.Events,
		Logger:      deps.Logger,
		bootstrap:   bootstrap,
	}, nil
}

// Stop 停止会话并释放资源，可重复调用
func (s *Session) Stop() error {
	if s == nil || s.bootstrap == nil {
		return nil
	}
	bootstrap := s.bootstrap
	s.bootstrap = nil

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := bootstrap.StopApp(ctx); err != nil {
		return err
	}
	// 输出到终端时 sync 会返回 EINVAL，忽略
	_ = s.Logger.Sync()
	return nil
}

// String 会话摘要
func (s *Session) String() string {
	return fmt.Sprintf("session(endpoint=%s)", s.Provider.GetLedger().Endpoint)
}
