package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"

	"github.com/weisyn/bounty/client/core/contract"
	config "github.com/weisyn/bounty/internal/config"
	"github.com/weisyn/bounty/internal/core/bounty"
	"github.com/weisyn/bounty/internal/core/bounty/watcher"
	"github.com/weisyn/bounty/internal/core/infrastructure/event"
	log "github.com/weisyn/bounty/internal/core/infrastructure/log"
	"github.com/weisyn/bounty/internal/core/infrastructure/storage"
	bountyInterface "github.com/weisyn/bounty/pkg/interfaces/bounty"
	configInterface "github.com/weisyn/bounty/pkg/interfaces/config"
)

// Framework layers
const (
	// 基础设施层
	LayerInfrastructure = "infrastructure"
	// 通信与数据层
	LayerCommunication = "communication"
	// 业务逻辑层
	LayerBusiness = "business"
	// 应用层
	LayerApplication = "application"
)

// startupTimeout 会话启动超时；启动只打开本地存储，不访问节点
const startupTimeout = 30 * time.Second

// Bootstrap 会话引导程序
type Bootstrap struct {
	opts  *options
	fxApp *fx.App
}

// NewBootstrap 创建引导程序
func NewBootstrap(opts *options) *Bootstrap {
	return &Bootstrap{
		opts: opts,
	}
}

// SetupInfrastructureLayer 设置基础设施层模块
func (b *Bootstrap) SetupInfrastructureLayer() []fx.Option {
	return []fx.Option{
		fx.Provide(func() configInterface.AppOptions { return b.opts }),
		config.Module(), // 1. 配置(不依赖其他)
		log.Module(),    // 2. 日志(依赖配置)
		fx.Provide(newRegistry),
	}
}

// SetupCommunicationLayer 设置通信与数据层模块
func (b *Bootstrap) SetupCommunicationLayer() []fx.Option {
	modules := []fx.Option{
		event.Module(),   // 事件(依赖日志)
		storage.Module(), // 存储(依赖配置和日志)
	}

	// 账本网关：默认连接配置中的节点
	if b.opts.ledger != nil {
		ledger := b.opts.ledger
		modules = append(modules, fx.Provide(func() bountyInterface.LedgerClient { return ledger }))
	} else {
		modules = append(modules, contract.Module())
	}
	return modules
}

// SetupBusinessLayer 设置业务逻辑层模块
// 协调器依赖账本网关和存储，轮询器依赖协调器
func (b *Bootstrap) SetupBusinessLayer() []fx.Option {
	return []fx.Option{
		bounty.Module(),
		watcher.Module(),
	}
}

// SetupApplicationLayer 设置应用层模块
func (b *Bootstrap) SetupApplicationLayer() []fx.Option {
	return b.opts.extra
}

// SetupModules 设置所有应用模块
func (b *Bootstrap) SetupModules() []fx.Option {
	var allModules []fx.Option
	allModules = append(allModules, b.SetupInfrastructureLayer()...)
	allModules = append(allModules, b.SetupCommunicationLayer()...)
	allModules = append(allModules, b.SetupBusinessLayer()...)
	allModules = append(allModules, b.SetupApplicationLayer()...)
	return allModules
}

// CreateFxApp 创建并配置fx应用
func (b *Bootstrap) CreateFxApp() error {
	b.fxApp = fx.New(
		fx.Options(b.SetupModules()...),
		// 禁用fx内部日志
		fx.NopLogger,
	)
	if err := b.fxApp.Err(); err != nil {
		return fmt.Errorf("装配会话失败: %w", err)
	}
	return nil
}

// StartApp 启动会话
func (b *Bootstrap) StartApp(ctx context.Context) error {
	if err := b.fxApp.Start(ctx); err != nil {
		return fmt.Errorf("启动会话失败: %w", err)
	}
	return nil
}

// StopApp 停止会话
func (b *Bootstrap) StopApp(ctx context.Context) error {
	if err := b.fxApp.Stop(ctx); err != nil {
		return fmt.Errorf("停止会话失败: %w", err)
	}
	return nil
}

// newRegistry 会话独立的指标注册表，避免重复注册全局默认表
func newRegistry() (*prometheus.Registry, prometheus.Registerer) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry, registry
}

// WaitForSignal 等待退出信号
func WaitForSignal() os.Signal {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)
	return <-signals
}
