package watcher

import (
	"context"

	"go.uber.org/fx"

	"github.com/weisyn/bounty/internal/core/bounty"
	"github.com/weisyn/bounty/internal/core/infrastructure/log"
	"github.com/weisyn/bounty/pkg/interfaces/config"
	logInterface "github.com/weisyn/bounty/pkg/interfaces/infrastructure/log"
)

// ModuleParams 轮询模块依赖
type ModuleParams struct {
	fx.In

	Lifecycle   fx.Lifecycle
	Provider    config.Provider
	Logger      logInterface.Logger
	Coordinator *bounty.Coordinator
	Metrics     *bounty.Metrics
}

// Module 返回轮询模块；轮询由 watch 命令显式启动
func Module() fx.Option {
	return fx.Module("watcher",
		fx.Provide(ProvideWatcher),
	)
}

// ProvideWatcher 创建轮询器，会话结束时停止
func ProvideWatcher(params ModuleParams) (*Watcher, error) {
	w, err := New(params.Coordinator, params.Provider.GetBounty().WatchInterval,
		params.Metrics, log.NewModuleLogger(params.Logger, "watcher"))
	if err != nil {
		return nil, err
	}
	params.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return w.Stop()
		},
	})
	return w, nil
}
