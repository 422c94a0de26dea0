package event

import (
	"context"

	"go.uber.org/fx"

	"github.com/weisyn/bounty/internal/core/infrastructure/log"
	"github.com/weisyn/bounty/pkg/interfaces/infrastructure/event"
	logInterface "github.com/weisyn/bounty/pkg/interfaces/infrastructure/log"
)

// ModuleParams 事件模块依赖
type ModuleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Logger    logInterface.Logger `optional:"true"`
}

// ModuleOutput 事件模块输出
type ModuleOutput struct {
	fx.Out

	EventBus event.EventBus
}

// Module 返回事件模块
func Module() fx.Option {
	return fx.Module("event",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 创建事件总线并在会话结束时关闭
func ProvideServices(params ModuleParams) ModuleOutput {
	bus := New(log.NewModuleLogger(params.Logger, "event"))
	params.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			bus.Close()
			return nil
		},
	})
	return ModuleOutput{EventBus: bus}
}
