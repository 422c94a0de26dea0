package contract

import (
	"go.uber.org/fx"

	"github.com/weisyn/bounty/client/core/transport"
	"github.com/weisyn/bounty/internal/core/infrastructure/log"
	bountyInterface "github.com/weisyn/bounty/pkg/interfaces/bounty"
	"github.com/weisyn/bounty/pkg/interfaces/config"
	logInterface "github.com/weisyn/bounty/pkg/interfaces/infrastructure/log"
)

// ModuleParams 账本网关模块依赖
type ModuleParams struct {
	fx.In

	Provider config.Provider
	Logger   logInterface.Logger
}

// ModuleOutput 账本网关模块输出
type ModuleOutput struct {
	fx.Out

	Transport transport.Client
	Ledger    bountyInterface.LedgerClient
}

// Module 返回账本网关模块
func Module() fx.Option {
	return fx.Module("ledger",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 连接配置中的节点；连接是惰性的，节点不可达不会阻止会话启动
func ProvideServices(params ModuleParams) (ModuleOutput, error) {
	opts := params.Provider.GetLedger()
	logger := log.NewModuleLogger(params.Logger, "transport")

	client := transport.NewJSONRPCClient(opts.Endpoint, opts.Timeout, logger)
	service, err := NewService(client, opts, params.Logger)
	if err != nil {
		return ModuleOutput{}, err
	}
	return ModuleOutput{Transport: client, Ledger: service}, nil
}
