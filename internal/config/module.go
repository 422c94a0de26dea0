package config

import (
	"go.uber.org/fx"

	bountyconfig "github.com/weisyn/bounty/internal/config/bounty"
	ledgerconfig "github.com/weisyn/bounty/internal/config/ledger"
	"github.com/weisyn/bounty/pkg/interfaces/config"
	"github.com/weisyn/bounty/pkg/types"
)

// ConfigParams 定义配置模块的依赖参数
type ConfigParams struct {
	fx.In

	// 应用配置选项
	AppOptions config.AppOptions `optional:"true"`
}

// ConfigOutput 定义配置模块的输出结构
type ConfigOutput struct {
	fx.Out

	// 配置提供者
	Provider config.Provider
}

// Module 返回配置模块
func Module() fx.Option {
	return fx.Module("config",
		fx.Provide(
			ProvideConfigServices,
			// 提供具体的配置类型用于依赖注入
			func(provider config.Provider) *ledgerconfig.LedgerOptions {
				return provider.GetLedger()
			},
			func(provider config.Provider) *bountyconfig.BountyOptions {
				return provider.GetBounty()
			},
		),
	)
}

// ProvideConfigServices 提供配置服务
func ProvideConfigServices(params ConfigParams) (ConfigOutput, error) {
	var appConfig *types.AppConfig
	if params.AppOptions != nil {
		appConfig = params.AppOptions.GetAppConfig()
	}
	return ConfigOutput{
		Provider: NewProvider(appConfig),
	}, nil
}
