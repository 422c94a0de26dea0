package app

import (
	"go.uber.org/fx"

	bountyInterface "github.com/weisyn/bounty/pkg/interfaces/bounty"
	"github.com/weisyn/bounty/pkg/interfaces/config"
	"github.com/weisyn/bounty/pkg/types"
)

// Option 会话选项函数类型
type Option func(*options)

// options 会话选项
// 实现config.AppOptions接口
type options struct {
	// 用户配置
	appConfig *types.AppConfig

	// 替换账本网关（测试或离线演示时使用）
	ledger bountyInterface.LedgerClient

	// 额外的 fx 选项，例如 fx.Populate
	extra []fx.Option
}

// 编译时校验options是否实现了config.AppOptions接口
var _ config.AppOptions = (*options)(nil)

// WithAppConfig 设置应用配置，通常来自 config.Load
func WithAppConfig(appConfig *types.AppConfig) Option {
	return func(o *options) {
		if appConfig != nil {
			o.appConfig = appConfig
		}
	}
}

// WithLedger 使用给定的账本网关代替 JSON-RPC 节点
func WithLedger(ledger bountyInterface.LedgerClient) Option {
	return func(o *options) {
		o.ledger = ledger
	}
}

// WithFxOptions 追加 fx 选项
func WithFxOptions(opts ...fx.Option) Option {
	return func(o *options) {
		o.extra = append(o.extra, opts...)
	}
}

// newOptions 创建选项
func newOptions(opts ...Option) *options {
	options := &options{
		appConfig: &types.AppConfig{},
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// GetAppConfig 返回应用程序配置
func (o *options) GetAppConfig() *types.AppConfig {
	return o.appConfig
}
