package config

import (
	bountyconfig "github.com/weisyn/bounty/internal/config/bounty"
	ledgerconfig "github.com/weisyn/bounty/internal/config/ledger"
	logconfig "github.com/weisyn/bounty/internal/config/log"
	badgerconfig "github.com/weisyn/bounty/internal/config/storage/badger"
	memoryconfig "github.com/weisyn/bounty/internal/config/storage/memory"
	redisconfig "github.com/weisyn/bounty/internal/config/storage/redis"
	"github.com/weisyn/bounty/pkg/interfaces/config"
	"github.com/weisyn/bounty/pkg/types"
	"github.com/weisyn/bounty/pkg/utils"
)

// Provider 实现配置提供者接口
type Provider struct {
	appConfig *types.AppConfig
	dataRoot  string
}

var _ config.Provider = (*Provider)(nil)

// NewProvider 创建配置提供者
func NewProvider(appConfig *types.AppConfig) *Provider {
	if appConfig == nil {
		appConfig = &types.AppConfig{}
	}
	return &Provider{
		appConfig: appConfig,
		dataRoot:  resolveDataRoot(appConfig),
	}
}

// resolveDataRoot 数据根目录优先级：storage.data_root > data_dir > 默认目录
func resolveDataRoot(appConfig *types.AppConfig) string {
	base := utils.DefaultDataDir()
	if appConfig.DataDir != nil && *appConfig.DataDir != "" {
		base = utils.ResolveDataPath("", *appConfig.DataDir)
	}
	if appConfig.Storage != nil && appConfig.Storage.DataRoot != nil && *appConfig.Storage.DataRoot != "" {
		return utils.ResolveDataPath(base, *appConfig.Storage.DataRoot)
	}
	return base
}

// GetDataRoot 获取数据根目录
func (p *Provider) GetDataRoot() string {
	return p.dataRoot
}

// GetLog 获取日志配置
func (p *Provider) GetLog() *logconfig.LogOptions {
	return logconfig.New(p.appConfig.Log, p.dataRoot).GetOptions()
}

// GetBadger 获取 Badger 存储配置
// data_root 已在 resolveDataRoot 中处理，这里只传入解析后的根目录
func (p *Provider) GetBadger() *badgerconfig.BadgerOptions {
	return badgerconfig.New(nil, p.dataRoot).GetOptions()
}

// GetMemory 获取内存缓存配置
func (p *Provider) GetMemory() *memoryconfig.MemoryOptions {
	return memoryconfig.New(p.appConfig.Bounty).GetOptions()
}

// GetRedis 获取 Redis 配置
func (p *Provider) GetRedis() *redisconfig.RedisOptions {
	return redisconfig.New(p.appConfig.Storage).GetOptions()
}

// GetLedger 获取账本网关配置
func (p *Provider) GetLedger() *ledgerconfig.LedgerOptions {
	return ledgerconfig.New(p.appConfig.Ledger, p.dataRoot).GetOptions()
}

// GetBounty 获取协调器配置
func (p *Provider) GetBounty() *bountyconfig.BountyOptions {
	return bountyconfig.New(p.appConfig.Bounty, p.appConfig.Storage).GetOptions()
}

// GetAppConfig 获取原始应用配置
func (p *Provider) GetAppConfig() *types.AppConfig {
	return p.appConfig
}
