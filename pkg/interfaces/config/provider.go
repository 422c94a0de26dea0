// Package config provides configuration provider interfaces.
package config

import (
	bountyconfig "github.com/weisyn/bounty/internal/config/bounty"
	ledgerconfig "github.com/weisyn/bounty/internal/config/ledger"
	logconfig "github.com/weisyn/bounty/internal/config/log"
	badgerconfig "github.com/weisyn/bounty/internal/config/storage/badger"
	memoryconfig "github.com/weisyn/bounty/internal/config/storage/memory"
	redisconfig "github.com/weisyn/bounty/internal/config/storage/redis"
	"github.com/weisyn/bounty/pkg/types"
)

// AppOptions 应用配置选项接口
// 提供获取应用配置的统一接口
type AppOptions interface {
	// GetAppConfig 获取应用配置
	GetAppConfig() *types.AppConfig
}

// Provider 配置提供者接口
type Provider interface {
	// GetDataRoot 获取数据根目录（绝对路径）
	GetDataRoot() string

	// GetLog 获取日志配置
	GetLog() *logconfig.LogOptions

	// GetBadger 获取 Badger 存储配置
	GetBadger() *badgerconfig.BadgerOptions

	// GetMemory 获取内存缓存配置
	GetMemory() *memoryconfig.MemoryOptions

	// GetRedis 获取 Redis 配置
	GetRedis() *redisconfig.RedisOptions

	// GetLedger 获取账本网关配置
	GetLedger() *ledgerconfig.LedgerOptions

	// GetBounty 获取协调器配置
	GetBounty() *bountyconfig.BountyOptions
}
