// Package bounty 协调器运行配置
package bounty

import (
	"strings"
	"time"

	configtypes "github.com/weisyn/bounty/pkg/types"
)

// 元数据存储后端
const (
	BackendBadger = "badger"
	BackendRedis  = "redis"
)

const (
	// defaultCacheTTL 链上状态提示的有效期
	defaultCacheTTL = 30 * time.Second

	// defaultWatchInterval watcher 刷新间隔
	// 出块间隔约 3~4 秒，10 秒刷新足以反映状态变化且不给节点造成压力
	defaultWatchInterval = 10 * time.Second

	// defaultMetricsAddr watch 命令暴露 /metrics 的监听地址
	defaultMetricsAddr = "127.0.0.1:9464"
)

// BountyOptions 协调器配置选项
type BountyOptions struct {
	CacheTTL      time.Duration `json:"cache_ttl"`
	WatchInterval time.Duration `json:"watch_interval"`
	MetricsAddr   string        `json:"metrics_addr"`
	StoreBackend  string        `json:"store_backend"` // badger | redis
}

// Config 协调器配置实现
type Config struct {
	options *BountyOptions
}

// New 创建协调器配置，存储后端取自 storage 段
func New(userConfig *configtypes.UserBountyConfig, storageConfig *configtypes.UserStorageConfig) *Config {
	options := &BountyOptions{
		CacheTTL:      defaultCacheTTL,
		WatchInterval: defaultWatchInterval,
		MetricsAddr:   defaultMetricsAddr,
		StoreBackend:  BackendBadger,
	}
	if userConfig != nil {
		if userConfig.CacheTTL != nil {
			if d, err := time.ParseDuration(*userConfig.CacheTTL); err == nil && d > 0 {
				options.CacheTTL = d
			}
		}
		if userConfig.WatchInterval != nil {
			if d, err := time.ParseDuration(*userConfig.WatchInterval); err == nil && d > 0 {
				options.WatchInterval = d
			}
		}
		if userConfig.MetricsAddr != nil && *userConfig.MetricsAddr != "" {
			options.MetricsAddr = *userConfig.MetricsAddr
		}
	}
	if storageConfig != nil && storageConfig.Backend != nil {
		if backend := strings.ToLower(strings.TrimSpace(*storageConfig.Backend)); backend == BackendRedis {
			options.StoreBackend = BackendRedis
		}
	}
	return &Config{options: options}
}

// NewFromOptions 从选项直接创建配置
func NewFromOptions(options *BountyOptions) *Config {
	return &Config{options: options}
}

// GetOptions 获取完整选项
func (c *Config) GetOptions() *BountyOptions {
	return c.options
}

// GetCacheTTL 获取提示缓存有效期
func (c *Config) GetCacheTTL() time.Duration {
	return c.options.CacheTTL
}

// GetWatchInterval 获取 watcher 刷新间隔
func (c *Config) GetWatchInterval() time.Duration {
	return c.options.WatchInterval
}
