package memory

import (
	"time"

	configtypes "github.com/weisyn/bounty/pkg/types"
)

// MemoryOptions 内存缓存配置选项
type MemoryOptions struct {
	LifeWindow         time.Duration `json:"life_window"`           // 条目默认生命周期
	CleanWindow        time.Duration `json:"clean_window"`          // 清理间隔
	MaxEntriesInWindow int           `json:"max_entries_in_window"` // 窗口内预估条目数
	MaxEntrySize       int           `json:"max_entry_size"`        // 单条目预估大小
	Shards             int           `json:"shards"`                // 分片数
	HardMaxCacheSizeMB int           `json:"hard_max_cache_size"`   // 缓存硬上限
}

// Config 内存缓存配置实现
type Config struct {
	options *MemoryOptions
}

// New 创建内存缓存配置，生命周期取自协调器的 cache_ttl
func New(userConfig *configtypes.UserBountyConfig) *Config {
	options := createDefaultMemoryOptions()
	if userConfig != nil && userConfig.CacheTTL != nil {
		if ttl, err := time.ParseDuration(*userConfig.CacheTTL); err == nil && ttl > 0 {
			options.LifeWindow = ttl
		}
	}
	return &Config{options: options}
}

// NewFromOptions 从选项直接创建配置
func NewFromOptions(options *MemoryOptions) *Config {
	return &Config{options: options}
}

func createDefaultMemoryOptions() *MemoryOptions {
	return &MemoryOptions{
		LifeWindow:         defaultLifeWindow,
		CleanWindow:        defaultCleanWindow,
		MaxEntriesInWindow: defaultMaxEntriesInWindow,
		MaxEntrySize:       defaultMaxEntrySize,
		Shards:             defaultShards,
		HardMaxCacheSizeMB: defaultHardMaxCacheSizeMB,
	}
}

// GetOptions 获取完整的内存缓存选项
func (c *Config) GetOptions() *MemoryOptions {
	return c.options
}

// GetLifeWindow 获取生命周期窗口
func (c *Config) GetLifeWindow() time.Duration {
	return c.options.LifeWindow
}

// GetCleanWindow 获取清理窗口
func (c *Config) GetCleanWindow() time.Duration {
	return c.options.CleanWindow
}

// GetMaxEntriesInWindow 获取窗口内最大条目数
func (c *Config) GetMaxEntriesInWindow() int {
	return c.options.MaxEntriesInWindow
}

// GetMaxEntrySize 获取单条目最大大小
func (c *Config) GetMaxEntrySize() int {
	return c.options.MaxEntrySize
}

// GetShards 获取分片数
func (c *Config) GetShards() int {
	return c.options.Shards
}

// GetHardMaxCacheSizeMB 获取缓存硬上限
func (c *Config) GetHardMaxCacheSizeMB() int {
	return c.options.HardMaxCacheSizeMB
}
