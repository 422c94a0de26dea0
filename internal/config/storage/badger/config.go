package badger

import (
	"path/filepath"

	configtypes "github.com/weisyn/bounty/pkg/types"
	"github.com/weisyn/bounty/pkg/utils"
)

// BadgerOptions Badger存储配置选项
type BadgerOptions struct {
	Path       string `json:"path"`        // 数据库存储路径
	InMemory   bool   `json:"in_memory"`   // 纯内存模式（测试使用，不落盘）
	SyncWrites bool   `json:"sync_writes"` // 是否同步写入

	MemTableSize int64 `json:"mem_table_size"` // 内存表大小

	EnableAutoCompaction bool `json:"enable_auto_compaction"` // 是否启用自动压缩
}

// Config Badger存储配置实现
type Config struct {
	options *BadgerOptions
}

// New 创建Badger存储配置实现
func New(userConfig *configtypes.UserStorageConfig, dataRoot string) *Config {
	options := createDefaultBadgerOptions(dataRoot)
	if userConfig != nil && userConfig.DataRoot != nil {
		root := utils.ResolveDataPath(dataRoot, *userConfig.DataRoot)
		options.Path = filepath.Join(root, defaultDirName)
	}
	return &Config{options: options}
}

// NewFromOptions 从选项直接创建配置
func NewFromOptions(options *BadgerOptions) *Config {
	return &Config{options: options}
}

// NewInMemory 创建纯内存模式配置
func NewInMemory() *Config {
	options := createDefaultBadgerOptions("")
	options.Path = ""
	options.InMemory = true
	options.SyncWrites = false
	return &Config{options: options}
}

func createDefaultBadgerOptions(dataRoot string) *BadgerOptions {
	return &BadgerOptions{
		Path:                 filepath.Join(dataRoot, defaultDirName),
		SyncWrites:           defaultSyncWrites,
		MemTableSize:         defaultMemTableSize,
		EnableAutoCompaction: defaultEnableAutoCompaction,
	}
}

// GetOptions 获取完整的Badger选项
func (c *Config) GetOptions() *BadgerOptions {
	return c.options
}

// GetPath 获取数据库路径
func (c *Config) GetPath() string {
	return c.options.Path
}

// IsInMemory 是否为纯内存模式
func (c *Config) IsInMemory() bool {
	return c.options.InMemory
}

// IsSyncWritesEnabled 是否启用同步写入
func (c *Config) IsSyncWritesEnabled() bool {
	return c.options.SyncWrites
}

// GetMemTableSize 获取内存表大小
func (c *Config) GetMemTableSize() int64 {
	return c.options.MemTableSize
}

// IsAutoCompactionEnabled 是否启用自动压缩
func (c *Config) IsAutoCompactionEnabled() bool {
	return c.options.EnableAutoCompaction
}
