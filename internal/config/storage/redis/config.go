// Package redis Redis 元数据后端配置
package redis

import (
	"time"

	configtypes "github.com/weisyn/bounty/pkg/types"
)

const (
	defaultAddr        = "localhost:6379"
	defaultDB          = 0
	defaultKeyPrefix   = "bounty:"
	defaultDialTimeout = 5 * time.Second
)

// RedisOptions Redis 连接配置
type RedisOptions struct {
	Addr        string        `json:"addr"`
	Password    string        `json:"-"`
	DB          int           `json:"db"`
	KeyPrefix   string        `json:"key_prefix"` // 所有键统一加前缀，便于多个部署共用实例
	DialTimeout time.Duration `json:"dial_timeout"`
}

// Config Redis 配置实现
type Config struct {
	options *RedisOptions
}

// New 创建 Redis 配置
func New(userConfig *configtypes.UserStorageConfig) *Config {
	options := &RedisOptions{
		Addr:        defaultAddr,
		DB:          defaultDB,
		KeyPrefix:   defaultKeyPrefix,
		DialTimeout: defaultDialTimeout,
	}
	if userConfig != nil && userConfig.Redis != nil {
		r := userConfig.Redis
		if r.Addr != nil && *r.Addr != "" {
			options.Addr = *r.Addr
		}
		if r.Password != nil {
			options.Password = *r.Password
		}
		if r.DB != nil {
			options.DB = *r.DB
		}
		if r.KeyPrefix != nil {
			options.KeyPrefix = *r.KeyPrefix
		}
	}
	return &Config{options: options}
}

// NewFromOptions 从选项直接创建配置
func NewFromOptions(options *RedisOptions) *Config {
	return &Config{options: options}
}

// GetOptions 获取完整选项
func (c *Config) GetOptions() *RedisOptions {
	return c.options
}

// GetAddr 获取连接地址
func (c *Config) GetAddr() string {
	return c.options.Addr
}

// GetKeyPrefix 获取键前缀
func (c *Config) GetKeyPrefix() string {
	return c.options.KeyPrefix
}
