// Package config 提供应用配置管理功能
//
// 加载顺序（后者覆盖前者）：
//  1. 内置网络配置（configs/<network>/bounty.json）
//  2. 用户配置文件（--config）
//  3. .env 文件与环境变量（BOUNTY_*）
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/weisyn/bounty/configs"
	"github.com/weisyn/bounty/pkg/types"
)

// 环境变量名
const (
	EnvNodeURL      = "BOUNTY_NODE_URL"
	EnvDataDir      = "BOUNTY_DATA_DIR"
	EnvLogLevel     = "BOUNTY_LOG_LEVEL"
	EnvStoreBackend = "BOUNTY_STORE_BACKEND"
	EnvRedisAddr    = "BOUNTY_REDIS_ADDR"
)

// LoadOptions 配置加载参数
type LoadOptions struct {
	Network    string   // 内置网络配置名（localnet | testnet）
	ConfigFile string   // 用户配置文件路径，可为空
	EnvFiles   []string // .env 文件列表，为空时尝试当前目录的 .env
}

// Load 按加载顺序合成应用配置
func Load(opts LoadOptions) (*types.AppConfig, error) {
	appConfig := &types.AppConfig{}

	embedded := configs.GetEmbeddedConfig(opts.Network)
	if embedded == nil {
		return nil, fmt.Errorf("unknown network %q", opts.Network)
	}
	if err := json.Unmarshal(embedded, appConfig); err != nil {
		return nil, fmt.Errorf("parse embedded config %s: %w", opts.Network, err)
	}

	if opts.ConfigFile != "" {
		raw, err := os.ReadFile(opts.ConfigFile)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		// 在已有配置上解码：文件中未出现的字段保持内置值
		if err := json.Unmarshal(raw, appConfig); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", opts.ConfigFile, err)
		}
	}

	if err := loadEnvFiles(opts.EnvFiles); err != nil {
		return nil, err
	}
	ApplyEnvOverrides(appConfig)
	return appConfig, nil
}

// loadEnvFiles 加载 .env，默认文件不存在时忽略；已存在的环境变量不会被覆盖
func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	return nil
}

// ApplyEnvOverrides 用 BOUNTY_* 环境变量覆盖配置
func ApplyEnvOverrides(appConfig *types.AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvNodeURL)); v != "" {
		if appConfig.Ledger == nil {
			appConfig.Ledger = &types.UserLedgerConfig{}
		}
		appConfig.Ledger.Endpoint = &v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDataDir)); v != "" {
		appConfig.DataDir = &v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		if appConfig.Log == nil {
			appConfig.Log = &types.UserLogConfig{}
		}
		appConfig.Log.Level = &v
	}
	if v := strings.TrimSpace(os.Getenv(EnvStoreBackend)); v != "" {
		if appConfig.Storage == nil {
			appConfig.Storage = &types.UserStorageConfig{}
		}
		appConfig.Storage.Backend = &v
	}
	if v := strings.TrimSpace(os.Getenv(EnvRedisAddr)); v != "" {
		if appConfig.Storage == nil {
			appConfig.Storage = &types.UserStorageConfig{}
		}
		if appConfig.Storage.Redis == nil {
			appConfig.Storage.Redis = &types.UserRedisConfig{}
		}
		appConfig.Storage.Redis.Addr = &v
	}
}

// StaticOptions AppOptions 的简单实现
type StaticOptions struct {
	appConfig *types.AppConfig
}

// NewAppOptions 包装应用配置供 fx 注入
func NewAppOptions(appConfig *types.AppConfig) *StaticOptions {
	return &StaticOptions{appConfig: appConfig}
}

// GetAppConfig 获取应用配置
func (o *StaticOptions) GetAppConfig() *types.AppConfig {
	return o.appConfig
}
