// Package storage 提供存储管理功能
package storage

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	bountyconfig "github.com/weisyn/bounty/internal/config/bounty"
	badgerconfig "github.com/weisyn/bounty/internal/config/storage/badger"
	memoryconfig "github.com/weisyn/bounty/internal/config/storage/memory"
	redisconfig "github.com/weisyn/bounty/internal/config/storage/redis"
	"github.com/weisyn/bounty/internal/core/infrastructure/log"
	"github.com/weisyn/bounty/internal/core/infrastructure/storage/badger"
	"github.com/weisyn/bounty/internal/core/infrastructure/storage/memory"
	redisstore "github.com/weisyn/bounty/internal/core/infrastructure/storage/redis"
	"github.com/weisyn/bounty/pkg/interfaces/config"
	logInterface "github.com/weisyn/bounty/pkg/interfaces/infrastructure/log"
	storageInterface "github.com/weisyn/bounty/pkg/interfaces/infrastructure/storage"
)

// ModuleParams 定义存储模块的依赖参数
type ModuleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Provider  config.Provider     // 配置提供者
	Logger    logInterface.Logger // 日志记录器
}

// ModuleOutput 定义存储模块的输出结构
type ModuleOutput struct {
	fx.Out

	KVStore     storageInterface.KVStore     // 元数据持久化（badger 或 redis）
	MemoryStore storageInterface.MemoryStore // 链上状态提示缓存
}

// Module 返回存储模块
func Module() fx.Option {
	return fx.Module("storage",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 根据配置初始化存储引擎
// 存储在会话结束时按打开的逆序关闭
func ProvideServices(params ModuleParams) (ModuleOutput, error) {
	logger := log.NewModuleLogger(params.Logger, "storage")

	kv, err := OpenKVStore(context.Background(), params.Provider, logger)
	if err != nil {
		return ModuleOutput{}, err
	}

	cache, err := memory.New(memoryconfig.NewFromOptions(params.Provider.GetMemory()), logger)
	if err != nil {
		_ = kv.Close()
		return ModuleOutput{}, err
	}

	params.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := cache.Close(); err != nil {
				logger.Warnf("关闭内存缓存失败: %v", err)
			}
			if err := kv.Close(); err != nil {
				logger.Errorf("关闭元数据存储失败: %v", err)
				return err
			}
			logger.Debug("存储服务已关闭")
			return nil
		},
	})

	return ModuleOutput{KVStore: kv, MemoryStore: cache}, nil
}

// OpenKVStore 按 store_backend 打开元数据存储
func OpenKVStore(ctx context.Context, provider config.Provider, logger logInterface.Logger) (storageInterface.KVStore, error) {
	switch backend := provider.GetBounty().StoreBackend; backend {
	case bountyconfig.BackendRedis:
		store, err := redisstore.New(ctx, redisconfig.NewFromOptions(provider.GetRedis()), logger)
		if err != nil {
			return nil, fmt.Errorf("打开Redis元数据存储失败: %w", err)
		}
		return store, nil
	case bountyconfig.BackendBadger, "":
		store, err := badger.New(badgerconfig.NewFromOptions(provider.GetBadger()), logger)
		if err != nil {
			return nil, fmt.Errorf("打开Badger元数据存储失败: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}
