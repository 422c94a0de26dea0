package bounty

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/weisyn/bounty/internal/core/bounty/metastore"
	"github.com/weisyn/bounty/internal/core/infrastructure/log"
	bountyInterface "github.com/weisyn/bounty/pkg/interfaces/bounty"
	"github.com/weisyn/bounty/pkg/interfaces/config"
	"github.com/weisyn/bounty/pkg/interfaces/infrastructure/event"
	logInterface "github.com/weisyn/bounty/pkg/interfaces/infrastructure/log"
	storageInterface "github.com/weisyn/bounty/pkg/interfaces/infrastructure/storage"
)

// ModuleParams 协调器模块依赖
type ModuleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Provider   config.Provider
	Logger     logInterface.Logger
	Ledger     bountyInterface.LedgerClient
	KVStore    storageInterface.KVStore
	Cache      storageInterface.MemoryStore `optional:"true"`
	EventBus   event.EventBus               `optional:"true"`
	Registerer prometheus.Registerer        `optional:"true"`
}

// ModuleOutput 协调器模块输出
type ModuleOutput struct {
	fx.Out

	Coordinator   *Coordinator
	MetadataStore bountyInterface.MetadataStore
	Metrics       *Metrics
}

// Module 返回协调器模块
func Module() fx.Option {
	return fx.Module("bounty",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 组装协调器，会话结束时关闭
func ProvideServices(params ModuleParams) (ModuleOutput, error) {
	logger := log.NewModuleLogger(params.Logger, "bounty")
	store := metastore.New(params.KVStore, log.NewModuleLogger(params.Logger, "metastore"))
	metrics := NewMetrics(params.Registerer)

	coordinator, err := New(Options{
		Ledger:      params.Ledger,
		Store:       store,
		Cache:       params.Cache,
		Events:      params.EventBus,
		Metrics:     metrics,
		Logger:      logger,
		CacheTTL:    params.Provider.GetBounty().CacheTTL,
		ReadTimeout: params.Provider.GetLedger().Timeout,
	})
	if err != nil {
		return ModuleOutput{}, err
	}

	params.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return coordinator.Close()
		},
	})

	return ModuleOutput{
		Coordinator:   coordinator,
		MetadataStore: store,
		Metrics:       metrics,
	}, nil
}
