// Package watcher 定期重新读取被跟踪赏金的链上状态
//
// 账本不提供事件订阅，状态变化只能通过轮询发现；
// 变更事件由协调器的 Refresh 发布。
package watcher

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	logInterface "github.com/weisyn/bounty/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/bounty/pkg/types"
)

// Refresher 读取链上状态并更新提示缓存
type Refresher interface {
	Refresh(ctx context.Context, id types.ContractID) (*types.OnChainBountyInfo, bool, error)
}

// Gauge 被跟踪数量指标
type Gauge interface {
	SetWatched(n int)
}

// Watcher 轮询器
type Watcher struct {
	refresher Refresher
	interval  time.Duration
	logger    logInterface.Logger
	gauge     Gauge

	mu        sync.Mutex
	ids       map[types.ContractID]struct{}
	scheduler gocron.Scheduler
	cancel    context.CancelFunc
}

// New 创建轮询器，gauge 可为 nil
func New(refresher Refresher, interval time.Duration, gauge Gauge, logger logInterface.Logger) (*Watcher, error) {
	if refresher == nil {
		return nil, errors.New("refresher is required")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("invalid watch interval %s", interval)
	}
	return &Watcher{
		refresher: refresher,
		interval:  interval,
		logger:    logger,
		gauge:     gauge,
		ids:       make(map[types.ContractID]struct{}),
	}, nil
}

// Watch 开始跟踪
func (w *Watcher) Watch(ids ...types.ContractID) {
	w.mu.Lock()
	for _, id := range ids {
		w.ids[id] = struct{}{}
	}
	n := len(w.ids)
	w.mu.Unlock()
	w.setGauge(n)
}

// Unwatch 停止跟踪
func (w *Watcher) Unwatch(id types.ContractID) {
	w.mu.Lock()
	delete(w.ids, id)
	n := len(w.ids)
	w.mu.Unlock()
	w.setGauge(n)
}

// Watched 返回被跟踪的赏金，按 ID 升序
func (w *Watcher) Watched() []types.ContractID {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]types.ContractID, 0, len(w.ids))
	for id := range w.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (w *Watcher) setGauge(n int) {
	if w.gauge != nil {
		w.gauge.SetWatched(n)
	}
}

// RunOnce 刷新一轮，返回状态发生变化的数量
//
// 进入终态的赏金不再跟踪。单个赏金读取失败只记录日志。
func (w *Watcher) RunOnce(ctx context.Context) int {
	changed := 0
	for _, id := range w.Watched() {
		if ctx.Err() != nil {
			break
		}
		info, isChanged, err := w.refresher.Refresh(ctx, id)
		if err != nil {
			w.logger.Warnf("刷新链上状态失败: contract_id=%s, err=%v", id, err)
			continue
		}
		if isChanged {
			changed++
			w.logger.Infof("链上状态变化: contract_id=%s, status=%s", id, info.Status)
		}
		if info.Status.IsTerminal() {
			w.Unwatch(id)
		}
	}
	return changed
}

// Start 启动定时任务，立即执行一轮
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.scheduler != nil {
		return errors.New("watcher already started")
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	jobCtx, cancel := context.WithCancel(ctx)
	_, err = scheduler.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(func() {
			w.RunOnce(jobCtx)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		cancel()
		_ = scheduler.Shutdown()
		return fmt.Errorf("schedule refresh job: %w", err)
	}

	scheduler.Start()
	w.scheduler = scheduler
	w.cancel = cancel
	w.logger.Infof("开始轮询链上状态: interval=%s", w.interval)
	return nil
}

// Stop 停止定时任务并等待正在执行的一轮结束
func (w *Watcher) Stop() error {
	w.mu.Lock()
	scheduler, cancel := w.scheduler, w.cancel
	w.scheduler, w.cancel = nil, nil
	w.mu.Unlock()

	if scheduler == nil {
		return nil
	}
	cancel()
	if err := scheduler.Shutdown(); err != nil {
		return fmt.Errorf("shutdown scheduler: %w", err)
	}
	w.logger.Debug("轮询已停止")
	return nil
}
