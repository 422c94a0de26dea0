// Package event 基于asaskevich/EventBus的事件总线实现
package event

import (
	"sync/atomic"

	evbus "github.com/asaskevich/EventBus"

	"github.com/weisyn/bounty/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/bounty/pkg/interfaces/infrastructure/log"
)

// EventBus 对 evbus.Bus 的薄封装
//
// 发布计数用于诊断；会话关闭后（Close）发布与订阅都静默忽略，
// 避免已卸载的展示层回调被触发。
type EventBus struct {
	bus       evbus.Bus
	logger    log.Logger
	closed    atomic.Bool
	published atomic.Uint64
}

var _ event.EventBus = (*EventBus)(nil)

// New 创建事件总线实例
func New(logger log.Logger) *EventBus {
	return &EventBus{
		bus:    evbus.New(),
		logger: logger,
	}
}

// Subscribe 实现订阅
func (eb *EventBus) Subscribe(eventType event.EventType, handler interface{}) error {
	if eb.closed.Load() {
		return nil
	}
	return eb.bus.Subscribe(string(eventType), handler)
}

// SubscribeAsync 实现异步订阅
func (eb *EventBus) SubscribeAsync(eventType event.EventType, handler interface{}, transactional bool) error {
	if eb.closed.Load() {
		return nil
	}
	return eb.bus.SubscribeAsync(string(eventType), handler, transactional)
}

// Publish 发布事件
func (eb *EventBus) Publish(eventType event.EventType, args ...interface{}) {
	if eb.closed.Load() {
		return
	}
	eb.published.Add(1)
	if eb.logger != nil {
		eb.logger.Debugf("发布事件: %s", eventType)
	}
	eb.bus.Publish(string(eventType), args...)
}

// Unsubscribe 取消订阅
func (eb *EventBus) Unsubscribe(eventType event.EventType, handler interface{}) error {
	return eb.bus.Unsubscribe(string(eventType), handler)
}

// WaitAsync 等待异步处理完成
func (eb *EventBus) WaitAsync() {
	eb.bus.WaitAsync()
}

// HasCallback 检查是否有回调
func (eb *EventBus) HasCallback(eventType event.EventType) bool {
	return eb.bus.HasCallback(string(eventType))
}

// PublishedCount 已发布事件总数
func (eb *EventBus) PublishedCount() uint64 {
	return eb.published.Load()
}

// Close 等待异步回调结束并停止分发
func (eb *EventBus) Close() {
	if eb.closed.Swap(true) {
		return
	}
	eb.bus.WaitAsync()
}
