package event

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/bounty/internal/core/infrastructure/log"
	"github.com/weisyn/bounty/pkg/interfaces/infrastructure/event"
)

func TestEventBus_SyncDelivery(t *testing.T) {
	bus := New(log.NewNop())

	var received string
	require.NoError(t, bus.Subscribe(event.EventType("test-event"), func(data string) {
		received = data
	}))
	assert.True(t, bus.HasCallback("test-event"))

	bus.Publish("test-event", "hello world")
	assert.Equal(t, "hello world", received)
	assert.Equal(t, uint64(1), bus.PublishedCount())
}

func TestEventBus_AsyncDelivery(t *testing.T) {
	bus := New(log.NewNop())

	var mu sync.Mutex
	var got []int
	require.NoError(t, bus.SubscribeAsync("async-event", func(n int) {
		mu.Lock()
		got = append(got, n)
		mu.Unlock()
	}, true))

	bus.Publish("async-event", 1)
	bus.Publish("async-event", 2)
	bus.WaitAsync()

	mu.Lock()
	defer mu.Unlock()
	// transactional 订阅保证顺序
	assert.Equal(t, []int{1, 2}, got)
}

func TestEventBus_ClosedDropsEvents(t *testing.T) {
	bus := New(log.NewNop())

	calls := 0
	handler := func() { calls++ }
	require.NoError(t, bus.Subscribe("evt", handler))

	bus.Close()
	bus.Close() // 重复关闭无副作用
	bus.Publish("evt")
	assert.Equal(t, 0, calls)

	require.NoError(t, bus.Unsubscribe("evt", handler))
	assert.False(t, bus.HasCallback("evt"))
}
