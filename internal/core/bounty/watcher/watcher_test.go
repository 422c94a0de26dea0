package watcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/bounty/internal/core/infrastructure/log"
	"github.com/weisyn/bounty/pkg/types"
)

type fakeRefresher struct {
	mu     sync.Mutex
	states map[types.ContractID]types.BountyStatus
	seen   map[types.ContractID]types.BountyStatus
	calls  int
	fail   map[types.ContractID]bool
}

func newFakeRefresher() *fakeRefresher {
	return &fakeRefresher{
		states: make(map[types.ContractID]types.BountyStatus),
		seen:   make(map[types.ContractID]types.BountyStatus),
		fail:   make(map[types.ContractID]bool),
	}
}

func (f *fakeRefresher) set(id types.ContractID, s types.BountyStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[id] = s
}

func (f *fakeRefresher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeRefresher) Refresh(ctx context.Context, id types.ContractID) (*types.OnChainBountyInfo, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail[id] {
		return nil, false, errors.New("connection refused")
	}
	status := f.states[id]
	prev, ok := f.seen[id]
	f.seen[id] = status
	return &types.OnChainBountyInfo{ContractID: id, Status: status}, !ok || prev != status, nil
}

type gauge struct{ n int }

func (g *gauge) SetWatched(n int) { g.n = n }

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, time.Second, nil, log.NewNop())
	assert.Error(t, err)
	_, err = New(newFakeRefresher(), 0, nil, log.NewNop())
	assert.Error(t, err)
}

func TestRunOnce(t *testing.T) {
	r := newFakeRefresher()
	g := &gauge{}
	w, err := New(r, time.Second, g, log.NewNop())
	require.NoError(t, err)

	r.set(1, types.StatusOpen)
	r.set(2, types.StatusClaimed)
	r.fail[3] = true
	w.Watch(1, 2, 3)
	assert.Equal(t, 3, g.n)
	assert.Equal(t, []types.ContractID{1, 2, 3}, w.Watched())

	assert.Equal(t, 2, w.RunOnce(context.Background()), "首次观察视为变化")
	assert.Equal(t, 0, w.RunOnce(context.Background()))

	r.set(2, types.StatusSubmitted)
	assert.Equal(t, 1, w.RunOnce(context.Background()))

	// 进入终态后停止跟踪
	r.set(1, types.StatusCancelled)
	assert.Equal(t, 1, w.RunOnce(context.Background()))
	assert.Equal(t, []types.ContractID{2, 3}, w.Watched())
	assert.Equal(t, 2, g.n)

	w.Unwatch(3)
	assert.Equal(t, []types.ContractID{2}, w.Watched())
}

func TestRunOnce_CancelledContext(t *testing.T) {
	r := newFakeRefresher()
	w, err := New(r, time.Second, nil, log.NewNop())
	require.NoError(t, err)
	w.Watch(1, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, 0, w.RunOnce(ctx))
	assert.Zero(t, r.callCount())
}

func TestStartStop(t *testing.T) {
	r := newFakeRefresher()
	r.set(1, types.StatusOpen)
	w, err := New(r, 20*time.Millisecond, nil, log.NewNop())
	require.NoError(t, err)
	w.Watch(1)

	require.NoError(t, w.Start(context.Background()))
	assert.Error(t, w.Start(context.Background()), "不能重复启动")

	require.Eventually(t, func() bool { return r.callCount() >= 2 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())

	calls := r.callCount()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, calls, r.callCount(), "停止后不再刷新")
}
