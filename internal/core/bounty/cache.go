package bounty

import (
	"context"
	"encoding/json"
	"time"

	logInterface "github.com/weisyn/bounty/pkg/interfaces/infrastructure/log"
	storageInterface "github.com/weisyn/bounty/pkg/interfaces/infrastructure/storage"
	"github.com/weisyn/bounty/pkg/types"
)

const hintKeyPrefix = "bounty:hint:"

// Snapshot 协调器最近一次观察到的链上状态
//
// 仅作为展示提示：Pending 非空表示本会话有操作在途，结果未确认。
type Snapshot struct {
	ContractID types.ContractID         `json:"contract_id"`
	State      *types.OnChainBountyInfo `json:"state,omitempty"`
	Pending    types.Action             `json:"pending,omitempty"`
	Confirmed  bool                     `json:"confirmed"`
	UpdatedAt  time.Time                `json:"updated_at"`
}

// hintCache 基于 MemoryStore 的提示缓存，缓存不可用时所有操作退化为空操作
type hintCache struct {
	store  storageInterface.MemoryStore
	ttl    time.Duration
	logger logInterface.Logger
	now    func() time.Time
}

func hintKey(id types.ContractID) string {
	return hintKeyPrefix + id.String()
}

func (h *hintCache) get(ctx context.Context, id types.ContractID) (*Snapshot, bool) {
	if h.store == nil {
		return nil, false
	}
	data, ok, err := h.store.Get(ctx, hintKey(id))
	if err != nil || !ok {
		return nil, false
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		h.logger.Warnf("解析状态提示失败: id=%s, err=%v", id, err)
		return nil, false
	}
	return &snap, true
}

func (h *hintCache) put(ctx context.Context, snap *Snapshot) {
	if h.store == nil {
		return
	}
	snap.UpdatedAt = h.now()
	data, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := h.store.Set(ctx, hintKey(snap.ContractID), data, h.ttl); err != nil {
		h.logger.Warnf("写入状态提示失败: id=%s, err=%v", snap.ContractID, err)
	}
}

// markPending 记录在途操作，保留最近一次观察到的状态
func (h *hintCache) markPending(ctx context.Context, id types.ContractID, action types.Action, state *types.OnChainBountyInfo) {
	h.put(ctx, &Snapshot{ContractID: id, State: state.Clone(), Pending: action})
}

// settle 写入已确认状态并清除在途标记
func (h *hintCache) settle(ctx context.Context, id types.ContractID, state *types.OnChainBountyInfo) {
	h.put(ctx, &Snapshot{ContractID: id, State: state.Clone(), Confirmed: true})
}

// clearPending 清除在途标记，state 为 nil 时保留缓存中的旧状态
func (h *hintCache) clearPending(ctx context.Context, id types.ContractID, state *types.OnChainBountyInfo) {
	if state != nil {
		h.settle(ctx, id, state)
		return
	}
	prev, ok := h.get(ctx, id)
	if !ok {
		return
	}
	if prev.Pending == "" {
		return
	}
	prev.Pending = ""
	prev.Confirmed = false
	h.put(ctx, prev)
}

func (h *hintCache) clear(ctx context.Context) {
	if h.store == nil {
		return
	}
	if err := h.store.Clear(ctx); err != nil {
		h.logger.Warnf("清空状态提示失败: %v", err)
	}
}
