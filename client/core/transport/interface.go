// Package transport 提供与账本节点通信的 JSON-RPC 客户端
package transport

import (
	"context"

	"github.com/weisyn/bounty/pkg/types"
)

// Client 账本节点传输接口，所有网络调用必须经由此接口
//
// 失败统一返回 *types.LedgerError，调用方据 Code 分类，不解析错误文本。
type Client interface {
	// ===== 节点信息 =====

	// Status 获取节点最新轮次
	Status(ctx context.Context) (*NodeStatus, error)

	// StatusAfterBlock 阻塞直到节点越过指定轮次
	StatusAfterBlock(ctx context.Context, round uint64) (*NodeStatus, error)

	// SuggestedParams 获取构建交易所需的建议参数
	SuggestedParams(ctx context.Context) (*types.SuggestedParams, error)

	// ===== 交易提交与查询 =====

	// SendRawTransaction 发送已签名的交易组，返回首笔交易 ID
	SendRawTransaction(ctx context.Context, group []*types.SignedTransaction) (string, error)

	// PendingTransaction 查询交易池中交易的状态
	PendingTransaction(ctx context.Context, txID string) (*PendingTransaction, error)

	// ===== 应用状态 =====

	// GetApplication 读取应用的全局状态
	GetApplication(ctx context.Context, appID types.ContractID) (*Application, error)

	// Compile 编译合约源码
	Compile(ctx context.Context, source []byte) ([]byte, error)
}

// NodeStatus 节点状态
type NodeStatus struct {
	LastRound uint64 `json:"last_round"`
}

// PendingTransaction 交易池中的交易状态
type PendingTransaction struct {
	ConfirmedRound   uint64           `json:"confirmed_round"`
	PoolError        string           `json:"pool_error,omitempty"`
	ApplicationIndex types.ContractID `json:"application_index,omitempty"`
	Logs             [][]byte         `json:"logs,omitempty"`
}

// Confirmed 是否已上链
func (p *PendingTransaction) Confirmed() bool {
	return p.ConfirmedRound > 0
}

// TealValue 全局状态值，Type 为 1 表示字节，2 表示整数
type TealValue struct {
	Type  uint8  `json:"type"`
	Bytes []byte `json:"bytes,omitempty"`
	Uint  uint64 `json:"uint,omitempty"`
}

// 全局状态值类型
const (
	ValueTypeBytes uint8 = 1
	ValueTypeUint  uint8 = 2
)

// KeyValue 全局状态条目
type KeyValue struct {
	Key   []byte    `json:"key"`
	Value TealValue `json:"value"`
}

// Application 应用信息
type Application struct {
	ID          types.ContractID `json:"id"`
	Creator     string           `json:"creator"`
	GlobalState []KeyValue       `json:"global_state"`
}

// Lookup 按键查找全局状态
func (a *Application) Lookup(key string) (TealValue, bool) {
	for _, kv := range a.GlobalState {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return TealValue{}, false
}
