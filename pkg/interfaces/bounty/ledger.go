// Package bounty 定义赏金生命周期协调器及其协作者的接口
//
// 依赖方向：展示层 -> Coordinator -> (LedgerClient, MetadataStore, Signer)
// LedgerClient 不拥有任何状态，是纯粹的请求/响应网关。
package bounty

import (
	"context"

	"github.com/weisyn/bounty/pkg/types"
)

// StateReader 只读查询链上状态，无需签名
//
// 协调器在每次授权判断和每次失败之后都通过它重新读取链上状态，
// 测试可以单独注入以确定性地模拟并发竞争。
type StateReader interface {
	// ReadState 读取合约当前状态
	// 网络不可达时返回 *types.LedgerError{Code: CodeTransport}
	ReadState(ctx context.Context, contractID types.ContractID) (*types.OnChainBountyInfo, error)
}

// LedgerClient 账本网关
type LedgerClient interface {
	StateReader

	// Submit 构建、签名并发送一次状态变更调用，返回交易 ID
	// 签名被用户取消时返回包装了 types.ErrSigningCancelled 的错误
	Submit(ctx context.Context, call *types.ContractCall, signer Signer) (string, error)

	// WaitForConfirmation 轮询直到交易上链或有限轮次耗尽
	// 轮次耗尽返回 types.CodeConfirmationTimeout
	WaitForConfirmation(ctx context.Context, txID string) (*types.Receipt, error)

	// Deploy 部署合约并注入托管资金，返回新合约 ID
	Deploy(ctx context.Context, req *types.DeployRequest, signer Signer) (types.ContractID, error)
}

// Signer 钱包签名能力
type Signer interface {
	// Address 当前连接的地址，未连接时返回空字符串
	Address() string

	// SignTransactions 对 txns 中 indexes 指定的交易签名，按 indexes 顺序返回签名字节
	// 用户放弃时返回 types.ErrSigningCancelled
	SignTransactions(ctx context.Context, txns []*types.Transaction, indexes []int) ([][]byte, error)
}
