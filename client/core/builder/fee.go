package builder

import (
	"github.com/weisyn/bounty/pkg/types"
)

// FeePolicy 应用调用的固定费用策略
type FeePolicy struct {
	MinFlatFee  uint64 // 应用调用最低固定费用
	InnerTxnFee uint64 // 每笔内部转账附加费用
}

// DefaultFeePolicy 默认费用策略
func DefaultFeePolicy() FeePolicy {
	return FeePolicy{MinFlatFee: 2000, InnerTxnFee: 1000}
}

// BaseFee 单笔交易的基础费用
func BaseFee(sp *types.SuggestedParams) uint64 {
	if sp.Fee > sp.MinFee {
		return sp.Fee
	}
	return sp.MinFee
}

// AppCallFee 应用调用费用：基础费用不低于最低固定费用，再为每笔内部转账追加费用
func (p FeePolicy) AppCallFee(sp *types.SuggestedParams, action types.Action) uint64 {
	fee := BaseFee(sp)
	if fee < p.MinFlatFee {
		fee = p.MinFlatFee
	}
	return fee + uint64(action.InnerTransactions())*p.InnerTxnFee
}
