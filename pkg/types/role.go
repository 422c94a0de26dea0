package types

// Role 调用者相对某个赏金的角色，每次读取时重新计算，不跨地址缓存
type Role string

const (
	RoleCreator Role = "creator"
	RoleWorker  Role = "worker"
	RoleOther   Role = "other"
)

// RoleOf 根据链上状态计算地址的角色
func RoleOf(info *OnChainBountyInfo, address string) Role {
	if info == nil || address == "" {
		return RoleOther
	}
	if address == info.Creator {
		return RoleCreator
	}
	if info.Worker != "" && address == info.Worker {
		return RoleWorker
	}
	return RoleOther
}

// Action 状态变更动作（合约 ABI 方法）
type Action string

const (
	ActionCreate  Action = "create_bounty"
	ActionClaim   Action = "claim"
	ActionSubmit  Action = "submit_work"
	ActionApprove Action = "approve"
	ActionCancel  Action = "cancel"
)

// MethodGetBountyInfo 只读方法名
const MethodGetBountyInfo = "get_bounty_info"

// InnerTransactions 返回该动作在合约内触发的内部转账笔数
// approve 向认领者支付，cancel 向创建者退款
func (a Action) InnerTransactions() int {
	switch a {
	case ActionApprove, ActionCancel:
		return 1
	default:
		return 0
	}
}
