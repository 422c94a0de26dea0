// Package bounty 实现赏金生命周期协调器
//
// 协调器负责：
//   - 以链上状态为唯一依据判断当前状态与调用者角色
//   - 在提交前校验动作是否合法
//   - 构造并提交对应的合约调用，等待确认
//   - 失败后重新读取链上状态，给出具体的失败原因
//
// 本地缓存只作为展示提示，任何授权判断都会重新读取链上状态。
package bounty

import (
	"github.com/weisyn/bounty/pkg/types"
	"github.com/weisyn/bounty/pkg/utils/address"
)

// transitions 合法状态转移表
var transitions = map[types.BountyStatus]map[types.Action]types.BountyStatus{
	types.StatusOpen: {
		types.ActionClaim:  types.StatusClaimed,
		types.ActionCancel: types.StatusCancelled,
	},
	types.StatusClaimed: {
		types.ActionSubmit: types.StatusSubmitted,
		types.ActionCancel: types.StatusCancelled,
	},
	types.StatusSubmitted: {
		types.ActionApprove: types.StatusApproved,
	},
}

// Next 返回动作作用于当前状态后的新状态，非法转移返回 false
func Next(status types.BountyStatus, action types.Action) (types.BountyStatus, bool) {
	next, ok := transitions[status][action]
	return next, ok
}

// Authorize 校验 caller 能否对当前链上状态执行 action
//
// worker 仅用于 approve：非空时必须与链上绑定的认领者一致。
// 校验通过返回 nil，否则返回 KindPrecondition 的 *OperationError。
func Authorize(info *types.OnChainBountyInfo, action types.Action, caller, worker string) error {
	if info == nil {
		return newError(action, 0, KindInvalidInput, ReasonBountyNotFound, nil)
	}
	reason := authorizeReason(info, action, caller, worker)
	if reason == "" {
		return nil
	}
	return &OperationError{
		Op:         action,
		ContractID: info.ContractID,
		Kind:       KindPrecondition,
		Reason:     reason,
		Message:    reason.Message(),
		Current:    info.Clone(),
	}
}

func authorizeReason(info *types.OnChainBountyInfo, action types.Action, caller, worker string) Reason {
	if caller == "" {
		return ReasonNotConnected
	}
	isCreator := address.Equal(caller, info.Creator)
	isWorker := info.HasWorker() && address.Equal(caller, info.Worker)

	switch action {
	case types.ActionClaim:
		if isCreator {
			return ReasonCreatorCannotClaim
		}
		switch info.Status {
		case types.StatusOpen:
			return ""
		case types.StatusClaimed, types.StatusSubmitted:
			if isWorker {
				return ReasonAlreadyClaimedByYou
			}
			return ReasonAlreadyClaimed
		default:
			return ReasonNoLongerAvailable
		}

	case types.ActionSubmit:
		switch info.Status {
		case types.StatusApproved:
			return ReasonAlreadyApproved
		case types.StatusCancelled:
			return ReasonBountyCancelled
		case types.StatusOpen:
			return ReasonMustClaimFirst
		}
		if !isWorker {
			return ReasonNotWorker
		}
		if info.Status == types.StatusSubmitted {
			return ReasonAlreadySubmitted
		}
		return ""

	case types.ActionApprove:
		if !isCreator {
			return ReasonNotCreator
		}
		switch info.Status {
		case types.StatusOpen, types.StatusClaimed:
			return ReasonNotSubmitted
		case types.StatusApproved:
			return ReasonAlreadyApproved
		case types.StatusCancelled:
			return ReasonBountyCancelled
		}
		if worker != "" && !address.Equal(worker, info.Worker) {
			return ReasonWorkerMismatch
		}
		return ""

	case types.ActionCancel:
		if !isCreator {
			return ReasonNotCreator
		}
		switch info.Status {
		case types.StatusSubmitted:
			return ReasonCancelAfterSubmit
		case types.StatusApproved:
			return ReasonAlreadyApproved
		case types.StatusCancelled:
			return ReasonAlreadyCancelled
		}
		return ""
	}

	return ReasonUnsupportedAction
}

// Satisfied 判断链上状态是否已体现 caller 执行 action 的结果
//
// 用于传输失败或确认超时之后的对账：交易可能已经上链。
func Satisfied(info *types.OnChainBountyInfo, action types.Action, caller string) bool {
	if info == nil || caller == "" {
		return false
	}
	switch action {
	case types.ActionClaim:
		return info.Status == types.StatusClaimed && address.Equal(info.Worker, caller)
	case types.ActionSubmit:
		return info.Status == types.StatusSubmitted && address.Equal(info.Worker, caller)
	case types.ActionApprove:
		return info.Status == types.StatusApproved && address.Equal(info.Creator, caller)
	case types.ActionCancel:
		return info.Status == types.StatusCancelled && address.Equal(info.Creator, caller)
	}
	return false
}
