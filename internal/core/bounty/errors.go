package bounty

import (
	"errors"
	"fmt"

	"github.com/weisyn/bounty/pkg/types"
)

// Kind 失败类别
type Kind string

const (
	// KindPrecondition 提交前的本地校验未通过
	KindPrecondition Kind = "precondition"
	// KindRejected 合约或交易池拒绝了交易
	KindRejected Kind = "rejected"
	// KindTransport 网络或节点不可达，可重试
	KindTransport Kind = "transport"
	// KindTimeout 确认超时，交易可能稍后上链
	KindTimeout Kind = "timeout"
	// KindInvalidInput 输入参数不合法
	KindInvalidInput Kind = "invalid_input"
	// KindSigning 钱包签名失败，交易未发送
	KindSigning Kind = "signing"
	// KindStore 链下存储读写失败
	KindStore Kind = "store"
)

// Reason 机器可读的具体失败原因
type Reason string

const (
	ReasonNotConnected        Reason = "wallet_not_connected"
	ReasonCreatorCannotClaim  Reason = "creator_cannot_claim"
	ReasonAlreadyClaimed      Reason = "already_claimed"
	ReasonAlreadyClaimedByYou Reason = "already_claimed_by_you"
	ReasonNoLongerAvailable   Reason = "no_longer_available"
	ReasonMustClaimFirst      Reason = "must_claim_first"
	ReasonNotWorker           Reason = "not_worker"
	ReasonAlreadySubmitted    Reason = "already_submitted"
	ReasonNotCreator          Reason = "not_creator"
	ReasonNotSubmitted        Reason = "not_submitted"
	ReasonWorkerMismatch      Reason = "worker_mismatch"
	ReasonAlreadyApproved     Reason = "already_approved"
	ReasonBountyCancelled     Reason = "bounty_cancelled"
	ReasonCancelAfterSubmit   Reason = "cancel_after_submit"
	ReasonAlreadyCancelled    Reason = "already_cancelled"
	ReasonUnsupportedAction   Reason = "unsupported_action"
	ReasonOperationInFlight   Reason = "operation_in_flight"
	ReasonSessionClosed       Reason = "session_closed"

	ReasonContractRejected Reason = "contract_rejected"
	ReasonPoolRejected     Reason = "pool_rejected"
	ReasonNetwork          Reason = "network_unavailable"
	ReasonPending          Reason = "pending_status_unknown"
	ReasonSigningFailed    Reason = "signing_failed"
	ReasonSubmitFailed     Reason = "submit_failed"

	ReasonBountyNotFound     Reason = "bounty_not_found"
	ReasonSubmissionNotFound Reason = "submission_not_found"
	ReasonInvalidInput       Reason = "invalid_input"
	ReasonStoreFailure       Reason = "store_failure"
)

var reasonMessages = map[Reason]string{
	ReasonNotConnected:        "connect a wallet first",
	ReasonCreatorCannotClaim:  "you cannot claim your own bounty",
	ReasonAlreadyClaimed:      "bounty already claimed by another worker",
	ReasonAlreadyClaimedByYou: "you have already claimed this bounty",
	ReasonNoLongerAvailable:   "bounty is no longer available",
	ReasonMustClaimFirst:      "you must claim the bounty before submitting work",
	ReasonNotWorker:           "only the worker who claimed this bounty can submit work",
	ReasonAlreadySubmitted:    "work has already been submitted",
	ReasonNotCreator:          "only the bounty creator can do this",
	ReasonNotSubmitted:        "no work has been submitted yet",
	ReasonWorkerMismatch:      "worker address does not match the claimant",
	ReasonAlreadyApproved:     "bounty has already been approved and paid",
	ReasonBountyCancelled:     "bounty has been cancelled",
	ReasonCancelAfterSubmit:   "cannot cancel after work has been submitted",
	ReasonAlreadyCancelled:    "bounty has already been cancelled",
	ReasonUnsupportedAction:   "unsupported action",
	ReasonOperationInFlight:   "another operation on this bounty is still in progress",
	ReasonSessionClosed:       "session is closed",
	ReasonContractRejected:    "the contract rejected the transaction",
	ReasonPoolRejected:        "the network rejected the transaction, check balance and fees",
	ReasonNetwork:             "network unavailable, please retry",
	ReasonPending:             "transaction pending, status unknown; check again shortly",
	ReasonSigningFailed:       "the wallet could not sign the transaction; nothing was sent",
	ReasonSubmitFailed:        "the transaction could not be submitted, please retry",
	ReasonBountyNotFound:      "bounty not found",
	ReasonSubmissionNotFound:  "submission not found",
	ReasonInvalidInput:        "invalid input",
	ReasonStoreFailure:        "local storage failure",
}

// Message 返回面向用户的说明
func (r Reason) Message() string {
	if msg, ok := reasonMessages[r]; ok {
		return msg
	}
	return string(r)
}

// OperationError 协调器返回的已分类失败
type OperationError struct {
	Op         types.Action
	ContractID types.ContractID
	Kind       Kind
	Reason     Reason
	Message    string                   // 面向用户的说明
	Current    *types.OnChainBountyInfo // 失败后重新读取的链上状态，读取失败时为 nil
	Cause      error
}

// Error 实现 error 接口
func (e *OperationError) Error() string {
	prefix := string(e.Op)
	if prefix == "" {
		prefix = "bounty"
	}
	if e.ContractID != 0 {
		prefix = fmt.Sprintf("%s %s", prefix, e.ContractID)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap 返回底层错误
func (e *OperationError) Unwrap() error {
	return e.Cause
}

// Retryable 用户是否可以直接重试
func (e *OperationError) Retryable() bool {
	return e.Kind == KindTransport || e.Kind == KindTimeout
}

func newError(op types.Action, id types.ContractID, kind Kind, reason Reason, cause error) *OperationError {
	return &OperationError{
		Op:         op,
		ContractID: id,
		Kind:       kind,
		Reason:     reason,
		Message:    reason.Message(),
		Cause:      cause,
	}
}

func invalidInput(op types.Action, format string, args ...interface{}) *OperationError {
	e := newError(op, 0, KindInvalidInput, ReasonInvalidInput, nil)
	e.Message = fmt.Sprintf(format, args...)
	return e
}

// AsOperationError 从错误链中提取 OperationError
func AsOperationError(err error) (*OperationError, bool) {
	var oe *OperationError
	if errors.As(err, &oe) {
		return oe, true
	}
	return nil, false
}

// ReasonOf 返回错误的具体原因，非 OperationError 返回空字符串
func ReasonOf(err error) Reason {
	if oe, ok := AsOperationError(err); ok {
		return oe.Reason
	}
	return ""
}

// IsRetryable 错误是否可重试
func IsRetryable(err error) bool {
	if oe, ok := AsOperationError(err); ok {
		return oe.Retryable()
	}
	return false
}
