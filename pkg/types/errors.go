package types

import (
	"errors"
	"fmt"
)

// ErrSigningCancelled 用户在钱包中放弃签名
// 签名器必须返回（或包装）此错误，以便与其他签名失败区分
var ErrSigningCancelled = errors.New("signing cancelled by user")

// ErrSigningFailed 签名器返回了取消以外的错误，交易没有离开本地
var ErrSigningFailed = errors.New("signing failed")

// SigningError 签名器返回的错误
type SigningError struct {
	Cause error
}

// Error 实现 error 接口
func (e *SigningError) Error() string {
	return fmt.Sprintf("%v: %v", ErrSigningFailed, e.Cause)
}

// Unwrap 返回底层错误
func (e *SigningError) Unwrap() error {
	return e.Cause
}

// Is 匹配 ErrSigningFailed
func (e *SigningError) Is(target error) bool {
	return target == ErrSigningFailed
}

// WrapSigningError 取消签名原样返回，其他错误包装为 SigningError
func WrapSigningError(err error) error {
	if err == nil || errors.Is(err, ErrSigningCancelled) {
		return err
	}
	return &SigningError{Cause: err}
}

// LedgerErrorCode 账本网关返回的机器可读失败码
type LedgerErrorCode string

const (
	// 合约拒绝（断言失败等），原因需结合链上状态判断
	CodeContractRejected LedgerErrorCode = "contract_rejected"

	// 合约明确报告的状态冲突
	CodeAlreadyClaimed LedgerErrorCode = "already_claimed"
	CodeInvalidStatus  LedgerErrorCode = "invalid_status"
	CodeUnauthorized   LedgerErrorCode = "unauthorized"

	// 交易池拒绝（费用不足、余额不足、过期等）
	CodePoolRejected LedgerErrorCode = "pool_rejected"

	// 网络或节点不可达
	CodeTransport LedgerErrorCode = "transport"

	// 确认轮次耗尽，交易仍可能稍后上链
	CodeConfirmationTimeout LedgerErrorCode = "confirmation_timeout"

	// 应用不存在
	CodeNotFound LedgerErrorCode = "not_found"

	// 节点返回了无法识别的错误
	CodeUnknown LedgerErrorCode = "unknown"
)

// LedgerError 账本网关的结构化错误
type LedgerError struct {
	Code      LedgerErrorCode
	Message   string // 节点返回的原始信息，不直接展示给用户
	Retryable bool
	Cause     error
}

// Error 实现 error 接口
func (e *LedgerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("ledger %s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("ledger %s: %s", e.Code, e.Message)
}

// Unwrap 返回底层错误
func (e *LedgerError) Unwrap() error {
	return e.Cause
}

// NewLedgerError 创建账本错误
func NewLedgerError(code LedgerErrorCode, message string, cause error) *LedgerError {
	return &LedgerError{
		Code:      code,
		Message:   message,
		Retryable: code == CodeTransport || code == CodeConfirmationTimeout,
		Cause:     cause,
	}
}

// AsLedgerError 从错误链中提取 LedgerError
func AsLedgerError(err error) (*LedgerError, bool) {
	var le *LedgerError
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}
