package bounty

import (
	"context"
	"errors"
	"strings"

	"github.com/weisyn/bounty/pkg/types"
)

// failureClass 账本失败的粗分类，用于决定对账方式
type failureClass int

const (
	classUnknown failureClass = iota
	classRejected
	classPoolRejected
	classTransport
	classTimeout
	classNotFound
	classCancelled
	classSigning
)

func (c failureClass) String() string {
	switch c {
	case classRejected:
		return "rejected"
	case classPoolRejected:
		return "pool_rejected"
	case classTransport:
		return "transport"
	case classTimeout:
		return "timeout"
	case classNotFound:
		return "not_found"
	case classCancelled:
		return "cancelled"
	case classSigning:
		return "signing"
	default:
		return "unknown"
	}
}

// classify 优先使用结构化错误码，只有网关无法给出错误码时才检查错误文本
func classify(err error) failureClass {
	if err == nil {
		return classUnknown
	}
	if errors.Is(err, types.ErrSigningCancelled) {
		return classCancelled
	}
	if errors.Is(err, types.ErrSigningFailed) {
		return classSigning
	}
	if le, ok := types.AsLedgerError(err); ok && le.Code != types.CodeUnknown && le.Code != "" {
		switch le.Code {
		case types.CodeContractRejected, types.CodeAlreadyClaimed, types.CodeInvalidStatus, types.CodeUnauthorized:
			return classRejected
		case types.CodePoolRejected:
			return classPoolRejected
		case types.CodeTransport:
			return classTransport
		case types.CodeConfirmationTimeout:
			return classTimeout
		case types.CodeNotFound:
			return classNotFound
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return classTimeout
	}
	if errors.Is(err, context.Canceled) {
		return classTransport
	}
	return sniff(err.Error())
}

var sniffRules = []struct {
	class    failureClass
	patterns []string
}{
	{classRejected, []string{"rejected by logic", "logic eval error", "assert failed", "already claimed", "invalid status", "unauthorized"}},
	{classPoolRejected, []string{"overspend", "fee too small", "below min", "txn dead", "insufficient"}},
	{classTimeout, []string{"not confirmed after", "confirmation timeout", "timed out", "timeout"}},
	{classNotFound, []string{"application does not exist", "app not found", "not found"}},
	{classTransport, []string{"connection refused", "no such host", "connection reset", "network", "dial tcp", "eof"}},
}

func sniff(msg string) failureClass {
	msg = strings.ToLower(msg)
	for _, rule := range sniffRules {
		for _, p := range rule.patterns {
			if strings.Contains(msg, p) {
				return rule.class
			}
		}
	}
	return classUnknown
}
