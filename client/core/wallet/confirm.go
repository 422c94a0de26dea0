package wallet

import (
	"context"
	"fmt"
	"strings"

	"github.com/pterm/pterm"

	"github.com/weisyn/bounty/client/core/builder"
	bountyInterface "github.com/weisyn/bounty/pkg/interfaces/bounty"
	"github.com/weisyn/bounty/pkg/types"
	"github.com/weisyn/bounty/pkg/utils"
)

// ConfirmFunc 展示待签名交易摘要并询问用户，返回 false 表示放弃
type ConfirmFunc func(ctx context.Context, summary []string) (bool, error)

// ConfirmSigner 签名前要求用户确认的签名器
//
// 用户放弃时返回 types.ErrSigningCancelled，协调器据此区分“没有发生任何事”与失败。
type ConfirmSigner struct {
	inner   bountyInterface.Signer
	confirm ConfirmFunc
}

// NewConfirmSigner 包装签名器；confirm 为 nil 时直接签名
func NewConfirmSigner(inner bountyInterface.Signer, confirm ConfirmFunc) *ConfirmSigner {
	return &ConfirmSigner{inner: inner, confirm: confirm}
}

// Address 实现 Signer
func (s *ConfirmSigner) Address() string {
	return s.inner.Address()
}

// PublicKey 透传内部签名器的公钥
func (s *ConfirmSigner) PublicKey() []byte {
	if p, ok := s.inner.(PublicKeyProvider); ok {
		return p.PublicKey()
	}
	return nil
}

// SignTransactions 实现 Signer
func (s *ConfirmSigner) SignTransactions(ctx context.Context, txns []*types.Transaction, indexes []int) ([][]byte, error) {
	if s.confirm != nil {
		ok, err := s.confirm(ctx, Summarize(txns, indexes))
		if err != nil {
			return nil, fmt.Errorf("confirm signing: %w", err)
		}
		if !ok {
			return nil, types.ErrSigningCancelled
		}
	}
	return s.inner.SignTransactions(ctx, txns, indexes)
}

// Summarize 每笔待签名交易一行摘要
func Summarize(txns []*types.Transaction, indexes []int) []string {
	lines := make([]string, 0, len(indexes))
	for _, idx := range indexes {
		if idx < 0 || idx >= len(txns) || txns[idx] == nil {
			continue
		}
		txn := txns[idx]
		var b strings.Builder
		switch txn.Type {
		case types.TxTypePayment:
			fmt.Fprintf(&b, "pay %s to %s", utils.FormatAmount(txn.Amount), txn.Receiver)
		case types.TxTypeAppCall:
			switch {
			case txn.AppID == 0:
				b.WriteString("create contract")
			case len(txn.AppArgs) > 0:
				fmt.Fprintf(&b, "call %s on contract %d", string(txn.AppArgs[0]), txn.AppID)
			default:
				fmt.Fprintf(&b, "call contract %d", txn.AppID)
			}
		default:
			b.WriteString(string(txn.Type))
		}
		fmt.Fprintf(&b, " (fee %s)", utils.FormatAmount(txn.Fee))
		if id, err := builder.TxID(txn); err == nil {
			fmt.Fprintf(&b, " [%s]", id[:8])
		}
		lines = append(lines, b.String())
	}
	return lines
}

// InteractiveConfirm 终端交互确认；assumeYes 为 true 时跳过询问（--yes）
func InteractiveConfirm(assumeYes bool) ConfirmFunc {
	return func(ctx context.Context, summary []string) (bool, error) {
		if assumeYes {
			return true, nil
		}
		if err := ctx.Err(); err != nil {
			return false, err
		}
		pterm.Info.Println("即将签名以下交易:")
		for _, line := range summary {
			pterm.Println("  • " + line)
		}
		ok, err := pterm.DefaultInteractiveConfirm.
			WithDefaultText("确认签名并发送?").
			WithDefaultValue(false).
			Show()
		if err != nil {
			return false, fmt.Errorf("确认对话框失败: %w", err)
		}
		return ok, nil
	}
}
