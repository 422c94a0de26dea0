package bountytest

import (
	"context"
	"sync"
	"sync/atomic"

	bountyInterface "github.com/weisyn/bounty/pkg/interfaces/bounty"
	"github.com/weisyn/bounty/pkg/types"
)

// FakeSigner 固定地址的签名器，可切换为“用户拒绝签名”
type FakeSigner struct {
	address string
	cancel  atomic.Bool
	calls   atomic.Int32

	mu  sync.Mutex
	err error
}

var _ bountyInterface.Signer = (*FakeSigner)(nil)

// NewSigner 创建签名器
func NewSigner(address string) *FakeSigner {
	return &FakeSigner{address: address}
}

// Address 实现 Signer
func (s *FakeSigner) Address() string {
	return s.address
}

// SetCancel 之后的签名请求全部返回 ErrSigningCancelled
func (s *FakeSigner) SetCancel(cancel bool) {
	s.cancel.Store(cancel)
}

// SetError 之后的签名请求全部返回 err，nil 恢复正常
func (s *FakeSigner) SetError(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// Calls 返回签名请求次数
func (s *FakeSigner) Calls() int {
	return int(s.calls.Load())
}

// SignTransactions 实现 Signer，签名内容为占位字节
func (s *FakeSigner) SignTransactions(ctx context.Context, txns []*types.Transaction, indexes []int) ([][]byte, error) {
	s.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.cancel.Load() {
		return nil, types.ErrSigningCancelled
	}
	s.mu.Lock()
	err := s.err
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(indexes))
	for i, idx := range indexes {
		out[i] = []byte(s.address + ":" + string(txns[idx].Type))
	}
	return out, nil
}
