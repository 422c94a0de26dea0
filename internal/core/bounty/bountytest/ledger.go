// Package bountytest 提供协调器测试用的内存账本与签名器
//
// FakeLedger 自带一份合约规则，与协调器的本地校验相互独立，
// 通过钩子可以确定性地模拟其他客户端的并发操作与网络故障。
package bountytest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	bountyInterface "github.com/weisyn/bounty/pkg/interfaces/bounty"
	"github.com/weisyn/bounty/pkg/types"
)

// Payout 合约内部转账记录
type Payout struct {
	ContractID types.ContractID
	To         string
	Amount     uint64
}

// FakeLedger 内存账本
type FakeLedger struct {
	mu        sync.Mutex
	contracts map[types.ContractID]*types.OnChainBountyInfo
	receipts  map[string]*types.Receipt
	payouts   []Payout
	nextID    types.ContractID
	txSeq     int
	round     uint64

	// BeforeSubmit 在交易执行前调用，可用于模拟其他客户端抢先上链
	BeforeSubmit func(call *types.ContractCall)
	// SubmitErr 非空时 Submit 返回该错误；ApplyOnSubmitErr 控制交易是否仍然生效
	SubmitErr        error
	ApplyOnSubmitErr bool
	// ConfirmErr 非空时 WaitForConfirmation 返回该错误
	ConfirmErr error
	// DropSubmitted 交易被接受但从未执行（用于确认超时且未上链的场景）
	DropSubmitted bool
	// ReadErr 非空时 ReadState 返回该错误
	ReadErr error
	// DeployErr 非空时 Deploy 返回该错误
	DeployErr error

	submits int
	reads   int
}

var _ bountyInterface.LedgerClient = (*FakeLedger)(nil)

// NewFakeLedger 创建内存账本
func NewFakeLedger() *FakeLedger {
	return &FakeLedger{
		contracts: make(map[types.ContractID]*types.OnChainBountyInfo),
		receipts:  make(map[string]*types.Receipt),
		nextID:    1000,
	}
}

// Seed 直接创建一个处于 Open 状态的赏金
func (l *FakeLedger) Seed(creator string, amount uint64) types.ContractID {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.createLocked(creator, amount)
}

func (l *FakeLedger) createLocked(creator string, amount uint64) types.ContractID {
	l.nextID++
	id := l.nextID
	l.contracts[id] = &types.OnChainBountyInfo{
		ContractID: id,
		Creator:    creator,
		Amount:     amount,
		Status:     types.StatusOpen,
	}
	return id
}

// State 返回链上状态副本
func (l *FakeLedger) State(id types.ContractID) *types.OnChainBountyInfo {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.contracts[id].Clone()
}

// Apply 以 sender 身份直接执行一次调用，模拟其他客户端
func (l *FakeLedger) Apply(id types.ContractID, action types.Action, sender string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	call := &types.ContractCall{ContractID: id, Action: action, Sender: sender}
	if info := l.contracts[id]; info != nil && action == types.ActionApprove {
		call.Accounts = []string{info.Worker}
	}
	return l.executeLocked(call)
}

// Payouts 返回全部内部转账
func (l *FakeLedger) Payouts() []Payout {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Payout(nil), l.payouts...)
}

// SubmitCount 返回 Submit 被调用的次数（含签名取消）
func (l *FakeLedger) SubmitCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.submits
}

// ReadCount 返回 ReadState 被调用的次数
func (l *FakeLedger) ReadCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reads
}

// ReadState 实现 StateReader
func (l *FakeLedger) ReadState(ctx context.Context, id types.ContractID) (*types.OnChainBountyInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reads++
	if l.ReadErr != nil {
		return nil, l.ReadErr
	}
	info, ok := l.contracts[id]
	if !ok {
		return nil, types.NewLedgerError(types.CodeNotFound, fmt.Sprintf("application %d does not exist", id), nil)
	}
	return info.Clone(), nil
}

// Submit 签名并执行调用
func (l *FakeLedger) Submit(ctx context.Context, call *types.ContractCall, signer bountyInterface.Signer) (string, error) {
	l.mu.Lock()
	l.submits++
	l.mu.Unlock()

	txn := &types.Transaction{
		Type:     types.TxTypeAppCall,
		Sender:   call.Sender,
		AppID:    call.ContractID,
		AppArgs:  append([][]byte{[]byte(call.Action)}, call.Args...),
		Accounts: call.Accounts,
	}
	if _, err := signer.SignTransactions(ctx, []*types.Transaction{txn}, []int{0}); err != nil {
		return "", fmt.Errorf("sign %s: %w", call.Action, types.WrapSigningError(err))
	}

	if l.BeforeSubmit != nil {
		l.BeforeSubmit(call)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.SubmitErr != nil {
		if l.ApplyOnSubmitErr {
			_ = l.executeLocked(call)
		}
		return "", l.SubmitErr
	}

	txID := l.nextTxIDLocked()
	if l.DropSubmitted {
		return txID, nil
	}
	if err := l.executeLocked(call); err != nil {
		return "", err
	}
	l.round++
	l.receipts[txID] = &types.Receipt{TxID: txID, ConfirmedRound: l.round}
	return txID, nil
}

// WaitForConfirmation 返回交易回执
func (l *FakeLedger) WaitForConfirmation(ctx context.Context, txID string) (*types.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ConfirmErr != nil {
		return nil, l.ConfirmErr
	}
	receipt, ok := l.receipts[txID]
	if !ok {
		return nil, types.NewLedgerError(types.CodeConfirmationTimeout, fmt.Sprintf("transaction %s not confirmed after 4 rounds", txID), nil)
	}
	return receipt, nil
}

// Deploy 先签名应用创建交易，再签名注资组
func (l *FakeLedger) Deploy(ctx context.Context, req *types.DeployRequest, signer bountyInterface.Signer) (types.ContractID, error) {
	create := &types.Transaction{Type: types.TxTypeAppCall, Sender: req.Creator}
	if _, err := signer.SignTransactions(ctx, []*types.Transaction{create}, []int{0}); err != nil {
		return 0, fmt.Errorf("sign application create: %w", types.WrapSigningError(err))
	}
	if l.DeployErr != nil {
		return 0, l.DeployErr
	}

	group := []*types.Transaction{
		{Type: types.TxTypePayment, Sender: req.Creator, Amount: req.Reward},
		{Type: types.TxTypeAppCall, Sender: req.Creator, AppArgs: [][]byte{[]byte(types.ActionCreate)}},
	}
	if _, err := signer.SignTransactions(ctx, group, []int{0, 1}); err != nil {
		return 0, fmt.Errorf("sign funding group: %w", types.WrapSigningError(err))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.createLocked(req.Creator, req.Reward), nil
}

func (l *FakeLedger) nextTxIDLocked() string {
	l.txSeq++
	return fmt.Sprintf("TX%04d", l.txSeq)
}

var errRejected = errors.New("logic eval error: assert failed")

// executeLocked 合约规则
func (l *FakeLedger) executeLocked(call *types.ContractCall) error {
	info, ok := l.contracts[call.ContractID]
	if !ok {
		return types.NewLedgerError(types.CodeNotFound, "application does not exist", nil)
	}
	reject := func() error {
		return types.NewLedgerError(types.CodeContractRejected, "transaction rejected by logic", errRejected)
	}

	switch call.Action {
	case types.ActionClaim:
		if info.Status != types.StatusOpen || call.Sender == info.Creator {
			return reject()
		}
		info.Worker = call.Sender
		info.Status = types.StatusClaimed

	case types.ActionSubmit:
		if info.Status != types.StatusClaimed || call.Sender != info.Worker {
			return reject()
		}
		info.Status = types.StatusSubmitted

	case types.ActionApprove:
		if info.Status != types.StatusSubmitted || call.Sender != info.Creator {
			return reject()
		}
		if len(call.Accounts) == 0 || call.Accounts[0] != info.Worker {
			return reject()
		}
		l.payouts = append(l.payouts, Payout{ContractID: info.ContractID, To: info.Worker, Amount: info.Amount})
		info.Amount = 0
		info.Status = types.StatusApproved

	case types.ActionCancel:
		if call.Sender != info.Creator || (info.Status != types.StatusOpen && info.Status != types.StatusClaimed) {
			return reject()
		}
		l.payouts = append(l.payouts, Payout{ContractID: info.ContractID, To: info.Creator, Amount: info.Amount})
		info.Amount = 0
		info.Status = types.StatusCancelled

	default:
		return reject()
	}
	return nil
}
