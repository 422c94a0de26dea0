// Package contract 基于 JSON-RPC 节点实现赏金合约的账本网关
//
// 网关不持有任何赏金状态：Submit 只负责构建、签名和发送，
// 确认、读取、部署都是独立的请求/响应调用。
package contract

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/weisyn/bounty/client/core/builder"
	"github.com/weisyn/bounty/client/core/transport"
	ledgerconfig "github.com/weisyn/bounty/internal/config/ledger"
	bountyInterface "github.com/weisyn/bounty/pkg/interfaces/bounty"
	logInterface "github.com/weisyn/bounty/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/bounty/pkg/types"
	"github.com/weisyn/bounty/pkg/utils/address"
)

// 全局状态键
const (
	keyCreator = "creator"
	keyWorker  = "worker"
	keyAmount  = "amount"
	keyStatus  = "status"
)

// publicKeyProvider 提供公钥的签名器，公钥随签名一起发送
type publicKeyProvider interface {
	PublicKey() []byte
}

// Service 账本网关
type Service struct {
	client  transport.Client
	builder *builder.TxBuilder
	opts    ledgerconfig.LedgerOptions
	logger  logInterface.Logger

	progMu sync.Mutex
	progs  *programs
}

var _ bountyInterface.LedgerClient = (*Service)(nil)

// NewService 创建账本网关
func NewService(client transport.Client, opts *ledgerconfig.LedgerOptions, logger logInterface.Logger) (*Service, error) {
	if client == nil {
		return nil, errors.New("transport client is required")
	}
	if opts == nil {
		opts = ledgerconfig.Defaults()
	}
	if opts.ConfirmationRounds == 0 {
		return nil, errors.New("confirmation rounds must be greater than zero")
	}
	fees := builder.FeePolicy{MinFlatFee: opts.MinFlatFee, InnerTxnFee: opts.InnerTxnFee}
	return &Service{
		client:  client,
		builder: builder.NewTxBuilder(client, fees),
		opts:    *opts,
		logger:  logger.With("module", "ledger"),
	}, nil
}

// ReadState 读取合约全局状态
func (s *Service) ReadState(ctx context.Context, contractID types.ContractID) (*types.OnChainBountyInfo, error) {
	app, err := s.client.GetApplication(ctx, contractID)
	if err != nil {
		return nil, fmt.Errorf("read state %s: %w", contractID, err)
	}
	info, err := decodeState(contractID, app)
	if err != nil {
		return nil, types.NewLedgerError(types.CodeUnknown, fmt.Sprintf("decode state %s", contractID), err)
	}
	return info, nil
}

func decodeState(id types.ContractID, app *transport.Application) (*types.OnChainBountyInfo, error) {
	code, err := app.Uint(keyStatus)
	if err != nil {
		return nil, err
	}
	status, err := types.ParseBountyStatus(code)
	if err != nil {
		return nil, err
	}
	amount, err := app.Uint(keyAmount)
	if err != nil {
		return nil, err
	}
	creator, err := decodeAccount(app.Bytes(keyCreator))
	if err != nil {
		return nil, fmt.Errorf("creator: %w", err)
	}
	if creator == "" {
		creator = app.Creator
	}
	worker, err := decodeAccount(app.Bytes(keyWorker))
	if err != nil {
		return nil, fmt.Errorf("worker: %w", err)
	}
	return &types.OnChainBountyInfo{
		ContractID: id,
		Creator:    creator,
		Worker:     worker,
		Amount:     amount,
		Status:     status,
	}, nil
}

// decodeAccount 状态中的账户可能是 33 字节压缩公钥，也可能是地址文本
func decodeAccount(raw []byte) (string, error) {
	switch {
	case len(raw) == 0:
		return "", nil
	case len(raw) == address.CompressedPublicKeyLength && (raw[0] == 0x02 || raw[0] == 0x03):
		return address.FromPublicKey(raw)
	default:
		addr := string(raw)
		if err := address.Validate(addr); err != nil {
			return "", err
		}
		return addr, nil
	}
}

// Submit 构建、签名并发送一次状态变更调用
func (s *Service) Submit(ctx context.Context, call *types.ContractCall, signer bountyInterface.Signer) (string, error) {
	if call == nil {
		return "", errors.New("contract call is required")
	}
	if !address.Equal(call.Sender, signer.Address()) {
		return "", fmt.Errorf("sender %s does not match signer %s", call.Sender, signer.Address())
	}
	sp, err := s.builder.SuggestedParams(ctx)
	if err != nil {
		return "", err
	}
	txn, err := s.builder.AppCall(sp, call)
	if err != nil {
		return "", fmt.Errorf("build %s: %w", call.Action, err)
	}
	txID, err := s.signAndSend(ctx, signer, []*types.Transaction{txn}, []int{0})
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", call.Action, call.ContractID, err)
	}
	s.logger.Infof("交易已发送: action=%s, contract_id=%s, tx_id=%s, fee=%d", call.Action, call.ContractID, txID, txn.Fee)
	return txID, nil
}

// signAndSend 签名 indexes 指定的交易并整组发送，返回首笔交易 ID
func (s *Service) signAndSend(ctx context.Context, signer bountyInterface.Signer, txns []*types.Transaction, indexes []int) (string, error) {
	sigs, err := signer.SignTransactions(ctx, txns, indexes)
	if err != nil {
		return "", fmt.Errorf("sign: %w", types.WrapSigningError(err))
	}
	if len(sigs) != len(indexes) {
		return "", fmt.Errorf("signer returned %d signatures for %d transactions", len(sigs), len(indexes))
	}

	var pub []byte
	if p, ok := signer.(publicKeyProvider); ok {
		pub = p.PublicKey()
	}
	signed := make([]*types.SignedTransaction, len(txns))
	for i, txn := range txns {
		signed[i] = &types.SignedTransaction{Txn: txn}
	}
	for i, idx := range indexes {
		signed[idx].Signature = sigs[i]
		signed[idx].PublicKey = pub
	}
	for i, st := range signed {
		if st.Signature == nil {
			return "", fmt.Errorf("transaction %d in group is unsigned", i)
		}
	}

	txID, err := s.client.SendRawTransaction(ctx, signed)
	if err != nil {
		return "", err
	}
	if txID == "" {
		if txID, err = builder.TxID(txns[0]); err != nil {
			return "", err
		}
	}
	return txID, nil
}

// WaitForConfirmation 逐轮查询交易状态，最多等待 ConfirmationRounds 轮
func (s *Service) WaitForConfirmation(ctx context.Context, txID string) (*types.Receipt, error) {
	status, err := s.client.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("wait %s: %w", txID, err)
	}
	round := status.LastRound
	last := round + s.opts.ConfirmationRounds

	for {
		pending, err := s.client.PendingTransaction(ctx, txID)
		if err != nil {
			if transport.IsNotFound(err) {
				// 交易已被交易池丢弃或尚未传播，结果未知
				return nil, types.NewLedgerError(types.CodeConfirmationTimeout,
					fmt.Sprintf("transaction %s not found in pool", txID), err)
			}
			return nil, fmt.Errorf("wait %s: %w", txID, err)
		}
		if pending.PoolError != "" {
			return nil, types.NewLedgerError(types.CodePoolRejected, pending.PoolError, nil)
		}
		if pending.Confirmed() {
			s.logger.Debugf("交易已确认: tx_id=%s, round=%d", txID, pending.ConfirmedRound)
			return &types.Receipt{
				TxID:             txID,
				ConfirmedRound:   pending.ConfirmedRound,
				ApplicationIndex: pending.ApplicationIndex,
				Logs:             pending.Logs,
			}, nil
		}
		if round >= last {
			break
		}

		next, err := s.client.StatusAfterBlock(ctx, round)
		if err != nil {
			return nil, fmt.Errorf("wait %s: %w", txID, err)
		}
		if next.LastRound <= round {
			// 节点提前返回，等待一个轮询间隔再重试
			if err := sleep(ctx, s.opts.PollInterval); err != nil {
				return nil, fmt.Errorf("wait %s: %w", txID, err)
			}
			continue
		}
		round = next.LastRound
	}

	return nil, types.NewLedgerError(types.CodeConfirmationTimeout,
		fmt.Sprintf("transaction %s not confirmed after %d rounds", txID, s.opts.ConfirmationRounds), nil)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Deploy 部署合约并注资
//
//  1. 应用创建交易，确认后从回执取得合约 ID
//  2. 向托管账户转入最低余额
//  3. 原子交易组 [奖励转账, create_bounty(amount)]
//
// 第一步之后失败会留下未初始化的合约，此时仍返回该合约 ID 和错误。
func (s *Service) Deploy(ctx context.Context, req *types.DeployRequest, signer bountyInterface.Signer) (types.ContractID, error) {
	if req == nil || req.Reward == 0 {
		return 0, errors.New("deploy requires a positive reward")
	}
	if !address.Equal(req.Creator, signer.Address()) {
		return 0, fmt.Errorf("creator %s does not match signer %s", req.Creator, signer.Address())
	}

	approval, clear := req.ApprovalProgram, req.ClearProgram
	if len(approval) == 0 || len(clear) == 0 {
		progs, err := s.compiledPrograms(ctx)
		if err != nil {
			return 0, err
		}
		approval, clear = progs.approval, progs.clear
	}

	// 1. 创建
	sp, err := s.builder.SuggestedParams(ctx)
	if err != nil {
		return 0, err
	}
	create, err := s.builder.AppCreate(sp, req.Creator, approval, clear)
	if err != nil {
		return 0, err
	}
	receipt, err := s.sendAndWait(ctx, signer, []*types.Transaction{create}, []int{0})
	if err != nil {
		return 0, fmt.Errorf("create application: %w", err)
	}
	id := receipt.ApplicationIndex
	if id == 0 {
		return 0, types.NewLedgerError(types.CodeUnknown, "create receipt carries no application id", nil)
	}
	escrow := address.ApplicationAddress(id)
	logger := s.logger.With("contract_id", id.String())
	logger.Infof("合约已创建: escrow=%s", escrow)

	// 2. 最低余额
	if sp, err = s.builder.SuggestedParams(ctx); err != nil {
		return id, s.orphaned(logger, err)
	}
	fund, err := s.builder.Payment(sp, req.Creator, escrow, s.opts.MinBalance)
	if err != nil {
		return id, s.orphaned(logger, err)
	}
	if _, err := s.sendAndWait(ctx, signer, []*types.Transaction{fund}, []int{0}); err != nil {
		return id, s.orphaned(logger, fmt.Errorf("fund min balance: %w", err))
	}

	// 3. 奖励 + 初始化
	if sp, err = s.builder.SuggestedParams(ctx); err != nil {
		return id, s.orphaned(logger, err)
	}
	pay, err := s.builder.Payment(sp, req.Creator, escrow, req.Reward)
	if err != nil {
		return id, s.orphaned(logger, err)
	}
	initCall, err := s.builder.AppCall(sp, &types.ContractCall{
		ContractID: id,
		Action:     types.ActionCreate,
		Sender:     req.Creator,
		Args:       [][]byte{transport.EncodeUint64(req.Reward)},
	})
	if err != nil {
		return id, s.orphaned(logger, err)
	}
	group := []*types.Transaction{pay, initCall}
	if _, err := builder.AssignGroupID(group); err != nil {
		return id, s.orphaned(logger, err)
	}
	if _, err := s.sendAndWait(ctx, signer, group, []int{0, 1}); err != nil {
		return id, s.orphaned(logger, fmt.Errorf("fund bounty: %w", err))
	}

	logger.Infof("赏金已注资: reward=%d", req.Reward)
	return id, nil
}

func (s *Service) sendAndWait(ctx context.Context, signer bountyInterface.Signer, txns []*types.Transaction, indexes []int) (*types.Receipt, error) {
	txID, err := s.signAndSend(ctx, signer, txns, indexes)
	if err != nil {
		return nil, err
	}
	return s.WaitForConfirmation(ctx, txID)
}

func (*Service) orphaned(logger logInterface.Logger, err error) error {
	logger.Warnf("合约已创建但未完成注资: %v", err)
	return err
}
