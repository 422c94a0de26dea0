// Package builder 构建赏金合约所需的交易
//
// 交易在构建后交给签名器，签名前不会访问钱包。
package builder

import (
	"context"
	"crypto/sha256"
	"encoding/base32"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/weisyn/bounty/pkg/types"
)

// 合约全局状态布局：creator/worker 为字节，amount/status 为整数
const (
	GlobalNumUint      = 2
	GlobalNumByteSlice = 2
)

// 哈希域分隔前缀
var (
	txIDPrefix  = []byte("TX")
	groupPrefix = []byte("TG")
)

// MaxGroupSize 交易组的最大笔数
const MaxGroupSize = 16

// ParamsSource 提供建议交易参数
type ParamsSource interface {
	SuggestedParams(ctx context.Context) (*types.SuggestedParams, error)
}

// TxBuilder 交易构建器
type TxBuilder struct {
	params ParamsSource
	fees   FeePolicy
}

// NewTxBuilder 创建交易构建器
func NewTxBuilder(params ParamsSource, fees FeePolicy) *TxBuilder {
	return &TxBuilder{params: params, fees: fees}
}

// SuggestedParams 获取建议参数
func (b *TxBuilder) SuggestedParams(ctx context.Context) (*types.SuggestedParams, error) {
	sp, err := b.params.SuggestedParams(ctx)
	if err != nil {
		return nil, fmt.Errorf("get suggested params: %w", err)
	}
	return sp, nil
}

func base(sender string, sp *types.SuggestedParams) types.Transaction {
	return types.Transaction{
		Sender:      sender,
		FirstValid:  sp.FirstValid,
		LastValid:   sp.LastValid,
		GenesisID:   sp.GenesisID,
		GenesisHash: sp.GenesisHash,
	}
}

// AppCall 构建一次状态变更调用
//
// 第一个参数为方法名；approve 的 Accounts 必须包含认领者，
// 以便合约执行内部转账。
func (b *TxBuilder) AppCall(sp *types.SuggestedParams, call *types.ContractCall) (*types.Transaction, error) {
	if call == nil || call.ContractID == 0 {
		return nil, errors.New("app call requires a contract id")
	}
	if call.Sender == "" {
		return nil, errors.New("app call requires a sender")
	}
	if call.Action == types.ActionApprove && len(call.Accounts) == 0 {
		return nil, errors.New("approve requires the worker account")
	}

	txn := base(call.Sender, sp)
	txn.Type = types.TxTypeAppCall
	txn.Fee = b.fees.AppCallFee(sp, call.Action)
	txn.AppID = call.ContractID
	txn.OnComplete = types.OnCompleteNoOp
	txn.AppArgs = append([][]byte{[]byte(call.Action)}, call.Args...)
	txn.Accounts = append([]string(nil), call.Accounts...)
	return &txn, nil
}

// Payment 构建转账
func (b *TxBuilder) Payment(sp *types.SuggestedParams, sender, receiver string, amount uint64) (*types.Transaction, error) {
	if sender == "" || receiver == "" {
		return nil, errors.New("payment requires sender and receiver")
	}
	if amount == 0 {
		return nil, errors.New("payment amount must be greater than zero")
	}
	txn := base(sender, sp)
	txn.Type = types.TxTypePayment
	txn.Fee = BaseFee(sp)
	txn.Receiver = receiver
	txn.Amount = amount
	return &txn, nil
}

// AppCreate 构建应用创建交易
func (b *TxBuilder) AppCreate(sp *types.SuggestedParams, sender string, approval, clear []byte) (*types.Transaction, error) {
	if sender == "" {
		return nil, errors.New("app create requires a sender")
	}
	if len(approval) == 0 || len(clear) == 0 {
		return nil, errors.New("app create requires approval and clear programs")
	}
	txn := base(sender, sp)
	txn.Type = types.TxTypeAppCall
	txn.Fee = BaseFee(sp)
	txn.OnComplete = types.OnCompleteNoOp
	txn.ApprovalProgram = approval
	txn.ClearProgram = clear
	txn.GlobalNumUint = GlobalNumUint
	txn.GlobalNumByteSlice = GlobalNumByteSlice
	return &txn, nil
}

// Encode 交易的规范编码，即签名载荷（不含组 ID 之外的任何签名信息）
func Encode(txn *types.Transaction) ([]byte, error) {
	data, err := json.Marshal(txn)
	if err != nil {
		return nil, fmt.Errorf("encode transaction: %w", err)
	}
	return data, nil
}

// SigningBytes 返回带域分隔前缀的签名载荷
func SigningBytes(txn *types.Transaction) ([]byte, error) {
	data, err := Encode(txn)
	if err != nil {
		return nil, err
	}
	return append(append([]byte(nil), txIDPrefix...), data...), nil
}

func rawTxID(txn *types.Transaction) ([32]byte, error) {
	data, err := SigningBytes(txn)
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(data), nil
}

// TxID 交易 ID：签名载荷哈希的无填充 base32 编码
func TxID(txn *types.Transaction) (string, error) {
	h, err := rawTxID(txn)
	if err != nil {
		return "", err
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(h[:]), nil
}

// AssignGroupID 为交易组计算并写入组 ID，交易组要么全部上链要么全部失败
func AssignGroupID(txns []*types.Transaction) ([]byte, error) {
	if len(txns) == 0 {
		return nil, errors.New("empty transaction group")
	}
	if len(txns) > MaxGroupSize {
		return nil, fmt.Errorf("transaction group too large: %d > %d", len(txns), MaxGroupSize)
	}

	buf := append([]byte(nil), groupPrefix...)
	for i, txn := range txns {
		// 组 ID 基于不含组字段的交易计算
		clone := *txn
		clone.Group = nil
		h, err := rawTxID(&clone)
		if err != nil {
			return nil, fmt.Errorf("hash group member %d: %w", i, err)
		}
		buf = append(buf, h[:]...)
	}
	gid := sha256.Sum256(buf)
	for _, txn := range txns {
		txn.Group = append([]byte(nil), gid[:]...)
	}
	return gid[:], nil
}
