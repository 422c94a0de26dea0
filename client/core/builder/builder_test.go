package builder

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/bounty/pkg/types"
)

type staticParams struct {
	sp  *types.SuggestedParams
	err error
}

func (s staticParams) SuggestedParams(context.Context) (*types.SuggestedParams, error) {
	return s.sp, s.err
}

func testParams() *types.SuggestedParams {
	return &types.SuggestedParams{Fee: 0, MinFee: 1000, FirstValid: 100, LastValid: 1100, GenesisID: "localnet-v1"}
}

func TestAppCallFee(t *testing.T) {
	p := DefaultFeePolicy()
	tests := []struct {
		name   string
		sp     *types.SuggestedParams
		action types.Action
		want   uint64
	}{
		{"claim floors at flat fee", testParams(), types.ActionClaim, 2000},
		{"submit floors at flat fee", testParams(), types.ActionSubmit, 2000},
		{"approve covers payout", testParams(), types.ActionApprove, 3000},
		{"cancel covers refund", testParams(), types.ActionCancel, 3000},
		{"congested network", &types.SuggestedParams{Fee: 4000, MinFee: 1000}, types.ActionClaim, 4000},
		{"congested approve", &types.SuggestedParams{Fee: 4000, MinFee: 1000}, types.ActionApprove, 5000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.AppCallFee(tt.sp, tt.action))
		})
	}
}

func TestAppCall(t *testing.T) {
	b := NewTxBuilder(staticParams{sp: testParams()}, DefaultFeePolicy())
	sp, err := b.SuggestedParams(context.Background())
	require.NoError(t, err)

	txn, err := b.AppCall(sp, &types.ContractCall{
		ContractID: 42,
		Action:     types.ActionApprove,
		Sender:     "CREATOR",
		Accounts:   []string{"WORKER"},
	})
	require.NoError(t, err)
	assert.Equal(t, types.TxTypeAppCall, txn.Type)
	assert.Equal(t, types.ContractID(42), txn.AppID)
	assert.Equal(t, [][]byte{[]byte("approve")}, txn.AppArgs)
	assert.Equal(t, []string{"WORKER"}, txn.Accounts)
	assert.Equal(t, uint64(3000), txn.Fee)
	assert.Equal(t, uint64(100), txn.FirstValid)
	assert.Equal(t, uint64(1100), txn.LastValid)

	_, err = b.AppCall(sp, &types.ContractCall{ContractID: 42, Action: types.ActionApprove, Sender: "CREATOR"})
	assert.Error(t, err, "approve 必须带上认领者账户")
	_, err = b.AppCall(sp, &types.ContractCall{Action: types.ActionClaim, Sender: "W"})
	assert.Error(t, err)
	_, err = b.AppCall(sp, &types.ContractCall{ContractID: 1, Action: types.ActionClaim})
	assert.Error(t, err)
}

func TestSuggestedParamsError(t *testing.T) {
	cause := types.NewLedgerError(types.CodeTransport, "refused", nil)
	b := NewTxBuilder(staticParams{err: cause}, DefaultFeePolicy())
	_, err := b.SuggestedParams(context.Background())
	assert.True(t, errors.Is(err, cause))
}

func TestPaymentAndCreate(t *testing.T) {
	b := NewTxBuilder(staticParams{sp: testParams()}, DefaultFeePolicy())
	sp := testParams()

	pay, err := b.Payment(sp, "CREATOR", "ESCROW", 100_000)
	require.NoError(t, err)
	assert.Equal(t, types.TxTypePayment, pay.Type)
	assert.Equal(t, uint64(1000), pay.Fee)
	assert.Equal(t, uint64(100_000), pay.Amount)

	_, err = b.Payment(sp, "CREATOR", "ESCROW", 0)
	assert.Error(t, err)

	create, err := b.AppCreate(sp, "CREATOR", []byte{0x06, 0x81, 0x01}, []byte{0x06, 0x81, 0x01})
	require.NoError(t, err)
	assert.Zero(t, create.AppID)
	assert.Equal(t, uint64(GlobalNumUint), create.GlobalNumUint)
	assert.Equal(t, uint64(GlobalNumByteSlice), create.GlobalNumByteSlice)

	_, err = b.AppCreate(sp, "CREATOR", nil, nil)
	assert.Error(t, err)
}

func TestTxID(t *testing.T) {
	txn := &types.Transaction{Type: types.TxTypePayment, Sender: "A", Receiver: "B", Amount: 1, Fee: 1000}
	id1, err := TxID(txn)
	require.NoError(t, err)
	assert.Len(t, id1, 52, "32 字节无填充 base32")

	id2, err := TxID(txn)
	require.NoError(t, err)
	assert.Equal(t, id1, id2, "相同交易的 ID 稳定")

	txn.Amount = 2
	id3, err := TxID(txn)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id3)
}

func TestAssignGroupID(t *testing.T) {
	pay := &types.Transaction{Type: types.TxTypePayment, Sender: "C", Receiver: "E", Amount: 5}
	call := &types.Transaction{Type: types.TxTypeAppCall, Sender: "C", AppID: 9, AppArgs: [][]byte{[]byte("create_bounty")}}

	gid, err := AssignGroupID([]*types.Transaction{pay, call})
	require.NoError(t, err)
	assert.Len(t, gid, 32)
	assert.Equal(t, gid, pay.Group)
	assert.Equal(t, gid, call.Group)

	// 重新计算得到相同的组 ID
	again, err := AssignGroupID([]*types.Transaction{pay, call})
	require.NoError(t, err)
	assert.Equal(t, gid, again)

	// 顺序不同组 ID 不同
	swapped, err := AssignGroupID([]*types.Transaction{call, pay})
	require.NoError(t, err)
	assert.NotEqual(t, gid, swapped)

	_, err = AssignGroupID(nil)
	assert.Error(t, err)
	_, err = AssignGroupID(make([]*types.Transaction, MaxGroupSize+1))
	assert.Error(t, err)
}
