package wallet

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/bounty/pkg/types"
)

func TestConfirmSigner(t *testing.T) {
	inner, err := GenerateKeySigner()
	require.NoError(t, err)
	txns := []*types.Transaction{
		{Type: types.TxTypePayment, Sender: inner.Address(), Receiver: "ESCROW", Amount: 2_500_000, Fee: 1000},
		appCall(inner.Address()),
	}

	var shown []string
	answer := true
	s := NewConfirmSigner(inner, func(_ context.Context, summary []string) (bool, error) {
		shown = summary
		return answer, nil
	})
	assert.Equal(t, inner.Address(), s.Address())
	assert.Equal(t, inner.PublicKey(), s.PublicKey())

	sigs, err := s.SignTransactions(context.Background(), txns, []int{0, 1})
	require.NoError(t, err)
	assert.Len(t, sigs, 2)
	require.Len(t, shown, 2)
	assert.Contains(t, shown[0], "pay 2.5 to ESCROW")
	assert.Contains(t, shown[1], "call claim on contract 42")

	answer = false
	_, err = s.SignTransactions(context.Background(), txns, []int{1})
	assert.ErrorIs(t, err, types.ErrSigningCancelled)

	failing := NewConfirmSigner(inner, func(context.Context, []string) (bool, error) {
		return false, errors.New("no tty")
	})
	_, err = failing.SignTransactions(context.Background(), txns, []int{1})
	require.Error(t, err)
	assert.NotErrorIs(t, err, types.ErrSigningCancelled)
}

func TestInteractiveConfirm_AssumeYes(t *testing.T) {
	ok, err := InteractiveConfirm(true)(context.Background(), []string{"x"})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSummarize_Create(t *testing.T) {
	lines := Summarize([]*types.Transaction{{Type: types.TxTypeAppCall, Sender: "A", Fee: 1000}}, []int{0, 5})
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "create contract (fee 0.001)")
}
