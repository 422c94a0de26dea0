package address

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/bounty/pkg/types"
)

func TestFromPublicKey(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	addr, err := FromPublicKey(priv.PubKey().SerializeCompressed())
	require.NoError(t, err)
	assert.NoError(t, Validate(addr))

	// 同一公钥推导结果稳定
	again, err := FromPublicKey(priv.PubKey().SerializeCompressed())
	require.NoError(t, err)
	assert.Equal(t, addr, again)
}

func TestFromPublicKey_InvalidLength(t *testing.T) {
	_, err := FromPublicKey([]byte{0x02, 0x01})
	assert.ErrorIs(t, err, ErrInvalidPublicKey)
}

func TestApplicationAddress(t *testing.T) {
	a := ApplicationAddress(types.ContractID(42))
	b := ApplicationAddress(types.ContractID(43))
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, ApplicationAddress(types.ContractID(42)))
	assert.NoError(t, Validate(a))
}

func TestValidate(t *testing.T) {
	assert.Error(t, Validate(""))
	assert.Error(t, Validate("not-base58-0OIl"))

	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	addr, err := FromPublicKey(priv.PubKey().SerializeCompressed())
	require.NoError(t, err)

	// 篡改最后一个字符破坏校验和
	last := addr[len(addr)-1]
	replacement := byte('2')
	if last == '2' {
		replacement = '3'
	}
	tampered := addr[:len(addr)-1] + string(replacement)
	assert.Error(t, Validate(tampered))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(" abc", "abc "))
	assert.False(t, Equal("abc", "ABC"))
}
