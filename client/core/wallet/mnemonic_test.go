package wallet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestGenerateMnemonic(t *testing.T) {
	for strength, words := range map[MnemonicStrength]int{Mnemonic12Words: 12, Mnemonic24Words: 24} {
		m, err := GenerateMnemonic(strength)
		require.NoError(t, err)
		assert.Len(t, strings.Fields(m), words)
		assert.True(t, ValidateMnemonic(m))
	}

	_, err := GenerateMnemonic(MnemonicStrength(100))
	assert.Error(t, err)
}

func TestValidateMnemonic(t *testing.T) {
	assert.True(t, ValidateMnemonic(testMnemonic))
	assert.True(t, ValidateMnemonic("  ABANDON abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon   about "))
	assert.False(t, ValidateMnemonic(""))
	assert.False(t, ValidateMnemonic("abandon abandon abandon"))
	// 校验和错误
	assert.False(t, ValidateMnemonic(strings.Replace(testMnemonic, "about", "abandon", 1)))
}

func TestDeriveKey(t *testing.T) {
	a, err := DeriveKey(testMnemonic, "", "")
	require.NoError(t, err)
	b, err := DeriveKey(testMnemonic, "", DefaultDerivationPath().String())
	require.NoError(t, err)
	assert.Equal(t, a.Address(), b.Address(), "空路径即默认路径")

	next, err := DeriveKey(testMnemonic, "", DefaultDerivationPath().WithAddressIndex(1).String())
	require.NoError(t, err)
	assert.NotEqual(t, a.Address(), next.Address())

	withPass, err := DeriveKey(testMnemonic, "secret", "")
	require.NoError(t, err)
	assert.NotEqual(t, a.Address(), withPass.Address())

	_, err = DeriveKey("not a mnemonic", "", "")
	assert.ErrorIs(t, err, ErrInvalidMnemonic)
	_, err = DeriveKey(testMnemonic, "", "m/44'/283'")
	assert.Error(t, err)
}

func TestParseDerivationPath(t *testing.T) {
	tests := []struct {
		path    string
		want    *DerivationPath
		wantErr bool
	}{
		{"m/44'/283'/0'/0/0", DefaultDerivationPath(), false},
		{"44'/283'/0'/0/0", DefaultDerivationPath(), false},
		{"m/44h/283H/2'/1/7", NewDerivationPath(2, InternalChain, 7), false},
		{"m/44'/283'/0'/0", nil, true},
		{"m/49'/283'/0'/0/0", nil, true},
		{"m/44/283'/0'/0/0", nil, true},
		{"m/44'/283'/0'/2/0", nil, true},
		{"m/44'/283'/0'/0'/0", nil, true},
		{"m/44'/283'/x'/0/0", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := ParseDerivationPath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, "m/44'/283'/0'/0/0", DefaultDerivationPath().String())
	assert.Equal(t, []uint32{44 + HardenedOffset, 283 + HardenedOffset, HardenedOffset, 0, 3},
		DefaultDerivationPath().WithAddressIndex(3).ToUint32Array())
}
