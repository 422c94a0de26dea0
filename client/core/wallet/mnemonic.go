package wallet

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/tyler-smith/go-bip39"
)

// MnemonicStrength 助记词强度（熵的位数）
type MnemonicStrength int

const (
	Mnemonic12Words MnemonicStrength = 128
	Mnemonic24Words MnemonicStrength = 256
)

// ErrInvalidMnemonic 助记词格式或校验和错误
var ErrInvalidMnemonic = errors.New("invalid mnemonic")

// GenerateMnemonic 生成助记词，只支持 12 词和 24 词
func GenerateMnemonic(strength MnemonicStrength) (string, error) {
	switch strength {
	case Mnemonic12Words, Mnemonic24Words:
	default:
		return "", fmt.Errorf("invalid mnemonic strength: %d, must be 128 or 256", strength)
	}

	entropy := make([]byte, int(strength)/8)
	if _, err := rand.Read(entropy); err != nil {
		return "", fmt.Errorf("failed to generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("failed to generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// NormalizeMnemonic 去掉多余空白并转小写
func NormalizeMnemonic(mnemonic string) string {
	return strings.ToLower(strings.Join(strings.Fields(mnemonic), " "))
}

// ValidateMnemonic 校验词表和校验和
func ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(NormalizeMnemonic(mnemonic))
}

// DeriveKey 按 BIP39 种子和 BIP44 路径派生私钥
//
// path 为空时使用默认路径。hdkeychain 的网络参数只影响扩展密钥的序列化前缀，
// 不影响派生结果。
func DeriveKey(mnemonic, passphrase, path string) (*KeySigner, error) {
	mnemonic = NormalizeMnemonic(mnemonic)
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}

	dp := DefaultDerivationPath()
	if path != "" {
		var err error
		if dp, err = ParseDerivationPath(path); err != nil {
			return nil, err
		}
	}

	seed := bip39.NewSeed(mnemonic, passphrase)
	key, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("create master key: %w", err)
	}
	for _, index := range dp.ToUint32Array() {
		if key, err = key.Derive(index); err != nil {
			return nil, fmt.Errorf("derive %s: %w", dp, err)
		}
	}
	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("get private key: %w", err)
	}
	return NewKeySigner(priv)
}
