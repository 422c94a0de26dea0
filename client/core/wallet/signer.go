// Package wallet 本地钱包：密钥管理与交易签名
//
// 签名算法为 secp256k1 ECDSA，签名对象是 builder.SigningBytes 的 SHA-256 摘要，
// 签名以 DER 编码返回；地址由压缩公钥推导。
package wallet

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"github.com/weisyn/bounty/client/core/builder"
	bountyInterface "github.com/weisyn/bounty/pkg/interfaces/bounty"
	"github.com/weisyn/bounty/pkg/types"
	"github.com/weisyn/bounty/pkg/utils/address"
)

// PublicKeyProvider 能提供公钥的签名器，网关据此填充已签名交易的公钥字段
type PublicKeyProvider interface {
	PublicKey() []byte
}

// KeySigner 持有单个私钥的签名器
type KeySigner struct {
	key     *btcec.PrivateKey
	address string
}

var (
	_ bountyInterface.Signer = (*KeySigner)(nil)
	_ PublicKeyProvider      = (*KeySigner)(nil)
)

// NewKeySigner 从私钥创建签名器
func NewKeySigner(key *btcec.PrivateKey) (*KeySigner, error) {
	if key == nil {
		return nil, errors.New("private key is required")
	}
	addr, err := address.FromPublicKey(key.PubKey().SerializeCompressed())
	if err != nil {
		return nil, fmt.Errorf("derive address: %w", err)
	}
	return &KeySigner{key: key, address: addr}, nil
}

// NewKeySignerFromBytes 从 32 字节私钥创建签名器
func NewKeySignerFromBytes(raw []byte) (*KeySigner, error) {
	if len(raw) != 32 {
		return nil, fmt.Errorf("invalid private key length: expected 32 bytes, got %d", len(raw))
	}
	key, _ := btcec.PrivKeyFromBytes(raw)
	return NewKeySigner(key)
}

// GenerateKeySigner 随机生成新密钥
func GenerateKeySigner() (*KeySigner, error) {
	key, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return NewKeySigner(key)
}

// Address 实现 Signer
func (s *KeySigner) Address() string {
	return s.address
}

// PublicKey 压缩公钥
func (s *KeySigner) PublicKey() []byte {
	return s.key.PubKey().SerializeCompressed()
}

// PrivateKeyBytes 32 字节私钥，仅用于写入 keystore
func (s *KeySigner) PrivateKeyBytes() []byte {
	return s.key.Serialize()
}

// SignTransactions 实现 Signer
//
// 只签发送方为本地址的交易，其他索引返回错误而不是静默跳过。
func (s *KeySigner) SignTransactions(ctx context.Context, txns []*types.Transaction, indexes []int) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sigs := make([][]byte, 0, len(indexes))
	for _, idx := range indexes {
		if idx < 0 || idx >= len(txns) || txns[idx] == nil {
			return nil, fmt.Errorf("transaction index %d out of range", idx)
		}
		txn := txns[idx]
		if !address.Equal(txn.Sender, s.address) {
			return nil, fmt.Errorf("transaction %d sender %s does not match signer %s", idx, txn.Sender, s.address)
		}
		digest, err := digestOf(txn)
		if err != nil {
			return nil, err
		}
		sigs = append(sigs, ecdsa.Sign(s.key, digest).Serialize())
	}
	return sigs, nil
}

// Verify 校验交易签名
func Verify(publicKey []byte, txn *types.Transaction, signature []byte) (bool, error) {
	pub, err := btcec.ParsePubKey(publicKey)
	if err != nil {
		return false, fmt.Errorf("parse public key: %w", err)
	}
	sig, err := ecdsa.ParseDERSignature(signature)
	if err != nil {
		return false, fmt.Errorf("parse signature: %w", err)
	}
	digest, err := digestOf(txn)
	if err != nil {
		return false, err
	}
	return sig.Verify(digest, pub), nil
}

func digestOf(txn *types.Transaction) ([]byte, error) {
	payload, err := builder.SigningBytes(txn)
	if err != nil {
		return nil, fmt.Errorf("encode transaction: %w", err)
	}
	sum := sha256.Sum256(payload)
	return sum[:], nil
}
