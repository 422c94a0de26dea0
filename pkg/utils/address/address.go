// Package address 账户与合约地址的推导和校验
//
// 地址格式：Base58Check(version || Hash160(payload))
//   - 用户账户：payload 为 33 字节压缩 secp256k1 公钥
//   - 合约账户：payload 为 "appID" || 大端 uint64 合约 ID
package address

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/base58"

	"github.com/weisyn/bounty/pkg/types"
)

const (
	// AccountVersion 用户账户地址版本字节
	AccountVersion byte = 0x1C
	// ApplicationVersion 合约托管账户地址版本字节
	ApplicationVersion byte = 0x9C
	// HashLength 地址哈希长度（20字节）
	HashLength = 20
	// CompressedPublicKeyLength 压缩公钥长度（33字节）
	CompressedPublicKeyLength = 33
)

var (
	// ErrInvalidPublicKey 无效的公钥
	ErrInvalidPublicKey = errors.New("invalid public key format")
	// ErrInvalidAddress 无效的地址格式
	ErrInvalidAddress = errors.New("invalid address format")
	// ErrInvalidChecksum 校验和错误
	ErrInvalidChecksum = errors.New("invalid checksum")
)

// FromPublicKey 从压缩公钥生成账户地址
func FromPublicKey(publicKey []byte) (string, error) {
	if len(publicKey) != CompressedPublicKeyLength {
		return "", fmt.Errorf("%w: expected %d bytes, got %d",
			ErrInvalidPublicKey, CompressedPublicKeyLength, len(publicKey))
	}
	return base58.CheckEncode(btcutil.Hash160(publicKey), AccountVersion), nil
}

// ApplicationAddress 合约托管账户地址，奖励资金存放在这里
func ApplicationAddress(id types.ContractID) string {
	payload := make([]byte, 0, 5+8)
	payload = append(payload, "appID"...)
	payload = binary.BigEndian.AppendUint64(payload, uint64(id))
	return base58.CheckEncode(btcutil.Hash160(payload), ApplicationVersion)
}

// Validate 校验地址格式（Base58Check、版本字节、哈希长度）
func Validate(addr string) error {
	if strings.TrimSpace(addr) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidAddress)
	}
	hash, version, err := base58.CheckDecode(addr)
	if err != nil {
		if errors.Is(err, base58.ErrChecksum) {
			return ErrInvalidChecksum
		}
		return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if version != AccountVersion && version != ApplicationVersion {
		return fmt.Errorf("%w: unknown version 0x%02x", ErrInvalidAddress, version)
	}
	if len(hash) != HashLength {
		return fmt.Errorf("%w: hash length %d", ErrInvalidAddress, len(hash))
	}
	return nil
}

// Equal 地址比较（忽略首尾空白）
//
// Base58 区分大小写，这里不做大小写折叠；创建者筛选这类展示层场景
// 使用 strings.EqualFold 单独处理。
func Equal(a, b string) bool {
	return strings.TrimSpace(a) == strings.TrimSpace(b)
}
