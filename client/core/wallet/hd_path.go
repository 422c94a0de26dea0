package wallet

import (
	"fmt"
	"strconv"
	"strings"
)

// BIP44 相关常量
const (
	// BIP44Purpose BIP44 标准的 purpose 值
	BIP44Purpose uint32 = 44

	// DefaultCoinType 账本在 SLIP-0044 中登记的币种类型
	DefaultCoinType uint32 = 283

	// HardenedOffset 硬化派生偏移量
	HardenedOffset uint32 = 0x80000000

	ExternalChain uint32 = 0
	InternalChain uint32 = 1
)

// DerivationPath BIP44 派生路径 m/purpose'/coin'/account'/change/index
type DerivationPath struct {
	Purpose      uint32 `json:"purpose"`
	CoinType     uint32 `json:"coin_type"`
	Account      uint32 `json:"account"`
	Change       uint32 `json:"change"`
	AddressIndex uint32 `json:"address_index"`
}

// DefaultDerivationPath m/44'/283'/0'/0/0
func DefaultDerivationPath() *DerivationPath {
	return NewDerivationPath(0, ExternalChain, 0)
}

// NewDerivationPath 创建默认币种下的派生路径
func NewDerivationPath(account, change, addressIndex uint32) *DerivationPath {
	return &DerivationPath{
		Purpose:      BIP44Purpose,
		CoinType:     DefaultCoinType,
		Account:      account,
		Change:       change,
		AddressIndex: addressIndex,
	}
}

// ParseDerivationPath 解析派生路径字符串
// 支持格式: m/44'/283'/0'/0/0 或 44'/283'/0'/0/0，硬化标记可写作 ' h H
func ParseDerivationPath(path string) (*DerivationPath, error) {
	path = strings.TrimPrefix(strings.TrimSpace(path), "m/")
	path = strings.TrimPrefix(path, "M/")

	parts := strings.Split(path, "/")
	if len(parts) != 5 {
		return nil, fmt.Errorf("invalid derivation path: expected 5 components, got %d", len(parts))
	}

	dp := &DerivationPath{}
	var err error

	if dp.Purpose, err = parsePathComponent(parts[0], true); err != nil {
		return nil, fmt.Errorf("invalid purpose: %w", err)
	}
	if dp.Purpose != BIP44Purpose {
		return nil, fmt.Errorf("invalid purpose: expected %d (BIP44), got %d", BIP44Purpose, dp.Purpose)
	}
	if dp.CoinType, err = parsePathComponent(parts[1], true); err != nil {
		return nil, fmt.Errorf("invalid coin type: %w", err)
	}
	if dp.Account, err = parsePathComponent(parts[2], true); err != nil {
		return nil, fmt.Errorf("invalid account: %w", err)
	}
	if dp.Change, err = parsePathComponent(parts[3], false); err != nil {
		return nil, fmt.Errorf("invalid change: %w", err)
	}
	if dp.Change > InternalChain {
		return nil, fmt.Errorf("invalid change: expected 0 or 1, got %d", dp.Change)
	}
	if dp.AddressIndex, err = parsePathComponent(parts[4], false); err != nil {
		return nil, fmt.Errorf("invalid address index: %w", err)
	}
	return dp, nil
}

func parsePathComponent(component string, requireHardened bool) (uint32, error) {
	hardened := strings.HasSuffix(component, "'") || strings.HasSuffix(component, "H") || strings.HasSuffix(component, "h")
	if requireHardened && !hardened {
		return 0, fmt.Errorf("hardened derivation required for %s", component)
	}
	if !requireHardened && hardened {
		return 0, fmt.Errorf("unexpected hardened component %s", component)
	}
	component = strings.TrimRight(component, "'hH")

	value, err := strconv.ParseUint(component, 10, 31)
	if err != nil {
		return 0, fmt.Errorf("invalid number: %s", component)
	}
	return uint32(value), nil
}

// String 返回路径字符串表示
func (dp *DerivationPath) String() string {
	return fmt.Sprintf("m/%d'/%d'/%d'/%d/%d",
		dp.Purpose, dp.CoinType, dp.Account, dp.Change, dp.AddressIndex)
}

// ToUint32Array 转换为 hdkeychain 的索引序列，前三级硬化
func (dp *DerivationPath) ToUint32Array() []uint32 {
	return []uint32{
		dp.Purpose + HardenedOffset,
		dp.CoinType + HardenedOffset,
		dp.Account + HardenedOffset,
		dp.Change,
		dp.AddressIndex,
	}
}

// WithAddressIndex 返回使用指定地址索引的新路径
func (dp *DerivationPath) WithAddressIndex(index uint32) *DerivationPath {
	next := *dp
	next.AddressIndex = index
	return &next
}
