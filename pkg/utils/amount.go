package utils

import (
	"fmt"
	"math/big"
	"strings"
)

// MicroPerUnit 一个完整代币单位对应的最小计价单位数量（6位小数）
const MicroPerUnit = 1_000_000

// ParseAmount 解析金额字符串为最小计价单位
//
// 支持两种写法：
//   - 纯整数，按最小单位解析（如 "2500000"）
//   - 带小数点，按完整单位解析（如 "2.5" → 2500000）
func ParseAmount(amountStr string) (uint64, error) {
	amountStr = strings.TrimSpace(amountStr)
	if amountStr == "" {
		return 0, fmt.Errorf("金额不能为空")
	}

	if !strings.Contains(amountStr, ".") {
		v, ok := new(big.Int).SetString(amountStr, 10)
		if !ok {
			return 0, fmt.Errorf("金额格式无效: %s", amountStr)
		}
		if v.Sign() < 0 {
			return 0, fmt.Errorf("金额不能为负数: %s", amountStr)
		}
		if !v.IsUint64() {
			return 0, fmt.Errorf("金额超出支持范围: %s", amountStr)
		}
		return v.Uint64(), nil
	}

	// 使用big.Rat进行无损解析
	rat, ok := new(big.Rat).SetString(amountStr)
	if !ok {
		return 0, fmt.Errorf("金额格式无效: %s", amountStr)
	}
	if rat.Sign() < 0 {
		return 0, fmt.Errorf("金额不能为负数: %s", amountStr)
	}

	micro := new(big.Rat).Mul(rat, big.NewRat(MicroPerUnit, 1))
	if !micro.IsInt() {
		return 0, fmt.Errorf("小数精度超出限制（最多6位）: %s", amountStr)
	}
	if !micro.Num().IsUint64() {
		return 0, fmt.Errorf("金额超出支持范围: %s", amountStr)
	}
	return micro.Num().Uint64(), nil
}

// FormatAmount 将最小单位金额格式化为完整单位小数（去除末尾0）
// 例如：2500000 → "2.5"，1000000 → "1.0"
func FormatAmount(micro uint64) string {
	integerPart := micro / MicroPerUnit
	fractionalPart := micro % MicroPerUnit
	if fractionalPart == 0 {
		return fmt.Sprintf("%d.0", integerPart)
	}
	fractionalStr := strings.TrimRight(fmt.Sprintf("%06d", fractionalPart), "0")
	return fmt.Sprintf("%d.%s", integerPart, fractionalStr)
}

// AddUint64 带溢出检查的加法
func AddUint64(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, fmt.Errorf("金额相加溢出: %d + %d", a, b)
	}
	return sum, nil
}

// MulUint64 带溢出检查的乘法
func MulUint64(a, b uint64) (uint64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	product := a * b
	if product/b != a {
		return 0, fmt.Errorf("金额相乘溢出: %d * %d", a, b)
	}
	return product, nil
}
