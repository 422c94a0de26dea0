package transport

import (
	"encoding/binary"
	"fmt"
)

// Uint 读取整数类型的全局状态
func (a *Application) Uint(key string) (uint64, error) {
	v, ok := a.Lookup(key)
	if !ok {
		return 0, fmt.Errorf("global state %q missing", key)
	}
	if v.Type != ValueTypeUint {
		return 0, fmt.Errorf("global state %q is not an integer", key)
	}
	return v.Uint, nil
}

// Bytes 读取字节类型的全局状态，不存在时返回 nil
func (a *Application) Bytes(key string) []byte {
	v, ok := a.Lookup(key)
	if !ok || v.Type != ValueTypeBytes {
		return nil
	}
	return v.Bytes
}

// EncodeUint64 合约参数的整数编码（8 字节大端）
func EncodeUint64(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

// DecodeUint64 解码 8 字节大端整数
func DecodeUint64(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("expected 8 bytes, got %d", len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}
