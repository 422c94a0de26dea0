// Package storage 提供键值存储与内存缓存接口定义
//
// KVStore 由 Badger（本地持久化）与 Redis（共享部署）实现，
// MemoryStore 由 BigCache 实现，仅用于可丢失的提示数据。
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrClosed 存储已关闭
var ErrClosed = errors.New("storage closed")

// KVStore 持久化键值存储
type KVStore interface {
	// Get 获取指定键的值，键不存在时返回 nil, nil
	Get(ctx context.Context, key []byte) ([]byte, error)

	// Set 设置键值对，已存在时覆盖
	Set(ctx context.Context, key, value []byte) error

	// Delete 删除键，键不存在时不返回错误
	Delete(ctx context.Context, key []byte) error

	// Exists 检查键是否存在
	Exists(ctx context.Context, key []byte) (bool, error)

	// PrefixScan 按前缀扫描，返回 map 的键为键的字符串表示
	PrefixScan(ctx context.Context, prefix []byte) (map[string][]byte, error)

	// RunInTransaction 在事务中执行操作，fn 返回错误时回滚
	RunInTransaction(ctx context.Context, fn func(tx KVTransaction) error) error

	// Close 关闭存储
	Close() error
}

// KVTransaction 事务内可执行的操作
type KVTransaction interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	PrefixScan(prefix []byte) (map[string][]byte, error)
}

// MemoryStore 带 TTL 的内存缓存
type MemoryStore interface {
	// Get 获取缓存值，返回值、是否存在及可能的错误
	Get(ctx context.Context, key string) (value []byte, exists bool, err error)

	// Set 设置缓存值，ttl 为 0 时使用缓存默认生命周期
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete 删除指定键的缓存
	Delete(ctx context.Context, key string) error

	// Clear 清空所有缓存
	Clear(ctx context.Context) error

	// Count 返回当前条目数
	Count(ctx context.Context) (int64, error)

	// Close 关闭缓存并释放资源
	Close() error
}
