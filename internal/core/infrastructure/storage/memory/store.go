// Package memory 提供基于BigCache的内存缓存实现
package memory

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/allegro/bigcache/v3"

	memoryconfig "github.com/weisyn/bounty/internal/config/storage/memory"
	"github.com/weisyn/bounty/pkg/interfaces/infrastructure/log"
	storage "github.com/weisyn/bounty/pkg/interfaces/infrastructure/storage"
)

// expiryHeaderLen 值前缀：8字节过期时间（UnixNano，小端），0 表示使用缓存默认生命周期
const expiryHeaderLen = 8

// Store 实现了MemoryStore接口，基于BigCache提供内存缓存功能
//
// BigCache 只有全局生命周期窗口，单条目 TTL 通过值前缀的过期时间实现，
// 读取时发现过期即删除。
type Store struct {
	cache  *bigcache.BigCache
	logger log.Logger
	config *memoryconfig.Config
	mutex  sync.RWMutex
	closed bool
	now    func() time.Time
}

var _ storage.MemoryStore = (*Store)(nil)

// New 创建一个新的BigCache内存存储实例
func New(config *memoryconfig.Config, logger log.Logger) (*Store, error) {
	bigCacheConfig := bigcache.DefaultConfig(config.GetLifeWindow())
	bigCacheConfig.CleanWindow = config.GetCleanWindow()
	bigCacheConfig.MaxEntriesInWindow = config.GetMaxEntriesInWindow()
	bigCacheConfig.MaxEntrySize = config.GetMaxEntrySize()
	bigCacheConfig.Shards = config.GetShards()
	bigCacheConfig.HardMaxCacheSize = config.GetHardMaxCacheSizeMB()
	bigCacheConfig.Verbose = false

	cache, err := bigcache.New(context.Background(), bigCacheConfig)
	if err != nil {
		return nil, fmt.Errorf("创建BigCache实例失败: %w", err)
	}

	return &Store{
		cache:  cache,
		logger: logger,
		config: config,
		now:    time.Now,
	}, nil
}

// Close 关闭缓存并释放资源
func (s *Store) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.cache.Close()
}

// Get 获取缓存值
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mutex.RLock()
	if s.closed {
		s.mutex.RUnlock()
		return nil, false, storage.ErrClosed
	}
	raw, err := s.cache.Get(key)
	s.mutex.RUnlock()

	if err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			return nil, false, nil
		}
		s.logger.Warnf("获取缓存键[%s]失败: %v", key, err)
		return nil, false, err
	}
	if len(raw) < expiryHeaderLen {
		// 非本实现写入的数据，按不存在处理
		return nil, false, nil
	}

	expiresAt := int64(binary.LittleEndian.Uint64(raw[:expiryHeaderLen]))
	if expiresAt != 0 && s.now().UnixNano() > expiresAt {
		_ = s.Delete(ctx, key)
		return nil, false, nil
	}

	value := make([]byte, len(raw)-expiryHeaderLen)
	copy(value, raw[expiryHeaderLen:])
	return value, true, nil
}

// Set 设置缓存值，可指定过期时间
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = s.now().Add(ttl).UnixNano()
	}

	entry := make([]byte, expiryHeaderLen+len(value))
	binary.LittleEndian.PutUint64(entry[:expiryHeaderLen], uint64(expiresAt))
	copy(entry[expiryHeaderLen:], value)

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.closed {
		return storage.ErrClosed
	}
	if err := s.cache.Set(key, entry); err != nil {
		s.logger.Warnf("设置缓存键[%s]失败: %v", key, err)
		return err
	}
	return nil
}

// Delete 删除指定键的缓存
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.closed {
		return storage.ErrClosed
	}
	if err := s.cache.Delete(key); err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		s.logger.Warnf("删除缓存键[%s]失败: %v", key, err)
		return err
	}
	return nil
}

// Clear 清空所有缓存
func (s *Store) Clear(ctx context.Context) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.closed {
		return storage.ErrClosed
	}
	return s.cache.Reset()
}

// Count 获取当前缓存中的条目数量（含尚未清理的过期条目）
func (s *Store) Count(ctx context.Context) (int64, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.closed {
		return 0, storage.ErrClosed
	}
	return int64(s.cache.Len()), nil
}
