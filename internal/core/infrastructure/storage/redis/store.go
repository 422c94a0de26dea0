// Package redis 提供基于 Redis 的 KVStore 实现
//
// 用于多台机器共享同一份赏金元数据的部署；单机使用 badger 即可。
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/redis/go-redis/v9"

	redisconfig "github.com/weisyn/bounty/internal/config/storage/redis"
	"github.com/weisyn/bounty/pkg/interfaces/infrastructure/log"
	interfaces "github.com/weisyn/bounty/pkg/interfaces/infrastructure/storage"
)

const (
	// scanBatch SCAN 每批返回的键数量提示
	scanBatch = 200
	// maxWatchRetries 乐观事务被其他客户端打断时的最大重试次数
	maxWatchRetries = 3
)

// Store 基于 go-redis 的 KVStore
type Store struct {
	client redis.UniversalClient
	prefix string
	logger log.Logger
	closed atomic.Bool
}

var _ interfaces.KVStore = (*Store)(nil)

// New 连接 Redis 并校验可用性
func New(ctx context.Context, config *redisconfig.Config, logger log.Logger) (*Store, error) {
	opts := config.GetOptions()
	if opts.Addr == "" {
		return nil, errors.New("redis address cannot be empty")
	}
	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: opts.DialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Infof("Redis元数据存储已连接: %s (prefix=%s)", opts.Addr, opts.KeyPrefix)
	return NewWithClient(client, opts.KeyPrefix, logger), nil
}

// NewWithClient 使用已有客户端创建存储
func NewWithClient(client redis.UniversalClient, prefix string, logger log.Logger) *Store {
	return &Store{client: client, prefix: prefix, logger: logger}
}

func (s *Store) fullKey(key []byte) string {
	return s.prefix + string(key)
}

func (s *Store) trimKey(full string) string {
	return strings.TrimPrefix(full, s.prefix)
}

func (s *Store) check() error {
	if s.closed.Load() {
		return interfaces.ErrClosed
	}
	return nil
}

// Get 获取指定键的值，键不存在时返回 nil, nil
func (s *Store) Get(ctx context.Context, key []byte) ([]byte, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	val, err := s.client.Get(ctx, s.fullKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis获取键失败: %w", err)
	}
	return val, nil
}

// Set 设置键值对（不过期）
func (s *Store) Set(ctx context.Context, key, value []byte) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.client.Set(ctx, s.fullKey(key), value, 0).Err()
}

// Delete 删除键
func (s *Store) Delete(ctx context.Context, key []byte) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.client.Del(ctx, s.fullKey(key)).Err()
}

// Exists 检查键是否存在
func (s *Store) Exists(ctx context.Context, key []byte) (bool, error) {
	if err := s.check(); err != nil {
		return false, err
	}
	n, err := s.client.Exists(ctx, s.fullKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis检查键存在性失败: %w", err)
	}
	return n > 0, nil
}

// PrefixScan 按前缀扫描（SCAN + MGET）
func (s *Store) PrefixScan(ctx context.Context, prefix []byte) (map[string][]byte, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	keys, err := s.scanKeys(ctx, s.client, prefix)
	if err != nil {
		return nil, err
	}
	return s.mget(ctx, s.client, keys)
}

func (s *Store) scanKeys(ctx context.Context, c redis.Cmdable, prefix []byte) ([]string, error) {
	pattern := escapeGlob(s.fullKey(prefix)) + "*"
	var keys []string
	iter := c.Scan(ctx, 0, pattern, scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis前缀扫描失败: %w", err)
	}
	return keys, nil
}

func (s *Store) mget(ctx context.Context, c redis.Cmdable, keys []string) (map[string][]byte, error) {
	result := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return result, nil
	}
	values, err := c.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis批量获取失败: %w", err)
	}
	for i, v := range values {
		// 扫描与读取之间被删除的键返回 nil
		if str, ok := v.(string); ok {
			result[s.trimKey(keys[i])] = []byte(str)
		}
	}
	return result, nil
}

// RunInTransaction 乐观事务：读到的键全部 WATCH，写入缓冲后在 MULTI/EXEC 中提交
//
// 其他客户端在此期间修改了被 WATCH 的键时 EXEC 失败，整体重试，fn 因此必须可重入。
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx interfaces.KVTransaction) error) error {
	if err := s.check(); err != nil {
		return err
	}
	for attempt := 1; ; attempt++ {
		err := s.client.Watch(ctx, func(rtx *redis.Tx) error {
			tx := &transaction{ctx: ctx, store: s, rtx: rtx, writes: make(map[string]*[]byte)}
			if err := fn(tx); err != nil {
				return fmt.Errorf("事务执行失败: %w", err)
			}
			return tx.commit()
		})
		if errors.Is(err, redis.TxFailedErr) && attempt < maxWatchRetries {
			s.logger.Debugf("Redis事务被并发修改打断，重试第 %d 次", attempt)
			continue
		}
		return err
	}
}

// Close 关闭连接
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.client.Close()
}

// escapeGlob 转义 SCAN MATCH 模式中的特殊字符
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
