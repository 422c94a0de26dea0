// Package badger 提供基于BadgerDB的存储实现
package badger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	badgerdb "github.com/dgraph-io/badger/v3"

	badgerconfig "github.com/weisyn/bounty/internal/config/storage/badger"
	"github.com/weisyn/bounty/pkg/interfaces/infrastructure/log"
	interfaces "github.com/weisyn/bounty/pkg/interfaces/infrastructure/storage"
)

// maxConflictRetries 事务写冲突时的最大重试次数
const maxConflictRetries = 3

// Store 实现KVStore接口
type Store struct {
	db         *badgerdb.DB
	config     *badgerconfig.Config
	logger     log.Logger
	cancelFunc context.CancelFunc // 用于取消后台任务的函数

	// 避免 Close 过程中仍被写入
	closing int32
	writeWg sync.WaitGroup
}

var _ interfaces.KVStore = (*Store)(nil)

// New 创建新的BadgerStore实例
// 初始化数据库并启动维护任务
func New(config *badgerconfig.Config, logger log.Logger) (*Store, error) {
	var opts badgerdb.Options
	if config.IsInMemory() {
		opts = badgerdb.DefaultOptions("").WithInMemory(true)
	} else {
		dataDir := config.GetPath()
		if dataDir == "" {
			return nil, errors.New("badger数据目录未配置")
		}
		if err := os.MkdirAll(dataDir, 0700); err != nil {
			return nil, fmt.Errorf("无法创建BadgerDB数据目录: %w", err)
		}
		logger.Infof("初始化BadgerDB存储，数据目录: %s", dataDir)
		opts = badgerdb.DefaultOptions(dataDir)
		opts.SyncWrites = config.IsSyncWritesEnabled()
	}

	opts.MemTableSize = config.GetMemTableSize()
	// ValueThreshold 不能超过 MemTableSize 的 15%（badger 的批量上限）
	opts.ValueThreshold = 64 << 10
	// 元数据量很小，缩小 value log 与缓存占用
	opts.ValueLogFileSize = 64 << 20
	opts.BlockCacheSize = 8 << 20
	opts.IndexCacheSize = 8 << 20
	opts.NumMemtables = 2
	opts.NumCompactors = 2
	opts.Logger = &badgerLogger{logger: logger}

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("无法打开BadgerDB: %w", err)
	}

	store := &Store{
		db:     db,
		config: config,
		logger: logger,
	}

	ctx, cancel := context.WithCancel(context.Background())
	store.cancelFunc = cancel
	if config.IsAutoCompactionEnabled() && !config.IsInMemory() {
		store.StartMaintenanceRoutines(ctx)
	}

	return store, nil
}

// Close 关闭存储并释放资源
func (s *Store) Close() error {
	// 进入关闭态：阻断后续写入，并等待 in-flight 写完成
	if !atomic.CompareAndSwapInt32(&s.closing, 0, 1) {
		return nil
	}
	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.writeWg.Wait()

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("关闭BadgerDB失败: %w", err)
	}
	s.logger.Debug("BadgerDB存储已关闭")
	return nil
}

func (s *Store) beginWrite() (func(), error) {
	if atomic.LoadInt32(&s.closing) == 1 {
		return nil, interfaces.ErrClosed
	}
	s.writeWg.Add(1)
	// double-check，避免在 Add 之后进入 closing
	if atomic.LoadInt32(&s.closing) == 1 {
		s.writeWg.Done()
		return nil, interfaces.ErrClosed
	}
	return s.writeWg.Done, nil
}

func (s *Store) checkRead(ctx context.Context) error {
	if atomic.LoadInt32(&s.closing) == 1 {
		return interfaces.ErrClosed
	}
	return ctx.Err()
}

// Get 获取指定键的值
func (s *Store) Get(ctx context.Context, key []byte) ([]byte, error) {
	if err := s.checkRead(ctx); err != nil {
		return nil, err
	}
	var valCopy []byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			if errors.Is(err, badgerdb.ErrKeyNotFound) {
				return nil // 键不存在时返回nil值和nil错误
			}
			return err
		}
		valCopy, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("badger获取键失败: %w", err)
	}
	return valCopy, nil
}

// Set 设置键值对
func (s *Store) Set(ctx context.Context, key, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done, err := s.beginWrite()
	if err != nil {
		return err
	}
	defer done()
	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(key, value)
	})
}

// Delete 删除指定键的值
func (s *Store) Delete(ctx context.Context, key []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done, err := s.beginWrite()
	if err != nil {
		return err
	}
	defer done()
	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete(key)
	})
}

// Exists 检查键是否存在
func (s *Store) Exists(ctx context.Context, key []byte) (bool, error) {
	if err := s.checkRead(ctx); err != nil {
		return false, err
	}
	var exists bool
	err := s.db.View(func(txn *badgerdb.Txn) error {
		_, err := txn.Get(key)
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		exists = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("badger检查键存在性失败: %w", err)
	}
	return exists, nil
}

// PrefixScan 按前缀扫描键值对
func (s *Store) PrefixScan(ctx context.Context, prefix []byte) (map[string][]byte, error) {
	if err := s.checkRead(ctx); err != nil {
		return nil, err
	}
	var result map[string][]byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		var err error
		result, err = scanPrefix(txn, prefix)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("badger前缀扫描失败: %w", err)
	}
	return result, nil
}

func scanPrefix(txn *badgerdb.Txn, prefix []byte) (map[string][]byte, error) {
	result := make(map[string][]byte)
	opts := badgerdb.DefaultIteratorOptions
	opts.PrefetchValues = true
	opts.Prefix = prefix

	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		valCopy, err := item.ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		result[string(item.KeyCopy(nil))] = valCopy
	}
	return result, nil
}

// RunInTransaction 在事务中执行操作
//
// fn 返回错误时事务丢弃；提交遇到写冲突（并发事务读写了相同的键）时整体重试，
// fn 因此必须可重入。
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx interfaces.KVTransaction) error) error {
	done, err := s.beginWrite()
	if err != nil {
		return err
	}
	defer done()

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.runOnce(fn)
		if errors.Is(err, badgerdb.ErrConflict) && attempt < maxConflictRetries {
			s.logger.Debugf("事务写冲突，重试第 %d 次", attempt)
			continue
		}
		return err
	}
}

func (s *Store) runOnce(fn func(tx interfaces.KVTransaction) error) error {
	tx := newTransaction(s.db.NewTransaction(true))
	defer tx.Discard()

	if err := fn(tx); err != nil {
		return fmt.Errorf("事务执行失败: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("事务提交失败: %w", err)
	}
	return nil
}

// badgerLogger BadgerDB日志适配器
type badgerLogger struct {
	logger log.Logger
}

// Errorf 输出错误日志
func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Errorf("[BadgerDB] "+format, args...)
}

// Warningf 输出警告日志
func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warnf("[BadgerDB] "+format, args...)
}

// Infof BadgerDB 的 info 日志非常多，降为 debug
func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debugf("[BadgerDB] "+format, args...)
}

// Debugf 输出调试日志
func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debugf("[BadgerDB] "+format, args...)
}
