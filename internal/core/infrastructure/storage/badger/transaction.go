package badger

import (
	"errors"
	"fmt"
	"sync/atomic"

	badgerdb "github.com/dgraph-io/badger/v3"

	"github.com/weisyn/bounty/pkg/interfaces/infrastructure/storage"
)

// 确保 Transaction 实现了 storage.KVTransaction 接口
var _ storage.KVTransaction = (*Transaction)(nil)

// TransactionState 定义事务的状态
type TransactionState int32

const (
	// TxActive 表示事务处于活动状态
	TxActive TransactionState = iota
	// TxCommitted 表示事务已提交
	TxCommitted
	// TxDiscarded 表示事务已丢弃
	TxDiscarded
)

var errTxClosed = errors.New("事务已关闭")

// Transaction 实现KVTransaction接口
type Transaction struct {
	txn   *badgerdb.Txn
	state int32 // 使用atomic操作管理状态
}

func newTransaction(txn *badgerdb.Txn) *Transaction {
	return &Transaction{txn: txn, state: int32(TxActive)}
}

// Get 获取指定键的值，键不存在时返回 nil, nil
func (t *Transaction) Get(key []byte) ([]byte, error) {
	if !t.IsActive() {
		return nil, errTxClosed
	}
	item, err := t.txn.Get(key)
	if err != nil {
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil, fmt.Errorf("复制键值失败: %w", err)
	}
	return val, nil
}

// Set 设置键值对
func (t *Transaction) Set(key, value []byte) error {
	if !t.IsActive() {
		return errTxClosed
	}
	return t.txn.Set(key, value)
}

// Delete 删除键
func (t *Transaction) Delete(key []byte) error {
	if !t.IsActive() {
		return errTxClosed
	}
	return t.txn.Delete(key)
}

// PrefixScan 事务内按前缀扫描
func (t *Transaction) PrefixScan(prefix []byte) (map[string][]byte, error) {
	if !t.IsActive() {
		return nil, errTxClosed
	}
	return scanPrefix(t.txn, prefix)
}

// Commit 提交事务
func (t *Transaction) Commit() error {
	if !atomic.CompareAndSwapInt32(&t.state, int32(TxActive), int32(TxCommitted)) {
		return errTxClosed
	}
	return t.txn.Commit()
}

// Discard 丢弃事务，已提交或已丢弃时无操作
func (t *Transaction) Discard() {
	if atomic.CompareAndSwapInt32(&t.state, int32(TxActive), int32(TxDiscarded)) {
		t.txn.Discard()
	}
}

// IsActive 事务是否仍处于活动状态
func (t *Transaction) IsActive() bool {
	return TransactionState(atomic.LoadInt32(&t.state)) == TxActive
}
