package redis

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"

	interfaces "github.com/weisyn/bounty/pkg/interfaces/infrastructure/storage"
)

// transaction 缓冲写入的事务视图
//
// writes 中 nil 值表示删除；事务内读取优先返回缓冲中的写入。
type transaction struct {
	ctx    context.Context
	store  *Store
	rtx    *redis.Tx
	writes map[string]*[]byte
}

var _ interfaces.KVTransaction = (*transaction)(nil)

func (t *transaction) Get(key []byte) ([]byte, error) {
	full := t.store.fullKey(key)
	if v, ok := t.writes[full]; ok {
		if v == nil {
			return nil, nil
		}
		return *v, nil
	}
	if err := t.rtx.Watch(t.ctx, full).Err(); err != nil {
		return nil, err
	}
	val, err := t.rtx.Get(t.ctx, full).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

func (t *transaction) Set(key, value []byte) error {
	v := append([]byte(nil), value...)
	t.writes[t.store.fullKey(key)] = &v
	return nil
}

func (t *transaction) Delete(key []byte) error {
	t.writes[t.store.fullKey(key)] = nil
	return nil
}

func (t *transaction) PrefixScan(prefix []byte) (map[string][]byte, error) {
	keys, err := t.store.scanKeys(t.ctx, t.rtx, prefix)
	if err != nil {
		return nil, err
	}
	if len(keys) > 0 {
		if err := t.rtx.Watch(t.ctx, keys...).Err(); err != nil {
			return nil, err
		}
	}
	result, err := t.store.mget(t.ctx, t.rtx, keys)
	if err != nil {
		return nil, err
	}

	// 叠加事务内的写入
	full := t.store.fullKey(prefix)
	for k, v := range t.writes {
		if !strings.HasPrefix(k, full) {
			continue
		}
		if v == nil {
			delete(result, t.store.trimKey(k))
		} else {
			result[t.store.trimKey(k)] = *v
		}
	}
	return result, nil
}

func (t *transaction) commit() error {
	if len(t.writes) == 0 {
		return nil
	}
	_, err := t.rtx.TxPipelined(t.ctx, func(pipe redis.Pipeliner) error {
		for k, v := range t.writes {
			if v == nil {
				pipe.Del(t.ctx, k)
			} else {
				pipe.Set(t.ctx, k, *v, 0)
			}
		}
		return nil
	})
	return err
}
