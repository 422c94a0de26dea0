package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	badgerconfig "github.com/weisyn/bounty/internal/config/storage/badger"
	"github.com/weisyn/bounty/internal/core/infrastructure/log"
	interfaces "github.com/weisyn/bounty/pkg/interfaces/infrastructure/storage"
)

// setupTestStore 打开一个内存模式的存储
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(badgerconfig.NewInMemory(), log.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_BasicOperations(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	key := []byte("bounty/meta/1")

	val, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, val, "不存在的键返回 nil")

	require.NoError(t, store.Set(ctx, key, []byte("v1")))

	val, err = store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), val)

	exists, err := store.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.Delete(ctx, key))
	exists, err = store.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	// 删除不存在的键不报错
	require.NoError(t, store.Delete(ctx, []byte("missing")))
}

func TestStore_PrefixScan(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, []byte("a/1"), []byte("1")))
	require.NoError(t, store.Set(ctx, []byte("a/2"), []byte("2")))
	require.NoError(t, store.Set(ctx, []byte("b/1"), []byte("3")))

	result, err := store.PrefixScan(ctx, []byte("a/"))
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"a/1": []byte("1"), "a/2": []byte("2")}, result)
}

func TestStore_RunInTransaction(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.RunInTransaction(ctx, func(tx interfaces.KVTransaction) error {
		if err := tx.Set([]byte("k1"), []byte("v1")); err != nil {
			return err
		}
		got, err := tx.Get([]byte("k1"))
		if err != nil {
			return err
		}
		assert.Equal(t, []byte("v1"), got, "事务内可读到自己的写入")
		return tx.Set([]byte("k2"), []byte("v2"))
	})
	require.NoError(t, err)

	scan, err := store.PrefixScan(ctx, []byte("k"))
	require.NoError(t, err)
	assert.Len(t, scan, 2)
}

func TestStore_RunInTransaction_Rollback(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.RunInTransaction(ctx, func(tx interfaces.KVTransaction) error {
		require.NoError(t, tx.Set([]byte("k1"), []byte("v1")))
		return boom
	})
	require.ErrorIs(t, err, boom)

	val, err := store.Get(ctx, []byte("k1"))
	require.NoError(t, err)
	assert.Nil(t, val, "失败的事务不应留下写入")
}

func TestStore_ClosedRejectsOperations(t *testing.T) {
	store, err := New(badgerconfig.NewInMemory(), log.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close(), "重复关闭无副作用")

	ctx := context.Background()
	assert.ErrorIs(t, store.Set(ctx, []byte("k"), []byte("v")), interfaces.ErrClosed)
	_, err = store.Get(ctx, []byte("k"))
	assert.ErrorIs(t, err, interfaces.ErrClosed)
	assert.ErrorIs(t, store.RunInTransaction(ctx, func(interfaces.KVTransaction) error { return nil }), interfaces.ErrClosed)
}

func TestStore_OnDisk(t *testing.T) {
	dir := t.TempDir()
	cfg := badgerconfig.NewFromOptions(&badgerconfig.BadgerOptions{
		Path:         dir,
		SyncWrites:   true,
		MemTableSize: 1 << 20,
	})
	ctx := context.Background()

	store, err := New(cfg, log.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, []byte("persist"), []byte("yes")))
	require.NoError(t, store.Close())

	reopened, err := New(cfg, log.NewNop())
	require.NoError(t, err)
	defer reopened.Close()

	val, err := reopened.Get(ctx, []byte("persist"))
	require.NoError(t, err)
	assert.Equal(t, []byte("yes"), val)
}
