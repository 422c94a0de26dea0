package metastore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	badgerconfig "github.com/weisyn/bounty/internal/config/storage/badger"
	"github.com/weisyn/bounty/internal/core/infrastructure/log"
	"github.com/weisyn/bounty/internal/core/infrastructure/storage/badger"
	bountyInterface "github.com/weisyn/bounty/pkg/interfaces/bounty"
	"github.com/weisyn/bounty/pkg/types"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func setupStore(t *testing.T) *Store {
	t.Helper()
	kv, err := badger.New(badgerconfig.NewInMemory(), log.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	return New(kv, log.NewNop())
}

func TestMetadata_PutGetList(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	older := &types.BountyMetadata{
		ContractID:     7,
		Title:          "Fix login",
		Category:       "frontend",
		Difficulty:     types.DifficultyEasy,
		Reward:         5_000_000,
		CreatorAddress: "CREATOR",
		CreatedAt:      t0,
	}
	newer := &types.BountyMetadata{
		ContractID:     12,
		Title:          "Audit contract",
		Difficulty:     types.DifficultyHard,
		Reward:         9_000_000,
		CreatorAddress: "OTHER",
		CreatedAt:      t0.Add(time.Hour),
	}
	require.NoError(t, store.PutMetadata(ctx, older))
	require.NoError(t, store.PutMetadata(ctx, newer))

	got, err := store.GetMetadata(ctx, 7)
	require.NoError(t, err)
	if diff := cmp.Diff(older, got); diff != "" {
		t.Fatalf("metadata mismatch (-want +got):\n%s", diff)
	}

	list, err := store.ListMetadata(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, types.ContractID(12), list[0].ContractID, "按创建时间倒序")
	assert.Equal(t, types.ContractID(7), list[1].ContractID)

	_, err = store.GetMetadata(ctx, 99)
	assert.True(t, errors.Is(err, bountyInterface.ErrNotFound))

	assert.Error(t, store.PutMetadata(ctx, &types.BountyMetadata{Title: "no id"}))
}

func TestSubmissions_ScopedPerBounty(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	// 1 与 10 的键前缀不能互相匹配
	require.NoError(t, store.PutSubmission(ctx, &types.Submission{ID: "sub-b", BountyID: 1, SubmitterAddress: "W", Content: "second", CreatedAt: t0.Add(time.Minute)}))
	require.NoError(t, store.PutSubmission(ctx, &types.Submission{ID: "sub-a", BountyID: 1, SubmitterAddress: "W", Content: "first", CreatedAt: t0}))
	require.NoError(t, store.PutSubmission(ctx, &types.Submission{ID: "sub-c", BountyID: 10, SubmitterAddress: "X", Content: "other", CreatedAt: t0}))

	subs, err := store.ListSubmissions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "sub-a", subs[0].ID, "按创建时间正序")
	assert.Equal(t, "sub-b", subs[1].ID)
	assert.Equal(t, types.SubmissionPending, subs[0].Status, "默认状态为 pending")

	got, err := store.GetSubmission(ctx, "sub-c")
	require.NoError(t, err)
	assert.Equal(t, types.ContractID(10), got.BountyID)

	_, err = store.GetSubmission(ctx, "sub-missing")
	assert.True(t, errors.Is(err, bountyInterface.ErrNotFound))
}

func TestApproveSubmission_AtMostOneApproved(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for i, id := range []string{"sub-1", "sub-2", "sub-3"} {
		require.NoError(t, store.PutSubmission(ctx, &types.Submission{
			ID:        id,
			BountyID:  3,
			Content:   id,
			CreatedAt: t0.Add(time.Duration(i) * time.Second),
		}))
	}

	approvedCount := func() int {
		subs, err := store.ListSubmissions(ctx, 3)
		require.NoError(t, err)
		n := 0
		for _, s := range subs {
			if s.Status == types.SubmissionApproved {
				n++
			}
		}
		return n
	}

	for _, id := range []string{"sub-1", "sub-3", "sub-2", "sub-2"} {
		sub, err := store.ApproveSubmission(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, sub.ID)
		assert.Equal(t, types.SubmissionApproved, sub.Status)
		assert.Equal(t, 1, approvedCount())
	}

	subs, err := store.ListSubmissions(ctx, 3)
	require.NoError(t, err)
	statuses := map[string]types.SubmissionStatus{}
	for _, s := range subs {
		statuses[s.ID] = s.Status
	}
	want := map[string]types.SubmissionStatus{
		"sub-1": types.SubmissionPending,
		"sub-2": types.SubmissionApproved,
		"sub-3": types.SubmissionPending,
	}
	if diff := cmp.Diff(want, statuses); diff != "" {
		t.Fatalf("statuses mismatch (-want +got):\n%s", diff)
	}
}

func TestRejectSubmission(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutSubmission(ctx, &types.Submission{ID: "sub-1", BountyID: 4, CreatedAt: t0}))

	sub, err := store.RejectSubmission(ctx, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, types.SubmissionRejected, sub.Status)

	got, err := store.GetSubmission(ctx, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, types.SubmissionRejected, got.Status)

	_, err = store.RejectSubmission(ctx, "sub-404")
	assert.True(t, errors.Is(err, bountyInterface.ErrNotFound))

	// 批准会把被拒绝的兄弟记录重置为 pending
	require.NoError(t, store.PutSubmission(ctx, &types.Submission{ID: "sub-2", BountyID: 4, CreatedAt: t0.Add(time.Second)}))
	_, err = store.ApproveSubmission(ctx, "sub-2")
	require.NoError(t, err)
	got, err = store.GetSubmission(ctx, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, types.SubmissionPending, got.Status)
}
