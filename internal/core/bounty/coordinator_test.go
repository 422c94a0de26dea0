package bounty

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	badgerconfig "github.com/weisyn/bounty/internal/config/storage/badger"
	memoryconfig "github.com/weisyn/bounty/internal/config/storage/memory"
	"github.com/weisyn/bounty/internal/core/bounty/bountytest"
	"github.com/weisyn/bounty/internal/core/bounty/metastore"
	"github.com/weisyn/bounty/internal/core/infrastructure/event"
	"github.com/weisyn/bounty/internal/core/infrastructure/log"
	"github.com/weisyn/bounty/internal/core/infrastructure/storage/badger"
	"github.com/weisyn/bounty/internal/core/infrastructure/storage/memory"
	"github.com/weisyn/bounty/pkg/types"
)

const escrow = 5_000_000 // 5 个单位

type harness struct {
	ledger  *bountytest.FakeLedger
	store   *metastore.Store
	bus     *event.EventBus
	metrics *Metrics
	coord   *Coordinator

	creator *bountytest.FakeSigner
	worker  *bountytest.FakeSigner
	other   *bountytest.FakeSigner
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := log.NewNop()

	kv, err := badger.New(badgerconfig.NewInMemory(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	cache, err := memory.New(memoryconfig.New(nil), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	h := &harness{
		ledger:  bountytest.NewFakeLedger(),
		store:   metastore.New(kv, logger),
		bus:     event.New(logger),
		metrics: NewMetrics(prometheus.NewRegistry()),
		creator: bountytest.NewSigner(creator),
		worker:  bountytest.NewSigner(worker),
		other:   bountytest.NewSigner(other),
	}
	t.Cleanup(h.bus.Close)

	seq := 0
	h.coord, err = New(Options{
		Ledger:  h.ledger,
		Store:   h.store,
		Cache:   cache,
		Events:  h.bus,
		Metrics: h.metrics,
		Logger:  logger,
		NewID: func() string {
			seq++
			return fmt.Sprintf("sub-%d", seq)
		},
	})
	require.NoError(t, err)
	return h
}

func (h *harness) seed(t *testing.T) types.ContractID {
	t.Helper()
	return h.ledger.Seed(creator, escrow)
}

func requireReason(t *testing.T, err error, kind Kind, reason Reason) *OperationError {
	t.Helper()
	require.Error(t, err)
	oe, ok := AsOperationError(err)
	require.True(t, ok, "expected OperationError, got %T: %v", err, err)
	assert.Equal(t, kind, oe.Kind, "kind")
	assert.Equal(t, reason, oe.Reason, "reason")
	return oe
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Options{Store: metastore.New(nil, log.NewNop()), Logger: log.NewNop()})
	assert.Error(t, err)
	_, err = New(Options{Ledger: bountytest.NewFakeLedger(), Logger: log.NewNop()})
	assert.Error(t, err)
	_, err = New(Options{Ledger: bountytest.NewFakeLedger(), Store: metastore.New(nil, log.NewNop())})
	assert.Error(t, err)
}

// 创建 -> 认领 -> 提交 -> 批准
func TestScenario_FullLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	created, err := h.coord.CreateBounty(ctx, CreateRequest{
		Title:      "Write docs",
		Category:   "docs",
		Difficulty: types.DifficultyEasy,
		Reward:     escrow,
	}, h.creator)
	require.NoError(t, err)
	require.False(t, created.Cancelled)
	id := created.ContractID
	require.NotZero(t, id)
	assert.Equal(t, types.StatusOpen, created.State.Status)
	assert.Equal(t, creator, created.Metadata.CreatorAddress)

	meta, err := h.store.GetMetadata(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Write docs", meta.Title)

	res, err := h.coord.Claim(ctx, id, h.worker)
	require.NoError(t, err)
	assert.Equal(t, types.StatusClaimed, res.State.Status)
	assert.Equal(t, worker, res.State.Worker)
	assert.NotEmpty(t, res.TxID)

	res, err = h.coord.SubmitWork(ctx, id, h.worker, "link")
	require.NoError(t, err)
	assert.Equal(t, types.StatusSubmitted, res.State.Status)
	require.NotNil(t, res.Submission)

	subs, err := h.coord.Submissions(ctx, id)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, worker, subs[0].SubmitterAddress)
	assert.Equal(t, types.SubmissionPending, subs[0].Status)
	assert.Equal(t, "link", subs[0].Content)

	res, err = h.coord.Approve(ctx, id, h.creator, worker)
	require.NoError(t, err)
	assert.Equal(t, types.StatusApproved, res.State.Status)
	assert.Zero(t, res.State.Amount)
	require.NotNil(t, res.Submission)
	assert.Equal(t, types.SubmissionApproved, res.Submission.Status)

	subs, err = h.coord.Submissions(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, types.SubmissionApproved, subs[0].Status)

	assert.Equal(t, []bountytest.Payout{{ContractID: id, To: worker, Amount: escrow}}, h.ledger.Payouts())

	snap, ok := h.coord.Snapshot(ctx, id)
	require.True(t, ok)
	assert.True(t, snap.Confirmed)
	assert.Empty(t, snap.Pending)
	assert.Equal(t, types.StatusApproved, snap.State.Status)

	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.operations.WithLabelValues("approve", "success")))
}

// 两个认领者竞争，只有一个成功
func TestScenario_ClaimRace(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.seed(t)

	// W1 的交易在 W2 之前上链
	h.ledger.BeforeSubmit = func(call *types.ContractCall) {
		if call.Sender == other {
			require.NoError(t, h.ledger.Apply(id, types.ActionClaim, worker))
		}
	}

	_, err := h.coord.Claim(ctx, id, h.other)
	oe := requireReason(t, err, KindRejected, ReasonAlreadyClaimed)
	require.NotNil(t, oe.Current)
	assert.Equal(t, worker, oe.Current.Worker)
	assert.Equal(t, "bounty already claimed by another worker", oe.Message)

	info, err := h.coord.GetOnChainInfo(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, worker, info.Worker)

	snap, ok := h.coord.Snapshot(ctx, id)
	require.True(t, ok)
	assert.Empty(t, snap.Pending, "失败后不保留在途标记")
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.reconciliations.WithLabelValues("claim", "reread")))
}

func TestSingleClaimant(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.seed(t)

	_, err := h.coord.Claim(ctx, id, h.worker)
	require.NoError(t, err)

	submits := h.ledger.SubmitCount()
	_, err = h.coord.Claim(ctx, id, h.other)
	requireReason(t, err, KindPrecondition, ReasonAlreadyClaimed)
	_, err = h.coord.Claim(ctx, id, h.worker)
	requireReason(t, err, KindPrecondition, ReasonAlreadyClaimedByYou)
	assert.Equal(t, submits, h.ledger.SubmitCount(), "前置校验失败时不提交交易")

	_, err = h.coord.SubmitWork(ctx, id, h.worker, "done")
	require.NoError(t, err)
	_, err = h.coord.Claim(ctx, id, h.other)
	requireReason(t, err, KindPrecondition, ReasonAlreadyClaimed)

	assert.Equal(t, worker, h.ledger.State(id).Worker)
}

// 创建者取消已认领的赏金后，认领者无法提交
func TestScenario_CancelThenSubmit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.seed(t)

	_, err := h.coord.Claim(ctx, id, h.worker)
	require.NoError(t, err)

	res, err := h.coord.Cancel(ctx, id, h.creator)
	require.NoError(t, err)
	assert.Equal(t, types.StatusCancelled, res.State.Status)
	assert.Equal(t, []bountytest.Payout{{ContractID: id, To: creator, Amount: escrow}}, h.ledger.Payouts())

	_, err = h.coord.SubmitWork(ctx, id, h.worker, "late")
	requireReason(t, err, KindPrecondition, ReasonBountyCancelled)

	subs, err := h.coord.Submissions(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestApprove_Idempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.seed(t)

	_, err := h.coord.Claim(ctx, id, h.worker)
	require.NoError(t, err)
	_, err = h.coord.SubmitWork(ctx, id, h.worker, "link")
	require.NoError(t, err)
	_, err = h.coord.Approve(ctx, id, h.creator, "")
	require.NoError(t, err)

	_, err = h.coord.Approve(ctx, id, h.creator, "")
	requireReason(t, err, KindPrecondition, ReasonAlreadyApproved)

	// 绕过本地校验直接重放，合约同样拒绝
	require.Error(t, h.ledger.Apply(id, types.ActionApprove, creator))
	assert.Len(t, h.ledger.Payouts(), 1, "只支付一次")
}

func TestApprove_WorkerMismatch(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.seed(t)
	require.NoError(t, h.ledger.Apply(id, types.ActionClaim, worker))
	require.NoError(t, h.ledger.Apply(id, types.ActionSubmit, worker))

	_, err := h.coord.Approve(ctx, id, h.creator, other)
	requireReason(t, err, KindPrecondition, ReasonWorkerMismatch)
	assert.Empty(t, h.ledger.Payouts())
}

func TestAuthorization_NonCreator(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	steps := [][]types.Action{
		{},
		{types.ActionClaim},
		{types.ActionClaim, types.ActionSubmit},
	}
	for _, path := range steps {
		id := h.seed(t)
		for _, a := range path {
			require.NoError(t, h.ledger.Apply(id, a, worker))
		}
		for _, signer := range []*bountytest.FakeSigner{h.worker, h.other} {
			_, err := h.coord.Approve(ctx, id, signer, "")
			requireReason(t, err, KindPrecondition, ReasonNotCreator)
			_, err = h.coord.Cancel(ctx, id, signer)
			requireReason(t, err, KindPrecondition, ReasonNotCreator)
		}
	}
	assert.Zero(t, h.ledger.SubmitCount())
}

func TestSubmit_Preconditions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.seed(t)

	_, err := h.coord.SubmitWork(ctx, id, h.worker, "early")
	requireReason(t, err, KindPrecondition, ReasonMustClaimFirst)

	_, err = h.coord.SubmitWork(ctx, id, h.worker, "   ")
	requireReason(t, err, KindInvalidInput, ReasonInvalidInput)

	_, err = h.coord.Claim(ctx, id, h.worker)
	require.NoError(t, err)
	_, err = h.coord.SubmitWork(ctx, id, h.worker, "v1")
	require.NoError(t, err)
	_, err = h.coord.SubmitWork(ctx, id, h.worker, "v2")
	requireReason(t, err, KindPrecondition, ReasonAlreadySubmitted)
}

func TestSigningCancelled_NoWrites(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.seed(t)

	h.worker.SetCancel(true)
	res, err := h.coord.Claim(ctx, id, h.worker)
	require.NoError(t, err)
	assert.True(t, res.Cancelled)
	assert.Equal(t, types.StatusOpen, h.ledger.State(id).Status)

	snap, ok := h.coord.Snapshot(ctx, id)
	require.True(t, ok)
	assert.Empty(t, snap.Pending)

	h.creator.SetCancel(true)
	res, err = h.coord.CreateBounty(ctx, CreateRequest{Title: "t", Reward: escrow}, h.creator)
	require.NoError(t, err)
	assert.True(t, res.Cancelled)

	metas, err := h.store.ListMetadata(ctx)
	require.NoError(t, err)
	assert.Empty(t, metas, "取消签名不写入元数据")

	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.operations.WithLabelValues("claim", "cancelled")))
}

func TestSubmitCancelled_NoSubmissionRecord(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.seed(t)
	require.NoError(t, h.ledger.Apply(id, types.ActionClaim, worker))

	h.worker.SetCancel(true)
	res, err := h.coord.SubmitWork(ctx, id, h.worker, "link")
	require.NoError(t, err)
	assert.True(t, res.Cancelled)

	subs, err := h.coord.Submissions(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, subs)
	assert.Equal(t, types.StatusClaimed, h.ledger.State(id).Status)
}

// 确认超时但交易实际已上链
func TestConfirmationTimeout_Applied(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.seed(t)

	h.ledger.ConfirmErr = types.NewLedgerError(types.CodeConfirmationTimeout, "not confirmed after 4 rounds", nil)
	res, err := h.coord.Claim(ctx, id, h.worker)
	require.NoError(t, err)
	assert.True(t, res.Reconciled)
	assert.Equal(t, types.StatusClaimed, res.State.Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.reconciliations.WithLabelValues("claim", "applied")))
}

// 确认超时且交易尚未上链：结果未知
func TestConfirmationTimeout_Pending(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.seed(t)

	h.ledger.DropSubmitted = true
	_, err := h.coord.Claim(ctx, id, h.worker)
	oe := requireReason(t, err, KindTimeout, ReasonPending)
	assert.True(t, oe.Retryable())
	assert.Equal(t, types.StatusOpen, oe.Current.Status)

	snap, ok := h.coord.Snapshot(ctx, id)
	require.True(t, ok)
	assert.Empty(t, snap.Pending, "终态结果已知后清除在途标记")
}

func TestTransportFailure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.seed(t)

	h.ledger.SubmitErr = types.NewLedgerError(types.CodeTransport, "connection refused", errors.New("dial tcp"))
	_, err := h.coord.Claim(ctx, id, h.worker)
	oe := requireReason(t, err, KindTransport, ReasonNetwork)
	assert.True(t, IsRetryable(err))
	assert.Equal(t, types.StatusOpen, oe.Current.Status)

	// 报错但交易已生效，以链上状态为准
	h.ledger.ApplyOnSubmitErr = true
	res, err := h.coord.Claim(ctx, id, h.worker)
	require.NoError(t, err)
	assert.True(t, res.Reconciled)
	assert.Equal(t, worker, res.State.Worker)
}

func TestTransportFailure_Unreadable(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.seed(t)

	h.ledger.BeforeSubmit = func(*types.ContractCall) {
		h.ledger.ReadErr = types.NewLedgerError(types.CodeTransport, "connection refused", nil)
	}
	h.ledger.SubmitErr = types.NewLedgerError(types.CodeTransport, "connection refused", nil)
	_, err := h.coord.Claim(ctx, id, h.worker)
	oe := requireReason(t, err, KindTransport, ReasonNetwork)
	assert.Nil(t, oe.Current)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.reconciliations.WithLabelValues("claim", "unreadable")))
}

// 网关只给出文本错误时按文本分类，原因仍来自重新读取的链上状态
func TestRejection_StringFallback(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.seed(t)
	require.NoError(t, h.ledger.Apply(id, types.ActionClaim, worker))
	require.NoError(t, h.ledger.Apply(id, types.ActionSubmit, worker))

	h.ledger.BeforeSubmit = func(*types.ContractCall) {
		require.NoError(t, h.ledger.Apply(id, types.ActionApprove, creator))
	}
	h.ledger.SubmitErr = errors.New("TransactionPool.Remember: transaction rejected by logic: assert failed pc=120")

	_, err := h.coord.Approve(ctx, id, h.creator, "")
	oe := requireReason(t, err, KindRejected, ReasonAlreadyApproved)
	assert.NotContains(t, oe.Message, "pc=120", "不直接展示底层错误")
}

func TestRejection_Generic(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.seed(t)

	h.ledger.SubmitErr = types.NewLedgerError(types.CodeContractRejected, "assert failed", nil)
	_, err := h.coord.Claim(ctx, id, h.worker)
	requireReason(t, err, KindRejected, ReasonContractRejected)

	h.ledger.SubmitErr = types.NewLedgerError(types.CodePoolRejected, "overspend", nil)
	_, err = h.coord.Claim(ctx, id, h.worker)
	requireReason(t, err, KindRejected, ReasonPoolRejected)
}

// 交易没有离开本地的签名失败不是合约拒绝
func TestSigningFailure_NotRejected(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.seed(t)

	for _, signErr := range []error{
		errors.New("keystore locked"),
		fmt.Errorf("confirm signing: %w", context.Canceled),
	} {
		h.worker.SetError(signErr)
		_, err := h.coord.Claim(ctx, id, h.worker)
		oe := requireReason(t, err, KindSigning, ReasonSigningFailed)
		assert.False(t, oe.Retryable())
		assert.True(t, errors.Is(err, signErr))
		require.NotNil(t, oe.Current)
		assert.Equal(t, types.StatusOpen, oe.Current.Status)
	}
	assert.Equal(t, types.StatusOpen, h.ledger.State(id).Status)

	h.creator.SetError(errors.New("keystore locked"))
	_, err := h.coord.CreateBounty(ctx, CreateRequest{Title: "t", Reward: escrow}, h.creator)
	requireReason(t, err, KindSigning, ReasonSigningFailed)
	metas, err := h.store.ListMetadata(ctx)
	require.NoError(t, err)
	assert.Empty(t, metas)
}

// 交易已广播但等待确认时出错：结果未知，不能报告为拒绝
func TestBroadcastUnconfirmed_Pending(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.seed(t)
	h.ledger.DropSubmitted = true

	for _, confirmErr := range []error{
		fmt.Errorf("wait TX0001: %w", context.Canceled),
		types.NewLedgerError(types.CodeUnknown, "unexpected node response", nil),
		types.NewLedgerError(types.CodeTransport, "connection reset", nil),
	} {
		h.ledger.ConfirmErr = confirmErr
		_, err := h.coord.Claim(ctx, id, h.worker)
		oe := requireReason(t, err, KindTimeout, ReasonPending)
		require.NotNil(t, oe.Current)
		assert.Equal(t, types.StatusOpen, oe.Current.Status)
	}
}

// 发送前的未知错误：交易未上链，可重试
func TestSubmitFailure_Unclassified(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.seed(t)

	h.ledger.SubmitErr = types.NewLedgerError(types.CodeUnknown, "unexpected node response", nil)
	_, err := h.coord.Claim(ctx, id, h.worker)
	oe := requireReason(t, err, KindTransport, ReasonSubmitFailed)
	assert.True(t, oe.Retryable())

	h.ledger.SubmitErr = fmt.Errorf("send: %w", context.Canceled)
	_, err = h.coord.Claim(ctx, id, h.worker)
	requireReason(t, err, KindTransport, ReasonNetwork)

	h.ledger.DeployErr = types.NewLedgerError(types.CodeUnknown, "unexpected node response", nil)
	_, err = h.coord.CreateBounty(ctx, CreateRequest{Title: "t", Reward: escrow}, h.creator)
	requireReason(t, err, KindTransport, ReasonSubmitFailed)
}

// 已确认但重新读取失败时，结果标记为推导状态
func TestConfirmed_RereadFails(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.seed(t)

	h.ledger.BeforeSubmit = func(*types.ContractCall) {
		h.ledger.ReadErr = types.NewLedgerError(types.CodeTransport, "connection refused", nil)
	}
	res, err := h.coord.Claim(ctx, id, h.worker)
	require.NoError(t, err)
	assert.True(t, res.Predicted)
	assert.Contains(t, res.Warning, "could not be re-read")
	assert.Equal(t, types.StatusClaimed, res.State.Status)
	assert.Equal(t, worker, res.State.Worker)
	assert.Equal(t, types.StatusClaimed, h.ledger.State(id).Status)
}

func TestConfirmed_RereadSucceeds(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.seed(t)

	res, err := h.coord.Claim(ctx, id, h.worker)
	require.NoError(t, err)
	assert.False(t, res.Predicted)
	assert.Empty(t, res.Warning)
}

func TestOperationInFlight(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.seed(t)

	var nested error
	h.ledger.BeforeSubmit = func(*types.ContractCall) {
		_, nested = h.coord.Claim(ctx, id, h.other)
	}
	_, err := h.coord.Claim(ctx, id, h.worker)
	require.NoError(t, err)
	requireReason(t, nested, KindPrecondition, ReasonOperationInFlight)
}

func TestNotConnected(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.seed(t)

	_, err := h.coord.Claim(ctx, id, bountytest.NewSigner(""))
	requireReason(t, err, KindPrecondition, ReasonNotConnected)
	_, err = h.coord.Cancel(ctx, id, nil)
	requireReason(t, err, KindPrecondition, ReasonNotConnected)
}

func TestUnknownBounty(t *testing.T) {
	h := newHarness(t)
	_, err := h.coord.Claim(context.Background(), 777, h.worker)
	requireReason(t, err, KindInvalidInput, ReasonBountyNotFound)
}

func TestGetOnChainInfo_Unreachable(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.seed(t)

	h.ledger.ReadErr = types.NewLedgerError(types.CodeTransport, "connection refused", nil)
	info, err := h.coord.GetOnChainInfo(ctx, id)
	assert.Nil(t, info)
	requireReason(t, err, KindTransport, ReasonNetwork)
}

func TestListBounties(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	h.coord.now = func() time.Time {
		now = now.Add(time.Minute)
		return now
	}

	first, err := h.coord.CreateBounty(ctx, CreateRequest{Title: "one", Reward: escrow}, h.creator)
	require.NoError(t, err)
	second, err := h.coord.CreateBounty(ctx, CreateRequest{Title: "two", Reward: escrow}, h.other)
	require.NoError(t, err)

	list, err := h.coord.ListBounties(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ContractID, list[0].Metadata.ContractID, "最新的在前")
	assert.True(t, list[0].StatusKnown)
	assert.Equal(t, "Open", list[0].StatusLabel())
	assert.Equal(t, types.DifficultyMedium, list[0].Metadata.Difficulty)

	mine, err := h.coord.ListByCreator(ctx, "creator")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, first.ContractID, mine[0].Metadata.ContractID)

	// 网络不可达时标记为未知，不默认成 Open
	h.ledger.ReadErr = types.NewLedgerError(types.CodeTransport, "connection refused", nil)
	list, err = h.coord.ListBounties(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, b := range list {
		assert.False(t, b.StatusKnown)
		assert.Nil(t, b.OnChain)
		assert.NotEmpty(t, b.ReadError)
		assert.Equal(t, "Status Unknown", b.StatusLabel())
	}
}

func TestCreateBounty_Validation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.coord.CreateBounty(ctx, CreateRequest{Reward: escrow}, h.creator)
	requireReason(t, err, KindInvalidInput, ReasonInvalidInput)
	_, err = h.coord.CreateBounty(ctx, CreateRequest{Title: "t"}, h.creator)
	requireReason(t, err, KindInvalidInput, ReasonInvalidInput)
	_, err = h.coord.CreateBounty(ctx, CreateRequest{Title: "t", Reward: 1, Difficulty: "Epic"}, h.creator)
	requireReason(t, err, KindInvalidInput, ReasonInvalidInput)
	_, err = h.coord.CreateBounty(ctx, CreateRequest{Title: "t", Reward: 1}, bountytest.NewSigner(""))
	requireReason(t, err, KindPrecondition, ReasonNotConnected)

	h.ledger.DeployErr = types.NewLedgerError(types.CodeConfirmationTimeout, "not confirmed", nil)
	_, err = h.coord.CreateBounty(ctx, CreateRequest{Title: "t", Reward: 1}, h.creator)
	requireReason(t, err, KindTimeout, ReasonPending)

	metas, err := h.store.ListMetadata(ctx)
	require.NoError(t, err)
	assert.Empty(t, metas)
}

func TestSubmissionReview(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	created, err := h.coord.CreateBounty(ctx, CreateRequest{Title: "t", Reward: escrow}, h.creator)
	require.NoError(t, err)
	id := created.ContractID

	_, err = h.coord.Claim(ctx, id, h.worker)
	require.NoError(t, err)
	res, err := h.coord.SubmitWork(ctx, id, h.worker, "draft")
	require.NoError(t, err)
	subID := res.Submission.ID
	assert.Equal(t, "sub-1", subID)

	_, err = h.coord.ApproveSubmission(ctx, subID, worker)
	requireReason(t, err, KindPrecondition, ReasonNotCreator)

	rejected, err := h.coord.RejectSubmission(ctx, subID, creator)
	require.NoError(t, err)
	assert.Equal(t, types.SubmissionRejected, rejected.Status)

	approved, err := h.coord.ApproveSubmission(ctx, subID, creator)
	require.NoError(t, err)
	assert.Equal(t, types.SubmissionApproved, approved.Status)

	_, err = h.coord.ApproveSubmission(ctx, "sub-missing", creator)
	requireReason(t, err, KindInvalidInput, ReasonSubmissionNotFound)
}

func TestEvents(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.seed(t)

	var changes []*StateChange
	var subs []*types.Submission
	require.NoError(t, h.bus.Subscribe(EventStateChanged, func(c *StateChange) { changes = append(changes, c) }))
	require.NoError(t, h.bus.Subscribe(EventSubmissionChanged, func(s *types.Submission) { subs = append(subs, s) }))

	_, err := h.coord.Claim(ctx, id, h.worker)
	require.NoError(t, err)
	_, err = h.coord.SubmitWork(ctx, id, h.worker, "link")
	require.NoError(t, err)

	require.Len(t, changes, 2)
	assert.Equal(t, types.ActionClaim, changes[0].Action)
	assert.Equal(t, types.StatusOpen, changes[0].Previous.Status)
	assert.Equal(t, types.StatusClaimed, changes[0].Current.Status)
	require.Len(t, subs, 1)

	// 外部变化由 Refresh 发现
	require.NoError(t, h.ledger.Apply(id, types.ActionApprove, creator))
	_, changed, err := h.coord.Refresh(ctx, id)
	require.NoError(t, err)
	assert.True(t, changed)
	require.Len(t, changes, 3)
	assert.Empty(t, changes[2].Action)
	assert.Equal(t, types.StatusApproved, changes[2].Current.Status)

	_, changed, err = h.coord.Refresh(ctx, id)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Len(t, changes, 3)
}

func TestClose(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.seed(t)

	_, err := h.coord.GetOnChainInfo(ctx, id)
	require.NoError(t, err)
	_, ok := h.coord.Snapshot(ctx, id)
	require.True(t, ok)

	require.NoError(t, h.coord.Close())
	require.NoError(t, h.coord.Close())

	_, ok = h.coord.Snapshot(ctx, id)
	assert.False(t, ok, "关闭后清空提示缓存")

	_, err = h.coord.Claim(ctx, id, h.worker)
	requireReason(t, err, KindPrecondition, ReasonSessionClosed)
}
