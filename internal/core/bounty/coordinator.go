package bounty

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	bountyInterface "github.com/weisyn/bounty/pkg/interfaces/bounty"
	"github.com/weisyn/bounty/pkg/interfaces/infrastructure/event"
	logInterface "github.com/weisyn/bounty/pkg/interfaces/infrastructure/log"
	storageInterface "github.com/weisyn/bounty/pkg/interfaces/infrastructure/storage"
	"github.com/weisyn/bounty/pkg/types"
	"github.com/weisyn/bounty/pkg/utils/address"
)

const (
	defaultCacheTTL    = 30 * time.Second
	defaultReadTimeout = 15 * time.Second
	submissionIDPrefix = "sub-"
)

// Options 协调器依赖
type Options struct {
	Ledger bountyInterface.LedgerClient  // 必需
	Store  bountyInterface.MetadataStore // 必需
	Reader bountyInterface.StateReader   // 为空时使用 Ledger

	Cache   storageInterface.MemoryStore // 可选，状态提示缓存
	Events  event.EventBus               // 可选
	Metrics *Metrics                     // 可选
	Logger  logInterface.Logger

	CacheTTL    time.Duration // 提示缓存生命周期
	ReadTimeout time.Duration // 失败后重新读取链上状态的超时

	Now   func() time.Time
	NewID func() string
}

// Coordinator 赏金生命周期协调器
//
// 每个会话构造一次，断开连接时调用 Close。
// 同一赏金上的状态变更操作串行执行：前一个操作未结束时拒绝新的操作。
type Coordinator struct {
	ledger  bountyInterface.LedgerClient
	reader  bountyInterface.StateReader
	store   bountyInterface.MetadataStore
	events  event.EventBus
	metrics *Metrics
	logger  logInterface.Logger
	hints   *hintCache

	readTimeout time.Duration
	now         func() time.Time
	newID       func() string

	mu       sync.Mutex
	inflight map[types.ContractID]types.Action
	closed   bool
}

// Result 状态变更操作的结果
type Result struct {
	Action     types.Action             `json:"action"`
	ContractID types.ContractID         `json:"contract_id,omitempty"`
	TxID       string                   `json:"tx_id,omitempty"`
	State      *types.OnChainBountyInfo `json:"state,omitempty"`      // 确认后重新读取的链上状态
	Metadata   *types.BountyMetadata    `json:"metadata,omitempty"`   // 仅 create
	Submission *types.Submission        `json:"submission,omitempty"` // submit 新建或 approve 标记的提交记录

	// Cancelled 用户放弃签名，链上与本地状态均未改变
	Cancelled bool `json:"cancelled,omitempty"`
	// Reconciled 调用报错但重新读取的链上状态表明操作已生效
	Reconciled bool `json:"reconciled,omitempty"`
	// Predicted 交易已确认但重新读取失败，State 由状态机推导
	Predicted bool `json:"predicted,omitempty"`
	// Warning 链上操作成功但结果不完整，例如链下记录写入失败
	Warning string `json:"warning,omitempty"`
}

func (r *Result) addWarning(msg string) {
	if r.Warning == "" {
		r.Warning = msg
		return
	}
	r.Warning += "; " + msg
}

// New 创建协调器
func New(opts Options) (*Coordinator, error) {
	if opts.Ledger == nil {
		return nil, errors.New("ledger client is required")
	}
	if opts.Store == nil {
		return nil, errors.New("metadata store is required")
	}

	reader := opts.Reader
	if reader == nil {
		reader = opts.Ledger
	}
	logger := opts.Logger
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	newID := opts.NewID
	if newID == nil {
		newID = func() string { return submissionIDPrefix + uuid.NewString() }
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = defaultReadTimeout
	}

	return &Coordinator{
		ledger:      opts.Ledger,
		reader:      reader,
		store:       opts.Store,
		events:      opts.Events,
		metrics:     opts.Metrics,
		logger:      logger,
		hints:       &hintCache{store: opts.Cache, ttl: ttl, logger: logger, now: now},
		readTimeout: readTimeout,
		now:         now,
		newID:       newID,
		inflight:    make(map[types.ContractID]types.Action),
	}, nil
}

// Close 结束会话：拒绝后续操作并清空状态提示
func (c *Coordinator) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.hints.clear(context.Background())
	c.logger.Debug("协调器已关闭")
	return nil
}

func (c *Coordinator) begin(action types.Action, id types.ContractID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return newError(action, id, KindPrecondition, ReasonSessionClosed, nil)
	}
	if _, busy := c.inflight[id]; busy {
		return newError(action, id, KindPrecondition, ReasonOperationInFlight, nil)
	}
	c.inflight[id] = action
	return nil
}

func (c *Coordinator) end(id types.ContractID) {
	c.mu.Lock()
	delete(c.inflight, id)
	c.mu.Unlock()
}

func (c *Coordinator) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Claim 认领赏金
func (c *Coordinator) Claim(ctx context.Context, id types.ContractID, signer bountyInterface.Signer) (*Result, error) {
	return c.execute(ctx, &operation{action: types.ActionClaim, id: id, signer: signer})
}

// SubmitWork 提交工作，确认后在本地记录一条 pending 提交
func (c *Coordinator) SubmitWork(ctx context.Context, id types.ContractID, signer bountyInterface.Signer, content string) (*Result, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, invalidInput(types.ActionSubmit, "submission content is required")
	}
	return c.execute(ctx, &operation{
		action:  types.ActionSubmit,
		id:      id,
		signer:  signer,
		content: content,
	})
}

// Approve 批准已提交的工作并向认领者支付托管资金
//
// worker 为空时使用链上绑定的认领者。
func (c *Coordinator) Approve(ctx context.Context, id types.ContractID, signer bountyInterface.Signer, worker string) (*Result, error) {
	return c.execute(ctx, &operation{
		action: types.ActionApprove,
		id:     id,
		signer: signer,
		worker: strings.TrimSpace(worker),
	})
}

// Cancel 取消赏金并退还托管资金
func (c *Coordinator) Cancel(ctx context.Context, id types.ContractID, signer bountyInterface.Signer) (*Result, error) {
	return c.execute(ctx, &operation{action: types.ActionCancel, id: id, signer: signer})
}

// GetOnChainInfo 读取链上状态，无需签名
//
// 网络不可达时返回 KindTransport 错误，不会退化为 Open。
func (c *Coordinator) GetOnChainInfo(ctx context.Context, id types.ContractID) (*types.OnChainBountyInfo, error) {
	info, _, err := c.Refresh(ctx, id)
	return info, err
}

// Refresh 读取链上状态并更新提示缓存，状态与缓存不同时发布变更事件
func (c *Coordinator) Refresh(ctx context.Context, id types.ContractID) (*types.OnChainBountyInfo, bool, error) {
	info, err := c.reader.ReadState(ctx, id)
	if err != nil {
		return nil, false, c.readFailure("", id, err)
	}

	prev, ok := c.hints.get(ctx, id)
	changed := !ok || prev.State == nil || stateChanged(prev.State, info)
	if ok && prev.Pending != "" {
		// 保留在途标记，只更新状态
		c.hints.markPending(ctx, id, prev.Pending, info)
	} else {
		c.hints.settle(ctx, id, info)
	}
	if ok && prev.State != nil && changed {
		c.publishState(&StateChange{ContractID: id, Previous: prev.State, Current: info.Clone()})
	}
	return info, changed, nil
}

// Snapshot 返回最近一次观察到的状态提示，不访问账本
func (c *Coordinator) Snapshot(ctx context.Context, id types.ContractID) (*Snapshot, bool) {
	return c.hints.get(ctx, id)
}

func stateChanged(a, b *types.OnChainBountyInfo) bool {
	return a.Status != b.Status || a.Worker != b.Worker || a.Amount != b.Amount
}

// operation 一次状态变更操作
type operation struct {
	action  types.Action
	id      types.ContractID
	signer  bountyInterface.Signer
	worker  string // approve 的支付对象
	content string // submit 的提交内容
}

func (c *Coordinator) execute(ctx context.Context, op *operation) (res *Result, err error) {
	start := c.now()
	defer func() {
		outcome := outcomeOf(err)
		if err == nil && res != nil && res.Cancelled {
			outcome = outcomeCancelled
		}
		c.metrics.observe(op.action, outcome, c.now().Sub(start))
	}()

	if op.id == 0 {
		return nil, invalidInput(op.action, "contract id is required")
	}
	if op.signer == nil || op.signer.Address() == "" {
		return nil, newError(op.action, op.id, KindPrecondition, ReasonNotConnected, nil)
	}
	caller := op.signer.Address()

	if err := c.begin(op.action, op.id); err != nil {
		return nil, err
	}
	defer c.end(op.id)

	logger := c.logger.With("action", string(op.action), "contract_id", op.id.String())
	logger.Debugf("开始执行: caller=%s", caller)

	// 每次授权判断之前重新读取链上状态
	before, err := c.reader.ReadState(ctx, op.id)
	if err != nil {
		return nil, c.readFailure(op.action, op.id, err)
	}
	if err := Authorize(before, op.action, caller, op.worker); err != nil {
		logger.Warnf("前置校验未通过: %v", err)
		return nil, err
	}

	call := &types.ContractCall{
		ContractID: op.id,
		Action:     op.action,
		Sender:     caller,
	}
	if op.action == types.ActionApprove {
		call.Accounts = []string{before.Worker}
	}

	c.hints.markPending(ctx, op.id, op.action, before)
	settled := false
	defer func() {
		if !settled {
			c.hints.clearPending(context.WithoutCancel(ctx), op.id, nil)
		}
	}()

	txID, err := c.ledger.Submit(ctx, call, op.signer)
	if err != nil {
		if errors.Is(err, types.ErrSigningCancelled) {
			logger.Info("用户取消签名")
			return &Result{Action: op.action, ContractID: op.id, Cancelled: true}, nil
		}
		return c.reconcileFailure(ctx, op, caller, "", err, logger, &settled)
	}
	logger.Infof("交易已提交: tx=%s", txID)

	if _, err := c.ledger.WaitForConfirmation(ctx, txID); err != nil {
		return c.reconcileFailure(ctx, op, caller, txID, err, logger, &settled)
	}

	res = &Result{Action: op.action, ContractID: op.id, TxID: txID}
	after, err := c.reader.ReadState(ctx, op.id)
	if err != nil {
		// 交易已确认但无法重新读取，按状态机推导
		logger.Warnf("确认后读取链上状态失败: %v", err)
		after = predictState(before, op.action, caller)
		res.Predicted = true
		res.addWarning(fmt.Sprintf("transaction confirmed but the bounty could not be re-read, state is derived: %v", err))
	}
	res.State = after
	c.hints.settle(ctx, op.id, after)
	settled = true
	c.afterConfirmed(ctx, op, caller, res, logger)
	c.publishState(&StateChange{ContractID: op.id, Action: op.action, Previous: before, Current: after.Clone()})
	logger.Infof("操作已确认: status=%s", after.Status)
	return res, nil
}

// predictState 根据状态机推导操作成功后的状态
func predictState(before *types.OnChainBountyInfo, action types.Action, caller string) *types.OnChainBountyInfo {
	after := before.Clone()
	if next, ok := Next(before.Status, action); ok {
		after.Status = next
	}
	switch action {
	case types.ActionClaim:
		after.Worker = caller
	case types.ActionApprove, types.ActionCancel:
		after.Amount = 0
	}
	return after
}

// reconcileFailure 失败后重新读取链上状态，给出当前真实情况
func (c *Coordinator) reconcileFailure(
	ctx context.Context,
	op *operation,
	caller, txID string,
	cause error,
	logger logInterface.Logger,
	settled *bool,
) (*Result, error) {
	class := classify(cause)
	rejected := class == classRejected || class == classPoolRejected

	// 调用方的 ctx 可能已经超时，对账使用独立的超时
	readCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.readTimeout)
	defer cancel()
	current, readErr := c.reader.ReadState(readCtx, op.id)

	if readErr == nil && !rejected && class != classSigning && Satisfied(current, op.action, caller) {
		logger.Infof("调用报错但链上状态已生效: class=%s, err=%v", class, cause)
		c.metrics.reconciled(op.action, "applied")
		res := &Result{Action: op.action, ContractID: op.id, TxID: txID, State: current, Reconciled: true}
		c.hints.settle(readCtx, op.id, current)
		*settled = true
		c.afterConfirmed(readCtx, op, caller, res, logger)
		c.publishState(&StateChange{ContractID: op.id, Action: op.action, Current: current.Clone()})
		return res, nil
	}

	// 只有账本明确拒绝时才报告为合约拒绝
	var opErr *OperationError
	switch {
	case rejected:
		opErr = c.rejection(op, caller, current, readErr, class, cause)
	case txID != "":
		// 交易已广播，结果未知
		opErr = newError(op.action, op.id, KindTimeout, ReasonPending, cause)
	case class == classSigning:
		opErr = newError(op.action, op.id, KindSigning, ReasonSigningFailed, cause)
	case class == classTimeout:
		opErr = newError(op.action, op.id, KindTimeout, ReasonPending, cause)
	case class == classTransport:
		opErr = newError(op.action, op.id, KindTransport, ReasonNetwork, cause)
	case class == classNotFound:
		opErr = newError(op.action, op.id, KindInvalidInput, ReasonBountyNotFound, cause)
	default:
		opErr = newError(op.action, op.id, KindTransport, ReasonSubmitFailed, cause)
	}

	if readErr == nil {
		opErr.Current = current.Clone()
		c.hints.settle(readCtx, op.id, current)
		*settled = true
		c.metrics.reconciled(op.action, "reread")
	} else {
		logger.Warnf("对账读取链上状态失败: %v", readErr)
		c.metrics.reconciled(op.action, "unreadable")
	}
	logger.Warnf("操作失败: kind=%s, reason=%s, tx=%s, err=%v", opErr.Kind, opErr.Reason, txID, cause)
	return nil, opErr
}

// rejection 将合约或交易池拒绝映射为最具体的原因
func (c *Coordinator) rejection(
	op *operation,
	caller string,
	current *types.OnChainBountyInfo,
	readErr error,
	class failureClass,
	cause error,
) *OperationError {
	if readErr == nil {
		if authErr, ok := AsOperationError(Authorize(current, op.action, caller, op.worker)); ok {
			return newError(op.action, op.id, KindRejected, authErr.Reason, cause)
		}
	}
	if class == classPoolRejected {
		return newError(op.action, op.id, KindRejected, ReasonPoolRejected, cause)
	}
	return newError(op.action, op.id, KindRejected, ReasonContractRejected, cause)
}

// readFailure 将读取链上状态的错误分类
func (c *Coordinator) readFailure(action types.Action, id types.ContractID, err error) *OperationError {
	switch classify(err) {
	case classNotFound:
		return newError(action, id, KindInvalidInput, ReasonBountyNotFound, err)
	case classTimeout:
		return newError(action, id, KindTimeout, ReasonNetwork, err)
	default:
		return newError(action, id, KindTransport, ReasonNetwork, err)
	}
}

// afterConfirmed 链上操作生效后更新链下记录
//
// 链下记录只是参考，写入失败不影响操作结果。
func (c *Coordinator) afterConfirmed(ctx context.Context, op *operation, caller string, res *Result, logger logInterface.Logger) {
	switch op.action {
	case types.ActionSubmit:
		sub := &types.Submission{
			ID:               c.newID(),
			BountyID:         op.id,
			SubmitterAddress: caller,
			Content:          op.content,
			CreatedAt:        c.now(),
			Status:           types.SubmissionPending,
		}
		if err := c.store.PutSubmission(ctx, sub); err != nil {
			logger.Warnf("写入提交记录失败: %v", err)
			res.addWarning(fmt.Sprintf("work submitted on-chain but the local submission record was not saved: %v", err))
			return
		}
		res.Submission = sub
		c.publishSubmission(sub)

	case types.ActionApprove:
		worker := op.worker
		if res.State != nil && res.State.Worker != "" {
			worker = res.State.Worker
		}
		sub, err := c.latestSubmissionOf(ctx, op.id, worker)
		if err != nil {
			logger.Warnf("查询提交记录失败: %v", err)
			res.addWarning(fmt.Sprintf("bounty approved on-chain but submissions could not be updated: %v", err))
			return
		}
		if sub == nil {
			return
		}
		approved, err := c.store.ApproveSubmission(ctx, sub.ID)
		if err != nil {
			logger.Warnf("更新提交记录失败: %v", err)
			res.addWarning(fmt.Sprintf("bounty approved on-chain but submissions could not be updated: %v", err))
			return
		}
		res.Submission = approved
		c.publishSubmission(approved)
	}
}

// latestSubmissionOf 返回 worker 最近一条提交记录
func (c *Coordinator) latestSubmissionOf(ctx context.Context, id types.ContractID, worker string) (*types.Submission, error) {
	subs, err := c.store.ListSubmissions(ctx, id)
	if err != nil {
		return nil, err
	}
	var latest *types.Submission
	for _, s := range subs {
		if worker != "" && !address.Equal(s.SubmitterAddress, worker) {
			continue
		}
		latest = s
	}
	return latest, nil
}
