package bounty

import (
	"context"
	"errors"
	"strings"

	bountyInterface "github.com/weisyn/bounty/pkg/interfaces/bounty"
	"github.com/weisyn/bounty/pkg/types"
)

// CreateRequest 创建赏金的输入
type CreateRequest struct {
	Title       string
	Description string
	Category    string
	Difficulty  types.Difficulty
	Reward      uint64 // 托管金额（最小单位）
}

func (r *CreateRequest) normalize() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.Category = strings.TrimSpace(r.Category)
	if r.Difficulty == "" {
		r.Difficulty = types.DifficultyMedium
	}
	switch {
	case r.Title == "":
		return invalidInput(types.ActionCreate, "title is required")
	case r.Reward == 0:
		return invalidInput(types.ActionCreate, "reward must be greater than zero")
	case !r.Difficulty.Valid():
		return invalidInput(types.ActionCreate, "unknown difficulty %q", r.Difficulty)
	}
	return nil
}

// CreateBounty 部署合约、注入托管资金并写入链下元数据
//
// 签名被取消时不写入任何元数据。
func (c *Coordinator) CreateBounty(ctx context.Context, req CreateRequest, signer bountyInterface.Signer) (res *Result, err error) {
	start := c.now()
	defer func() {
		outcome := outcomeOf(err)
		if err == nil && res != nil && res.Cancelled {
			outcome = outcomeCancelled
		}
		c.metrics.observe(types.ActionCreate, outcome, c.now().Sub(start))
	}()

	if err := req.normalize(); err != nil {
		return nil, err
	}
	if signer == nil || signer.Address() == "" {
		return nil, newError(types.ActionCreate, 0, KindPrecondition, ReasonNotConnected, nil)
	}
	if c.isClosed() {
		return nil, newError(types.ActionCreate, 0, KindPrecondition, ReasonSessionClosed, nil)
	}
	creator := signer.Address()
	logger := c.logger.With("action", string(types.ActionCreate), "creator", creator)
	logger.Debugf("开始部署: reward=%d", req.Reward)

	id, err := c.ledger.Deploy(ctx, &types.DeployRequest{Creator: creator, Reward: req.Reward}, signer)
	if err != nil {
		if errors.Is(err, types.ErrSigningCancelled) {
			logger.Info("用户取消签名")
			return &Result{Action: types.ActionCreate, Cancelled: true}, nil
		}
		opErr := c.deployFailure(id, err)
		logger.Warnf("部署失败: kind=%s, reason=%s, err=%v", opErr.Kind, opErr.Reason, err)
		return nil, opErr
	}
	logger.Infof("合约已部署并注资: contract_id=%s", id)

	meta := &types.BountyMetadata{
		ContractID:     id,
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		Difficulty:     req.Difficulty,
		Reward:         req.Reward,
		CreatorAddress: creator,
		CreatedAt:      c.now(),
	}
	if err := c.store.PutMetadata(ctx, meta); err != nil {
		logger.Errorf("写入元数据失败: contract_id=%s, err=%v", id, err)
		opErr := newError(types.ActionCreate, id, KindStore, ReasonStoreFailure, err)
		opErr.Message = "bounty deployed on-chain as " + id.String() + " but its description could not be saved locally"
		return nil, opErr
	}

	res = &Result{Action: types.ActionCreate, ContractID: id, Metadata: meta}
	state, err := c.reader.ReadState(ctx, id)
	if err != nil {
		logger.Warnf("部署后读取链上状态失败: %v", err)
		state = &types.OnChainBountyInfo{ContractID: id, Creator: creator, Amount: req.Reward, Status: types.StatusOpen}
	}
	res.State = state
	c.hints.settle(ctx, id, state)
	c.publishState(&StateChange{ContractID: id, Action: types.ActionCreate, Current: state.Clone()})
	return res, nil
}

// deployFailure 分类部署错误，id 非零表示合约已创建但未完成注资
func (c *Coordinator) deployFailure(id types.ContractID, err error) *OperationError {
	switch classify(err) {
	case classRejected:
		return newError(types.ActionCreate, id, KindRejected, ReasonContractRejected, err)
	case classPoolRejected:
		return newError(types.ActionCreate, id, KindRejected, ReasonPoolRejected, err)
	case classSigning:
		return newError(types.ActionCreate, id, KindSigning, ReasonSigningFailed, err)
	case classTimeout:
		return newError(types.ActionCreate, id, KindTimeout, ReasonPending, err)
	case classTransport:
		return newError(types.ActionCreate, id, KindTransport, ReasonNetwork, err)
	default:
		return newError(types.ActionCreate, id, KindTransport, ReasonSubmitFailed, err)
	}
}
