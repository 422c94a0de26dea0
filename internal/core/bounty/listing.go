package bounty

import (
	"context"
	"errors"
	"strings"

	bountyInterface "github.com/weisyn/bounty/pkg/interfaces/bounty"
	"github.com/weisyn/bounty/pkg/types"
	"github.com/weisyn/bounty/pkg/utils/address"
)

// ListBounties 列出全部赏金并逐个读取链上状态，按创建时间倒序
//
// 单个赏金的链上状态不可读时该条目 StatusKnown=false，不会默认成 Open。
func (c *Coordinator) ListBounties(ctx context.Context) ([]*types.Bounty, error) {
	metas, err := c.store.ListMetadata(ctx)
	if err != nil {
		return nil, newError("", 0, KindStore, ReasonStoreFailure, err)
	}
	return c.joinOnChain(ctx, metas), nil
}

// ListByCreator 列出某地址创建的赏金，地址比较不区分大小写
func (c *Coordinator) ListByCreator(ctx context.Context, creator string) ([]*types.Bounty, error) {
	creator = strings.TrimSpace(creator)
	if creator == "" {
		return nil, invalidInput("", "creator address is required")
	}
	metas, err := c.store.ListMetadata(ctx)
	if err != nil {
		return nil, newError("", 0, KindStore, ReasonStoreFailure, err)
	}
	mine := metas[:0]
	for _, m := range metas {
		if strings.EqualFold(m.CreatorAddress, creator) {
			mine = append(mine, m)
		}
	}
	return c.joinOnChain(ctx, mine), nil
}

// Get 返回单个赏金的元数据与链上状态
func (c *Coordinator) Get(ctx context.Context, id types.ContractID) (*types.Bounty, error) {
	meta, err := c.store.GetMetadata(ctx, id)
	if errors.Is(err, bountyInterface.ErrNotFound) {
		// 其他客户端创建的赏金没有本地元数据，只展示链上状态
		meta = &types.BountyMetadata{ContractID: id}
	} else if err != nil {
		return nil, newError("", id, KindStore, ReasonStoreFailure, err)
	}
	return c.joinOnChain(ctx, []*types.BountyMetadata{meta})[0], nil
}

func (c *Coordinator) joinOnChain(ctx context.Context, metas []*types.BountyMetadata) []*types.Bounty {
	out := make([]*types.Bounty, 0, len(metas))
	for _, m := range metas {
		b := &types.Bounty{Metadata: *m}
		info, _, err := c.Refresh(ctx, m.ContractID)
		if err != nil {
			b.ReadError = err.Error()
			c.logger.Debugf("读取链上状态失败: contract_id=%s, err=%v", m.ContractID, err)
		} else {
			b.OnChain = info
			b.StatusKnown = true
		}
		out = append(out, b)
	}
	return out
}

// Submissions 列出赏金的提交记录，按创建时间正序
func (c *Coordinator) Submissions(ctx context.Context, id types.ContractID) ([]*types.Submission, error) {
	subs, err := c.store.ListSubmissions(ctx, id)
	if err != nil {
		return nil, newError("", id, KindStore, ReasonStoreFailure, err)
	}
	return subs, nil
}

// ApproveSubmission 在本地把一条提交标记为 approved，同一赏金的其他提交重置为 pending
//
// 只修改链下参考记录，不移动资金；caller 必须是本地元数据记录的创建者。
func (c *Coordinator) ApproveSubmission(ctx context.Context, submissionID, caller string) (*types.Submission, error) {
	if err := c.checkSubmissionOwner(ctx, submissionID, caller); err != nil {
		return nil, err
	}
	sub, err := c.store.ApproveSubmission(ctx, submissionID)
	if err != nil {
		return nil, c.storeFailure(err)
	}
	c.publishSubmission(sub)
	return sub, nil
}

// RejectSubmission 在本地把一条提交标记为 rejected
func (c *Coordinator) RejectSubmission(ctx context.Context, submissionID, caller string) (*types.Submission, error) {
	if err := c.checkSubmissionOwner(ctx, submissionID, caller); err != nil {
		return nil, err
	}
	sub, err := c.store.RejectSubmission(ctx, submissionID)
	if err != nil {
		return nil, c.storeFailure(err)
	}
	c.publishSubmission(sub)
	return sub, nil
}

func (c *Coordinator) checkSubmissionOwner(ctx context.Context, submissionID, caller string) error {
	if strings.TrimSpace(submissionID) == "" {
		return invalidInput("", "submission id is required")
	}
	if caller == "" {
		return newError("", 0, KindPrecondition, ReasonNotConnected, nil)
	}
	sub, err := c.store.GetSubmission(ctx, submissionID)
	if err != nil {
		return c.storeFailure(err)
	}
	meta, err := c.store.GetMetadata(ctx, sub.BountyID)
	if err != nil {
		if errors.Is(err, bountyInterface.ErrNotFound) {
			return newError("", sub.BountyID, KindInvalidInput, ReasonBountyNotFound, err)
		}
		return newError("", sub.BountyID, KindStore, ReasonStoreFailure, err)
	}
	if !address.Equal(meta.CreatorAddress, caller) {
		return newError("", sub.BountyID, KindPrecondition, ReasonNotCreator, nil)
	}
	return nil
}

func (c *Coordinator) storeFailure(err error) *OperationError {
	if errors.Is(err, bountyInterface.ErrNotFound) {
		return newError("", 0, KindInvalidInput, ReasonSubmissionNotFound, err)
	}
	return newError("", 0, KindStore, ReasonStoreFailure, err)
}
