package bounty

import (
	"context"
	"errors"

	"github.com/weisyn/bounty/pkg/types"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

// MetadataStore 链下元数据与提交记录的持久化
//
// 按记录类型分命名空间；并发标签页之间不同步，后写者胜出。
type MetadataStore interface {
	// PutMetadata 写入赏金元数据
	PutMetadata(ctx context.Context, meta *types.BountyMetadata) error

	// GetMetadata 按合约 ID 获取元数据，不存在时返回 ErrNotFound
	GetMetadata(ctx context.Context, id types.ContractID) (*types.BountyMetadata, error)

	// ListMetadata 列出全部元数据，按创建时间倒序
	ListMetadata(ctx context.Context) ([]*types.BountyMetadata, error)

	// PutSubmission 写入提交记录
	PutSubmission(ctx context.Context, sub *types.Submission) error

	// GetSubmission 按 ID 获取提交记录，不存在时返回 ErrNotFound
	GetSubmission(ctx context.Context, id string) (*types.Submission, error)

	// ListSubmissions 列出某赏金的提交记录，按创建时间正序
	ListSubmissions(ctx context.Context, bountyID types.ContractID) ([]*types.Submission, error)

	// ApproveSubmission 批准一条提交，同一赏金的其余记录重置为 pending
	ApproveSubmission(ctx context.Context, id string) (*types.Submission, error)

	// RejectSubmission 拒绝一条提交
	RejectSubmission(ctx context.Context, id string) (*types.Submission, error)
}
