// Package metastore 在键值存储之上实现赏金链下元数据与提交记录的持久化
//
// 键布局：
//
//	bounty/meta/<contract_id>              -> BountyMetadata
//	bounty/sub/<contract_id>/<submission>  -> Submission
//	bounty/subidx/<submission>             -> contract_id
//
// contract_id 以定长十进制编码，保证前缀扫描不会跨赏金匹配。
package metastore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	bountyInterface "github.com/weisyn/bounty/pkg/interfaces/bounty"
	logInterface "github.com/weisyn/bounty/pkg/interfaces/infrastructure/log"
	storageInterface "github.com/weisyn/bounty/pkg/interfaces/infrastructure/storage"
	"github.com/weisyn/bounty/pkg/types"
)

const (
	metaPrefix     = "bounty/meta/"
	subPrefix      = "bounty/sub/"
	subIndexPrefix = "bounty/subidx/"
)

// Store 元数据存储
type Store struct {
	kv     storageInterface.KVStore
	logger logInterface.Logger
}

var _ bountyInterface.MetadataStore = (*Store)(nil)

// New 创建元数据存储
func New(kv storageInterface.KVStore, logger logInterface.Logger) *Store {
	return &Store{kv: kv, logger: logger}
}

func encodeID(id types.ContractID) string {
	return fmt.Sprintf("%020d", uint64(id))
}

func metaKey(id types.ContractID) []byte {
	return []byte(metaPrefix + encodeID(id))
}

func subBountyPrefix(id types.ContractID) []byte {
	return []byte(subPrefix + encodeID(id) + "/")
}

func subKey(bountyID types.ContractID, subID string) []byte {
	return []byte(subPrefix + encodeID(bountyID) + "/" + subID)
}

func subIndexKey(subID string) []byte {
	return []byte(subIndexPrefix + subID)
}

// PutMetadata 写入赏金元数据
func (s *Store) PutMetadata(ctx context.Context, meta *types.BountyMetadata) error {
	if meta == nil || meta.ContractID == 0 {
		return fmt.Errorf("metadata requires a contract id")
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := s.kv.Set(ctx, metaKey(meta.ContractID), data); err != nil {
		return fmt.Errorf("put metadata %s: %w", meta.ContractID, err)
	}
	s.logger.Debugf("元数据已写入: contract_id=%s", meta.ContractID)
	return nil
}

// GetMetadata 获取赏金元数据
func (s *Store) GetMetadata(ctx context.Context, id types.ContractID) (*types.BountyMetadata, error) {
	data, err := s.kv.Get(ctx, metaKey(id))
	if err != nil {
		return nil, fmt.Errorf("get metadata %s: %w", id, err)
	}
	if data == nil {
		return nil, bountyInterface.ErrNotFound
	}
	var meta types.BountyMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode metadata %s: %w", id, err)
	}
	return &meta, nil
}

// ListMetadata 列出全部元数据，按创建时间倒序
func (s *Store) ListMetadata(ctx context.Context) ([]*types.BountyMetadata, error) {
	entries, err := s.kv.PrefixScan(ctx, []byte(metaPrefix))
	if err != nil {
		return nil, fmt.Errorf("list metadata: %w", err)
	}
	out := make([]*types.BountyMetadata, 0, len(entries))
	for key, data := range entries {
		var meta types.BountyMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			// 单条损坏不影响其余记录
			s.logger.Warnf("跳过无法解析的元数据: key=%s, err=%v", key, err)
			continue
		}
		out = append(out, &meta)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ContractID > out[j].ContractID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// PutSubmission 写入提交记录
func (s *Store) PutSubmission(ctx context.Context, sub *types.Submission) error {
	if sub == nil || sub.ID == "" || sub.BountyID == 0 {
		return fmt.Errorf("submission requires an id and a bounty id")
	}
	if sub.Status == "" {
		sub.Status = types.SubmissionPending
	}
	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("encode submission: %w", err)
	}
	err = s.kv.RunInTransaction(ctx, func(tx storageInterface.KVTransaction) error {
		if err := tx.Set(subKey(sub.BountyID, sub.ID), data); err != nil {
			return err
		}
		return tx.Set(subIndexKey(sub.ID), []byte(strconv.FormatUint(uint64(sub.BountyID), 10)))
	})
	if err != nil {
		return fmt.Errorf("put submission %s: %w", sub.ID, err)
	}
	return nil
}

// GetSubmission 获取提交记录
func (s *Store) GetSubmission(ctx context.Context, id string) (*types.Submission, error) {
	var sub *types.Submission
	err := s.kv.RunInTransaction(ctx, func(tx storageInterface.KVTransaction) error {
		var err error
		sub, _, err = loadSubmission(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// ListSubmissions 列出某赏金的提交记录，按创建时间正序
func (s *Store) ListSubmissions(ctx context.Context, bountyID types.ContractID) ([]*types.Submission, error) {
	entries, err := s.kv.PrefixScan(ctx, subBountyPrefix(bountyID))
	if err != nil {
		return nil, fmt.Errorf("list submissions %s: %w", bountyID, err)
	}
	subs, err := decodeSubmissions(entries)
	if err != nil {
		return nil, err
	}
	sortSubmissions(subs)
	return subs, nil
}

// ApproveSubmission 批准一条提交，同一赏金的其余记录在同一事务中重置为 pending
func (s *Store) ApproveSubmission(ctx context.Context, id string) (*types.Submission, error) {
	var approved *types.Submission
	err := s.kv.RunInTransaction(ctx, func(tx storageInterface.KVTransaction) error {
		target, _, err := loadSubmission(tx, id)
		if err != nil {
			return err
		}
		entries, err := tx.PrefixScan(subBountyPrefix(target.BountyID))
		if err != nil {
			return err
		}
		siblings, err := decodeSubmissions(entries)
		if err != nil {
			return err
		}
		for _, sub := range siblings {
			want := types.SubmissionPending
			if sub.ID == id {
				want = types.SubmissionApproved
			}
			if sub.Status == want {
				if sub.ID == id {
					approved = sub
				}
				continue
			}
			sub.Status = want
			if err := writeSubmission(tx, sub); err != nil {
				return err
			}
			if sub.ID == id {
				approved = sub
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debugf("提交已批准: id=%s, bounty=%s", approved.ID, approved.BountyID)
	return approved, nil
}

// RejectSubmission 拒绝一条提交
func (s *Store) RejectSubmission(ctx context.Context, id string) (*types.Submission, error) {
	var rejected *types.Submission
	err := s.kv.RunInTransaction(ctx, func(tx storageInterface.KVTransaction) error {
		sub, _, err := loadSubmission(tx, id)
		if err != nil {
			return err
		}
		sub.Status = types.SubmissionRejected
		rejected = sub
		return writeSubmission(tx, sub)
	})
	if err != nil {
		return nil, err
	}
	return rejected, nil
}

func loadSubmission(tx storageInterface.KVTransaction, id string) (*types.Submission, types.ContractID, error) {
	raw, err := tx.Get(subIndexKey(id))
	if err != nil {
		return nil, 0, fmt.Errorf("get submission index %s: %w", id, err)
	}
	if raw == nil {
		return nil, 0, bountyInterface.ErrNotFound
	}
	v, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return nil, 0, fmt.Errorf("corrupt submission index %s: %w", id, err)
	}
	bountyID := types.ContractID(v)

	data, err := tx.Get(subKey(bountyID, id))
	if err != nil {
		return nil, 0, fmt.Errorf("get submission %s: %w", id, err)
	}
	if data == nil {
		return nil, 0, bountyInterface.ErrNotFound
	}
	var sub types.Submission
	if err := json.Unmarshal(data, &sub); err != nil {
		return nil, 0, fmt.Errorf("decode submission %s: %w", id, err)
	}
	return &sub, bountyID, nil
}

func writeSubmission(tx storageInterface.KVTransaction, sub *types.Submission) error {
	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("encode submission: %w", err)
	}
	return tx.Set(subKey(sub.BountyID, sub.ID), data)
}

func decodeSubmissions(entries map[string][]byte) ([]*types.Submission, error) {
	out := make([]*types.Submission, 0, len(entries))
	for key, data := range entries {
		var sub types.Submission
		if err := json.Unmarshal(data, &sub); err != nil {
			return nil, fmt.Errorf("decode submission %s: %w", key, err)
		}
		out = append(out, &sub)
	}
	return out, nil
}

func sortSubmissions(subs []*types.Submission) {
	sort.Slice(subs, func(i, j int) bool {
		if subs[i].CreatedAt.Equal(subs[j].CreatedAt) {
			return subs[i].ID < subs[j].ID
		}
		return subs[i].CreatedAt.Before(subs[j].CreatedAt)
	})
}
