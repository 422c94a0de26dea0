// Package types 定义赏金系统的领域类型
//
// 链上实体（Bounty / OnChainBountyInfo）是状态的唯一权威来源；
// 链下实体（BountyMetadata / Submission）只承载描述信息，不参与任何授权判断。
package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ContractID 合约实例标识（链上应用 ID），创建时分配，不可变
type ContractID uint64

// String 返回十进制表示
func (id ContractID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseContractID 从字符串解析合约标识
// 同时接受 "chain-<id>" 形式
func ParseContractID(s string) (ContractID, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "chain-")
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("invalid contract id %q", s)
	}
	return ContractID(v), nil
}

// BountyStatus 链上赏金状态（合约全局状态中的 uint64 编码）
type BountyStatus uint8

const (
	StatusOpen      BountyStatus = 0 // 可认领
	StatusClaimed   BountyStatus = 1 // 已认领，工作进行中
	StatusSubmitted BountyStatus = 2 // 已提交工作
	StatusApproved  BountyStatus = 3 // 已批准并支付（终态）
	StatusCancelled BountyStatus = 4 // 已取消并退款（终态）
)

// ParseBountyStatus 将链上状态码转换为 BountyStatus
func ParseBountyStatus(code uint64) (BountyStatus, error) {
	if code > uint64(StatusCancelled) {
		return 0, fmt.Errorf("unknown bounty status code %d", code)
	}
	return BountyStatus(code), nil
}

// String 返回状态名称
func (s BountyStatus) String() string {
	switch s {
	case StatusOpen:
		return "Open"
	case StatusClaimed:
		return "Claimed"
	case StatusSubmitted:
		return "Submitted"
	case StatusApproved:
		return "Approved"
	case StatusCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Label 返回面向用户的展示文案
func (s BountyStatus) Label() string {
	switch s {
	case StatusOpen:
		return "Open"
	case StatusClaimed:
		return "In Progress"
	case StatusSubmitted:
		return "Submitted"
	case StatusApproved:
		return "Completed"
	case StatusCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// IsTerminal 是否为终态
func (s BountyStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusCancelled
}

// OnChainBountyInfo get_bounty_info() 的返回值
type OnChainBountyInfo struct {
	ContractID ContractID   `json:"contract_id"`
	Creator    string       `json:"creator"`
	Worker     string       `json:"worker,omitempty"` // 未认领时为空
	Amount     uint64       `json:"amount"`           // 托管金额（最小单位）
	Status     BountyStatus `json:"status"`
}

// HasWorker 是否已绑定认领者
func (i *OnChainBountyInfo) HasWorker() bool {
	return i != nil && i.Worker != ""
}

// Clone 返回副本
func (i *OnChainBountyInfo) Clone() *OnChainBountyInfo {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

// Difficulty 难度等级
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Valid 是否为已知难度
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// BountyMetadata 链下描述信息，创建时写入一次，此后不再修改
//
// 注意：不保存状态字段，展示状态一律从链上状态推导
type BountyMetadata struct {
	ContractID     ContractID `json:"contract_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Category       string     `json:"category"`
	Difficulty     Difficulty `json:"difficulty"`
	Reward         uint64     `json:"reward"` // 创建时的托管金额，仅用于展示
	CreatorAddress string     `json:"creator_address"`
	CreatedAt      time.Time  `json:"created_at"`
}

// SubmissionStatus 链下提交记录状态
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

// Submission 工作提交记录（链下、仅供参考，链上状态才是门槛）
type Submission struct {
	ID               string           `json:"id"`
	BountyID         ContractID       `json:"bounty_id"`
	SubmitterAddress string           `json:"submitter"`
	Content          string           `json:"content"`
	CreatedAt        time.Time        `json:"created_at"`
	Status           SubmissionStatus `json:"status"`
}

// Bounty 链下元数据与链上状态的组合视图
type Bounty struct {
	Metadata    BountyMetadata     `json:"metadata"`
	OnChain     *OnChainBountyInfo `json:"on_chain,omitempty"`
	StatusKnown bool               `json:"status_known"`
	ReadError   string             `json:"read_error,omitempty"`
}

// StatusLabel 返回展示用状态文案，链上状态不可读时返回 "Status Unknown"
func (b *Bounty) StatusLabel() string {
	if !b.StatusKnown || b.OnChain == nil {
		return "Status Unknown"
	}
	return b.OnChain.Status.Label()
}
