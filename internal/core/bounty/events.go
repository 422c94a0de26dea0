package bounty

import (
	"github.com/weisyn/bounty/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/bounty/pkg/types"
)

// 协调器发布的事件
const (
	// EventStateChanged 链上状态变化已确认，参数为 *StateChange
	EventStateChanged event.EventType = "bounty:state"
	// EventSubmissionChanged 提交记录变化，参数为 *types.Submission
	EventSubmissionChanged event.EventType = "bounty:submission"
)

// StateChange 状态变化事件载荷
type StateChange struct {
	ContractID types.ContractID
	Action     types.Action // 由外部观察到的变化为空
	Previous   *types.OnChainBountyInfo
	Current    *types.OnChainBountyInfo
}

func (c *Coordinator) publishState(change *StateChange) {
	if c.events == nil {
		return
	}
	c.events.Publish(EventStateChanged, change)
}

func (c *Coordinator) publishSubmission(sub *types.Submission) {
	if c.events == nil || sub == nil {
		return
	}
	c.events.Publish(EventSubmissionChanged, sub)
}
