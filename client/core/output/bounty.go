package output

import (
	"encoding/json"
	"strings"

	"github.com/weisyn/bounty/internal/core/bounty"
	"github.com/weisyn/bounty/pkg/types"
	"github.com/weisyn/bounty/pkg/utils"
)

// Fields 有序的键值展示；JSON 输出时使用 Data
type Fields struct {
	keys   []string
	values []string
	Data   interface{}
}

// NewFields 创建键值展示
func NewFields(data interface{}) *Fields {
	return &Fields{Data: data}
}

// Add 追加一项
func (f *Fields) Add(key string, value interface{}) *Fields {
	f.keys = append(f.keys, key)
	f.values = append(f.values, formatValue(value))
	return f
}

func (f *Fields) rows() [][]string {
	rows := make([][]string, len(f.keys))
	for i := range f.keys {
		rows[i] = []string{f.keys[i], f.values[i]}
	}
	return rows
}

// MarshalJSON JSON 输出使用原始数据
func (f *Fields) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Data)
}

// MarshalJSON JSON 输出使用原始数据
func (t *Table) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Data)
}

// short 截断长地址
func short(addr string) string {
	if len(addr) <= 14 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-6:]
}

// StatusOf 展示状态；链上状态不可读时为 Unknown
func StatusOf(b *types.Bounty) string {
	if !b.StatusKnown || b.OnChain == nil {
		return "Unknown"
	}
	return b.OnChain.Status.Label()
}

// BountyTable 赏金列表
func BountyTable(bounties []*types.Bounty) *Table {
	t := &Table{
		Columns: []string{"ID", "Title", "Difficulty", "Reward", "Status", "Creator", "Worker"},
		Data:    bounties,
	}
	for _, b := range bounties {
		reward := b.Metadata.Reward
		worker := ""
		if b.OnChain != nil {
			if b.OnChain.Amount > 0 {
				reward = b.OnChain.Amount
			}
			worker = b.OnChain.Worker
		}
		t.Rows = append(t.Rows, []string{
			b.Metadata.ContractID.String(),
			formatValue(b.Metadata.Title),
			formatValue(string(b.Metadata.Difficulty)),
			utils.FormatAmount(reward),
			StatusOf(b),
			short(formatValue(b.Metadata.CreatorAddress)),
			short(formatValue(worker)),
		})
	}
	return t
}

// BountyFields 单个赏金详情
func BountyFields(b *types.Bounty) *Fields {
	f := NewFields(b).
		Add("ID", b.Metadata.ContractID).
		Add("Title", b.Metadata.Title).
		Add("Category", b.Metadata.Category).
		Add("Difficulty", string(b.Metadata.Difficulty)).
		Add("Status", StatusOf(b))
	if b.OnChain != nil {
		f.Add("Creator", b.OnChain.Creator).
			Add("Worker", b.OnChain.Worker).
			Add("Escrow", utils.FormatAmount(b.OnChain.Amount))
	} else {
		f.Add("Creator", b.Metadata.CreatorAddress)
	}
	if b.ReadError != "" {
		f.Add("Read error", b.ReadError)
	}
	f.Add("Created", b.Metadata.CreatedAt)
	if d := strings.TrimSpace(b.Metadata.Description); d != "" {
		f.Add("Description", d)
	}
	return f
}

// SubmissionTable 提交记录列表
func SubmissionTable(subs []*types.Submission) *Table {
	t := &Table{
		Columns: []string{"ID", "Submitter", "Status", "Created", "Content"},
		Data:    subs,
	}
	for _, s := range subs {
		content := strings.Join(strings.Fields(s.Content), " ")
		if len([]rune(content)) > 48 {
			content = string([]rune(content)[:47]) + "…"
		}
		t.Rows = append(t.Rows, []string{
			s.ID,
			short(s.SubmitterAddress),
			string(s.Status),
			formatValue(s.CreatedAt),
			formatValue(content),
		})
	}
	return t
}

// ResultFields 操作结果
func ResultFields(r *bounty.Result) *Fields {
	f := NewFields(r).Add("Action", string(r.Action))
	if r.Cancelled {
		return f.Add("Outcome", "signing cancelled, nothing changed")
	}
	f.Add("Contract", r.ContractID).Add("Transaction", r.TxID)
	if r.State != nil {
		f.Add("Status", r.State.Status.Label()).Add("Escrow", utils.FormatAmount(r.State.Amount))
	}
	if r.Reconciled {
		f.Add("Note", "confirmed by re-reading on-chain state")
	}
	if r.Submission != nil {
		f.Add("Submission", r.Submission.ID)
	}
	if r.Warning != "" {
		f.Add("Warning", r.Warning)
	}
	return f
}
