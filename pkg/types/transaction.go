package types

// TxType 交易类型
type TxType string

const (
	TxTypePayment TxType = "pay"  // 原生币转账
	TxTypeAppCall TxType = "appl" // 应用调用（含创建）
)

// OnComplete 应用调用完成动作
type OnComplete uint8

const (
	OnCompleteNoOp OnComplete = 0
)

// SuggestedParams 节点建议的交易参数
type SuggestedParams struct {
	Fee         uint64 `json:"fee"`     // 每字节费率
	MinFee      uint64 `json:"min_fee"` // 单笔最低费用
	FirstValid  uint64 `json:"first_valid"`
	LastValid   uint64 `json:"last_valid"`
	GenesisID   string `json:"genesis_id"`
	GenesisHash []byte `json:"genesis_hash"`
}

// Transaction 待签名交易
//
// 字段顺序即签名载荷的序列化顺序，修改会改变 TxID
type Transaction struct {
	Type        TxType `json:"type"`
	Sender      string `json:"snd"`
	Fee         uint64 `json:"fee"`
	FirstValid  uint64 `json:"fv"`
	LastValid   uint64 `json:"lv"`
	GenesisID   string `json:"gen,omitempty"`
	GenesisHash []byte `json:"gh,omitempty"`
	Group       []byte `json:"grp,omitempty"`
	Note        []byte `json:"note,omitempty"`

	// 转账字段
	Receiver string `json:"rcv,omitempty"`
	Amount   uint64 `json:"amt,omitempty"`

	// 应用调用字段
	AppID              ContractID `json:"apid,omitempty"`
	OnComplete         OnComplete `json:"apan,omitempty"`
	AppArgs            [][]byte   `json:"apaa,omitempty"`
	Accounts           []string   `json:"apat,omitempty"`
	ApprovalProgram    []byte     `json:"apap,omitempty"`
	ClearProgram       []byte     `json:"apsu,omitempty"`
	GlobalNumUint      uint64     `json:"gnui,omitempty"`
	GlobalNumByteSlice uint64     `json:"gnbs,omitempty"`
}

// SignedTransaction 已签名交易
type SignedTransaction struct {
	Txn       *Transaction `json:"txn"`
	Signature []byte       `json:"sig"`
	PublicKey []byte       `json:"pk"`
}

// Receipt 交易确认回执
type Receipt struct {
	TxID             string     `json:"tx_id"`
	ConfirmedRound   uint64     `json:"confirmed_round"`
	ApplicationIndex ContractID `json:"application_index,omitempty"` // 应用创建交易返回的新合约 ID
	Logs             [][]byte   `json:"logs,omitempty"`
}

// ContractCall 一次状态变更调用的描述
type ContractCall struct {
	ContractID ContractID
	Action     Action
	Sender     string
	Args       [][]byte // 方法名之后的附加参数
	Accounts   []string // 合约需要访问的外部账户（approve 时为认领者）
}

// DeployRequest 部署并注资请求
type DeployRequest struct {
	Creator         string
	Reward          uint64
	ApprovalProgram []byte
	ClearProgram    []byte
}
