// Package ledger 账本节点与交易费用配置
package ledger

import (
	"strings"
	"time"

	configtypes "github.com/weisyn/bounty/pkg/types"
	"github.com/weisyn/bounty/pkg/utils"
)

// LedgerOptions 账本网关配置选项
type LedgerOptions struct {
	Endpoint           string        `json:"endpoint"`            // JSON-RPC 地址
	Timeout            time.Duration `json:"timeout"`             // 单次请求超时
	ConfirmationRounds uint64        `json:"confirmation_rounds"` // 等待确认的最大轮次
	PollInterval       time.Duration `json:"poll_interval"`       // 确认轮询间隔

	// === 费用策略 ===
	MinFlatFee  uint64 `json:"min_flat_fee"`  // 应用调用最低固定费用
	InnerTxnFee uint64 `json:"inner_txn_fee"` // 每笔内部转账附加费用
	MinBalance  uint64 `json:"min_balance"`   // 托管账户最低余额

	// === 合约程序 ===
	ApprovalProgramPath string `json:"approval_program"` // 批准程序源文件路径，为空时使用内置程序
	ClearProgramPath    string `json:"clear_program"`    // 清除程序源文件路径，为空时使用内置程序
}

// Config 账本网关配置实现
type Config struct {
	options *LedgerOptions
}

// New 创建账本网关配置
func New(userConfig *configtypes.UserLedgerConfig, dataRoot string) *Config {
	options := createDefaultLedgerOptions()
	if userConfig != nil {
		applyUserLedgerConfig(options, userConfig, dataRoot)
	}
	return &Config{options: options}
}

// NewFromOptions 从选项直接创建配置
func NewFromOptions(options *LedgerOptions) *Config {
	return &Config{options: options}
}

// Defaults 返回一份默认选项的拷贝
func Defaults() *LedgerOptions {
	return createDefaultLedgerOptions()
}

func createDefaultLedgerOptions() *LedgerOptions {
	return &LedgerOptions{
		Endpoint:           defaultEndpoint,
		Timeout:            defaultTimeout,
		ConfirmationRounds: defaultConfirmationRounds,
		PollInterval:       defaultPollInterval,
		MinFlatFee:         defaultMinFlatFee,
		InnerTxnFee:        defaultInnerTxnFee,
		MinBalance:         defaultMinBalance,
	}
}

func applyUserLedgerConfig(options *LedgerOptions, c *configtypes.UserLedgerConfig, dataRoot string) {
	if c.Endpoint != nil && strings.TrimSpace(*c.Endpoint) != "" {
		options.Endpoint = strings.TrimSpace(*c.Endpoint)
	}
	if c.Timeout != nil {
		if d, err := time.ParseDuration(*c.Timeout); err == nil && d > 0 {
			options.Timeout = d
		}
	}
	if c.ConfirmationRounds != nil && *c.ConfirmationRounds > 0 {
		options.ConfirmationRounds = *c.ConfirmationRounds
	}
	if c.PollInterval != nil {
		if d, err := time.ParseDuration(*c.PollInterval); err == nil && d > 0 {
			options.PollInterval = d
		}
	}
	// 费用只允许调高，低于协议下限的配置会导致交易被拒
	if c.MinFlatFee != nil && *c.MinFlatFee > options.MinFlatFee {
		options.MinFlatFee = *c.MinFlatFee
	}
	if c.InnerTxnFee != nil && *c.InnerTxnFee > options.InnerTxnFee {
		options.InnerTxnFee = *c.InnerTxnFee
	}
	if c.MinBalance != nil && *c.MinBalance > options.MinBalance {
		options.MinBalance = *c.MinBalance
	}
	if c.ApprovalProgram != nil && *c.ApprovalProgram != "" {
		options.ApprovalProgramPath = utils.ResolveDataPath(dataRoot, *c.ApprovalProgram)
	}
	if c.ClearProgram != nil && *c.ClearProgram != "" {
		options.ClearProgramPath = utils.ResolveDataPath(dataRoot, *c.ClearProgram)
	}
}

// GetOptions 获取完整选项
func (c *Config) GetOptions() *LedgerOptions {
	return c.options
}

// GetEndpoint 获取 JSON-RPC 地址
func (c *Config) GetEndpoint() string {
	return c.options.Endpoint
}

// GetTimeout 获取请求超时
func (c *Config) GetTimeout() time.Duration {
	return c.options.Timeout
}

// GetConfirmationRounds 获取最大确认轮次
func (c *Config) GetConfirmationRounds() uint64 {
	return c.options.ConfirmationRounds
}

// GetPollInterval 获取轮询间隔
func (c *Config) GetPollInterval() time.Duration {
	return c.options.PollInterval
}
