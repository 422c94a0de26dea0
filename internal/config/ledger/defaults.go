package ledger

import "time"

// 账本网关默认配置值
const (
	// defaultEndpoint 本地开发节点的 JSON-RPC 地址
	defaultEndpoint = "http://localhost:4001/rpc"

	// defaultTimeout 单次 RPC 请求超时
	defaultTimeout = 30 * time.Second

	// defaultConfirmationRounds 等待确认的最大轮次
	// 超过后按"确认超时"处理，由协调器重新读取链上状态决定结果
	defaultConfirmationRounds = 4

	// defaultPollInterval 确认轮询间隔
	defaultPollInterval = time.Second

	// defaultMinFlatFee 应用调用的最低固定费用（最小计价单位）
	defaultMinFlatFee = 2000

	// defaultInnerTxnFee 每笔内部转账需要额外预付的费用
	// approve 与 cancel 会由合约发起一笔奖励转账
	defaultInnerTxnFee = 1000

	// defaultMinBalance 合约托管账户的最低余额
	defaultMinBalance = 100_000
)
