// Package types provides configuration type definitions.
package types

// AppConfig 应用程序根配置
// 只包含JSON配置文件解析所需的结构，不包含任何内部字段
// 默认值和完整配置结构在 internal/config/*/defaults.go 和 internal/config/*/config.go 中定义
type AppConfig struct {
	AppName *string `json:"app_name,omitempty"` // 应用名称
	DataDir *string `json:"data_dir,omitempty"` // 数据目录路径

	// 账本节点配置
	Ledger *UserLedgerConfig `json:"ledger,omitempty"`

	// 赏金协调器配置
	Bounty *UserBountyConfig `json:"bounty,omitempty"`

	// 存储配置
	Storage *UserStorageConfig `json:"storage,omitempty"`

	// 日志配置
	Log *UserLogConfig `json:"log,omitempty"`
}

// UserLogConfig 用户日志配置
type UserLogConfig struct {
	Level     *string `json:"level,omitempty"`      // 日志级别
	FilePath  *string `json:"file_path,omitempty"`  // 日志文件路径
	ToConsole *bool   `json:"to_console,omitempty"` // 是否输出到控制台
}

// UserStorageConfig 用户存储配置
type UserStorageConfig struct {
	DataRoot *string          `json:"data_root,omitempty"` // 数据根目录
	Backend  *string          `json:"backend,omitempty"`   // 元数据存储后端：badger | redis
	Redis    *UserRedisConfig `json:"redis,omitempty"`
}

// UserRedisConfig 用户Redis配置
type UserRedisConfig struct {
	Addr      *string `json:"addr,omitempty"`
	Password  *string `json:"password,omitempty"`
	DB        *int    `json:"db,omitempty"`
	KeyPrefix *string `json:"key_prefix,omitempty"`
}

// UserLedgerConfig 用户账本节点配置
type UserLedgerConfig struct {
	Endpoint           *string `json:"endpoint,omitempty"`            // JSON-RPC 地址
	Timeout            *string `json:"timeout,omitempty"`             // 单次请求超时，如 "30s"
	ConfirmationRounds *uint64 `json:"confirmation_rounds,omitempty"` // 等待确认的最大轮次
	PollInterval       *string `json:"poll_interval,omitempty"`       // 确认轮询间隔
	MinFlatFee         *uint64 `json:"min_flat_fee,omitempty"`        // 应用调用的最低固定费用
	InnerTxnFee        *uint64 `json:"inner_txn_fee,omitempty"`       // 每笔内部转账的附加费用
	MinBalance         *uint64 `json:"min_balance,omitempty"`         // 托管账户最低余额
	ApprovalProgram    *string `json:"approval_program,omitempty"`    // 批准程序 TEAL 源文件路径
	ClearProgram       *string `json:"clear_program,omitempty"`       // 清除程序 TEAL 源文件路径
}

// UserBountyConfig 用户协调器配置
type UserBountyConfig struct {
	CacheTTL      *string `json:"cache_ttl,omitempty"`      // 链上状态提示缓存有效期
	WatchInterval *string `json:"watch_interval,omitempty"` // watcher 刷新间隔
	MetricsAddr   *string `json:"metrics_addr,omitempty"`   // /metrics 监听地址
}
