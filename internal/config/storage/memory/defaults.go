package memory

import "time"

// 内存缓存默认配置值
const (
	// defaultLifeWindow 条目默认生命周期
	// 缓存只保存链上状态提示，过期后必然重新读取
	defaultLifeWindow = 30 * time.Second

	// defaultCleanWindow 过期条目清理间隔
	defaultCleanWindow = time.Minute

	// defaultMaxEntriesInWindow 生命周期窗口内的预估条目数
	// 用于 BigCache 预分配，单用户同时关注的赏金数量有限
	defaultMaxEntriesInWindow = 1024

	// defaultMaxEntrySize 单条目预估大小（字节）
	defaultMaxEntrySize = 512

	// defaultShards 分片数，必须是2的幂
	defaultShards = 64

	// defaultHardMaxCacheSizeMB 缓存硬上限（MB）
	defaultHardMaxCacheSizeMB = 16
)
