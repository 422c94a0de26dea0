package badger

// Badger存储默认配置值
const (
	// defaultDirName 数据根目录下的 badger 子目录
	defaultDirName = "badger"

	// defaultSyncWrites 默认启用同步写入
	// 元数据量很小，同步写入的开销可以忽略，换取进程崩溃后不丢记录
	defaultSyncWrites = true

	// defaultMemTableSize 默认内存表大小 16MB
	// 单用户客户端的写入量极低，不需要节点级别的内存表
	defaultMemTableSize = 16 << 20

	// defaultEnableAutoCompaction 默认启用自动压缩
	defaultEnableAutoCompaction = true
)
