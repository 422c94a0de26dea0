package log

import (
	"go.uber.org/zap/zapcore"
)

// 日志配置默认值
const (
	// defaultLogLevel 默认日志级别设为"info"
	defaultLogLevel = "info"

	// defaultToConsole 默认不输出到控制台
	// 命令行工具的标准输出留给命令结果，日志写入文件；--verbose 时输出到 stderr
	defaultToConsole = false

	// defaultLogFileName 日志文件名，位于数据目录的 logs/ 下
	defaultLogFileName = "bounty.log"

	// === 日志轮转配置 ===

	// defaultMaxSize 单个日志文件最大大小设为20MB
	// 客户端日志量远小于节点，20MB 足够覆盖数周的操作记录
	defaultMaxSize = 20

	// defaultMaxBackups 最大备份文件数设为5
	defaultMaxBackups = 5

	// defaultMaxAge 日志文件最大保留天数设为30天
	defaultMaxAge = 30

	// defaultCompress 默认启用历史日志压缩
	defaultCompress = true

	// === 调试配置 ===

	// defaultEnableCaller 默认启用调用者信息
	defaultEnableCaller = true

	// defaultEnableStacktrace 默认对Error级别启用堆栈跟踪
	defaultEnableStacktrace = true
)

// defaultLevelMap 级别字符串到 zap 级别的映射
var defaultLevelMap = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
	"fatal": zapcore.FatalLevel,
}
