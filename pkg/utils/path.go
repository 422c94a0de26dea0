// Package utils provides amount and path helpers shared by the bounty tools.
package utils

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultDataDirName 默认数据目录名（位于用户主目录下）
const DefaultDataDirName = ".bounty"

// DefaultDataDir 返回默认数据目录的绝对路径
// 优先级：BOUNTY_HOME 环境变量 > ~/.bounty > ./.bounty
func DefaultDataDir() string {
	if home := os.Getenv("BOUNTY_HOME"); home != "" {
		return home
	}
	if userHome, err := os.UserHomeDir(); err == nil && userHome != "" {
		return filepath.Join(userHome, DefaultDataDirName)
	}
	return DefaultDataDirName
}

// ResolveDataPath 解析数据目录路径为绝对路径
// 如果path已经是绝对路径，直接返回
// "~/" 开头的路径基于用户主目录展开，其余相对路径基于 base 解析
func ResolveDataPath(base, path string) string {
	if path == "" {
		return base
	}
	if strings.HasPrefix(path, "~/") {
		if userHome, err := os.UserHomeDir(); err == nil {
			return filepath.Join(userHome, path[2:])
		}
	}
	if filepath.IsAbs(path) {
		return path
	}
	if base == "" {
		if wd, err := os.Getwd(); err == nil {
			base = wd
		}
	}
	return filepath.Join(base, path)
}

// EnsureDir 确保目录存在，如果不存在则创建
func EnsureDir(path string) error {
	//nolint:gosec // G301: 目录需要用户可读权限，0755 是合理的
	return os.MkdirAll(path, 0755)
}
