// Package version provides version information for the application.
package version

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// 构建时注入的变量，通过ldflags设置
//
//	go build -ldflags "-X github.com/weisyn/bounty/internal/app/version.Version=v0.3.0"
var (
	Version   = "v0.1.0"
	Commit    = "unknown"
	BuildTime = "unknown" // RFC3339
)

// BuildInfo 构建信息
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetVersion 获取版本号
func GetVersion() string {
	return Version
}

// GetBuildInfo 获取完整构建信息
func GetBuildInfo() *BuildInfo {
	return &BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// GetFullVersion 多行版本说明
func GetFullVersion() string {
	info := GetBuildInfo()

	var b strings.Builder
	fmt.Fprintf(&b, "bounty %s", info.Version)
	if info.Commit != "unknown" {
		fmt.Fprintf(&b, " (%s)", info.Commit)
	}
	if info.BuildTime != "unknown" {
		if t, err := time.Parse(time.RFC3339, info.BuildTime); err == nil {
			fmt.Fprintf(&b, "\n构建时间: %s", t.Format("2006-01-02 15:04:05 MST"))
		} else {
			fmt.Fprintf(&b, "\n构建时间: %s", info.BuildTime)
		}
	}
	fmt.Fprintf(&b, "\nGo版本: %s\n平台: %s", info.GoVersion, info.Platform)
	return b.String()
}
