// Package configs 内置的网络配置文件
package configs

import _ "embed"

// 网络名称
const (
	NetworkLocalnet = "localnet"
	NetworkTestnet  = "testnet"
)

//go:embed localnet/bounty.json
var localnetConfig []byte

//go:embed testnet/bounty.json
var testnetConfig []byte

// GetEmbeddedConfig 按网络名称获取内置配置，未知网络返回 nil
func GetEmbeddedConfig(network string) []byte {
	switch network {
	case NetworkLocalnet, "":
		return localnetConfig
	case NetworkTestnet:
		return testnetConfig
	default:
		return nil
	}
}
