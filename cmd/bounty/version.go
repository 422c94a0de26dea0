package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weisyn/bounty/client/core/output"
	"github.com/weisyn/bounty/internal/app/version"
)

// versionCmd 版本信息
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Args:  cobra.NoArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 不需要加载配置
		format, err := output.ParseFormat(globalFlags.OutputFormat)
		if err != nil {
			return err
		}
		formatter = output.NewFormatter(format, cmd.OutOrStdout())
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		switch formatter.Format() {
		case output.FormatJSON, output.FormatPretty:
			return formatter.Print(version.GetBuildInfo())
		}
		fmt.Fprintln(cmd.OutOrStdout(), version.GetFullVersion())
		return nil
	},
}
