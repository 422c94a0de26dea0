package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/weisyn/bounty/client/core/output"
	"github.com/weisyn/bounty/client/core/wallet"
	"github.com/weisyn/bounty/internal/app"
	"github.com/weisyn/bounty/internal/app/version"
	"github.com/weisyn/bounty/internal/config"
	"github.com/weisyn/bounty/internal/core/bounty"
	bountyInterface "github.com/weisyn/bounty/pkg/interfaces/bounty"
	"github.com/weisyn/bounty/pkg/types"
)

// EnvPassword 非交互环境下的 keystore 密码
const EnvPassword = "BOUNTY_PASSWORD"

// GlobalFlags 全局标志
type GlobalFlags struct {
	Network      string // 内置网络配置
	ConfigFile   string // 用户配置文件
	OutputFormat string // 输出格式
	From         string // 签名账户地址
	Yes          bool   // 跳过签名确认
	Silent       bool   // 静默模式
	Verbose      bool   // 日志输出到 stderr
}

var (
	globalFlags GlobalFlags
	appConfig   *types.AppConfig
	formatter   *output.Formatter
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "bounty",
	Short: "赏金合约命令行客户端",
	Long: `bounty - 托管合约赏金的命令行客户端

创建者发布赏金并托管奖励，工作者认领、提交成果，创建者批准后合约直接向工作者付款。
赏金状态以链上合约为准，标题、描述与提交内容保存在本地元数据存储。

涉及资金或状态变更的命令在签名前会列出交易摘要并请求确认，--yes 跳过确认。`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(globalFlags.OutputFormat)
		if err != nil {
			return err
		}
		formatter = output.NewFormatter(format, os.Stdout)
		formatter.SetSilent(globalFlags.Silent)

		appConfig, err = config.Load(config.LoadOptions{
			Network:    globalFlags.Network,
			ConfigFile: globalFlags.ConfigFile,
		})
		if err != nil {
			return fmt.Errorf("加载配置: %w", err)
		}
		if globalFlags.Verbose {
			level, toConsole := "debug", true
			if appConfig.Log == nil {
				appConfig.Log = &types.UserLogConfig{}
			}
			appConfig.Log.Level = &level
			appConfig.Log.ToConsole = &toConsole
		}
		return nil
	},
}

// Execute 执行根命令
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		reportError(err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&globalFlags.Network, "network", "localnet", "内置网络配置: localnet|testnet")
	flags.StringVar(&globalFlags.ConfigFile, "config", "", "配置文件路径，覆盖内置网络配置")
	flags.StringVarP(&globalFlags.OutputFormat, "output", "o", "table", "输出格式: json|pretty|table|text")
	flags.StringVar(&globalFlags.From, "from", "", "签名账户地址 (keystore 中只有一个账户时可省略)")
	flags.BoolVarP(&globalFlags.Yes, "yes", "y", false, "跳过签名确认")
	flags.BoolVar(&globalFlags.Silent, "silent", false, "静默模式 (仅输出结果)")
	flags.BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "详细日志输出到 stderr")

	rootCmd.AddCommand(walletCmd)
	rootCmd.AddCommand(createCmd, infoCmd, listCmd)
	rootCmd.AddCommand(claimCmd, submitCmd, approveCmd, cancelCmd)
	rootCmd.AddCommand(submissionsCmd, rejectCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.Version = version.GetVersion()
}

// reportError 输出错误；json 格式下输出结构化错误
func reportError(err error) {
	if formatter == nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		return
	}
	if oe, ok := bounty.AsOperationError(err); ok {
		switch formatter.Format() {
		case output.FormatJSON, output.FormatPretty:
			_ = formatter.Print(output.NewErrorOutput(string(oe.Reason), oe.Message, oe.Current))
			return
		}
		formatter.PrintError(err)
		if oe.Retryable() {
			formatter.PrintInfo("可以稍后重试，或用 info 命令查看链上状态")
		}
		return
	}
	formatter.PrintError(err)
}

// dataRoot 数据根目录，无需启动会话
func dataRoot() string {
	return config.NewProvider(appConfig).GetDataRoot()
}

// openKeystore 打开数据目录下的 keystore
func openKeystore() (*wallet.Keystore, error) {
	ks, err := wallet.NewKeystore(filepath.Join(dataRoot(), "keystore"))
	if err != nil {
		return nil, fmt.Errorf("打开 keystore: %w", err)
	}
	return ks, nil
}

// currentAddress 当前账户地址，不需要解锁
func currentAddress() (string, error) {
	ks, err := openKeystore()
	if err != nil {
		return "", err
	}
	return ks.Resolve(globalFlags.From)
}

// unlockSigner 解锁当前账户并包装签名确认
func unlockSigner() (bountyInterface.Signer, error) {
	ks, err := openKeystore()
	if err != nil {
		return nil, err
	}
	addr, err := ks.Resolve(globalFlags.From)
	if err != nil {
		return nil, err
	}
	password := os.Getenv(EnvPassword)
	if password == "" {
		password, err = promptPassword(fmt.Sprintf("输入 %s 的密码", addr))
		if err != nil {
			return nil, err
		}
	}
	signer, err := ks.Open(addr, password)
	if err != nil {
		return nil, err
	}
	return wallet.NewConfirmSigner(signer, wallet.InteractiveConfirm(globalFlags.Yes)), nil
}

// startSession 启动会话，调用方负责 Stop
func startSession() (*app.Session, error) {
	return app.Start(app.WithAppConfig(appConfig))
}

// withSession 在会话内执行 fn
func withSession(fn func(s *app.Session) error) error {
	session, err := startSession()
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Stop(); err != nil {
			formatter.PrintWarning(fmt.Sprintf("关闭会话: %v", err))
		}
	}()
	return fn(session)
}

// promptPassword 从终端读取密码
func promptPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("标准输入不是终端，请通过 %s 提供密码", EnvPassword)
	}
	fmt.Fprint(os.Stderr, prompt+": ")
	bytePassword, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("读取密码失败: %w", err)
	}
	return string(bytePassword), nil
}

// promptNewPassword 读取并确认新密码
func promptNewPassword() (string, error) {
	if password := os.Getenv(EnvPassword); password != "" {
		return password, nil
	}
	password, err := promptPassword("设置 keystore 密码")
	if err != nil {
		return "", err
	}
	if password == "" {
		return "", fmt.Errorf("密码不能为空")
	}
	confirm, err := promptPassword("再次输入密码")
	if err != nil {
		return "", err
	}
	if password != confirm {
		return "", fmt.Errorf("密码不匹配")
	}
	return password, nil
}

// parseContractID 解析位置参数中的合约 ID
func parseContractID(s string) (types.ContractID, error) {
	id, err := types.ParseContractID(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("无效的合约 ID %q: %w", s, err)
	}
	return id, nil
}

// printResult 输出状态变更结果
func printResult(res *bounty.Result) error {
	switch {
	case res.Cancelled:
		formatter.PrintWarning("已取消签名，链上与本地状态均未改变")
	case res.Reconciled:
		formatter.PrintSuccess("调用报错，但链上状态表明操作已生效")
	default:
		formatter.PrintSuccess(fmt.Sprintf("%s 已确认", res.Action))
	}
	if res.Warning != "" {
		formatter.PrintWarning(res.Warning)
	}
	return formatter.Print(output.ResultFields(res))
}
