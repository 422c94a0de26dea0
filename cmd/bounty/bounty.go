package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/weisyn/bounty/client/core/output"
	"github.com/weisyn/bounty/internal/app"
	"github.com/weisyn/bounty/internal/core/bounty"
	bountyInterface "github.com/weisyn/bounty/pkg/interfaces/bounty"
	"github.com/weisyn/bounty/pkg/types"
	"github.com/weisyn/bounty/pkg/utils"
)

var (
	createTitle       string
	createDescription string
	createCategory    string
	createDifficulty  string
	createReward      string
	listMine          bool
	submitContent     string
	approveWorker     string
)

// createCmd 部署并注资一个新赏金
var createCmd = &cobra.Command{
	Use:   "create",
	Short: "发布赏金",
	Long: `部署赏金合约，注入托管账户最低余额，并在一个原子交易组中转入奖励。

示例：
  bounty create --title "修复登录页" --reward 25 --difficulty Easy`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reward, err := utils.ParseAmount(createReward)
		if err != nil {
			return fmt.Errorf("无效的奖励金额: %w", err)
		}
		signer, err := unlockSigner()
		if err != nil {
			return err
		}
		return withSession(func(s *app.Session) error {
			res, err := s.Coordinator.CreateBounty(cmd.Context(), bounty.CreateRequest{
				Title:       createTitle,
				Description: createDescription,
				Category:    createCategory,
				Difficulty:  types.Difficulty(createDifficulty),
				Reward:      reward,
			}, signer)
			if err != nil {
				return err
			}
			return printResult(res)
		})
	},
}

// infoCmd 查看单个赏金
var infoCmd = &cobra.Command{
	Use:   "info <contract-id>",
	Short: "查看赏金详情",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseContractID(args[0])
		if err != nil {
			return err
		}
		return withSession(func(s *app.Session) error {
			b, err := s.Coordinator.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !b.StatusKnown {
				formatter.PrintWarning(fmt.Sprintf("无法读取链上状态: %s", b.ReadError))
			}
			return formatter.Print(output.BountyFields(b))
		})
	},
}

// listCmd 列出赏金
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "列出赏金",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var creator string
		if listMine {
			addr, err := currentAddress()
			if err != nil {
				return err
			}
			creator = addr
		}
		return withSession(func(s *app.Session) error {
			spinner := startSpinner("读取链上状态...")
			var (
				list []*types.Bounty
				err  error
			)
			if creator != "" {
				list, err = s.Coordinator.ListByCreator(cmd.Context(), creator)
			} else {
				list, err = s.Coordinator.ListBounties(cmd.Context())
			}
			stopSpinner(spinner)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				formatter.PrintInfo("没有赏金，使用 'bounty create' 发布")
				return nil
			}
			unknown := 0
			for _, b := range list {
				if !b.StatusKnown {
					unknown++
				}
			}
			if unknown > 0 {
				formatter.PrintWarning(fmt.Sprintf("%d 个赏金的链上状态暂时不可读，显示为 Unknown", unknown))
			}
			return formatter.Print(output.BountyTable(list))
		})
	},
}

// claimCmd 认领赏金
var claimCmd = &cobra.Command{
	Use:   "claim <contract-id>",
	Short: "认领赏金",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransition(cmd, args[0], func(s *app.Session, id types.ContractID, signer bountyInterface.Signer) (*bounty.Result, error) {
			return s.Coordinator.Claim(cmd.Context(), id, signer)
		})
	},
}

// submitCmd 提交成果
var submitCmd = &cobra.Command{
	Use:   "submit <contract-id>",
	Short: "提交工作成果",
	Long: `提交工作成果。成果内容保存在本地元数据存储，链上只记录状态变化。

示例：
  bounty submit 1042 --content "https://github.com/org/repo/pull/7"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(submitContent) == "" {
			return fmt.Errorf("--content 不能为空")
		}
		return runTransition(cmd, args[0], func(s *app.Session, id types.ContractID, signer bountyInterface.Signer) (*bounty.Result, error) {
			return s.Coordinator.SubmitWork(cmd.Context(), id, signer, submitContent)
		})
	},
}

// approveCmd 批准并付款
var approveCmd = &cobra.Command{
	Use:   "approve <contract-id>",
	Short: "批准成果并向工作者付款",
	Long: `批准已提交的成果，合约将托管资金转给工作者。

--worker 省略时使用链上记录的工作者；指定时必须与链上记录一致。`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransition(cmd, args[0], func(s *app.Session, id types.ContractID, signer bountyInterface.Signer) (*bounty.Result, error) {
			return s.Coordinator.Approve(cmd.Context(), id, signer, approveWorker)
		})
	},
}

// cancelCmd 取消赏金
var cancelCmd = &cobra.Command{
	Use:   "cancel <contract-id>",
	Short: "取消赏金并退回托管资金",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransition(cmd, args[0], func(s *app.Session, id types.ContractID, signer bountyInterface.Signer) (*bounty.Result, error) {
			return s.Coordinator.Cancel(cmd.Context(), id, signer)
		})
	},
}

// submissionsCmd 列出提交记录
var submissionsCmd = &cobra.Command{
	Use:   "submissions <contract-id>",
	Short: "列出赏金的提交记录",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseContractID(args[0])
		if err != nil {
			return err
		}
		return withSession(func(s *app.Session) error {
			subs, err := s.Coordinator.Submissions(cmd.Context(), id)
			if err != nil {
				return err
			}
			if len(subs) == 0 {
				formatter.PrintInfo("暂无提交记录")
				return nil
			}
			return formatter.Print(output.SubmissionTable(subs))
		})
	},
}

// rejectCmd 拒绝提交记录
var rejectCmd = &cobra.Command{
	Use:   "reject <submission-id>",
	Short: "拒绝一条提交记录",
	Long:  "将提交记录标记为已拒绝。只修改本地记录，不发送交易，仅赏金创建者可以操作。",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		caller, err := currentAddress()
		if err != nil {
			return err
		}
		return withSession(func(s *app.Session) error {
			sub, err := s.Coordinator.RejectSubmission(cmd.Context(), args[0], caller)
			if err != nil {
				return err
			}
			formatter.PrintSuccess(fmt.Sprintf("提交记录 %s 已拒绝", sub.ID))
			return formatter.Print(output.SubmissionTable([]*types.Submission{sub}))
		})
	},
}

// startSpinner 仅在 stderr 为终端时显示进度
func startSpinner(text string) *pterm.SpinnerPrinter {
	if globalFlags.Silent || !term.IsTerminal(int(os.Stderr.Fd())) {
		return nil
	}
	spinner, err := pterm.DefaultSpinner.WithWriter(os.Stderr).WithRemoveWhenDone(true).Start(text)
	if err != nil {
		return nil
	}
	return spinner
}

func stopSpinner(spinner *pterm.SpinnerPrinter) {
	if spinner != nil {
		_ = spinner.Stop()
	}
}

// runTransition 解锁签名器、启动会话并执行一次状态变更
func runTransition(cmd *cobra.Command, arg string, fn func(*app.Session, types.ContractID, bountyInterface.Signer) (*bounty.Result, error)) error {
	id, err := parseContractID(arg)
	if err != nil {
		return err
	}
	signer, err := unlockSigner()
	if err != nil {
		return err
	}
	return withSession(func(s *app.Session) error {
		res, err := fn(s, id, signer)
		if err != nil {
			return err
		}
		return printResult(res)
	})
}

func init() {
	createCmd.Flags().StringVar(&createTitle, "title", "", "标题 (必填)")
	createCmd.Flags().StringVar(&createDescription, "description", "", "描述")
	createCmd.Flags().StringVar(&createCategory, "category", "", "分类")
	createCmd.Flags().StringVar(&createDifficulty, "difficulty", string(types.DifficultyMedium), "难度: Easy|Medium|Hard")
	createCmd.Flags().StringVar(&createReward, "reward", "", "奖励金额，如 2.5 (必填)")
	_ = createCmd.MarkFlagRequired("title")
	_ = createCmd.MarkFlagRequired("reward")

	listCmd.Flags().BoolVar(&listMine, "mine", false, "只列出当前账户创建的赏金")

	submitCmd.Flags().StringVar(&submitContent, "content", "", "成果内容或链接 (必填)")

	approveCmd.Flags().StringVar(&approveWorker, "worker", "", "预期的工作者地址")
}
