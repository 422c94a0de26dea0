package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/weisyn/bounty/internal/api/status"
	"github.com/weisyn/bounty/internal/app"
	"github.com/weisyn/bounty/internal/core/bounty"
	"github.com/weisyn/bounty/internal/core/infrastructure/log"
	"github.com/weisyn/bounty/pkg/types"
)

var watchMetricsAddr string

// watchCmd 轮询链上状态
var watchCmd = &cobra.Command{
	Use:   "watch [contract-id...]",
	Short: "持续跟踪赏金的链上状态",
	Long: `定期重新读取链上状态，状态变化时输出一行记录。
在 --metrics-addr 上提供 /health、/metrics 与 /bounties 状态接口。

未指定合约 ID 时跟踪本地元数据中所有未结束的赏金。进入终态的赏金自动停止跟踪。
按 Ctrl+C 退出。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := make([]types.ContractID, 0, len(args))
		for _, arg := range args {
			id, err := parseContractID(arg)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}

		return withSession(func(s *app.Session) error {
			ctx := cmd.Context()
			if len(ids) == 0 {
				list, err := s.Coordinator.ListBounties(ctx)
				if err != nil {
					return err
				}
				for _, b := range list {
					if b.StatusKnown && b.OnChain.Status.IsTerminal() {
						continue
					}
					ids = append(ids, b.Metadata.ContractID)
				}
			}
			if len(ids) == 0 {
				formatter.PrintInfo("没有需要跟踪的赏金")
				return nil
			}

			if err := s.Events.Subscribe(bounty.EventStateChanged, func(change *bounty.StateChange) {
				printChange(change)
			}); err != nil {
				return fmt.Errorf("订阅状态事件: %w", err)
			}

			addr := watchMetricsAddr
			if addr == "" {
				addr = s.Provider.GetBounty().MetricsAddr
			}
			server := status.NewServer(addr, s.Registry, s.Watcher, s.Coordinator, log.NewModuleLogger(s.Logger, "status"))
			if err := server.Start(); err != nil {
				return fmt.Errorf("启动状态服务: %w", err)
			}
			defer func() {
				stopCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				_ = server.Stop(stopCtx)
			}()

			s.Watcher.Watch(ids...)
			if err := s.Watcher.Start(ctx); err != nil {
				return err
			}
			formatter.PrintInfo(fmt.Sprintf("正在跟踪 %d 个赏金，状态: http://%s/bounties，指标: http://%s/metrics",
				len(ids), server.Addr(), server.Addr()))

			<-ctx.Done()
			formatter.PrintInfo("收到退出信号，停止跟踪")
			return s.Watcher.Stop()
		})
	},
}

func printChange(change *bounty.StateChange) {
	from := "-"
	if change.Previous != nil {
		from = change.Previous.Status.Label()
	}
	to := "-"
	if change.Current != nil {
		to = change.Current.Status.Label()
	}
	formatter.PrintInfo(fmt.Sprintf("%s  contract %s: %s -> %s",
		time.Now().Format("15:04:05"), change.ContractID, from, to))
}

func init() {
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "状态服务监听地址 (默认取配置 bounty.metrics_addr)")
}
