package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/lucksec/jobstatus/internal/config"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "执行命令失败: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// newRootCmd 创建根命令：jobstatus <env>
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "jobstatus <env>",
		Short: "对账 OpenStack 栈与 UCloud 作业并输出状态报表",
		Long: `jobstatus 读取 config-<env>.ini，列出 OpenStack Heat 中的栈，
按命名约定（栈名去掉 stack_prefix 即为作业 ID）在 UCloud 中查找对应作业，
生成按栈状态排序的报表，默认写入 <env>-status.csv。`,
		Example: `  # 生成 prod 环境报表
  jobstatus prod

  # 并发查询作业，输出 JSON
  jobstatus prod --concurrency 8 --format json -o prod-status.json`,
		Args:              cobra.ExactArgs(1),
		SilenceUsage:      true,
		SilenceErrors:     true,
		ValidArgsFunction: completeEnvs(opts),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd.Context(), opts, args[0])
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configDir, "config-dir", ".", "config-<env>.ini 所在目录")
	flags.StringVar(&opts.logLevel, "log-level", "", "日志级别：debug, info, warn, error（覆盖 [log] level）")
	rootCmd.Flags().StringVarP(&opts.output, "output", "o", "", "报表输出路径（默认 <env>-status.csv）")
	rootCmd.Flags().StringVar(&opts.format, "format", "", "报表格式：csv, json, yaml（默认 csv）")
	rootCmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "并发查询作业数量（默认 1，即顺序执行）")

	rootCmd.AddCommand(newConsoleCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))

	return rootCmd
}

// runReport 生成并保存报表
func runReport(ctx context.Context, opts *rootOptions, env string) error {
	a, err := newApp(opts, env)
	if err != nil {
		return err
	}
	defer a.log.Sync()

	a.log.Info("开始生成报表: %s", env)
	rows, err := a.report.GenerateReport(ctx)
	if err != nil {
		return err
	}

	if err := a.repo.Save(a.cfg.Report.Output, a.cfg.Report.Format, rows); err != nil {
		return err
	}
	a.log.Info("报表已写入: %s", a.cfg.Report.Output)

	printSummary(os.Stdout, a.runID, a.cfg.Report.Output, rows)
	return nil
}

// completeEnvs 补全 config-dir 下的环境名称
func completeEnvs(opts *rootOptions) func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		envs, err := config.ListEnvs(opts.configDir)
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		var completions []string
		for _, env := range envs {
			if strings.HasPrefix(env, toComplete) {
				completions = append(completions, env)
			}
		}
		return completions, cobra.ShellCompDirectiveNoFileComp
	}
}
