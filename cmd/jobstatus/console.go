package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	prompt "github.com/c-bata/go-prompt"
	"github.com/lucksec/jobstatus/internal/domain"
	"github.com/spf13/cobra"
)

// console 交互式控制台
// 使用 go-prompt 提供带 Tab 补全的 REPL，可逐个查询栈和作业
type console struct {
	ctx    context.Context
	app    *app
	stacks []domain.Stack // 已加载的栈，首次使用时从 Heat 获取
}

// newConsoleCmd 创建控制台命令
func newConsoleCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "console <env>",
		Short: "进入交互式控制台",
		Long: `进入交互式控制台，逐个查询栈与作业的对应关系。

进入控制台后，可使用命令:
  help                    显示帮助
  stacks [refresh]        列出栈（refresh 重新从 Heat 获取）
  find <stack-name>       查找栈对应的作业
  job <job-id>            按作业 ID 查找（先直接获取，再 browse）
  report [path]           生成并保存报表
  token refresh           丢弃缓存的访问令牌并重新获取
  exit / quit             退出控制台`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeEnvs(opts),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, args[0])
			if err != nil {
				return err
			}
			c := &console{ctx: cmd.Context(), app: a}
			return c.run()
		},
	}
	return cmd
}

// run 启动控制台主循环
func (c *console) run() error {
	fmt.Printf("jobstatus 控制台 - 环境 %s\n", c.app.cfg.Env)
	fmt.Println("提示: 输入 'help' 查看可用命令，输入 'exit' 或 'quit' 退出")

	p := prompt.New(
		c.executor,
		c.completer,
		prompt.OptionPrefix(fmt.Sprintf("jobstatus(%s)> ", c.app.cfg.Env)),
		prompt.OptionTitle("jobstatus console"),
		prompt.OptionSuggestionBGColor(prompt.DarkGray),
		prompt.OptionSuggestionTextColor(prompt.White),
		prompt.OptionSelectedSuggestionBGColor(prompt.Blue),
		prompt.OptionSelectedSuggestionTextColor(prompt.White),
	)

	// Run 阻塞直到用户退出（Ctrl+D）
	p.Run()
	fmt.Println("\n已退出控制台。")
	return nil
}

// executor 执行单行命令
func (c *console) executor(in string) {
	line := strings.TrimSpace(in)
	if line == "" {
		return
	}
	if err := c.handleCommand(line); err != nil {
		fmt.Printf("错误: %v\n", err)
	}
}

// completer 提供 Tab 补全
func (c *console) completer(d prompt.Document) []prompt.Suggest {
	text := d.TextBeforeCursor()
	parts := strings.Fields(text)
	endsWithSpace := strings.HasSuffix(text, " ")

	if len(parts) == 0 || (len(parts) == 1 && !endsWithSpace) {
		return prompt.FilterHasPrefix(topLevelSuggestions(), d.GetWordBeforeCursor(), true)
	}

	switch parts[0] {
	case "find":
		var suggestions []prompt.Suggest
		for _, s := range c.stacks {
			suggestions = append(suggestions, prompt.Suggest{Text: s.Name, Description: s.Status})
		}
		return prompt.FilterHasPrefix(suggestions, d.GetWordBeforeCursor(), true)
	case "stacks":
		return prompt.FilterHasPrefix([]prompt.Suggest{{Text: "refresh", Description: "重新从 Heat 获取"}}, d.GetWordBeforeCursor(), true)
	case "token":
		return prompt.FilterHasPrefix([]prompt.Suggest{{Text: "refresh", Description: "重新获取访问令牌"}}, d.GetWordBeforeCursor(), true)
	}
	return nil
}

func topLevelSuggestions() []prompt.Suggest {
	return []prompt.Suggest{
		{Text: "help", Description: "显示帮助"},
		{Text: "stacks", Description: "列出栈"},
		{Text: "find", Description: "查找栈对应的作业"},
		{Text: "job", Description: "按作业 ID 查找"},
		{Text: "report", Description: "生成并保存报表"},
		{Text: "token", Description: "访问令牌管理"},
		{Text: "exit", Description: "退出控制台"},
		{Text: "quit", Description: "退出控制台"},
	}
}

// handleCommand 解析并执行命令
func (c *console) handleCommand(line string) error {
	parts := strings.Fields(line)

	switch parts[0] {
	case "help", "h", "?":
		c.printHelp()
		return nil
	case "exit", "quit", "q":
		fmt.Println("退出控制台。")
		os.Exit(0)
	case "stacks":
		refresh := len(parts) > 1 && parts[1] == "refresh"
		return c.listStacks(refresh)
	case "find":
		if len(parts) < 2 {
			return fmt.Errorf("用法: find <stack-name>")
		}
		return c.findStack(parts[1])
	case "job":
		if len(parts) < 2 {
			return fmt.Errorf("用法: job <job-id>")
		}
		return c.findJob(parts[1])
	case "report":
		path := c.app.cfg.Report.Output
		if len(parts) > 1 {
			path = parts[1]
		}
		return c.writeReport(path)
	case "token":
		if len(parts) < 2 || parts[1] != "refresh" {
			return fmt.Errorf("用法: token refresh")
		}
		c.app.tokens.Invalidate()
		if _, err := c.app.tokens.Token(c.ctx); err != nil {
			return err
		}
		fmt.Println("访问令牌已刷新。")
		return nil
	default:
		fmt.Println("未知命令。输入 'help' 查看支持的命令。")
	}
	return nil
}

// loadStacks 获取栈列表，已加载时直接返回缓存
func (c *console) loadStacks(refresh bool) ([]domain.Stack, error) {
	if c.stacks != nil && !refresh {
		return c.stacks, nil
	}
	stacks, err := c.app.stacks.ListStacks(c.ctx)
	if err != nil {
		return nil, err
	}
	c.stacks = stacks
	return stacks, nil
}

func (c *console) listStacks(refresh bool) error {
	stacks, err := c.loadStacks(refresh)
	if err != nil {
		return err
	}
	if len(stacks) == 0 {
		fmt.Println("没有找到栈")
		return nil
	}
	for _, s := range stacks {
		fmt.Printf("  %-40s %s\n", s.Name, statusColor(s.Status).Sprint(s.Status))
	}
	return nil
}

func (c *console) findStack(name string) error {
	stacks, err := c.loadStacks(false)
	if err != nil {
		return err
	}

	stack := domain.Stack{Name: name}
	for _, s := range stacks {
		if s.Name == name {
			stack = s
			break
		}
	}

	job, err := c.app.ucloud.FindJob(c.ctx, stack)
	if err != nil {
		return err
	}
	printRow(domain.NewReportRow(stack, job))
	return nil
}

func (c *console) findJob(id string) error {
	job, err := c.app.ucloud.RetrieveJob(c.ctx, id)
	if err != nil {
		return err
	}
	if job == nil {
		jobs, err := c.app.ucloud.BrowseJobs(c.ctx, id)
		if err != nil {
			return err
		}
		if len(jobs) > 0 {
			job = &jobs[0]
		}
	}
	if job == nil {
		fmt.Printf("作业 %s 未找到\n", id)
		return nil
	}
	fmt.Printf("  job_id:      %s\n", job.ID)
	fmt.Printf("  job_status:  %s\n", job.Status.State)
	fmt.Printf("  job_product: %s\n", job.Specification.Product.ID)
	fmt.Printf("  job_owner:   %s\n", job.Owner.CreatedBy)
	return nil
}

func (c *console) writeReport(path string) error {
	stacks, err := c.loadStacks(false)
	if err != nil {
		return err
	}
	rows, err := c.app.report.BuildReport(c.ctx, stacks)
	if err != nil {
		return err
	}
	if err := c.app.repo.Save(path, c.app.cfg.Report.Format, rows); err != nil {
		return err
	}
	printSummary(os.Stdout, c.app.runID, path, rows)
	return nil
}

func printRow(row domain.ReportRow) {
	for i, v := range row.Values() {
		fmt.Printf("  %-20s %s\n", domain.ReportFields[i]+":", v)
	}
}

func (c *console) printHelp() {
	fmt.Println("可用命令:")
	fmt.Println("  help                    显示帮助")
	fmt.Println("  stacks [refresh]        列出栈")
	fmt.Println("  find <stack-name>       查找栈对应的作业")
	fmt.Println("  job <job-id>            按作业 ID 查找")
	fmt.Println("  report [path]           生成并保存报表")
	fmt.Println("  token refresh           重新获取访问令牌")
	fmt.Println("  exit | quit             退出控制台")
}
