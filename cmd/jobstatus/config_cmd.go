package main

import (
	"fmt"
	"io"

	"github.com/lucksec/jobstatus/internal/config"
	"github.com/spf13/cobra"
)

// newConfigCmd 配置查看命令组
func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "查看环境配置",
		Long: `查看 config-<env>.ini 解析后的配置（包括环境变量覆盖项）。

支持的环境变量:
  UCLOUD_URL, UCLOUD_REFRESH_TOKEN
  OS_AUTH_URL, OS_USERNAME, OS_PASSWORD, OS_PROJECT_ID,
  OS_USER_DOMAIN_NAME, OS_REGION_NAME

环境变量非空时优先于配置文件。`,
	}

	cmd.AddCommand(showConfigCmd(opts))
	cmd.AddCommand(listEnvsCmd(opts))
	return cmd
}

// showConfigCmd 显示指定环境的配置，敏感信息打码
func showConfigCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:               "show <env>",
		Short:             "显示环境配置（敏感信息已隐藏）",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeEnvs(opts),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts, args[0])
			if err != nil {
				return err
			}
			printConfig(cmd.OutOrStdout(), cfg)
			return nil
		},
	}
}

// listEnvsCmd 列出可用环境
func listEnvsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "列出 config-dir 下的所有环境",
		RunE: func(cmd *cobra.Command, args []string) error {
			envs, err := config.ListEnvs(opts.configDir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(envs) == 0 {
				fmt.Fprintf(out, "%s 下没有找到 config-<env>.ini\n", opts.configDir)
				return nil
			}
			for _, env := range envs {
				fmt.Fprintf(out, "  - %s\n", env)
			}
			return nil
		},
	}
}

func printConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintf(w, "环境: %s (%s)\n\n", cfg.Env, cfg.Path)

	fmt.Fprintln(w, "[ucloud]")
	fmt.Fprintf(w, "  url:           %s\n", cfg.UCloud.URL)
	fmt.Fprintf(w, "  refresh_token: %s\n", config.MaskSecret(cfg.UCloud.RefreshToken))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[openstack]")
	fmt.Fprintf(w, "  auth_url:         %s\n", cfg.OpenStack.AuthURL)
	fmt.Fprintf(w, "  username:         %s\n", cfg.OpenStack.Username)
	fmt.Fprintf(w, "  password:         %s\n", config.MaskSecret(cfg.OpenStack.Password))
	fmt.Fprintf(w, "  project_id:       %s\n", cfg.OpenStack.ProjectID)
	fmt.Fprintf(w, "  user_domain_name: %s\n", cfg.OpenStack.UserDomainName)
	if cfg.OpenStack.Region != "" {
		fmt.Fprintf(w, "  region:           %s\n", cfg.OpenStack.Region)
	}
	fmt.Fprintf(w, "  stack_prefix:     %q\n", cfg.OpenStack.StackPrefix)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[report]")
	fmt.Fprintf(w, "  output:       %s\n", cfg.Report.Output)
	fmt.Fprintf(w, "  format:       %s\n", cfg.Report.Format)
	fmt.Fprintf(w, "  concurrency:  %d\n", cfg.Report.Concurrency)
	fmt.Fprintf(w, "  http_timeout: %s\n", cfg.Report.HTTPTimeout)
}
