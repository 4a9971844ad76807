package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

var (
	// ErrConfigMissing 指定环境的配置文件不存在
	ErrConfigMissing = errors.New("配置文件不存在")

	// ErrInvalidConfig 配置缺少必填项
	ErrInvalidConfig = errors.New("配置无效")
)

// Config 应用配置，启动时加载一次，运行期间只读
type Config struct {
	// 环境名称
	Env string

	// 配置文件路径
	Path string

	UCloud    UCloudConfig
	OpenStack OpenStackConfig
	Log       LogConfig
	Report    ReportConfig
}

// UCloudConfig 计算平台（UCloud）配置
type UCloudConfig struct {
	URL          string
	RefreshToken string
}

// OpenStackConfig 编排服务（OpenStack Heat）配置
type OpenStackConfig struct {
	AuthURL        string
	Username       string
	Password       string
	ProjectID      string
	UserDomainName string
	Region         string

	// 栈名前缀，去掉前缀后即为作业 ID
	StackPrefix string
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别：DEBUG, INFO, WARN, ERROR
	Level string

	EnableConsole bool
	EnableFile    bool
	LogDir        string

	// 日志文件名（如果为空，则使用默认格式）
	LogFile string
}

// ReportConfig 报表输出配置
type ReportConfig struct {
	// 输出文件路径，默认 <env>-status.csv
	Output string

	// 输出格式：csv, json, yaml
	Format string

	// 并发查询作业的数量，1 表示顺序执行
	Concurrency int

	// HTTP 请求超时
	HTTPTimeout time.Duration
}

// envOverrides 环境变量覆盖项，非空时优先于配置文件
var envOverrides = []struct {
	env string
	set func(c *Config, v string)
}{
	{"UCLOUD_URL", func(c *Config, v string) { c.UCloud.URL = v }},
	{"UCLOUD_REFRESH_TOKEN", func(c *Config, v string) { c.UCloud.RefreshToken = v }},
	{"OS_AUTH_URL", func(c *Config, v string) { c.OpenStack.AuthURL = v }},
	{"OS_USERNAME", func(c *Config, v string) { c.OpenStack.Username = v }},
	{"OS_PASSWORD", func(c *Config, v string) { c.OpenStack.Password = v }},
	{"OS_PROJECT_ID", func(c *Config, v string) { c.OpenStack.ProjectID = v }},
	{"OS_USER_DOMAIN_NAME", func(c *Config, v string) { c.OpenStack.UserDomainName = v }},
	{"OS_REGION_NAME", func(c *Config, v string) { c.OpenStack.Region = v }},
}

// FileName 返回环境对应的配置文件名
func FileName(env string) string {
	return fmt.Sprintf("config-%s.ini", env)
}

// DefaultOutput 返回环境对应的默认报表文件名
func DefaultOutput(env string) string {
	return fmt.Sprintf("%s-status.csv", env)
}

// LoadConfig 加载 dir 目录下 config-<env>.ini
func LoadConfig(dir, env string) (*Config, error) {
	env = strings.TrimSpace(env)
	if env == "" {
		return nil, fmt.Errorf("%w: 环境名称不能为空", ErrInvalidConfig)
	}

	configPath := filepath.Join(dir, FileName(env))
	if _, err := os.Stat(configPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigMissing, configPath)
		}
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	cfgFile, err := ini.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("解析配置文件 %s 失败: %w", configPath, err)
	}

	config := &Config{
		Env:  env,
		Path: configPath,
		OpenStack: OpenStackConfig{
			UserDomainName: "default",
		},
		Log: LogConfig{
			Level:         "INFO",
			EnableConsole: true,
			EnableFile:    false,
			LogDir:        "logs",
		},
		Report: ReportConfig{
			Output:      DefaultOutput(env),
			Format:      "csv",
			Concurrency: 1,
			HTTPTimeout: 30 * time.Second,
		},
	}

	section := cfgFile.Section("ucloud")
	config.UCloud.URL = strings.TrimRight(section.Key("url").String(), "/")
	config.UCloud.RefreshToken = section.Key("refresh_token").String()

	section = cfgFile.Section("openstack")
	config.OpenStack.AuthURL = section.Key("auth_url").String()
	config.OpenStack.Username = section.Key("username").String()
	config.OpenStack.Password = section.Key("password").String()
	config.OpenStack.ProjectID = section.Key("project_id").String()
	config.OpenStack.StackPrefix = section.Key("stack_prefix").String()
	if domain := section.Key("user_domain_name").String(); domain != "" {
		config.OpenStack.UserDomainName = domain
	}
	config.OpenStack.Region = section.Key("region").String()

	if cfgFile.HasSection("log") {
		section = cfgFile.Section("log")
		if level := section.Key("level").String(); level != "" {
			config.Log.Level = level
		}
		if section.HasKey("enable_console") {
			config.Log.EnableConsole = section.Key("enable_console").MustBool(config.Log.EnableConsole)
		}
		if section.HasKey("enable_file") {
			config.Log.EnableFile = section.Key("enable_file").MustBool(config.Log.EnableFile)
		}
		if logDir := section.Key("log_dir").String(); logDir != "" {
			config.Log.LogDir = logDir
		}
		config.Log.LogFile = section.Key("log_file").String()
	}

	if cfgFile.HasSection("report") {
		section = cfgFile.Section("report")
		if output := section.Key("output").String(); output != "" {
			config.Report.Output = output
		}
		if format := section.Key("format").String(); format != "" {
			config.Report.Format = strings.ToLower(format)
		}
		config.Report.Concurrency = section.Key("concurrency").MustInt(config.Report.Concurrency)
		config.Report.HTTPTimeout = section.Key("http_timeout").MustDuration(config.Report.HTTPTimeout)
	}

	for _, o := range envOverrides {
		if v := strings.TrimSpace(os.Getenv(o.env)); v != "" {
			o.set(config, v)
		}
	}
	config.UCloud.URL = strings.TrimRight(config.UCloud.URL, "/")

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate 检查必填项
func (c *Config) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"ucloud.url", c.UCloud.URL},
		{"ucloud.refresh_token", c.UCloud.RefreshToken},
		{"openstack.auth_url", c.OpenStack.AuthURL},
		{"openstack.username", c.OpenStack.Username},
		{"openstack.password", c.OpenStack.Password},
		{"openstack.project_id", c.OpenStack.ProjectID},
	}

	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s 缺少 %s", ErrInvalidConfig, c.Path, strings.Join(missing, ", "))
	}

	switch c.Report.Format {
	case "csv", "json", "yaml":
	default:
		return fmt.Errorf("%w: 不支持的报表格式 %q", ErrInvalidConfig, c.Report.Format)
	}
	if c.Report.Concurrency < 1 {
		return fmt.Errorf("%w: concurrency 必须大于 0", ErrInvalidConfig)
	}
	return nil
}

// ListEnvs 列出 dir 目录下所有可用环境（config-<env>.ini）
func ListEnvs(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "config-*.ini"))
	if err != nil {
		return nil, err
	}

	envs := make([]string, 0, len(matches))
	for _, m := range matches {
		name := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(m), "config-"), ".ini")
		if name != "" {
			envs = append(envs, name)
		}
	}
	sort.Strings(envs)
	return envs, nil
}

// MaskSecret 隐藏敏感信息，只显示前4位和后4位
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:4] + strings.Repeat("*", len(secret)-8) + secret[len(secret)-4:]
}
