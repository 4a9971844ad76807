package main

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/lucksec/jobstatus/internal/config"
	"github.com/lucksec/jobstatus/internal/logger"
	"github.com/lucksec/jobstatus/internal/repository"
	"github.com/lucksec/jobstatus/internal/service"
)

// rootOptions 命令行参数，非零值覆盖配置文件
type rootOptions struct {
	configDir   string
	output      string
	format      string
	logLevel    string
	concurrency int
}

// app 一次运行所需的全部组件
type app struct {
	cfg    *config.Config
	log    logger.Logger
	runID  string
	tokens service.TokenProvider
	ucloud service.UCloudClient
	stacks service.StackLister
	report service.ReportService
	repo   repository.ReportRepository
}

// loadConfig 加载配置并应用命令行覆盖项
func loadConfig(opts *rootOptions, env string) (*config.Config, error) {
	cfg, err := config.LoadConfig(opts.configDir, env)
	if err != nil {
		return nil, err
	}

	if opts.output != "" {
		cfg.Report.Output = opts.output
	}
	if opts.format != "" {
		cfg.Report.Format = opts.format
	}
	if opts.concurrency > 0 {
		cfg.Report.Concurrency = opts.concurrency
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newApp 加载配置、初始化日志并创建各服务
func newApp(opts *rootOptions, env string) (*app, error) {
	cfg, err := loadConfig(opts, env)
	if err != nil {
		return nil, err
	}

	baseLog, err := logger.InitLogger(&logger.Config{
		Level:         logger.ParseLevel(cfg.Log.Level),
		EnableConsole: cfg.Log.EnableConsole,
		EnableFile:    cfg.Log.EnableFile,
		LogDir:        cfg.Log.LogDir,
		LogFile:       cfg.Log.LogFile,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化日志系统失败: %w", err)
	}

	runID := uuid.NewString()
	log := baseLog.With("env", cfg.Env, "run", runID)
	log.Debug("配置加载成功: %s", cfg.Path)

	httpClient := &http.Client{Timeout: cfg.Report.HTTPTimeout}
	tokens := service.NewTokenProvider(cfg.UCloud.URL, cfg.UCloud.RefreshToken, httpClient, log)
	ucloud := service.NewUCloudClient(cfg.UCloud.URL, cfg.OpenStack.StackPrefix, tokens, httpClient, log)
	stacks := service.NewStackLister(cfg.OpenStack, httpClient, log)

	return &app{
		cfg:    cfg,
		log:    log,
		runID:  runID,
		tokens: tokens,
		ucloud: ucloud,
		stacks: stacks,
		report: service.NewReportService(stacks, ucloud, cfg.Report.Concurrency, log),
		repo:   repository.NewReportRepository(),
	}, nil
}
