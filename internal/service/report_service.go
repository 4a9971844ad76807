package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/lucksec/jobstatus/internal/domain"
	"github.com/lucksec/jobstatus/internal/logger"
	"golang.org/x/sync/errgroup"
)

// ReportService 报表服务接口
type ReportService interface {
	// GenerateReport 列出栈并生成报表
	GenerateReport(ctx context.Context) ([]domain.ReportRow, error)

	// BuildReport 为每个栈查找作业并生成按栈状态排序的报表行
	BuildReport(ctx context.Context, stacks []domain.Stack) ([]domain.ReportRow, error)
}

// Summary 报表汇总
type Summary struct {
	Total     int
	Matched   int
	Unmatched int
	ByStatus  map[string]int
}

// reportService 报表服务实现
type reportService struct {
	stackLister StackLister
	jobFinder   JobFinder
	concurrency int
	log         logger.Logger
}

// NewReportService 创建报表服务实例
// concurrency 为 1 时逐个栈顺序处理
func NewReportService(stackLister StackLister, jobFinder JobFinder, concurrency int, log logger.Logger) ReportService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &reportService{
		stackLister: stackLister,
		jobFinder:   jobFinder,
		concurrency: concurrency,
		log:         log,
	}
}

// GenerateReport 列出栈并生成报表
func (s *reportService) GenerateReport(ctx context.Context) ([]domain.ReportRow, error) {
	stacks, err := s.stackLister.ListStacks(ctx)
	if err != nil {
		return nil, err
	}
	return s.BuildReport(ctx, stacks)
}

// BuildReport 生成报表行
func (s *reportService) BuildReport(ctx context.Context, stacks []domain.Stack) ([]domain.ReportRow, error) {
	if len(stacks) == 0 {
		s.log.Warn("没有找到任何栈，报表只包含表头")
		return []domain.ReportRow{}, nil
	}

	rows := make([]domain.ReportRow, len(stacks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, stack := range stacks {
		g.Go(func() error {
			s.log.Info("获取栈 %s (%s) 的作业信息", stack.Name, stack.Status)
			job, err := s.jobFinder.FindJob(gctx, stack)
			if err != nil {
				return fmt.Errorf("栈 %s: %w", stack.Name, err)
			}
			if job == nil {
				s.log.Warn("栈 %s 没有找到对应作业", stack.Name)
			}
			rows[i] = domain.NewReportRow(stack, job)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	SortRows(rows)
	return rows, nil
}

// SortRows 按栈状态升序排序，状态相同时保持原顺序
func SortRows(rows []domain.ReportRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].StackStatus < rows[j].StackStatus
	})
}

// Summarize 统计报表
func Summarize(rows []domain.ReportRow) Summary {
	summary := Summary{
		Total:    len(rows),
		ByStatus: make(map[string]int),
	}
	for _, row := range rows {
		if row.Matched() {
			summary.Matched++
		} else {
			summary.Unmatched++
		}
		summary.ByStatus[row.StackStatus]++
	}
	return summary
}

// Statuses 返回排序后的栈状态列表
func (s Summary) Statuses() []string {
	statuses := make([]string, 0, len(s.ByStatus))
	for status := range s.ByStatus {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	return statuses
}
