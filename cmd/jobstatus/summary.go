package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/lucksec/jobstatus/internal/domain"
	"github.com/lucksec/jobstatus/internal/service"
)

var (
	failedColor   = color.New(color.FgRed, color.Bold)
	completeColor = color.New(color.FgGreen)
	headerColor   = color.New(color.Bold)
)

// printSummary 输出报表汇总
func printSummary(w io.Writer, runID, path string, rows []domain.ReportRow) {
	summary := service.Summarize(rows)

	headerColor.Fprintf(w, "报表已生成: %s\n", path)
	fmt.Fprintf(w, "  运行 ID: %s\n", runID)
	fmt.Fprintf(w, "  栈总数: %d  已匹配作业: %d  未匹配: %d\n", summary.Total, summary.Matched, summary.Unmatched)

	if summary.Total == 0 {
		return
	}
	fmt.Fprintln(w, "  按状态统计:")
	for _, status := range summary.Statuses() {
		fmt.Fprintf(w, "    %s %d\n", statusColor(status).Sprintf("%-16s", status), summary.ByStatus[status])
	}
}

func statusColor(status string) *color.Color {
	switch {
	case strings.HasSuffix(status, "_FAILED"):
		return failedColor
	case strings.HasSuffix(status, "_COMPLETE"):
		return completeColor
	default:
		return color.New(color.Reset)
	}
}
