package domain

import "time"

// ReportRow 报表中的一行，由一个栈及其匹配的作业展开而来
type ReportRow struct {
	StackName         string `json:"stack_name" yaml:"stack_name"`
	StackStatus       string `json:"stack_status" yaml:"stack_status"`
	StackCreationTime string `json:"stack_creation_time" yaml:"stack_creation_time"`
	StackTags         string `json:"stack_tags" yaml:"stack_tags"`
	JobID             string `json:"job_id" yaml:"job_id"`
	JobStatus         string `json:"job_status" yaml:"job_status"`
	JobProduct        string `json:"job_product" yaml:"job_product"`
	JobOwner          string `json:"job_owner" yaml:"job_owner"`
}

// ReportFields 报表列名，顺序即 CSV 表头顺序
var ReportFields = []string{
	"stack_name",
	"stack_status",
	"stack_creation_time",
	"stack_tags",
	"job_id",
	"job_status",
	"job_product",
	"job_owner",
}

// NewReportRow 由栈和作业生成报表行，job 为 nil 时作业字段为空
func NewReportRow(stack Stack, job *Job) ReportRow {
	row := ReportRow{
		StackName:   stack.Name,
		StackStatus: stack.Status,
		StackTags:   stack.FirstTag(),
	}
	if !stack.CreationTime.IsZero() {
		row.StackCreationTime = stack.CreationTime.UTC().Format(time.RFC3339)
	}
	if job != nil {
		row.JobID = job.ID
		row.JobStatus = job.Status.State
		row.JobProduct = job.Specification.Product.ID
		row.JobOwner = job.Owner.CreatedBy
	}
	return row
}

// Values 按 ReportFields 顺序返回字段值
func (r ReportRow) Values() []string {
	return []string{
		r.StackName,
		r.StackStatus,
		r.StackCreationTime,
		r.StackTags,
		r.JobID,
		r.JobStatus,
		r.JobProduct,
		r.JobOwner,
	}
}

// Matched 是否匹配到了作业
func (r ReportRow) Matched() bool {
	return r.JobID != ""
}
