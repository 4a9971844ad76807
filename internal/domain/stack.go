package domain

import "time"

// Stack 编排服务（Heat）中的一个栈
type Stack struct {
	ID           string    `json:"id"`            // 栈 ID
	Name         string    `json:"stack_name"`    // 栈名称，去掉前缀后为作业 ID
	Status       string    `json:"stack_status"`  // 栈状态，如 CREATE_COMPLETE
	CreationTime time.Time `json:"creation_time"` // 创建时间
	Tags         []string  `json:"tags"`          // 标签
}

// 报表包含的栈状态，已删除的栈不在其中
const (
	StatusCreateComplete = "CREATE_COMPLETE"
	StatusCreateFailed   = "CREATE_FAILED"
	StatusResumeComplete = "RESUME_COMPLETE"
	StatusCheckComplete  = "CHECK_COMPLETE"
	StatusUpdateComplete = "UPDATE_COMPLETE"
	StatusUpdateFailed   = "UPDATE_FAILED"
	StatusDeleteFailed   = "DELETE_FAILED"
)

// ReportedStatuses 返回报表关注的栈状态集合
func ReportedStatuses() []string {
	return []string{
		StatusCreateComplete,
		StatusCreateFailed,
		StatusResumeComplete,
		StatusCheckComplete,
		StatusUpdateComplete,
		StatusUpdateFailed,
		StatusDeleteFailed,
	}
}

// IsReportedStatus 检查栈状态是否需要出现在报表中
func IsReportedStatus(status string) bool {
	for _, s := range ReportedStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// FirstTag 返回第一个标签，没有标签时返回空字符串
func (s Stack) FirstTag() string {
	if len(s.Tags) == 0 {
		return ""
	}
	return s.Tags[0]
}
