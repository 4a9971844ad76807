package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewReportRowWithJob(t *testing.T) {
	stack := Stack{
		Name:         "prefix-123",
		Status:       StatusCreateComplete,
		CreationTime: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Tags:         []string{"t1", "t2"},
	}
	job := &Job{
		ID:            "123",
		Status:        JobStatus{State: "RUNNING"},
		Specification: JobSpecification{Product: ProductReference{ID: "cpu-small"}},
		Owner:         JobOwner{CreatedBy: "alice"},
	}

	row := NewReportRow(stack, job)
	assert.Equal(t, []string{
		"prefix-123", "CREATE_COMPLETE", "2024-03-01T10:00:00Z", "t1",
		"123", "RUNNING", "cpu-small", "alice",
	}, row.Values())
	assert.True(t, row.Matched())
}

func TestNewReportRowWithoutJob(t *testing.T) {
	row := NewReportRow(Stack{Name: "prefix-456", Status: StatusUpdateFailed}, nil)
	assert.Equal(t, "", row.StackTags)
	assert.Equal(t, "", row.StackCreationTime)
	assert.Equal(t, "", row.JobID)
	assert.Equal(t, "", row.JobStatus)
	assert.Equal(t, "", row.JobProduct)
	assert.Equal(t, "", row.JobOwner)
	assert.False(t, row.Matched())
	assert.Len(t, row.Values(), len(ReportFields))
}

func TestIsReportedStatus(t *testing.T) {
	assert.True(t, IsReportedStatus("DELETE_FAILED"))
	assert.True(t, IsReportedStatus("CHECK_COMPLETE"))
	assert.False(t, IsReportedStatus("DELETE_COMPLETE"))
	assert.False(t, IsReportedStatus("CREATE_IN_PROGRESS"))
	assert.False(t, IsReportedStatus("create_complete"))
}
