package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lucksec/jobstatus/internal/domain"
	"github.com/lucksec/jobstatus/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeStackLister struct {
	stacks []domain.Stack
	err    error
}

func (f fakeStackLister) ListStacks(context.Context) ([]domain.Stack, error) {
	return f.stacks, f.err
}

// mapJobFinder 按栈名查找作业，记录并发峰值
type mapJobFinder struct {
	jobs    map[string]*domain.Job
	errFor  string
	delay   time.Duration
	active  int32
	peak    int32
	mu      sync.Mutex
	visited []string
}

func (f *mapJobFinder) FindJob(ctx context.Context, stack domain.Stack) (*domain.Job, error) {
	n := atomic.AddInt32(&f.active, 1)
	defer atomic.AddInt32(&f.active, -1)
	for {
		p := atomic.LoadInt32(&f.peak)
		if n <= p || atomic.CompareAndSwapInt32(&f.peak, p, n) {
			break
		}
	}

	f.mu.Lock()
	f.visited = append(f.visited, stack.Name)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if stack.Name == f.errFor {
		return nil, errors.New("upstream unavailable")
	}
	return f.jobs[stack.Name], nil
}

func scenarioStacks() []domain.Stack {
	return []domain.Stack{
		{Name: "prefix-456", Status: "UPDATE_FAILED", Tags: []string{}},
		{Name: "prefix-123", Status: "CREATE_COMPLETE", Tags: []string{"t1"}},
	}
}

func TestGenerateReportScenario(t *testing.T) {
	defer goleak.VerifyNone(t)

	job := newJob("123", "RUNNING", "cpu-small", "alice")
	finder := &mapJobFinder{jobs: map[string]*domain.Job{"prefix-123": &job}}
	svc := NewReportService(fakeStackLister{stacks: scenarioStacks()}, finder, 1, logger.NewNop())

	rows, err := svc.GenerateReport(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, domain.ReportRow{
		StackName:   "prefix-123",
		StackStatus: "CREATE_COMPLETE",
		StackTags:   "t1",
		JobID:       "123",
		JobStatus:   "RUNNING",
		JobProduct:  "cpu-small",
		JobOwner:    "alice",
	}, rows[0])
	assert.Equal(t, domain.ReportRow{
		StackName:   "prefix-456",
		StackStatus: "UPDATE_FAILED",
	}, rows[1])
}

func TestBuildReportEmpty(t *testing.T) {
	svc := NewReportService(fakeStackLister{}, &mapJobFinder{}, 1, logger.NewNop())
	rows, err := svc.BuildReport(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestGenerateReportListError(t *testing.T) {
	svc := NewReportService(fakeStackLister{err: errors.New("keystone down")}, &mapJobFinder{}, 1, logger.NewNop())
	_, err := svc.GenerateReport(context.Background())
	assert.EqualError(t, err, "keystone down")
}

func TestBuildReportSequentialByDefault(t *testing.T) {
	defer goleak.VerifyNone(t)

	var stacks []domain.Stack
	for i := 0; i < 5; i++ {
		stacks = append(stacks, domain.Stack{Name: fmt.Sprintf("s-%d", i), Status: "CREATE_COMPLETE"})
	}
	finder := &mapJobFinder{delay: 5 * time.Millisecond}
	svc := NewReportService(fakeStackLister{}, finder, 0, logger.NewNop())

	rows, err := svc.BuildReport(context.Background(), stacks)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, int32(1), atomic.LoadInt32(&finder.peak))
	assert.Equal(t, []string{"s-0", "s-1", "s-2", "s-3", "s-4"}, finder.visited)
	for i, row := range rows {
		assert.Equal(t, fmt.Sprintf("s-%d", i), row.StackName)
	}
}

func TestBuildReportParallelKeepsOneRowPerStack(t *testing.T) {
	defer goleak.VerifyNone(t)

	statuses := []string{"UPDATE_FAILED", "CREATE_COMPLETE", "DELETE_FAILED", "CREATE_FAILED"}
	var stacks []domain.Stack
	for i := 0; i < 20; i++ {
		stacks = append(stacks, domain.Stack{Name: fmt.Sprintf("s-%02d", i), Status: statuses[i%len(statuses)]})
	}
	finder := &mapJobFinder{delay: 5 * time.Millisecond}
	svc := NewReportService(fakeStackLister{}, finder, 4, logger.NewNop())

	rows, err := svc.BuildReport(context.Background(), stacks)
	require.NoError(t, err)
	require.Len(t, rows, 20)
	assert.LessOrEqual(t, atomic.LoadInt32(&finder.peak), int32(4))

	seen := map[string]bool{}
	for i, row := range rows {
		seen[row.StackName] = true
		if i > 0 {
			assert.LessOrEqual(t, rows[i-1].StackStatus, row.StackStatus)
		}
	}
	assert.Len(t, seen, 20)
	// 状态相同的行保持栈的原始顺序
	assert.Equal(t, "s-01", rows[0].StackName)
	assert.Equal(t, "s-05", rows[1].StackName)
}

func TestBuildReportPropagatesLookupError(t *testing.T) {
	defer goleak.VerifyNone(t)

	stacks := []domain.Stack{
		{Name: "ok", Status: "CREATE_COMPLETE"},
		{Name: "broken", Status: "CREATE_COMPLETE"},
	}
	finder := &mapJobFinder{errFor: "broken"}
	svc := NewReportService(fakeStackLister{}, finder, 2, logger.NewNop())

	rows, err := svc.BuildReport(context.Background(), stacks)
	require.Error(t, err)
	assert.Nil(t, rows)
	assert.Contains(t, err.Error(), "broken")
}

func TestSummarize(t *testing.T) {
	rows := []domain.ReportRow{
		{StackStatus: "CREATE_COMPLETE", JobID: "1"},
		{StackStatus: "CREATE_COMPLETE"},
		{StackStatus: "UPDATE_FAILED", JobID: "2"},
	}
	summary := Summarize(rows)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Matched)
	assert.Equal(t, 1, summary.Unmatched)
	assert.Equal(t, map[string]int{"CREATE_COMPLETE": 2, "UPDATE_FAILED": 1}, summary.ByStatus)
	assert.Equal(t, []string{"CREATE_COMPLETE", "UPDATE_FAILED"}, summary.Statuses())
}

func TestGenerateReportWithUCloudClient(t *testing.T) {
	fake := &fakeUCloud{jobs: map[string]domain.Job{"123": newJob("123", "RUNNING", "cpu-small", "alice")}}
	client, closeFn := newTestUCloud(t, fake)
	defer closeFn()

	svc := NewReportService(fakeStackLister{stacks: scenarioStacks()}, client, 1, logger.NewNop())
	rows, err := svc.GenerateReport(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, []string{"prefix-123", "CREATE_COMPLETE", "", "t1", "123", "RUNNING", "cpu-small", "alice"}, rows[0].Values())
	assert.Equal(t, []string{"prefix-456", "UPDATE_FAILED", "", "", "", "", "", ""}, rows[1].Values())

	// prefix-456 直接获取和 browse 都未命中
	assert.Equal(t, 2, fake.count("/api/jobs/control/retrieve"))
	assert.Equal(t, 1, fake.count("/api/jobs/control/browse"))
}
