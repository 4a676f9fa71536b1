package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/moat/pkg/logger"
)

type fakeJob struct {
	name     string
	schedule string
	failures int32 // fail this many times before succeeding
	calls    int32
	block    chan struct{}
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return j.schedule }

func (j *fakeJob) Run(ctx context.Context) error {
	n := atomic.AddInt32(&j.calls, 1)
	if j.block != nil {
		select {
		case <-j.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if n <= j.failures {
		return errors.New("boom")
	}
	return nil
}

func TestAddJob(t *testing.T) {
	s := New(logger.NewNop())

	require.NoError(t, s.AddJob(&fakeJob{name: "screening", schedule: "0 0 18 * * 1-5"}))
	assert.Error(t, s.AddJob(&fakeJob{name: "screening", schedule: "@daily"}), "duplicate name")
	assert.Error(t, s.AddJob(&fakeJob{name: "bad", schedule: "not a cron"}))

	assert.Equal(t, []string{"screening"}, s.GetAllJobs())

	require.NoError(t, s.RemoveJob("screening"))
	assert.Error(t, s.RemoveJob("screening"))
	assert.Empty(t, s.GetAllJobs())
}

func TestRunJobSync_Retry(t *testing.T) {
	s := New(logger.NewNop(), WithRetry(2, time.Millisecond))
	job := &fakeJob{name: "flaky", schedule: "@daily", failures: 2}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJobSync("flaky")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int32(3), atomic.LoadInt32(&job.calls))

	_, err = s.RunJobSync("missing")
	assert.Error(t, err)
}

func TestRunJobSync_FailureRecorded(t *testing.T) {
	s := New(logger.NewNop())
	require.NoError(t, s.AddJob(&fakeJob{name: "broken", schedule: "@daily", failures: 100}))

	result, err := s.RunJobSync("broken")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "boom", result.Error)

	history, err := s.GetJobHistory("broken")
	require.NoError(t, err)
	require.Len(t, history.Results, 1)

	stats := s.GetJobStats()["broken"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1, stats.FailureCount)
	assert.NotNil(t, stats.LastFailure)
	assert.Nil(t, stats.LastSuccess)
}

func TestRunJob_SkipsOverlap(t *testing.T) {
	s := New(logger.NewNop())
	job := &fakeJob{name: "slow", schedule: "@daily", block: make(chan struct{})}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("slow"))
	require.Eventually(t, func() bool { return atomic.LoadInt32(&job.calls) == 1 }, time.Second, time.Millisecond)

	result, err := s.RunJobSync("slow")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "already running")

	close(job.block)
	s.Stop()
	assert.Equal(t, int32(1), atomic.LoadInt32(&job.calls))
}

func TestStop_CancelsRunningJob(t *testing.T) {
	s := New(logger.NewNop(), WithRetry(5, time.Hour))
	job := &fakeJob{name: "stuck", schedule: "@daily", block: make(chan struct{})}
	require.NoError(t, s.AddJob(job))
	s.Start()

	require.NoError(t, s.RunJob("stuck"))
	require.Eventually(t, func() bool { return atomic.LoadInt32(&job.calls) == 1 }, time.Second, time.Millisecond)

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not cancel the running job")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&job.calls), "no retry after cancellation")
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}
	assert.Equal(t, 0.0, h.GetSuccessRate())
	assert.Empty(t, h.GetLatestResults(5))

	for i := 0; i < maxHistory+10; i++ {
		h.AddResult(JobResult{JobName: "x", Success: i%2 == 0})
	}
	assert.Len(t, h.Results, maxHistory)
	assert.Len(t, h.GetLatestResults(3), 3)
	assert.InDelta(t, 0.5, h.GetSuccessRate(), 1e-9)
	assert.Len(t, h.GetFailedResults(), maxHistory/2)
}
