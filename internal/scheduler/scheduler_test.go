package scheduler

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name string
	runs atomic.Int32
	err  error
}

func (j *countingJob) Run() error {
	j.runs.Add(1)
	return j.err
}

func (j *countingJob) Name() string { return j.name }

func TestAddJob_RegistersStatus(t *testing.T) {
	s := New(zerolog.Nop())

	require.NoError(t, s.AddJob(SchedulePriceCacheCleanup, &countingJob{name: "price_cache_cleanup"}))
	require.NoError(t, s.AddJob(ScheduleSessionSweep, &countingJob{name: "session_sweep"}))

	jobs := s.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "price_cache_cleanup", jobs[0].Name)
	assert.Equal(t, "@hourly", jobs[0].Schedule)
	assert.Equal(t, "session_sweep", jobs[1].Name)
	assert.Zero(t, jobs[1].Runs)
}

func TestAddJob_Errors(t *testing.T) {
	s := New(zerolog.Nop())

	assert.Error(t, s.AddJob("not a schedule", &countingJob{name: "bad"}))
	assert.Empty(t, s.Jobs(), "failed registration leaves no status")

	require.NoError(t, s.AddJob("@hourly", &countingJob{name: "dup"}))
	assert.Error(t, s.AddJob("@hourly", &countingJob{name: "dup"}))
}

func TestRunNow_RecordsOutcome(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{name: "flaky"}
	require.NoError(t, s.AddJob("@hourly", job))

	require.NoError(t, s.RunNow(job))
	job.err = errors.New("disk full")
	assert.Error(t, s.RunNow(job))

	jobs := s.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, 2, jobs[0].Runs)
	assert.Equal(t, "disk full", jobs[0].LastError)
	assert.False(t, jobs[0].LastRun.IsZero())
	assert.Equal(t, int32(2), job.runs.Load())
}

func TestStartStop_RunsScheduledJob(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{name: "tick"}
	require.NoError(t, s.AddJob("@every 1s", job))

	s.Start()
	assert.Eventually(t, func() bool { return job.runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
	s.Stop()
}

func TestScheduledFailureIsRecorded(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{name: "broken", err: errors.New("cache database is closed")}
	require.NoError(t, s.AddJob("@every 1s", job))

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		jobs := s.Jobs()
		return len(jobs) == 1 && jobs[0].Runs > 0 && jobs[0].LastError == "cache database is closed"
	}, 3*time.Second, 50*time.Millisecond)
}
