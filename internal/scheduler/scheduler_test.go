package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

func TestScheduler_RunJobNow(t *testing.T) {
	s := newTestScheduler(t)

	var runs atomic.Int32
	require.NoError(t, s.AddJob("cleanup", "Cleanup", "removes things", "1h",
		gocron.DurationJob(time.Hour),
		func(ctx context.Context) error {
			runs.Add(1)
			return nil
		}, false))

	s.Start()
	require.NoError(t, s.RunJobNow("cleanup"))

	assert.Eventually(t, func() bool {
		job, ok := s.GetJob("cleanup")
		return ok && job.Status == JobStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())

	job, _ := s.GetJob("cleanup")
	assert.Equal(t, 1, job.RunCount)
	assert.False(t, job.NextRun.IsZero())
}

func TestScheduler_InstantAfterStartAndFailure(t *testing.T) {
	s := newTestScheduler(t)

	require.NoError(t, s.AddSingletonJob("broken", "Broken", "", "1h",
		gocron.DurationJob(time.Hour),
		func(ctx context.Context) error {
			return errors.New("backend down")
		}, true))

	s.Start()

	assert.Eventually(t, func() bool {
		job, _ := s.GetJob("broken")
		return job.Status == JobStatusFailed
	}, 2*time.Second, 10*time.Millisecond)

	job, _ := s.GetJob("broken")
	assert.Equal(t, 1, job.ErrorCount)
	assert.Equal(t, "backend down", job.LastError)
	assert.True(t, job.Singleton)
}

func TestScheduler_UnknownJob(t *testing.T) {
	s := newTestScheduler(t)
	require.Error(t, s.RunJobNow("nope"))
	_, ok := s.GetJob("nope")
	assert.False(t, ok)
}

func TestScheduler_InvalidCron(t *testing.T) {
	s := newTestScheduler(t)
	err := s.AddJob("bad", "Bad", "", "* *", gocron.CronJob("* *", false), func(context.Context) error { return nil }, false)
	require.Error(t, err)
	assert.Empty(t, s.GetJobs())
}

func TestJobInfo_UpcomingRun(t *testing.T) {
	s := newTestScheduler(t)
	noop := func(context.Context) error { return nil }
	require.NoError(t, s.AddSingletonJob("cache_cleanup", "Cache Cleanup", "", "0 * * * *",
		gocron.CronJob("0 * * * *", false), noop, false))
	require.NoError(t, s.AddJob("image_cleanup", "Image Cleanup", "", "0 3 * * *",
		gocron.CronJob("0 3 * * *", false), noop, false))

	jobs := s.GetJobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "cache_cleanup", jobs[0].ID)
	assert.True(t, jobs[0].NextRun.IsZero(), "not started yet")

	now := time.Date(2025, 3, 14, 12, 30, 0, 0, time.UTC)
	next, err := jobs[0].UpcomingRun(now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 14, 13, 0, 0, 0, time.UTC), next)

	next, err = jobs[1].UpcomingRun(now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 15, 3, 0, 0, 0, time.UTC), next)

	known := time.Date(2025, 3, 14, 12, 45, 0, 0, time.UTC)
	next, err = JobInfo{Schedule: "0 * * * *", NextRun: known}.UpcomingRun(now)
	require.NoError(t, err)
	assert.Equal(t, known, next)

	_, err = JobInfo{ID: "duration", Schedule: "1h"}.UpcomingRun(now)
	require.Error(t, err)
}
