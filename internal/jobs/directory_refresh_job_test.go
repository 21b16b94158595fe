package jobs_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"fulfillment/internal/jobs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingReloader struct {
	calls atomic.Int32
	err   error
}

func (r *countingReloader) Reload(ctx context.Context) error {
	r.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("reload without deadline")
	}
	return r.err
}

func TestDirectoryRefreshJob_RunsOnSchedule(t *testing.T) {
	// Given
	reloader := &countingReloader{}
	job := jobs.NewDirectoryRefreshJob(reloader, "* * * * * *", time.Second, discardLogger())

	// When
	require.NoError(t, job.Start())
	defer job.Stop()

	// Then
	assert.Eventually(t, func() bool { return reloader.calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
}

func TestDirectoryRefreshJob_FailureKeepsRunning(t *testing.T) {
	reloader := &countingReloader{err: errors.New("mongo: server selection timeout")}
	job := jobs.NewDirectoryRefreshJob(reloader, "* * * * * *", time.Second, discardLogger())

	require.NoError(t, job.Start())
	defer job.Stop()

	assert.Eventually(t, func() bool { return reloader.calls.Load() >= 2 }, 4*time.Second, 50*time.Millisecond)
}

func TestDirectoryRefreshJob_Disabled(t *testing.T) {
	reloader := &countingReloader{}
	job := jobs.NewDirectoryRefreshJob(reloader, "", time.Second, discardLogger())

	require.NoError(t, job.Start())
	job.Stop()

	assert.Equal(t, int32(0), reloader.calls.Load())
}

func TestDirectoryRefreshJob_InvalidSchedule(t *testing.T) {
	job := jobs.NewDirectoryRefreshJob(&countingReloader{}, "every five minutes", time.Second, discardLogger())

	require.Error(t, job.Start())
}

func TestJobManager_StartAllAndStopAll(t *testing.T) {
	recorder := newFakeRecorder()
	scheduler := jobs.NewTimelineScheduler(recorder, time.Second, nil, discardLogger())
	refresh := jobs.NewDirectoryRefreshJob(&countingReloader{}, "", time.Second, discardLogger())
	manager := jobs.NewJobManager(scheduler, refresh)

	require.NoError(t, manager.StartAll())
	manager.StopAll()

	require.ErrorIs(t, scheduler.Start(), jobs.ErrSchedulerStopped)
}

func TestJobManager_StartAllStopsSchedulerOnFailure(t *testing.T) {
	scheduler := jobs.NewTimelineScheduler(newFakeRecorder(), time.Second, nil, discardLogger())
	refresh := jobs.NewDirectoryRefreshJob(&countingReloader{}, "not a cron spec", time.Second, discardLogger())
	manager := jobs.NewJobManager(scheduler, refresh)

	require.Error(t, manager.StartAll())
	require.ErrorIs(t, scheduler.Start(), jobs.ErrSchedulerStopped)
}
