package jobs

import (
	"fmt"
)

// JobManager starts and stops the background jobs together.
type JobManager struct {
	timelineScheduler   *TimelineScheduler
	directoryRefreshJob *DirectoryRefreshJob
}

func NewJobManager(timelineScheduler *TimelineScheduler, directoryRefreshJob *DirectoryRefreshJob) *JobManager {
	return &JobManager{
		timelineScheduler:   timelineScheduler,
		directoryRefreshJob: directoryRefreshJob,
	}
}

// StartAll starts every job. Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.timelineScheduler.Start(); err != nil {
		return fmt.Errorf("failed to start timeline scheduler: %w", err)
	}

	if err := jm.directoryRefreshJob.Start(); err != nil {
		// Stop already started jobs if this one fails
		jm.timelineScheduler.Stop()
		return fmt.Errorf("failed to start directory refresh job: %w", err)
	}

	return nil
}

// StopAll stops the refresh job first so no reload races the shutdown, then drops
// every armed transition.
func (jm *JobManager) StopAll() {
	jm.directoryRefreshJob.Stop()
	jm.timelineScheduler.Stop()
}
