package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DirectoryReloader swaps in a fresh directory snapshot from its source.
type DirectoryReloader interface {
	Reload(ctx context.Context) error
}

// DirectoryRefreshJob reloads the site directory on a cron schedule (seconds field
// included, e.g. "0 */5 * * * *"). A failed reload keeps the previous snapshot.
type DirectoryRefreshJob struct {
	reloader DirectoryReloader
	schedule string
	timeout  time.Duration
	cron     *cron.Cron
	logger   *slog.Logger
}

func NewDirectoryRefreshJob(
	reloader DirectoryReloader,
	schedule string,
	timeout time.Duration,
	logger *slog.Logger,
) *DirectoryRefreshJob {
	return &DirectoryRefreshJob{
		reloader: reloader,
		schedule: schedule,
		timeout:  timeout,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger.With("component", "directory_refresh_job"),
	}
}

// Start registers the schedule. An empty schedule disables the job.
func (j *DirectoryRefreshJob) Start() error {
	if j.schedule == "" {
		j.logger.InfoContext(context.Background(), "Directory refresh job disabled")
		return nil
	}

	if _, err := j.cron.AddFunc(j.schedule, j.refresh); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Directory refresh job started", "schedule", j.schedule)
	return nil
}

// Stop waits for a running refresh to finish.
func (j *DirectoryRefreshJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Directory refresh job stopped")
}

func (j *DirectoryRefreshJob) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if err := j.reloader.Reload(ctx); err != nil {
		j.logger.ErrorContext(ctx, "Directory refresh failed, keeping previous snapshot", "error", err)
	}
}
