// Package jobs provides the background work of the dispatcher.
//
// # Available Jobs
//
// 1. TimelineScheduler - fires armed stage transitions at their due time from a
// single goroutine and hands each one to the stage recorder
// 2. DirectoryRefreshJob - reloads the site directory on a cron schedule using
// github.com/robfig/cron/v3
//
// # Usage
//
// Jobs are managed through JobManager:
//
//	jobManager := jobs.NewJobManager(scheduler, refreshJob)
//
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//
//	defer jobManager.StopAll()
//
// # Error Handling
//
// - The scheduler ignores transitions for orders without a timeline
// - Any other recording failure is logged and the transition is dropped, never retried
// - A failed directory reload keeps the previous snapshot
// - Failed job starts will stop any already running jobs
package jobs
