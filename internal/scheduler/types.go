package scheduler

import "time"

// Event represents a pending job trigger in the scheduler heap.
type Event struct {
	// JobID identifies the job to run when TriggerAt is reached.
	JobID string
	// TriggerAt is the wall-clock time when the job should run.
	TriggerAt time.Time
	// CronExpr is the cron expression for recurring jobs.
	// Empty string means one-shot: no re-scheduling after firing.
	CronExpr string
}

// Job is a recurring job definition together with the time it last ran.
type Job struct {
	ID       string
	CronExpr string
	// LastRun is zero when the job never ran.
	LastRun time.Time
}
