// Package scheduler runs the daemon's recurring background jobs, such as the
// periodic update check. It implements a single-goroutine scheduler using a
// min-heap of Events sorted by trigger time, with a 60-second max-sleep-cap
// to handle NTP steps, DST transitions, and system sleep (macOS monotonic
// clock pause).
//
// The scheduler does not persist state: the heap is rebuilt from Job
// definitions and their last run times on daemon restart (see LoadJobs).
package scheduler
