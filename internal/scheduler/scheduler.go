package scheduler

import (
	"container/heap"
	"context"
	"time"

	"github.com/adhocore/gronx"
)

const maxSleepCap = 60 * time.Second

// Scheduler manages job events using a min-heap.
// It runs a background goroutine that sleeps until the next event's
// trigger time, then calls the onTrigger callback with the job id.
type Scheduler struct {
	addChan    chan Event
	removeChan chan string
	ctx        context.Context
	now        func() time.Time
}

// New creates and starts a new Scheduler.
// The onTrigger callback is invoked on the scheduler goroutine when an event
// fires; long jobs should hand off to their own goroutine.
// The scheduler goroutine exits when ctx is cancelled.
func New(ctx context.Context, onTrigger func(string)) *Scheduler {
	s := &Scheduler{
		addChan:    make(chan Event, 64),
		removeChan: make(chan string, 64),
		ctx:        ctx,
		now:        time.Now,
	}
	go s.run(onTrigger)
	return s
}

// Add enqueues a new event.
func (s *Scheduler) Add(event Event) {
	select {
	case s.addChan <- event:
	case <-s.ctx.Done():
	}
}

// Remove cancels every pending event of a job.
func (s *Scheduler) Remove(jobID string) {
	select {
	case s.removeChan <- jobID:
	case <-s.ctx.Done():
	}
}

// run is the core scheduler goroutine implementing the active-object pattern.
// It maintains a min-heap of events and sleeps with a 60s max-sleep-cap.
// For recurring events (CronExpr != ""), after firing it computes the next
// occurrence and re-adds it to the heap automatically.
func (s *Scheduler) run(onTrigger func(string)) {
	h := &eventHeap{}
	heap.Init(h)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	resetTimer := func() <-chan time.Time {
		if timer != nil {
			timer.Stop()
		}
		if h.Len() == 0 {
			// No events, block on channels only.
			return nil
		}
		dur := (*h)[0].TriggerAt.Sub(s.now())
		if dur > maxSleepCap {
			dur = maxSleepCap
		}
		if dur < 0 {
			dur = 0
		}
		timer = time.NewTimer(dur)
		return timer.C
	}

	timerCh := resetTimer()

	for {
		select {
		case <-s.ctx.Done():
			return

		case event := <-s.addChan:
			heapPush(h, event)
			timerCh = resetTimer()

		case id := <-s.removeChan:
			heapRemoveByID(h, id)
			timerCh = resetTimer()

		case <-timerCh:
			now := s.now()
			for h.Len() > 0 && !(*h)[0].TriggerAt.After(now) {
				event := heapPop(h)
				onTrigger(event.JobID)
				if event.CronExpr != "" {
					next, err := NextOccurrence(event.CronExpr, s.now())
					if err == nil {
						heapPush(h, Event{
							JobID:     event.JobID,
							TriggerAt: next,
							CronExpr:  event.CronExpr,
						})
					}
				}
			}
			timerCh = resetTimer()
		}
	}
}

// NextOccurrence returns the next time the cron expression fires strictly
// after start, in start's location.
func NextOccurrence(expr string, start time.Time) (time.Time, error) {
	return gronx.NextTickAfter(expr, start, false)
}

// HasOccurrenceWithinYear checks if a cron expression has any occurrence
// within 1 year from the given time. Returns false for invalid expressions
// or if no occurrence exists within the 1-year window.
func HasOccurrenceWithinYear(expr string, from time.Time) bool {
	next, err := gronx.NextTickAfter(expr, from, false)
	if err != nil {
		return false
	}
	return next.Before(from.Add(365 * 24 * time.Hour))
}

// LoadJobs turns job definitions into heap events at daemon startup.
//
// A job whose occurrence following LastRun is already in the past missed a
// run while the daemon was down: it is returned in missed for an immediate
// run, and its next occurrence after now goes to future. Jobs that never ran
// are only scheduled. Jobs without a cron expression or with an invalid one
// are skipped.
func LoadJobs(jobs []Job, now time.Time) (missed []Job, future []Event) {
	for _, job := range jobs {
		if job.CronExpr == "" {
			continue
		}
		if !job.LastRun.IsZero() {
			due, err := NextOccurrence(job.CronExpr, job.LastRun)
			if err != nil {
				continue
			}
			if !due.After(now) {
				missed = append(missed, job)
			} else {
				future = append(future, Event{JobID: job.ID, TriggerAt: due, CronExpr: job.CronExpr})
				continue
			}
		}
		next, err := NextOccurrence(job.CronExpr, now)
		if err != nil {
			continue
		}
		future = append(future, Event{JobID: job.ID, TriggerAt: next, CronExpr: job.CronExpr})
	}
	return missed, future
}
