package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestScheduler_AddAndFire(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	fired := make(map[string]bool)
	onTrigger := func(id string) {
		mu.Lock()
		fired[id] = true
		mu.Unlock()
	}

	s := New(ctx, onTrigger)

	// Schedule an event 100ms from now
	s.Add(Event{
		JobID:     "update-check",
		TriggerAt: time.Now().Add(100 * time.Millisecond),
	})

	// Wait enough time for the event to fire
	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if !fired["update-check"] {
		t.Fatal("expected update-check to fire")
	}
}

func TestScheduler_CancelBeforeFire(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	fired := make(map[string]bool)
	onTrigger := func(id string) {
		mu.Lock()
		fired[id] = true
		mu.Unlock()
	}

	s := New(ctx, onTrigger)

	// Schedule an event 2s from now (plenty of margin)
	s.Add(Event{
		JobID:     "cancelled-job",
		TriggerAt: time.Now().Add(2 * time.Second),
	})

	// Give the goroutine time to process the add
	time.Sleep(100 * time.Millisecond)

	// Cancel it before it fires
	s.Remove("cancelled-job")

	// Give the goroutine time to process the remove
	time.Sleep(100 * time.Millisecond)

	// Wait past the trigger time
	time.Sleep(2 * time.Second)

	mu.Lock()
	defer mu.Unlock()
	if fired["cancelled-job"] {
		t.Fatal("expected cancelled-job NOT to fire after cancel")
	}
}

func TestScheduler_ShutdownViaContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	fired := make(map[string]bool)
	onTrigger := func(id string) {
		mu.Lock()
		fired[id] = true
		mu.Unlock()
	}

	s := New(ctx, onTrigger)

	// Schedule an event 500ms from now
	s.Add(Event{
		JobID:     "shutdown-job",
		TriggerAt: time.Now().Add(500 * time.Millisecond),
	})

	// Cancel context immediately
	cancel()

	// Wait past the trigger time
	time.Sleep(700 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if fired["shutdown-job"] {
		t.Fatal("expected shutdown-job NOT to fire after context cancel")
	}
	_ = s // ensure scheduler is referenced
}

func TestScheduler_EmptyDoesNotFire(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	firedCount := 0
	onTrigger := func(id string) {
		firedCount++
	}

	_ = New(ctx, onTrigger)

	// Wait a bit to ensure nothing spurious fires
	time.Sleep(200 * time.Millisecond)

	if firedCount != 0 {
		t.Fatalf("expected no triggers on empty scheduler, got %d", firedCount)
	}
}

func TestScheduler_MultipleEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	fired := []string{}
	onTrigger := func(id string) {
		mu.Lock()
		fired = append(fired, id)
		mu.Unlock()
	}

	s := New(ctx, onTrigger)

	// Schedule two events at different times
	s.Add(Event{
		JobID:     "first",
		TriggerAt: time.Now().Add(100 * time.Millisecond),
	})
	s.Add(Event{
		JobID:     "second",
		TriggerAt: time.Now().Add(200 * time.Millisecond),
	})

	// Wait for both to fire
	time.Sleep(400 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(fired) != 2 {
		t.Fatalf("expected 2 triggers, got %d", len(fired))
	}
	// First should fire before second
	if fired[0] != "first" {
		t.Errorf("expected first to fire first, got %s", fired[0])
	}
	if fired[1] != "second" {
		t.Errorf("expected second to fire second, got %s", fired[1])
	}
}

func TestScheduler_RemoveNonexistent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := New(ctx, func(id string) {})

	// Removing an unknown job should not panic
	s.Remove("nonexistent")
}

func TestNextOccurrence_ValidExpr(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	next, err := NextOccurrence("0 2 * * *", now)
	if err != nil {
		t.Fatalf("expected no error: %v", err)
	}
	// Should be 2026-03-01 02:00 UTC
	if next.Hour() != 2 || next.Minute() != 0 {
		t.Errorf("expected 02:00, got %v", next)
	}
}

func TestNextOccurrence_InvalidExpr(t *testing.T) {
	_, err := NextOccurrence("bad-expr", time.Now())
	if err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
}

func TestHasOccurrenceWithinYear(t *testing.T) {
	// A valid common expression should have occurrences
	now := time.Now()
	if !HasOccurrenceWithinYear("0 2 * * *", now) {
		t.Error("expected daily cron to have occurrence in next year")
	}
}

func TestHasOccurrenceWithinYear_InvalidExpr(t *testing.T) {
	if HasOccurrenceWithinYear("bad-cron", time.Now()) {
		t.Error("invalid cron should return false")
	}
}

func TestScheduler_RecurringReSchedule(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	fireCount := 0
	onTrigger := func(id string) {
		mu.Lock()
		fireCount++
		mu.Unlock()
	}

	s := New(ctx, onTrigger)

	// Schedule a recurring event every 100ms
	s.Add(Event{
		JobID:     "recurring",
		TriggerAt: time.Now().Add(100 * time.Millisecond),
		CronExpr:  "* * * * *", // every minute, next occurrence only
	})

	// Wait enough for 2 firings, but with a 1-minute cron the second won't fire in 500ms.
	// So we just verify it fired at least once and the event stays alive.
	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	count := fireCount
	mu.Unlock()

	if count < 1 {
		t.Fatal("expected recurring event to fire at least once")
	}
}

func TestLoadJobs(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name       string
		job        Job
		wantMissed bool
		wantNext   time.Time
	}{
		{
			name:     "never ran is only scheduled",
			job:      Job{ID: "update-check", CronExpr: "0 12 * * *"},
			wantNext: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC),
		},
		{
			name:     "ran after the last occurrence",
			job:      Job{ID: "update-check", CronExpr: "0 12 * * *", LastRun: time.Date(2026, 3, 1, 12, 0, 5, 0, time.UTC)},
			wantNext: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC),
		},
		{
			name:       "missed while down",
			job:        Job{ID: "update-check", CronExpr: "0 12 * * *", LastRun: time.Date(2026, 2, 28, 12, 0, 0, 0, time.UTC)},
			wantMissed: true,
			wantNext:   time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			missed, future := LoadJobs([]Job{tt.job}, now)
			if got := len(missed) == 1; got != tt.wantMissed {
				t.Errorf("missed = %v, want missed %v", missed, tt.wantMissed)
			}
			if len(future) != 1 {
				t.Fatalf("expected 1 future event, got %d", len(future))
			}
			if future[0].JobID != tt.job.ID || future[0].CronExpr != tt.job.CronExpr {
				t.Errorf("future event lost fields: %+v", future[0])
			}
			if !future[0].TriggerAt.Equal(tt.wantNext) {
				t.Errorf("TriggerAt = %v, want %v", future[0].TriggerAt, tt.wantNext)
			}
		})
	}
}

func TestLoadJobs_SkipsInvalid(t *testing.T) {
	missed, future := LoadJobs([]Job{
		{ID: "one-shot"},
		{ID: "broken", CronExpr: "bad-cron", LastRun: time.Now().Add(-time.Hour)},
	}, time.Now())
	if len(missed) != 0 || len(future) != 0 {
		t.Errorf("expected nothing scheduled, got missed=%d future=%d", len(missed), len(future))
	}
}
