package cron

import (
	"context"
	"errors"
	"testing"
	"time"
)

// waitForStatus polls a job until it settles into a terminal state.
func waitForStatus(t *testing.T, s *Scheduler, name string) *TaskResult {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		result, err := s.GetTask(name)
		if err != nil {
			t.Fatalf("GetTask: %v", err)
		}
		if result.Status == StatusFulfill || result.Status == StatusReject {
			return result
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %q did not finish in time", name)
	return nil
}

func TestRunExecutesRegisteredJob(t *testing.T) {
	s := New()
	done := make(chan struct{})
	s.Register(Job{
		Name:     "demo",
		Interval: time.Hour,
		Fn: func(ctx context.Context) error {
			close(done)
			return nil
		},
	})

	if err := s.Run(context.Background(), "demo"); err != nil {
		t.Fatalf("run: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job function never ran")
	}

	result := waitForStatus(t, s, "demo")
	if result.Status != StatusFulfill {
		t.Errorf("status = %s, want %s", result.Status, StatusFulfill)
	}
}

func TestRunRecordsFailure(t *testing.T) {
	s := New()
	s.Register(Job{
		Name:     "broken",
		Interval: time.Hour,
		Fn: func(ctx context.Context) error {
			return errors.New("boom")
		},
	})

	if err := s.Run(context.Background(), "broken"); err != nil {
		t.Fatalf("run: %v", err)
	}
	result := waitForStatus(t, s, "broken")
	if result.Status != StatusReject {
		t.Errorf("status = %s, want %s", result.Status, StatusReject)
	}
	if result.Message != "boom" {
		t.Errorf("message = %q, want boom", result.Message)
	}
}

func TestRunUnknownJob(t *testing.T) {
	s := New()
	if err := s.Run(context.Background(), "missing"); err == nil {
		t.Error("expected error for unknown job")
	}
	if _, err := s.GetTask("missing"); err == nil {
		t.Error("expected error for unknown task")
	}
}

func TestListReportsAllJobs(t *testing.T) {
	s := New()
	s.Register(Job{Name: "a", Interval: time.Hour, Fn: func(ctx context.Context) error { return nil }})
	s.Register(Job{Name: "b", Interval: time.Hour, Fn: func(ctx context.Context) error { return nil }})

	items := s.List()
	if len(items) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(items))
	}
	for _, item := range items {
		if item.Status != StatusIdle {
			t.Errorf("job %s status = %s, want idle", item.Name, item.Status)
		}
	}
}
