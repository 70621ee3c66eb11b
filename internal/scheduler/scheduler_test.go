package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/matchstats/internal/platform/logging"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

func TestNew_ValidatesConfig(t *testing.T) {
	noop := func(context.Context) {}
	if _, err := New(Config{}, noop, logging.NewNop()); err == nil {
		t.Fatalf("expected interval error")
	}
	if _, err := New(Config{Cron: "not a cron"}, noop, logging.NewNop()); err == nil {
		t.Fatalf("expected cron parse error")
	}
	if _, err := New(Config{Interval: time.Hour}, nil, logging.NewNop()); err == nil {
		t.Fatalf("expected job error")
	}
	if _, err := New(Config{Cron: "0 * * * *"}, noop, logging.NewNop()); err != nil {
		t.Fatalf("expected hourly cron to parse: %v", err)
	}
}

func TestRun_IntervalMode(t *testing.T) {
	var calls atomic.Int64
	s, err := New(Config{Interval: 10 * time.Millisecond}, func(context.Context) { calls.Add(1) }, logging.NewNop())
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = s.Run(ctx)
		close(done)
	}()

	waitFor(t, time.Second, func() bool { return calls.Load() >= 3 })
	cancel()
	<-done
}

func TestRun_FirstRunWaitsOneIntervalUnlessRunOnStart(t *testing.T) {
	var calls atomic.Int64
	job := func(context.Context) { calls.Add(1) }

	s, _ := New(Config{Interval: time.Hour}, job, logging.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_ = s.Run(ctx)
	if calls.Load() != 0 {
		t.Fatalf("expected no run before the first interval, got %d", calls.Load())
	}

	s, _ = New(Config{Interval: time.Hour, RunOnStart: true}, job, logging.NewNop())
	ctx2, cancel2 := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel2()
	_ = s.Run(ctx2)
	if calls.Load() != 1 {
		t.Fatalf("expected run on start, got %d", calls.Load())
	}
}

func TestRun_NeverOverlapsAndFinishesInFlightRun(t *testing.T) {
	release := make(chan struct{})
	var (
		active     atomic.Int64
		maxActive  atomic.Int64
		finished   atomic.Bool
		ctxErrSeen atomic.Bool
	)
	job := func(ctx context.Context) {
		n := active.Add(1)
		if n > maxActive.Load() {
			maxActive.Store(n)
		}
		<-release
		if ctx.Err() != nil {
			ctxErrSeen.Store(true)
		}
		active.Add(-1)
		finished.Store(true)
	}

	s, _ := New(Config{Interval: 5 * time.Millisecond, RunOnStart: true, RunTimeout: time.Minute}, job, logging.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = s.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
		t.Fatalf("Run returned before the in-flight run finished")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	<-done

	if !finished.Load() {
		t.Fatalf("expected in-flight run to finish")
	}
	if ctxErrSeen.Load() {
		t.Fatalf("run context must not be cancelled by shutdown")
	}
	if maxActive.Load() != 1 || s.Runs() != 1 {
		t.Fatalf("expected exactly one run, max_active=%d runs=%d", maxActive.Load(), s.Runs())
	}
}

func TestRun_RecoversPanickingJob(t *testing.T) {
	var calls atomic.Int64
	job := func(context.Context) {
		if calls.Add(1) == 1 {
			panic("boom")
		}
	}

	s, _ := New(Config{Interval: 5 * time.Millisecond, RunOnStart: true}, job, logging.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = s.Run(ctx)
		close(done)
	}()

	waitFor(t, time.Second, func() bool { return calls.Load() >= 2 })
	cancel()
	<-done
}

func TestRun_RunTimeoutBoundsJob(t *testing.T) {
	deadlineSet := make(chan bool, 1)
	job := func(ctx context.Context) {
		_, ok := ctx.Deadline()
		select {
		case deadlineSet <- ok:
		default:
		}
	}

	s, _ := New(Config{Interval: time.Hour, RunOnStart: true, RunTimeout: time.Second}, job, logging.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_ = s.Run(ctx)

	if !<-deadlineSet {
		t.Fatalf("expected run context deadline")
	}
}

func TestRun_CronMode(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for a cron tick")
	}
	var calls atomic.Int64
	s, err := New(Config{Cron: "@every 1s"}, func(context.Context) { calls.Add(1) }, logging.NewNop())
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = s.Run(ctx)
		close(done)
	}()

	waitFor(t, 3*time.Second, func() bool { return calls.Load() >= 1 })
	cancel()
	<-done
}
