package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/riskibarqy/matchstats/internal/platform/logging"
	"github.com/robfig/cron/v3"
	"github.com/sourcegraph/conc/panics"
)

// Job is one collection run. It receives a context detached from shutdown and bounded by RunTimeout.
type Job func(ctx context.Context)

type Config struct {
	// Interval is the elapsed time between runs, measured from process start.
	Interval time.Duration
	// Cron switches to wall-clock aligned runs, e.g. "0 * * * *". Empty keeps interval mode.
	Cron       string
	RunOnStart bool
	RunTimeout time.Duration
	Location   *time.Location
}

type Scheduler struct {
	cfg      Config
	job      Job
	logger   *logging.Logger
	schedule cron.Schedule

	running atomic.Bool
	wg      sync.WaitGroup
	runs    atomic.Int64
}

func New(cfg Config, job Job, logger *logging.Logger) (*Scheduler, error) {
	if job == nil {
		return nil, fmt.Errorf("scheduler job is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	cfg.Cron = strings.TrimSpace(cfg.Cron)

	s := &Scheduler{cfg: cfg, job: job, logger: logger}
	if cfg.Cron != "" {
		schedule, err := cron.ParseStandard(cfg.Cron)
		if err != nil {
			return nil, fmt.Errorf("parse cron %q: %w", cfg.Cron, err)
		}
		s.schedule = schedule
	} else if cfg.Interval <= 0 {
		return nil, fmt.Errorf("scheduler interval must be greater than zero")
	}
	return s, nil
}

// Runs reports how many runs have started.
func (s *Scheduler) Runs() int64 {
	return s.runs.Load()
}

// Run blocks until ctx is done and then waits for the run in flight, if any.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.cfg.RunOnStart {
		s.start(ctx)
	}

	if s.schedule != nil {
		s.runAligned(ctx)
	} else {
		s.runInterval(ctx)
	}

	s.wg.Wait()
	s.logger.Info("scheduler stopped", "runs", s.runs.Load())
	return nil
}

func (s *Scheduler) runInterval(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.logger.Info("scheduler started", "mode", "interval", "interval", s.cfg.Interval, "run_on_start", s.cfg.RunOnStart)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			s.start(ctx)
		}
	}
}

func (s *Scheduler) runAligned(ctx context.Context) {
	adapter := cronLogger{logger: s.logger.Named("cron")}
	c := cron.New(
		cron.WithLocation(s.cfg.Location),
		cron.WithLogger(adapter),
		cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)),
	)
	c.Schedule(s.schedule, cron.FuncJob(func() {
		if ctx.Err() != nil {
			return
		}
		s.execute(ctx)
	}))

	c.Start()
	s.logger.Info("scheduler started", "mode", "cron", "cron", s.cfg.Cron, "next_run", s.schedule.Next(time.Now().In(s.cfg.Location)))

	<-ctx.Done()
	<-c.Stop().Done()
}

// start launches a run in the background unless one is already in flight.
func (s *Scheduler) start(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("collection run still in progress, skipping tick")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Store(false)
		s.invoke(ctx)
	}()
}

// execute runs synchronously, used from the cron chain which already serializes runs.
func (s *Scheduler) execute(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("collection run still in progress, skipping tick")
		return
	}
	defer s.running.Store(false)

	s.wg.Add(1)
	defer s.wg.Done()
	s.invoke(ctx)
}

func (s *Scheduler) invoke(ctx context.Context) {
	runCtx := context.WithoutCancel(ctx)
	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, s.cfg.RunTimeout)
		defer cancel()
	}

	s.runs.Add(1)
	var catcher panics.Catcher
	catcher.Try(func() { s.job(runCtx) })
	if recovered := catcher.Recovered(); recovered != nil {
		s.logger.Error("collection run panicked", "error", recovered.AsError())
	}
}

type cronLogger struct {
	logger *logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
