package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Task is one independent periodic background activity. Tasks share no
// mutable state with each other; everything they touch crosses the
// store boundary.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Runner drives a set of Tasks, each on its own goroutine with its own
// ticker. A failing pass is logged and retried after the error backoff;
// a panicking pass is recovered. One task's trouble never stops the
// others.
type Runner struct {
	tasks   []Task
	backoff time.Duration

	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewRunner builds a Runner and registers its metrics with reg.
func NewRunner(tasks []Task, backoff time.Duration, reg prometheus.Registerer) *Runner {
	r := &Runner{
		tasks:   tasks,
		backoff: backoff,
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plantpulse_sweep_runs_total",
			Help: "Sweep passes by task and result.",
		}, []string{"task", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "plantpulse_sweep_duration_seconds",
			Help:    "Sweep pass duration by task.",
			Buckets: prometheus.DefBuckets,
		}, []string{"task"}),
	}
	if reg != nil {
		reg.MustRegister(r.runs, r.duration)
	}
	return r
}

// Run starts every task and blocks until ctx is cancelled and all tasks
// have wound down.
func (r *Runner) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, task := range r.tasks {
		wg.Add(1)
		go func(t Task) {
			defer wg.Done()
			r.loop(ctx, t)
		}(task)
	}
	wg.Wait()
}

// loop is one task's schedule: run a pass, sleep the interval, repeat.
// Errors extend the sleep by the backoff instead of terminating.
func (r *Runner) loop(ctx context.Context, t Task) {
	slog.Info("sweep: task started", "task", t.Name, "interval", t.Interval)
	for {
		err := r.pass(ctx, t)

		delay := t.Interval
		if err != nil {
			slog.Error("sweep: pass failed", "task", t.Name, "err", err)
			delay += r.backoff
		}

		select {
		case <-ctx.Done():
			slog.Info("sweep: task stopped", "task", t.Name)
			return
		case <-time.After(delay):
		}
	}
}

// pass executes one run with panic isolation and metrics.
func (r *Runner) pass(ctx context.Context, t Task) (err error) {
	defer func(start time.Time) {
		r.duration.WithLabelValues(t.Name).Observe(time.Since(start).Seconds())
		result := "ok"
		if err != nil {
			result = "error"
		}
		r.runs.WithLabelValues(t.Name, result).Inc()
	}(time.Now())

	defer func() {
		if p := recover(); p != nil {
			slog.Error("sweep: pass panicked", "task", t.Name, "panic", p)
			err = &panicError{task: t.Name, value: p}
		}
	}()
	return t.Run(ctx)
}

type panicError struct {
	task  string
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("task %s panicked: %v", e.task, e.value)
}
