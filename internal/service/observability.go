package service

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// PlanEvent describes one finished PlanService call.
type PlanEvent struct {
	Op       string
	UserID   string
	Section  string
	Activity string

	// Source is where a returned plan came from: local, remote, generated
	// or none. Empty for calls that do not resolve a plan.
	Source string

	// Sync is set by calls that write to the stores.
	Sync SyncReport

	// Count is the size of the result: plans listed, items carried over,
	// activities planned or cache entries removed.
	Count    int
	Duration time.Duration
	Err      error
}

// Degraded reports whether a store write was lost while the call itself
// still succeeded.
func (e PlanEvent) Degraded() bool {
	return e.Sync.Local == OutcomeFailed || e.Sync.Remote == OutcomeFailed
}

// PlanObserver receives one event per PlanService call.
type PlanObserver interface {
	ObservePlanOp(ctx context.Context, event PlanEvent)
}

// NoopPlanObserver ignores all events.
type NoopPlanObserver struct{}

func (NoopPlanObserver) ObservePlanOp(context.Context, PlanEvent) {}

type logPlanObserver struct {
	logger *slog.Logger
}

// NewLogPlanObserver writes one text log line per PlanService call to w.
func NewLogPlanObserver(w io.Writer) PlanObserver {
	if w == nil {
		return NoopPlanObserver{}
	}
	return &logPlanObserver{
		logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})),
	}
}

func (o *logPlanObserver) ObservePlanOp(ctx context.Context, e PlanEvent) {
	attrs := []slog.Attr{
		slog.String("op", e.Op),
		slog.String("user", e.UserID),
	}
	if e.Section != "" {
		attrs = append(attrs, slog.String("section", e.Section))
	}
	if e.Activity != "" {
		attrs = append(attrs, slog.String("activity", e.Activity))
	}
	if e.Source != "" {
		attrs = append(attrs, slog.String("source", e.Source))
	}
	if e.Sync != (SyncReport{}) {
		attrs = append(attrs, slog.String("local", string(e.Sync.Local)), slog.String("remote", string(e.Sync.Remote)))
	}
	attrs = append(attrs,
		slog.Int("count", e.Count),
		slog.Int64("duration_ms", e.Duration.Milliseconds()),
	)

	level := slog.LevelInfo
	switch {
	case e.Err != nil:
		level = slog.LevelError
		attrs = append(attrs, slog.String("error", e.Err.Error()))
	case e.Degraded():
		level = slog.LevelWarn
	}
	o.logger.LogAttrs(ctx, level, "plan_op", attrs...)
}

func planObserverOrNoop(observers ...PlanObserver) PlanObserver {
	for _, obs := range observers {
		if obs != nil {
			return obs
		}
	}
	return NoopPlanObserver{}
}

// planOp collects a PlanEvent while a call runs.
type planOp struct {
	PlanEvent
	started time.Time
}

func startOp(op, userID, section string) *planOp {
	return &planOp{
		PlanEvent: PlanEvent{Op: op, UserID: userID, Section: section},
		started:   time.Now(),
	}
}

// finish reports the call. Call it deferred.
func (o *planOp) finish(ctx context.Context, obs PlanObserver, err error) {
	o.Duration = time.Since(o.started)
	o.Err = err
	obs.ObservePlanOp(ctx, o.PlanEvent)
}

// discardLogger drops every record.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
