package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLogPlanObserver(t *testing.T) {
	var buf bytes.Buffer
	obs := NewLogPlanObserver(&buf)

	obs.ObservePlanOp(context.Background(), PlanEvent{
		Op:       "fetch-todays-plan",
		UserID:   "u1",
		Section:  "FAR",
		Source:   "remote",
		Duration: 12 * time.Millisecond,
	})
	obs.ObservePlanOp(context.Background(), PlanEvent{
		Op:       "mark-activity-completed",
		UserID:   "u1",
		Activity: "mcq-practice-1",
		Sync:     SyncReport{Local: OutcomeWritten, Remote: OutcomeFailed},
	})
	obs.ObservePlanOp(context.Background(), PlanEvent{
		Op:  "get-or-create-todays-plan",
		Err: errors.New("generating plan: boom"),
	})

	out := buf.String()
	assert.Contains(t, out, "level=INFO msg=plan_op op=fetch-todays-plan user=u1 section=FAR source=remote count=0 duration_ms=12")
	assert.Contains(t, out, "level=WARN msg=plan_op op=mark-activity-completed user=u1 activity=mcq-practice-1 local=written remote=failed")
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, `error="generating plan: boom"`)
}

func TestPlanEvent_Degraded(t *testing.T) {
	assert.False(t, PlanEvent{}.Degraded())
	assert.False(t, PlanEvent{Sync: SyncReport{Local: OutcomeWritten, Remote: OutcomeMissing}}.Degraded())
	assert.True(t, PlanEvent{Sync: SyncReport{Local: OutcomeFailed, Remote: OutcomeWritten}}.Degraded())
}

func TestNewLogPlanObserver_NilWriter(t *testing.T) {
	assert.IsType(t, NoopPlanObserver{}, NewLogPlanObserver(nil))
}

func TestPlanObserverOrNoop(t *testing.T) {
	assert.IsType(t, NoopPlanObserver{}, planObserverOrNoop())
	assert.IsType(t, NoopPlanObserver{}, planObserverOrNoop(nil))

	rec := &recordingObserver{}
	assert.Same(t, rec, planObserverOrNoop(nil, rec))
}
