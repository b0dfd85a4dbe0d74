package workflow

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvasflow/canvasflow/pkg/models"
)

func TestRunLogLifecycle(t *testing.T) {
	runLog := NewRunLog("exec-1", "wf-1", slog.Default())

	var events []Event

	runLog.Subscribe(func(event Event) {
		events = append(events, event)
	})

	runLog.Begin([]string{"a", "b"})
	runLog.RecordStart("a")
	runLog.RecordSuccess("a", "done")
	runLog.RecordStart("b")
	runLog.RecordFailure("b", errors.New("broken"))
	runLog.Finish(models.StatusCompleted, "")

	execution := runLog.Snapshot()
	assert.Equal(t, "exec-1", execution.ID)
	assert.Equal(t, "wf-1", execution.WorkflowID)
	assert.Equal(t, models.StatusCompleted, execution.Status)
	assert.False(t, execution.StartedAt.IsZero())
	assert.False(t, execution.FinishedAt.IsZero())
	require.Len(t, execution.Records, 2)

	aRecord, ok := runLog.Record("a")
	require.True(t, ok)
	assert.Equal(t, models.StatusCompleted, aRecord.Status)
	assert.Equal(t, "done", aRecord.Result)
	assert.False(t, aRecord.StartedAt.IsZero())
	assert.False(t, aRecord.FinishedAt.IsZero())

	bRecord, ok := runLog.Record("b")
	require.True(t, ok)
	assert.Equal(t, models.StatusError, bRecord.Status)
	assert.Equal(t, "broken", bRecord.Error)

	wantTypes := []EventType{
		EventExecutionStarted,
		EventNodeStarted,
		EventNodeFinished,
		EventNodeStarted,
		EventNodeFailed,
		EventExecutionCompleted,
	}

	require.Len(t, events, len(wantTypes))

	for i, want := range wantTypes {
		assert.Equal(t, want, events[i].Type)
		assert.Equal(t, "exec-1", events[i].ExecutionID)
	}
}

func TestRunLogCancelledSkipsTerminalRecords(t *testing.T) {
	runLog := NewRunLog("exec-1", "wf-1", slog.Default())
	runLog.Begin([]string{"a", "b"})
	runLog.RecordStart("a")
	runLog.RecordSuccess("a", "done")

	runLog.RecordCancelled("a")
	runLog.RecordCancelled("b")

	aRecord, _ := runLog.Record("a")
	assert.Equal(t, models.StatusCompleted, aRecord.Status)

	bRecord, _ := runLog.Record("b")
	assert.Equal(t, models.StatusCancelled, bRecord.Status)
}

func TestRunLogListenerPanicRecovered(t *testing.T) {
	runLog := NewRunLog("exec-1", "wf-1", slog.Default())

	var reached []EventType

	runLog.Subscribe(func(_ Event) {
		panic("listener bug")
	})
	runLog.Subscribe(func(event Event) {
		reached = append(reached, event.Type)
	})

	require.NotPanics(t, func() {
		runLog.Begin([]string{"a"})
		runLog.RecordStart("a")
		runLog.RecordSuccess("a", nil)
	})

	assert.Equal(t, []EventType{EventExecutionStarted, EventNodeStarted, EventNodeFinished}, reached)
}

func TestRunLogSnapshotIsCopy(t *testing.T) {
	runLog := NewRunLog("exec-1", "wf-1", slog.Default())
	runLog.Begin([]string{"a"})

	snapshot := runLog.Snapshot()
	snapshot.Records[0].Status = models.StatusError

	aRecord, _ := runLog.Record("a")
	assert.Equal(t, models.StatusPending, aRecord.Status)
}

func TestRunLogUnknownNodeIgnored(t *testing.T) {
	runLog := NewRunLog("exec-1", "wf-1", slog.Default())
	runLog.Begin([]string{"a"})

	runLog.RecordStart("ghost")

	_, ok := runLog.Record("ghost")
	assert.False(t, ok)
}
