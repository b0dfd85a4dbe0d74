package workflow

import (
	"log/slog"
	"sync"
	"time"

	"github.com/canvasflow/canvasflow/pkg/models"
)

// EventType identifies a run-log event.
type EventType string

const (
	EventExecutionStarted   EventType = "execution.started"
	EventNodeStarted        EventType = "node.started"
	EventNodeFinished       EventType = "node.finished"
	EventNodeFailed         EventType = "node.failed"
	EventExecutionCompleted EventType = "execution.completed"
	EventExecutionFailed    EventType = "execution.failed"
)

// Event is one run-log state change, delivered synchronously to listeners.
type Event struct {
	Type        EventType               `json:"type"`
	ExecutionID string                  `json:"executionId"`
	WorkflowID  string                  `json:"workflowId"`
	NodeID      string                  `json:"nodeId,omitempty"`
	Status      models.ExecutionStatus  `json:"status,omitempty"`
	Result      any                     `json:"result,omitempty"`
	Error       string                  `json:"error,omitempty"`
	Timestamp   time.Time               `json:"timestamp"`
}

// Listener receives run-log events. Listeners run synchronously on the
// executor goroutine; panics are recovered so a bad listener cannot break a
// run.
type Listener func(event Event)

// RunLog accumulates the execution records for a single run and fans state
// changes out to listeners. Records never regress: pending, then running,
// then exactly one terminal status.
type RunLog struct {
	mu        sync.Mutex
	execution *models.Execution
	index     map[string]int
	listeners []Listener
	logger    *slog.Logger
}

// NewRunLog creates the record log for one run.
func NewRunLog(executionID, workflowID string, logger *slog.Logger) *RunLog {
	return &RunLog{
		execution: &models.Execution{
			ID:         executionID,
			WorkflowID: workflowID,
			Status:     models.StatusPending,
		},
		index:  make(map[string]int),
		logger: logger.With("module", "run_log", "execution_id", executionID),
	}
}

// Subscribe adds a listener for subsequent events.
func (l *RunLog) Subscribe(listener Listener) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.listeners = append(l.listeners, listener)
}

// Begin marks the run as started and seeds a pending record for every node in
// execution order.
func (l *RunLog) Begin(order []string) {
	l.mu.Lock()

	now := time.Now().UTC()
	l.execution.Status = models.StatusRunning
	l.execution.StartedAt = now
	l.execution.Records = make([]models.ExecutionRecord, 0, len(order))

	for _, nodeID := range order {
		l.index[nodeID] = len(l.execution.Records)
		l.execution.Records = append(l.execution.Records, models.ExecutionRecord{
			NodeID:    nodeID,
			Status:    models.StatusPending,
			Timestamp: now,
		})
	}

	l.mu.Unlock()

	l.emit(Event{Type: EventExecutionStarted, Status: models.StatusRunning, Timestamp: now})
}

// RecordStart transitions a node's record to running.
func (l *RunLog) RecordStart(nodeID string) {
	now := time.Now().UTC()

	l.update(nodeID, func(record *models.ExecutionRecord) {
		record.Status = models.StatusRunning
		record.Timestamp = now
		record.StartedAt = now
	})

	l.emit(Event{Type: EventNodeStarted, NodeID: nodeID, Status: models.StatusRunning, Timestamp: now})
}

// RecordSuccess writes a node's terminal completed record.
func (l *RunLog) RecordSuccess(nodeID string, result any) {
	now := time.Now().UTC()

	l.update(nodeID, func(record *models.ExecutionRecord) {
		record.Status = models.StatusCompleted
		record.Timestamp = now
		record.FinishedAt = now
		record.Result = result
	})

	l.emit(Event{Type: EventNodeFinished, NodeID: nodeID, Status: models.StatusCompleted, Result: result, Timestamp: now})
}

// RecordFailure writes a node's terminal error record.
func (l *RunLog) RecordFailure(nodeID string, err error) {
	now := time.Now().UTC()

	l.update(nodeID, func(record *models.ExecutionRecord) {
		record.Status = models.StatusError
		record.Timestamp = now
		record.FinishedAt = now
		record.Error = err.Error()
	})

	l.emit(Event{Type: EventNodeFailed, NodeID: nodeID, Status: models.StatusError, Error: err.Error(), Timestamp: now})
}

// RecordCancelled marks a not-yet-started node as cancelled.
func (l *RunLog) RecordCancelled(nodeID string) {
	now := time.Now().UTC()

	l.update(nodeID, func(record *models.ExecutionRecord) {
		if record.Status.Terminal() {
			return
		}

		record.Status = models.StatusCancelled
		record.Timestamp = now
		record.FinishedAt = now
	})
}

// Finish seals the run with its final status. An empty error message is
// allowed for completed runs.
func (l *RunLog) Finish(status models.ExecutionStatus, errMessage string) {
	l.mu.Lock()

	now := time.Now().UTC()
	l.execution.Status = status
	l.execution.FinishedAt = now
	l.execution.Error = errMessage

	l.mu.Unlock()

	eventType := EventExecutionCompleted
	if status != models.StatusCompleted {
		eventType = EventExecutionFailed
	}

	l.emit(Event{Type: eventType, Status: status, Error: errMessage, Timestamp: now})
}

// Snapshot returns a copy of the execution aggregate safe to persist or
// serialize while the run continues.
func (l *RunLog) Snapshot() *models.Execution {
	l.mu.Lock()
	defer l.mu.Unlock()

	snapshot := *l.execution
	snapshot.Records = make([]models.ExecutionRecord, len(l.execution.Records))
	copy(snapshot.Records, l.execution.Records)

	return &snapshot
}

// Record returns a copy of one node's record.
func (l *RunLog) Record(nodeID string) (*models.ExecutionRecord, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i, ok := l.index[nodeID]
	if !ok {
		return nil, false
	}

	record := l.execution.Records[i]

	return &record, true
}

func (l *RunLog) update(nodeID string, apply func(record *models.ExecutionRecord)) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i, ok := l.index[nodeID]
	if !ok {
		return
	}

	apply(&l.execution.Records[i])
}

func (l *RunLog) emit(event Event) {
	l.mu.Lock()
	event.ExecutionID = l.execution.ID
	event.WorkflowID = l.execution.WorkflowID
	listeners := make([]Listener, len(l.listeners))
	copy(listeners, l.listeners)
	l.mu.Unlock()

	for _, listener := range listeners {
		l.safeNotify(listener, event)
	}
}

func (l *RunLog) safeNotify(listener Listener, event Event) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("Run log listener panicked", "event", event.Type, "panic", r)
		}
	}()

	listener(event)
}
