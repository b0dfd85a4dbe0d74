package services

import "sync"

// ActiveRuns tracks which workflows have a run in flight. One run per
// workflow at a time; mutations and new runs are refused while a workflow is
// tracked here.
type ActiveRuns struct {
	mu   sync.Mutex
	runs map[string]string
}

// NewActiveRuns creates an empty tracker.
func NewActiveRuns() *ActiveRuns {
	return &ActiveRuns{runs: make(map[string]string)}
}

// TryAcquire registers a run for the workflow. Returns false when a run is
// already in flight.
func (a *ActiveRuns) TryAcquire(workflowID, executionID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, busy := a.runs[workflowID]; busy {
		return false
	}

	a.runs[workflowID] = executionID

	return true
}

// Release removes the workflow's active run.
func (a *ActiveRuns) Release(workflowID string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.runs, workflowID)
}

// ExecutionFor returns the in-flight execution id for a workflow, if any.
func (a *ActiveRuns) ExecutionFor(workflowID string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	id, ok := a.runs[workflowID]

	return id, ok
}
