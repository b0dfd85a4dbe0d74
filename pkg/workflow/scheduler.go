package workflow

import (
	"github.com/canvasflow/canvasflow/pkg/models"
)

// TopologicalOrder computes the execution order for a workflow: every node
// appears after all of its dependencies. Traversal starts from the source
// nodes and then sweeps any remaining unvisited nodes, so disconnected
// components are still scheduled. A cycle yields a CircularDependencyError
// naming a node on the cycle.
func TopologicalOrder(wf *models.Workflow) ([]string, error) {
	deps := make(map[string][]string, len(wf.Nodes))
	for _, node := range wf.Nodes {
		deps[node.ID] = DependenciesOf(wf, node.ID)
	}

	var (
		order    = make([]string, 0, len(wf.Nodes))
		visited  = make(map[string]bool, len(wf.Nodes))
		visiting = make(map[string]bool, len(wf.Nodes))
	)

	var visit func(nodeID string) error

	visit = func(nodeID string) error {
		if visited[nodeID] {
			return nil
		}

		if visiting[nodeID] {
			return &models.CircularDependencyError{NodeID: nodeID}
		}

		visiting[nodeID] = true

		for _, dep := range deps[nodeID] {
			if err := visit(dep); err != nil {
				return err
			}
		}

		delete(visiting, nodeID)
		visited[nodeID] = true
		order = append(order, nodeID)

		return nil
	}

	for _, node := range SourceNodes(wf) {
		if err := visit(node.ID); err != nil {
			return nil, err
		}
	}

	// Sweep every remaining node so downstream and disconnected nodes are
	// scheduled, and so a fully cyclic graph (no sources) is still reported.
	for _, node := range wf.Nodes {
		if err := visit(node.ID); err != nil {
			return nil, err
		}
	}

	return order, nil
}
