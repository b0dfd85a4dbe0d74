// Package workflow implements the run engine: graph validation, topological
// scheduling, the per-run record log and the sequential executor.
package workflow

import (
	"fmt"

	"github.com/canvasflow/canvasflow/pkg/models"
)

// DependenciesOf returns the ids of nodes feeding into the given node,
// in connection list order.
func DependenciesOf(wf *models.Workflow, nodeID string) []string {
	var deps []string

	for _, conn := range wf.Connections {
		if conn.Target == nodeID {
			deps = append(deps, conn.Source)
		}
	}

	return deps
}

// SourceNodes returns the nodes with no incoming connection, in node list
// order.
func SourceNodes(wf *models.Workflow) []*models.WorkflowNode {
	hasIncoming := make(map[string]bool, len(wf.Nodes))
	for _, conn := range wf.Connections {
		hasIncoming[conn.Target] = true
	}

	var sources []*models.WorkflowNode

	for _, node := range wf.Nodes {
		if !hasIncoming[node.ID] {
			sources = append(sources, node)
		}
	}

	return sources
}

// Validate checks the structural integrity of a workflow graph: unique node
// and connection ids, known node kinds, no dangling connection endpoints and
// no self-loops. Cycles are detected separately by the scheduler.
func Validate(wf *models.Workflow) error {
	nodeIDs := make(map[string]bool, len(wf.Nodes))

	for _, node := range wf.Nodes {
		if node.ID == "" {
			return fmt.Errorf("workflow %s has a node with an empty id", wf.ID)
		}

		if nodeIDs[node.ID] {
			return fmt.Errorf("duplicate node id '%s'", node.ID)
		}

		nodeIDs[node.ID] = true

		if !node.Kind.Valid() {
			return fmt.Errorf("node %s has unknown kind '%s'", node.ID, node.Kind)
		}
	}

	connIDs := make(map[string]bool, len(wf.Connections))

	for _, conn := range wf.Connections {
		if connIDs[conn.ID] {
			return fmt.Errorf("duplicate connection id '%s'", conn.ID)
		}

		connIDs[conn.ID] = true

		if conn.Source == conn.Target {
			return fmt.Errorf("connection %s links node %s to itself", conn.ID, conn.Source)
		}

		if !nodeIDs[conn.Source] {
			return fmt.Errorf("connection %s references unknown source node '%s'", conn.ID, conn.Source)
		}

		if !nodeIDs[conn.Target] {
			return fmt.Errorf("connection %s references unknown target node '%s'", conn.ID, conn.Target)
		}
	}

	return nil
}
