package models

// ExecutionContext is the per-run state handed to node executors: the run
// identity, the run-level config, the connection snapshot and the outputs of
// every node that has already completed. Results only ever contains outputs
// of successful nodes, which is how failure propagates structurally to
// downstream nodes.
type ExecutionContext struct {
	ExecutionID string
	WorkflowID  string
	Config      RunConfig
	Connections []*Connection
	Results     map[string]any
}

// ResolvedInput is the outcome of resolving a node's upstream input.
type ResolvedInput struct {
	// Connected reports whether the node has at least one incoming
	// connection. Error messages differ between "connected but nothing
	// usable arrived" and "not connected at all".
	Connected bool
	// Raw is the upstream node's result payload as recorded, or nil when
	// the upstream produced nothing usable.
	Raw any
	// Content is the usable string extracted from Raw, or "".
	Content string
}

// ResolveInput finds the upstream input for a node. When several connections
// target the node, only the first by connection-list order is consulted.
func (ec *ExecutionContext) ResolveInput(nodeID string) ResolvedInput {
	var resolved ResolvedInput

	for _, conn := range ec.Connections {
		if conn.Target != nodeID {
			continue
		}

		resolved.Connected = true

		source, ok := ec.Results[conn.Source]
		if !ok {
			break
		}

		resolved.Raw = source
		resolved.Content = ExtractContent(source)

		break
	}

	return resolved
}

// ExtractContent pulls a usable string out of a node result. Priority: the
// result itself when it is a string, then its content, text and result
// fields. Empty strings are never usable.
func ExtractContent(result any) string {
	if s, ok := result.(string); ok {
		return s
	}

	payload, ok := result.(map[string]any)
	if !ok {
		return ""
	}

	for _, field := range []string{"content", "text", "result"} {
		if s, ok := payload[field].(string); ok && s != "" {
			return s
		}
	}

	return ""
}
