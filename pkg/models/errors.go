package models

import "fmt"

// CircularDependencyError is fatal for a whole run: scheduling aborts before
// any node executes and no execution records are written.
type CircularDependencyError struct {
	NodeID string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency detected involving node %s", e.NodeID)
}

// EmptyInputError marks a source node whose authored content is empty after
// trimming. Local to the node; the run continues.
type EmptyInputError struct {
	NodeID string
	Kind   NodeKind
}

func (e *EmptyInputError) Error() string {
	if e.Kind == KindImageInput {
		return "no image uploaded - please upload a PNG or JPG file"
	}

	return "no text content provided - enter text in the input field"
}

// MissingPromptError marks a generator node with no usable prompt. Connected
// distinguishes "a connection exists but yielded nothing usable" from "no
// connection at all", which changes how a user fixes the workflow.
type MissingPromptError struct {
	NodeID    string
	Connected bool
}

func (e *MissingPromptError) Error() string {
	if e.Connected {
		return "no input received from connected node"
	}

	return "no input prompt provided"
}

// NoInputError marks an output node with nothing to finalize.
type NoInputError struct {
	NodeID string
}

func (e *NoInputError) Error() string {
	return "no input connected to output node"
}

// GenerationFailedError wraps a failure reported by the generation gateway.
type GenerationFailedError struct {
	NodeID  string
	Message string
}

func (e *GenerationFailedError) Error() string {
	if e.Message == "" {
		return "generation failed"
	}

	return e.Message
}
