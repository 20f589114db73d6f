package pipeline

import "fmt"

// ValidationError means the job input failed a structural check before any
// external call was made. Never retried: redelivery cannot change the input.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid job input: %s", e.Reason)
}

// AssemblyError means the sorted tree and the taxonomy disagree: a topic or
// subtopic name present in one could not be found in the other.
type AssemblyError struct {
	Kind string // "topic" or "subtopic"
	Name string
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("assembly: no sorted %s branch named %q", e.Kind, e.Name)
}
