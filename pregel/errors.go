package pregel

import (
	"fmt"
)

// NoVertex marks an error that is not scoped to a particular vertex.
const NoVertex = ^uint32(0)

// ConfigError reports an invalid engine configuration. Raised synchronously,
// before any work starts.
type ConfigError struct {
	Option string
	Reason string
}

func (e *ConfigError) Error() string {
	return "pregel: config: " + e.Option + ": " + e.Reason
}

// SchemaError reports an invalid schema declaration: a duplicate element key,
// or an unsupported value type.
type SchemaError struct {
	Key    string
	Reason string
}

func (e *SchemaError) Error() string {
	return "pregel: schema: " + e.Key + ": " + e.Reason
}

// ComputeError reports a failure signalled by user init/compute/master logic,
// or a programmer error (unknown schema key, id out of range) observed while
// running it. The first ComputeError captured at the superstep barrier fails
// the whole run; ties are broken by lowest partition index.
type ComputeError struct {
	Superstep int
	Partition int
	Vertex    uint32 // internal id, or NoVertex
	cause     error
}

func (e *ComputeError) Error() string {
	at := ""
	if e.Vertex != NoVertex {
		at = fmt.Sprintf(" vertex %d", e.Vertex)
	}
	return fmt.Sprintf("pregel: compute failed at superstep %d partition %d%s: %v", e.Superstep, e.Partition, at, e.cause)
}

func (e *ComputeError) Unwrap() error { return e.cause }

// GraphAccessError reports an id handed to translation (or a message target)
// that is outside the valid range.
type GraphAccessError struct {
	Internal bool // the offending id was an internal id
	Id       uint64
	Count    uint64
}

func (e *GraphAccessError) Error() string {
	kind := "external"
	if e.Internal {
		kind = "internal"
	}
	return fmt.Sprintf("pregel: %s id %d outside valid range [0, %d)", kind, e.Id, e.Count)
}

// computePanic aborts the calling user function with a ComputeError. The
// partition worker recovers it and fails the run; these are programmer
// errors, not recoverable conditions.
func computePanic(format string, args ...any) {
	panic(&ComputeError{Vertex: NoVertex, Partition: -1, cause: fmt.Errorf(format, args...)})
}
