package diagram

import (
	"fmt"
	"strings"
)

// InvariantError reports a violated structural invariant of the graph.
// It is used as a panic value: the mutation API is only ever invoked by
// internal callers with validated input, so a violation is a programming
// error and fails loudly instead of degrading.
type InvariantError struct {
	// Op is the mutation during which the violation was detected.
	Op string
	// Message describes the violation.
	Message string
}

// Error implements the error interface.
func (e *InvariantError) Error() string {
	var b strings.Builder
	b.WriteString("diagram: invariant violation")
	if e.Op != "" {
		b.WriteString(" in ")
		b.WriteString(e.Op)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// invariant panics with an *InvariantError unless cond holds.
func invariant(cond bool, op, format string, args ...any) {
	if !cond {
		panic(&InvariantError{Op: op, Message: fmt.Sprintf(format, args...)})
	}
}
