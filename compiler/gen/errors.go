package gen

import (
	"errors"
	"strings"
)

// ErrGenerationFailed is the sentinel matched by every *GenerationError.
var ErrGenerationFailed = errors.New("erdkit: code generation failed")

// GenerationError reports a failure while producing one artifact.
type GenerationError struct {
	// Emitter is the emitter name.
	Emitter string
	// Unit is the artifact name being produced, if known.
	Unit    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString("erdkit: generation error")
	if e.Emitter != "" {
		b.WriteString(" in ")
		b.WriteString(e.Emitter)
	}
	if e.Unit != "" {
		b.WriteString(" (unit: ")
		b.WriteString(e.Unit)
		b.WriteString(")")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}

// NewGenerationError creates a new GenerationError.
func NewGenerationError(emitter, unit, message string, cause error) *GenerationError {
	return &GenerationError{
		Emitter: emitter,
		Unit:    unit,
		Message: message,
		Cause:   cause,
	}
}
