// Package gen defines the code-emission framework: the Emitter interface
// every generator target implements, the Artifact unit of output, and the
// shared naming helpers used to derive identifiers from diagram names.
package gen

import (
	"github.com/syssam/erdkit/diagram"
)

// Artifact is one unit of emitter output: a file name and its content.
type Artifact struct {
	// Name is the output unit name, e.g. "User.ts" or "schema.sql".
	Name string
	// Content is the emitted text.
	Content []byte
}

// Emitter translates a diagram snapshot into text artifacts. Emission is a
// pure function: it never mutates the graph, and the same snapshot always
// yields identical artifacts. Emitters do not fail on well-formed graphs;
// constructs with no analogue in the target degrade to comments. The error
// path exists for host-level failures only, such as source formatting.
type Emitter interface {
	// Name identifies the emitter ("ts", "postgres", ...).
	Name() string
	// Emit produces the artifacts for the snapshot.
	Emit(g *diagram.Graph) ([]Artifact, error)
}

// Emit clones the graph before handing it to the emitter, so callers can
// keep mutating the live graph while artifacts are being produced.
func Emit(e Emitter, g *diagram.Graph) ([]Artifact, error) {
	return e.Emit(g.Clone())
}
