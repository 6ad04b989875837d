// Package diagram holds the intermediate representation shared by every
// erdkit emitter and importer: a typed graph of entities, embeddables,
// enumerations and interfaces connected by relationship edges.
//
// # Graph
//
// A Graph is an ordered collection of nodes and edges. All mutation goes
// through the Graph API (AddNode, UpdateNode, DeleteNode, AddEdge,
// UpdateEdge, DeleteEdge), which re-checks the structural invariants of the
// model after every call and keeps derived enum-mapping edges in sync with
// entity property types.
//
// # Variants
//
// Nodes and edges are tagged unions. The Kind field selects the payload:
//
//	n := g.Node(id)
//	switch n.Kind {
//	case diagram.KindEntity:
//	    ent := n.Entity()
//	case diagram.KindEnum:
//	    en := n.Enum()
//	}
//
// # Invariants
//
// The mutation API is total: a call either applies completely or panics
// with *InvariantError. Callers are internal (importers, the CLI, UI glue)
// and are expected to pass validated input; a violated invariant is a
// programming error, not a recoverable condition.
package diagram
