package diagram

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// IDGenerator produces process-wide unique identifiers for nodes and
// edges. The default is a random UUID; tests inject a sequential one to
// keep diagrams deterministic.
type IDGenerator func() string

// Metadata is the document-level information of a diagram.
type Metadata struct {
	Name      string
	CreatedAt time.Time
}

// Graph is the diagram intermediate representation: an insertion-ordered
// set of nodes and edges. The zero value is not usable; construct with New.
//
// Graph is not safe for concurrent use. Every mutation runs to completion
// synchronously, re-checks the structural invariants and keeps derived
// enum-mapping edges consistent before returning.
type Graph struct {
	Meta Metadata

	newID     IDGenerator
	nodes     []*Node
	edges     []*Edge
	nodeIndex map[string]*Node
	edgeIndex map[string]*Edge
}

// Option configures a Graph.
type Option func(*Graph)

// WithIDGenerator overrides the identifier generator. Generated ids must
// be unique for the lifetime of the diagram.
func WithIDGenerator(fn IDGenerator) Option {
	return func(g *Graph) { g.newID = fn }
}

// WithName sets the diagram name.
func WithName(name string) Option {
	return func(g *Graph) { g.Meta.Name = name }
}

// New returns an empty graph.
func New(opts ...Option) *Graph {
	g := &Graph{
		newID:     uuid.NewString,
		nodeIndex: make(map[string]*Node),
		edgeIndex: make(map[string]*Edge),
		Meta:      Metadata{CreatedAt: time.Now().UTC()},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewID returns a fresh identifier from the graph's generator. Callers
// use it for property and index ids, which share the generator with
// nodes and edges.
func (g *Graph) NewID() string { return g.newID() }

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id string) *Node { return g.nodeIndex[id] }

// Edge returns the edge with the given id, or nil.
func (g *Graph) Edge(id string) *Edge { return g.edgeIndex[id] }

// Nodes returns the nodes in insertion order. The returned slice is shared
// with the graph and must not be mutated by the caller.
func (g *Graph) Nodes() []*Node { return g.nodes }

// Edges returns the edges in insertion order. The returned slice is shared
// with the graph and must not be mutated by the caller.
func (g *Graph) Edges() []*Edge { return g.edges }

// Entities returns the entity nodes in insertion order.
func (g *Graph) Entities() []*Node { return g.nodesOfKind(KindEntity) }

// Enums returns the enum nodes in insertion order.
func (g *Graph) Enums() []*Node { return g.nodesOfKind(KindEnum) }

// Embeddables returns the embeddable nodes in insertion order.
func (g *Graph) Embeddables() []*Node { return g.nodesOfKind(KindEmbeddable) }

// Interfaces returns the interface nodes in insertion order.
func (g *Graph) Interfaces() []*Node { return g.nodesOfKind(KindInterface) }

func (g *Graph) nodesOfKind(k NodeKind) []*Node {
	var out []*Node
	for _, n := range g.nodes {
		if n.Kind == k {
			out = append(out, n)
		}
	}
	return out
}

// EnumByName returns the first enum node whose name equals name, or nil.
// Node names need not be unique; insertion order breaks ties.
func (g *Graph) EnumByName(name string) *Node {
	if name == "" {
		return nil
	}
	for _, n := range g.nodes {
		if n.Kind == KindEnum && n.Enum().Name == name {
			return n
		}
	}
	return nil
}

// EdgesFrom returns the edges whose source is the given node id.
func (g *Graph) EdgesFrom(id string) []*Edge {
	var out []*Edge
	for _, e := range g.edges {
		if e.Source == id {
			out = append(out, e)
		}
	}
	return out
}

// EdgesTo returns the edges whose target is the given node id.
func (g *Graph) EdgesTo(id string) []*Edge {
	var out []*Edge
	for _, e := range g.edges {
		if e.Target == id {
			out = append(out, e)
		}
	}
	return out
}

// MappingFor returns the enum-mapping edge for the (entity, enum) pair,
// or nil. At most one such edge exists per pair.
func (g *Graph) MappingFor(entityID, enumID string) *Edge {
	for _, e := range g.edges {
		if e.Kind == KindEnumMapping && e.Source == entityID && e.Target == enumID {
			return e
		}
	}
	return nil
}

// AddNode inserts a new node with the given payload and returns its id.
// The node kind is derived from the concrete payload type.
func (g *Graph) AddNode(data NodeData, pos Position) string {
	const op = "AddNode"
	invariant(data != nil, op, "nil node payload")
	kind := kindOf(data)
	invariant(kind.Valid(), op, "unknown node payload %T", data)
	id := g.newID()
	invariant(g.nodeIndex[id] == nil && g.edgeIndex[id] == nil, op, "duplicate id %q", id)
	n := &Node{ID: id, Kind: kind, Position: pos, Data: data}
	g.nodes = append(g.nodes, n)
	g.nodeIndex[id] = n
	g.check(op)
	return id
}

// UpdateNode replaces the node's payload wholesale, preserving its id and
// position. The payload kind must match the node's kind. For entity nodes,
// enum-mapping edges are re-synchronized with the new property types before
// the call returns.
func (g *Graph) UpdateNode(id string, data NodeData) {
	const op = "UpdateNode"
	n := g.nodeIndex[id]
	invariant(n != nil, op, "unknown node %q", id)
	invariant(data != nil, op, "nil node payload")
	invariant(kindOf(data) == n.Kind, op, "payload %T does not match node kind %q", data, n.Kind)
	old := n.Data
	n.Data = data
	if n.Kind == KindEntity {
		g.syncEnumMappings(n, old.(*Entity), data.(*Entity))
	}
	g.check(op)
}

// MoveNode updates the node's canvas position. Layout only; no derived
// state depends on it.
func (g *Graph) MoveNode(id string, pos Position) {
	const op = "MoveNode"
	n := g.nodeIndex[id]
	invariant(n != nil, op, "unknown node %q", id)
	n.Position = pos
}

// DeleteNode removes the node and every edge whose source or target is the
// node's id.
func (g *Graph) DeleteNode(id string) {
	const op = "DeleteNode"
	n := g.nodeIndex[id]
	invariant(n != nil, op, "unknown node %q", id)
	delete(g.nodeIndex, id)
	g.nodes = deleteFunc(g.nodes, func(n *Node) bool { return n.ID == id })
	g.edges = deleteFunc(g.edges, func(e *Edge) bool {
		if e.Source == id || e.Target == id {
			delete(g.edgeIndex, e.ID)
			return true
		}
		return false
	})
	g.check(op)
}

// AddEdge inserts a new edge between two existing nodes and returns its id.
// The edge kind is derived from the concrete payload type.
func (g *Graph) AddEdge(data EdgeData, source, target string) string {
	const op = "AddEdge"
	invariant(data != nil, op, "nil edge payload")
	kind := edgeKindOf(data)
	invariant(kind.Valid(), op, "unknown edge payload %T", data)
	invariant(g.nodeIndex[source] != nil, op, "unknown source node %q", source)
	invariant(g.nodeIndex[target] != nil, op, "unknown target node %q", target)
	id := g.newID()
	invariant(g.nodeIndex[id] == nil && g.edgeIndex[id] == nil, op, "duplicate id %q", id)
	e := &Edge{ID: id, Kind: kind, Source: source, Target: target, Data: data}
	g.edges = append(g.edges, e)
	g.edgeIndex[id] = e
	g.check(op)
	return id
}

// UpdateEdge replaces the edge's payload wholesale, preserving its id and
// endpoints.
func (g *Graph) UpdateEdge(id string, data EdgeData) {
	const op = "UpdateEdge"
	e := g.edgeIndex[id]
	invariant(e != nil, op, "unknown edge %q", id)
	invariant(data != nil, op, "nil edge payload")
	invariant(edgeKindOf(data) == e.Kind, op, "payload %T does not match edge kind %q", data, e.Kind)
	e.Data = data
	g.check(op)
}

// DeleteEdge removes the edge.
func (g *Graph) DeleteEdge(id string) {
	const op = "DeleteEdge"
	e := g.edgeIndex[id]
	invariant(e != nil, op, "unknown edge %q", id)
	delete(g.edgeIndex, id)
	g.edges = deleteFunc(g.edges, func(e *Edge) bool { return e.ID == id })
	g.check(op)
}

// Merge copies every node and edge of the fragment into g under fresh ids,
// remapping edge endpoints and enum-mapping property references. Fragments
// come from importers; routing them through the mutation API re-runs the
// structural invariants on the merged result.
func (g *Graph) Merge(fragment *Graph) {
	nodeIDs := make(map[string]string, len(fragment.nodes))
	for _, n := range fragment.nodes {
		nodeIDs[n.ID] = g.AddNode(n.Data.Clone(), n.Position)
	}
	// Property ids inside payloads are preserved by Clone, so enum-mapping
	// property references stay valid; only node ids are remapped.
	for _, e := range fragment.edges {
		g.AddEdge(e.Data.Clone(), nodeIDs[e.Source], nodeIDs[e.Target])
	}
}

// Clone returns a deep copy of the graph sharing no state with g. Emitters
// operate on clones so that concurrent artifact generation never observes
// a mutation.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		Meta:      g.Meta,
		newID:     g.newID,
		nodeIndex: make(map[string]*Node, len(g.nodes)),
		edgeIndex: make(map[string]*Edge, len(g.edges)),
	}
	for _, n := range g.nodes {
		cn := &Node{ID: n.ID, Kind: n.Kind, Position: n.Position, Data: n.Data.Clone()}
		c.nodes = append(c.nodes, cn)
		c.nodeIndex[cn.ID] = cn
	}
	for _, e := range g.edges {
		ce := &Edge{
			ID: e.ID, Kind: e.Kind, Source: e.Source, Target: e.Target,
			SourceHandle: e.SourceHandle, TargetHandle: e.TargetHandle,
			Data: e.Data.Clone(),
		}
		c.edges = append(c.edges, ce)
		c.edgeIndex[ce.ID] = ce
	}
	return c
}

// check re-validates the structural invariants after a mutation and panics
// with *InvariantError on the first violation.
func (g *Graph) check(op string) {
	if err := g.validate(); err != nil {
		panic(&InvariantError{Op: op, Message: err.Error()})
	}
}

// validate walks the graph and returns the first violated structural
// invariant. The decoder uses it directly so that malformed external input
// surfaces as a recoverable error instead of a panic.
//
// Enum-mapping property/type agreement is established by the consistency
// engine at mapping creation time and is deliberately not re-checked here:
// renaming an enum may orphan mappings that reference it by name, and the
// model keeps those edges in place instead of repairing them.
func (g *Graph) validate() error {
	seen := make(map[string]bool, len(g.nodes)+len(g.edges))
	for _, n := range g.nodes {
		if seen[n.ID] {
			return fmt.Errorf("duplicate node id %q", n.ID)
		}
		seen[n.ID] = true
		if !n.Kind.Valid() || kindOf(n.Data) != n.Kind {
			return fmt.Errorf("node %q payload does not match kind %q", n.ID, n.Kind)
		}
		if ent := n.Entity(); ent != nil {
			props := make(map[string]bool, len(ent.Properties))
			for i := range ent.Properties {
				props[ent.Properties[i].ID] = true
			}
			for _, idx := range ent.Indexes {
				for _, pid := range idx.Properties {
					if !props[pid] {
						return fmt.Errorf("index %q on entity %q references unknown property %q", idx.ID, ent.Name, pid)
					}
				}
			}
		}
	}
	mappings := make(map[[2]string]bool)
	for _, e := range g.edges {
		if seen[e.ID] {
			return fmt.Errorf("duplicate edge id %q", e.ID)
		}
		seen[e.ID] = true
		if !e.Kind.Valid() || edgeKindOf(e.Data) != e.Kind {
			return fmt.Errorf("edge %q payload does not match kind %q", e.ID, e.Kind)
		}
		src, tgt := g.nodeIndex[e.Source], g.nodeIndex[e.Target]
		if src == nil {
			return fmt.Errorf("edge %q references unknown source %q", e.ID, e.Source)
		}
		if tgt == nil {
			return fmt.Errorf("edge %q references unknown target %q", e.ID, e.Target)
		}
		if e.Kind == KindEnumMapping {
			if src.Kind != KindEntity {
				return fmt.Errorf("enum-mapping %q source %q is not an entity", e.ID, e.Source)
			}
			if tgt.Kind != KindEnum {
				return fmt.Errorf("enum-mapping %q target %q is not an enum", e.ID, e.Target)
			}
			pair := [2]string{e.Source, e.Target}
			if mappings[pair] {
				return fmt.Errorf("duplicate enum-mapping for entity %q and enum %q", e.Source, e.Target)
			}
			mappings[pair] = true
		}
	}
	return nil
}

func deleteFunc[T any](s []*T, del func(*T) bool) []*T {
	out := s[:0]
	for _, v := range s {
		if !del(v) {
			out = append(out, v)
		}
	}
	// Zero the tail so deleted elements are not retained.
	for i := len(out); i < len(s); i++ {
		s[i] = nil
	}
	return out
}
