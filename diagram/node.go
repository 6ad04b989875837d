package diagram

// NodeKind discriminates the payload carried by a Node.
type NodeKind string

// Node kinds.
const (
	KindEntity     NodeKind = "entity"
	KindEmbeddable NodeKind = "embeddable"
	KindEnum       NodeKind = "enum"
	KindInterface  NodeKind = "interface"
)

// Valid reports whether k is one of the known node kinds.
func (k NodeKind) Valid() bool {
	switch k {
	case KindEntity, KindEmbeddable, KindEnum, KindInterface:
		return true
	}
	return false
}

// Position is the canvas placement of a node. It carries no meaning for
// code generation and is preserved verbatim through import/export.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeData is the payload of a Node. Exactly one concrete type corresponds
// to each NodeKind.
type NodeData interface {
	nodeData()
	// Clone returns a deep copy of the payload.
	Clone() NodeData
}

// Node is one element of the diagram graph: an entity, embeddable, enum or
// interface, together with its identity and canvas position.
type Node struct {
	ID       string
	Kind     NodeKind
	Position Position
	Data     NodeData
}

// Entity returns the entity payload, or nil if the node is not an entity.
func (n *Node) Entity() *Entity {
	e, _ := n.Data.(*Entity)
	return e
}

// Embeddable returns the embeddable payload, or nil for other kinds.
func (n *Node) Embeddable() *Embeddable {
	e, _ := n.Data.(*Embeddable)
	return e
}

// Enum returns the enum payload, or nil for other kinds.
func (n *Node) Enum() *Enum {
	e, _ := n.Data.(*Enum)
	return e
}

// Interface returns the interface payload, or nil for other kinds.
func (n *Node) Interface() *Interface {
	i, _ := n.Data.(*Interface)
	return i
}

// Name returns the user-facing name of the node payload.
func (n *Node) Name() string {
	switch d := n.Data.(type) {
	case *Entity:
		return d.Name
	case *Embeddable:
		return d.Name
	case *Enum:
		return d.Name
	case *Interface:
		return d.Name
	}
	return ""
}

// Property is a single typed attribute of an entity, embeddable or
// interface. Type is free-form text: a small set of names (string, number,
// boolean, Date) is recognized by the type-mapping tables, a name equal to
// some Enum node's name marks an enum reference, and anything else passes
// through emitters unchanged as a user-defined type.
type Property struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	PrimaryKey bool    `json:"isPrimaryKey"`
	Unique     bool    `json:"isUnique"`
	Nullable   bool    `json:"isNullable"`
	Default    *string `json:"defaultValue,omitempty"`
}

// Index is a secondary index over a subset of an entity's properties,
// referenced by property id.
type Index struct {
	ID         string   `json:"id"`
	Properties []string `json:"properties"`
	Unique     bool     `json:"isUnique"`
}

// Entity is a persistent, identity-bearing type. Properties and indexes
// keep their insertion order; that order is the emission order of columns
// and index statements.
type Entity struct {
	Name          string     `json:"name"`
	Properties    []Property `json:"properties"`
	Indexes       []Index    `json:"indexes,omitempty"`
	AggregateRoot bool       `json:"isAggregateRoot,omitempty"`
}

func (*Entity) nodeData() {}

// Clone returns a deep copy of the entity payload.
func (e *Entity) Clone() NodeData {
	c := *e
	c.Properties = cloneProperties(e.Properties)
	c.Indexes = make([]Index, len(e.Indexes))
	for i, idx := range e.Indexes {
		c.Indexes[i] = idx
		c.Indexes[i].Properties = append([]string(nil), idx.Properties...)
	}
	return &c
}

// Property returns the property with the given id, or nil.
func (e *Entity) Property(id string) *Property {
	for i := range e.Properties {
		if e.Properties[i].ID == id {
			return &e.Properties[i]
		}
	}
	return nil
}

// PrimaryKey returns the first primary-key property, or nil if the entity
// has none.
func (e *Entity) PrimaryKey() *Property {
	for i := range e.Properties {
		if e.Properties[i].PrimaryKey {
			return &e.Properties[i]
		}
	}
	return nil
}

// Embeddable is a value object: named, typed properties without identity
// or primary-key semantics.
type Embeddable struct {
	Name       string     `json:"name"`
	Properties []Property `json:"properties"`
}

func (*Embeddable) nodeData() {}

// Clone returns a deep copy of the embeddable payload.
func (e *Embeddable) Clone() NodeData {
	c := *e
	c.Properties = cloneProperties(e.Properties)
	return &c
}

// EnumValue is one key/value pair of an enumeration. Insertion order is
// display and code-generation order.
type EnumValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Enum is a named enumeration. An entity property whose Type equals the
// enum's Name references it; the graph records that reference as an
// enum-mapping edge.
type Enum struct {
	Name   string      `json:"name"`
	Values []EnumValue `json:"values"`
}

func (*Enum) nodeData() {}

// Clone returns a deep copy of the enum payload.
func (e *Enum) Clone() NodeData {
	c := *e
	c.Values = append([]EnumValue(nil), e.Values...)
	return &c
}

// Method is an interface method signature. Parameters and ReturnType are
// free-form signature text and are never parsed.
type Method struct {
	Name       string `json:"name"`
	Parameters string `json:"parameters"`
	ReturnType string `json:"returnType"`
}

// Interface is a contract type with properties and method signatures.
type Interface struct {
	Name       string     `json:"name"`
	Properties []Property `json:"properties"`
	Methods    []Method   `json:"methods,omitempty"`
}

func (*Interface) nodeData() {}

// Clone returns a deep copy of the interface payload.
func (i *Interface) Clone() NodeData {
	c := *i
	c.Properties = cloneProperties(i.Properties)
	c.Methods = append([]Method(nil), i.Methods...)
	return &c
}

func cloneProperties(ps []Property) []Property {
	out := make([]Property, len(ps))
	for i, p := range ps {
		out[i] = p
		if p.Default != nil {
			d := *p.Default
			out[i].Default = &d
		}
	}
	return out
}

// kindOf returns the node kind matching the concrete payload type.
func kindOf(d NodeData) NodeKind {
	switch d.(type) {
	case *Entity:
		return KindEntity
	case *Embeddable:
		return KindEmbeddable
	case *Enum:
		return KindEnum
	case *Interface:
		return KindInterface
	}
	return ""
}
