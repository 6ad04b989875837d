package diagram

// EdgeKind discriminates the payload carried by an Edge.
type EdgeKind string

// Edge kinds.
const (
	KindRelationship EdgeKind = "relationship"
	KindEnumMapping  EdgeKind = "enum-mapping"
)

// Valid reports whether k is one of the known edge kinds.
func (k EdgeKind) Valid() bool {
	return k == KindRelationship || k == KindEnumMapping
}

// RelType is the kind of connection a relationship edge expresses.
type RelType string

// Relationship types. The first four are structural: they lower to foreign
// keys in SQL and relation decorators in entity code. The rest are emitted
// as structural annotations (extends/implements/ownership comments).
const (
	OneToOne       RelType = "OneToOne"
	OneToMany      RelType = "OneToMany"
	ManyToOne      RelType = "ManyToOne"
	ManyToMany     RelType = "ManyToMany"
	Inheritance    RelType = "Inheritance"
	Implementation RelType = "Implementation"
	Composition    RelType = "Composition"
	Aggregation    RelType = "Aggregation"
	Dependency     RelType = "Dependency"
)

// Valid reports whether r is one of the known relationship types.
func (r RelType) Valid() bool {
	switch r {
	case OneToOne, OneToMany, ManyToOne, ManyToMany,
		Inheritance, Implementation, Composition, Aggregation, Dependency:
		return true
	}
	return false
}

// Structural reports whether the relationship lowers to a foreign key.
func (r RelType) Structural() bool {
	switch r {
	case OneToOne, OneToMany, ManyToOne, ManyToMany:
		return true
	}
	return false
}

// FetchType selects lazy or eager loading on a relation field.
type FetchType string

// Fetch modes.
const (
	Lazy  FetchType = "Lazy"
	Eager FetchType = "Eager"
)

// DeleteRule is the referential action applied when the referenced row is
// deleted. It applies to structural relation types only.
type DeleteRule string

// Delete rules.
const (
	DeleteCascade    DeleteRule = "Cascade"
	DeleteSetNull    DeleteRule = "SetNull"
	DeleteRestrict   DeleteRule = "Restrict"
	DeleteNoAction   DeleteRule = "NoAction"
	DeleteSetDefault DeleteRule = "SetDefault"
)

// SQL returns the ON DELETE clause token for the rule.
func (r DeleteRule) SQL() string {
	switch r {
	case DeleteCascade:
		return "CASCADE"
	case DeleteSetNull:
		return "SET NULL"
	case DeleteRestrict:
		return "RESTRICT"
	case DeleteNoAction:
		return "NO ACTION"
	case DeleteSetDefault:
		return "SET DEFAULT"
	}
	return ""
}

// EdgeData is the payload of an Edge. Exactly one concrete type corresponds
// to each EdgeKind.
type EdgeData interface {
	edgeData()
	// Clone returns a deep copy of the payload.
	Clone() EdgeData
}

// Edge connects two nodes of the diagram graph.
type Edge struct {
	ID     string
	Kind   EdgeKind
	Source string
	Target string
	// SourceHandle and TargetHandle are canvas attachment points,
	// preserved verbatim through import/export.
	SourceHandle string
	TargetHandle string
	Data         EdgeData
}

// Relationship returns the relationship payload, or nil for other kinds.
func (e *Edge) Relationship() *Relationship {
	r, _ := e.Data.(*Relationship)
	return r
}

// EnumMapping returns the enum-mapping payload, or nil for other kinds.
func (e *Edge) EnumMapping() *EnumMapping {
	m, _ := e.Data.(*EnumMapping)
	return m
}

// Relationship is a user-authored connection between two nodes.
// SourceProperty names the field generated on the source entity.
type Relationship struct {
	Type           RelType    `json:"relationType"`
	SourceProperty string     `json:"sourceProperty"`
	Nullable       bool       `json:"isNullable"`
	Cascade        bool       `json:"cascade"`
	OrphanRemoval  bool       `json:"orphanRemoval"`
	Fetch          FetchType  `json:"fetchType"`
	DeleteRule     DeleteRule `json:"deleteRule,omitempty"`
}

func (*Relationship) edgeData() {}

// Clone returns a copy of the relationship payload.
func (r *Relationship) Clone() EdgeData {
	c := *r
	return &c
}

// EnumMapping is a derived edge recording that a property on the source
// entity references the target enum by type name. These edges are created
// and removed by the graph itself as entity properties are edited, never
// authored directly by the user.
type EnumMapping struct {
	// PropertyID is the id of the referencing property on the source
	// entity. Empty until the mapping is patched after creation.
	PropertyID string `json:"propertyId"`
	// PreviousType is the property's type immediately before the mapping
	// was created, retained for diagnostics and undo.
	PreviousType string `json:"previousType"`
}

func (*EnumMapping) edgeData() {}

// Clone returns a copy of the enum-mapping payload.
func (m *EnumMapping) Clone() EdgeData {
	c := *m
	return &c
}

func edgeKindOf(d EdgeData) EdgeKind {
	switch d.(type) {
	case *Relationship:
		return KindRelationship
	case *EnumMapping:
		return KindEnumMapping
	}
	return ""
}
