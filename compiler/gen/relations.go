package gen

import (
	"github.com/syssam/erdkit/diagram"
)

// RelationField is a relation-backed member of an entity, either authored
// on the edge's source side or derived for the inverse side. Inverse
// fields are an emission concern: they are computed here, never stored in
// the diagram.
type RelationField struct {
	// Name is the member name on the owning entity.
	Name string
	// Rel is the relationship payload of the originating edge.
	Rel *diagram.Relationship
	// Type is the relation type as seen from the owning side; for
	// inverse fields this is the natural inverse of the edge's type.
	Type diagram.RelType
	// Owner is the entity node the field belongs to.
	Owner *diagram.Node
	// Target is the entity node the field points to.
	Target *diagram.Node
	// Collection marks list-valued fields.
	Collection bool
	// Inverse marks fields derived for the non-owning side.
	Inverse bool
	// Opposite is the member name on the other side of the relation,
	// used for mappedBy-style references. Empty when no opposite field
	// is emitted.
	Opposite string
}

// inverseRelType returns the relation type as seen from the target side.
func inverseRelType(r diagram.RelType) diagram.RelType {
	switch r {
	case diagram.OneToMany:
		return diagram.ManyToOne
	case diagram.ManyToOne:
		return diagram.OneToMany
	default:
		// OneToOne and ManyToMany are their own inverses.
		return r
	}
}

// SourceFieldName returns the member name for the owning side of an edge,
// falling back to a name derived from the target entity when the edge has
// no explicit source property.
func SourceFieldName(e *diagram.Edge, target *diagram.Node) string {
	r := e.Relationship()
	if r.SourceProperty != "" {
		return r.SourceProperty
	}
	if r.Type == diagram.OneToMany || r.Type == diagram.ManyToMany {
		return PluralField(target.Name())
	}
	return FieldName(target.Name())
}

// RelationFields computes the relation-backed members of an entity in a
// deterministic order: authored fields in edge insertion order, then
// derived inverse fields in edge insertion order. Only structural
// relationship edges produce fields; inheritance-style edges are emitted
// as structural annotations by each emitter.
//
// An inverse field is derived for OneToMany, ManyToOne, OneToOne and
// ManyToMany edges pointing at the entity, unless the entity already has
// an explicit property of that name, an earlier edge between the same
// pair already claimed the name, or the edge is self-referencing.
func RelationFields(g *diagram.Graph, entity *diagram.Node) []RelationField {
	var out []RelationField
	for _, e := range g.Edges() {
		if e.Kind != diagram.KindRelationship || e.Source != entity.ID {
			continue
		}
		r := e.Relationship()
		if !r.Type.Structural() {
			continue
		}
		target := g.Node(e.Target)
		if target == nil || target.Kind != diagram.KindEntity {
			continue
		}
		f := RelationField{
			Name:       SourceFieldName(e, target),
			Rel:        r,
			Type:       r.Type,
			Owner:      entity,
			Target:     target,
			Collection: r.Type == diagram.OneToMany || r.Type == diagram.ManyToMany,
		}
		if name, ok := inverseField(g, e); ok {
			f.Opposite = name
		}
		out = append(out, f)
	}
	for _, e := range g.Edges() {
		if e.Kind != diagram.KindRelationship || e.Target != entity.ID {
			continue
		}
		r := e.Relationship()
		if !r.Type.Structural() {
			continue
		}
		name, ok := inverseField(g, e)
		if !ok {
			continue
		}
		source := g.Node(e.Source)
		inv := inverseRelType(r.Type)
		out = append(out, RelationField{
			Name:       name,
			Rel:        r,
			Type:       inv,
			Owner:      entity,
			Target:     source,
			Collection: inv == diagram.OneToMany || inv == diagram.ManyToMany,
			Inverse:    true,
			Opposite:   SourceFieldName(e, entity),
		})
	}
	return out
}

// inverseField reports whether edge e derives an inverse member on its
// target entity, and that member's name. The target's inbound edges are
// walked in insertion order so that a second edge between the same pair
// does not claim a name an earlier edge or an explicit property already
// holds.
func inverseField(g *diagram.Graph, e *diagram.Edge) (string, bool) {
	if e.Source == e.Target {
		return "", false
	}
	target := g.Node(e.Target)
	if target == nil || target.Kind != diagram.KindEntity {
		return "", false
	}
	used := make(map[string]bool)
	for _, other := range g.Edges() {
		if other.Kind != diagram.KindRelationship || other.Target != e.Target || other.Source == other.Target {
			continue
		}
		r := other.Relationship()
		if !r.Type.Structural() {
			continue
		}
		source := g.Node(other.Source)
		if source == nil || source.Kind != diagram.KindEntity {
			continue
		}
		name := inverseFieldName(r.Type, source)
		if other.ID == e.ID {
			if used[name] || hasProperty(target, name) {
				return "", false
			}
			return name, true
		}
		used[name] = true
	}
	return "", false
}

// inverseFieldName derives the member name of the inverse side: the
// source entity's name, pluralized when the inverse is list-valued.
func inverseFieldName(r diagram.RelType, source *diagram.Node) string {
	switch inverseRelType(r) {
	case diagram.OneToMany, diagram.ManyToMany:
		return PluralField(source.Name())
	default:
		return FieldName(source.Name())
	}
}

func hasProperty(n *diagram.Node, name string) bool {
	ent := n.Entity()
	if ent == nil {
		return false
	}
	for i := range ent.Properties {
		if ent.Properties[i].Name == name {
			return true
		}
	}
	return false
}
