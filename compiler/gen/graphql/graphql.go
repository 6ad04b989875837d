// Package graphql emits a GraphQL SDL document from a diagram snapshot:
// an object type per entity and embeddable, an enum per enumeration, an
// interface per interface node, and relation fields with list/non-null
// wrapping derived from the structural relationship edges.
package graphql

import (
	"fmt"
	"sort"
	"strings"

	"github.com/syssam/erdkit/compiler/gen"
	"github.com/syssam/erdkit/dialect"
	"github.com/syssam/erdkit/diagram"
)

// Emitter emits a GraphQL schema document.
type Emitter struct{}

// New returns a GraphQL emitter.
func New() *Emitter { return &Emitter{} }

// Name implements gen.Emitter.
func (*Emitter) Name() string { return "graphql" }

// Emit produces a single schema.graphql artifact.
func (e *Emitter) Emit(g *diagram.Graph) ([]gen.Artifact, error) {
	var b strings.Builder

	scalars := customScalars(g)
	for _, s := range scalars {
		fmt.Fprintf(&b, "scalar %s\n", s)
	}
	if len(scalars) > 0 {
		b.WriteString("\n")
	}

	var blocks []string
	for _, n := range g.Nodes() {
		switch n.Kind {
		case diagram.KindEnum:
			blocks = append(blocks, emitEnum(n.Enum()))
		case diagram.KindInterface:
			blocks = append(blocks, emitInterface(g, n.Interface()))
		case diagram.KindEntity:
			blocks = append(blocks, emitObject(g, n, n.Entity().Properties))
		case diagram.KindEmbeddable:
			blocks = append(blocks, emitObject(g, n, n.Embeddable().Properties))
		}
	}
	b.WriteString(strings.Join(blocks, "\n"))
	return []gen.Artifact{{Name: "schema.graphql", Content: []byte(b.String())}}, nil
}

// customScalars collects the scalar declarations the document needs:
// Time when any Date property exists, plus every user-defined property
// type that does not name a diagram node.
func customScalars(g *diagram.Graph) []string {
	named := make(map[string]bool)
	for _, n := range g.Nodes() {
		named[gen.Exported(n.Name())] = true
	}
	set := make(map[string]bool)
	for _, n := range g.Nodes() {
		for _, p := range nodeProperties(n) {
			if g.EnumByName(p.Type) != nil {
				continue
			}
			t := dialect.GraphQLType(p.Type)
			switch t {
			case "String", "Int", "Boolean", "ID", "Float":
				continue
			}
			t = gen.Exported(t)
			if !named[t] {
				set[t] = true
			}
		}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func nodeProperties(n *diagram.Node) []diagram.Property {
	switch n.Kind {
	case diagram.KindEntity:
		return n.Entity().Properties
	case diagram.KindEmbeddable:
		return n.Embeddable().Properties
	case diagram.KindInterface:
		return n.Interface().Properties
	}
	return nil
}

func emitEnum(en *diagram.Enum) string {
	var b strings.Builder
	fmt.Fprintf(&b, "enum %s {\n", gen.Exported(en.Name))
	for _, v := range en.Values {
		fmt.Fprintf(&b, "  %s\n", enumMember(v.Key))
	}
	b.WriteString("}\n")
	return b.String()
}

func enumMember(key string) string {
	key = strings.TrimSpace(key)
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	return strings.ToUpper(key)
}

func emitInterface(g *diagram.Graph, it *diagram.Interface) string {
	var b strings.Builder
	fmt.Fprintf(&b, "interface %s {\n", gen.Exported(it.Name))
	for i := range it.Properties {
		writeField(g, &b, &it.Properties[i])
	}
	b.WriteString("}\n")
	return b.String()
}

func emitObject(g *diagram.Graph, n *diagram.Node, props []diagram.Property) string {
	var b strings.Builder
	name := gen.Exported(n.Name())

	var implements []string
	var ifaces []*diagram.Interface
	for _, e := range g.EdgesFrom(n.ID) {
		if e.Kind != diagram.KindRelationship {
			continue
		}
		t := g.Node(e.Target)
		if t == nil {
			continue
		}
		switch e.Relationship().Type {
		case diagram.Implementation:
			implements = append(implements, gen.Exported(t.Name()))
			if t.Kind == diagram.KindInterface {
				ifaces = append(ifaces, t.Interface())
			}
		case diagram.Inheritance:
			// SDL has no type inheritance; note the relation instead.
			fmt.Fprintf(&b, "# %s extends %s\n", name, gen.Exported(t.Name()))
		}
	}

	b.WriteString("type " + name)
	if len(implements) > 0 {
		b.WriteString(" implements " + strings.Join(implements, " & "))
	}
	b.WriteString(" {\n")
	seen := make(map[string]bool)
	for i := range props {
		writeField(g, &b, &props[i])
		seen[gen.FieldName(props[i].Name)] = true
	}
	// An implementing type must declare every field of its interfaces.
	for _, it := range ifaces {
		for i := range it.Properties {
			fieldName := gen.FieldName(it.Properties[i].Name)
			if seen[fieldName] {
				continue
			}
			seen[fieldName] = true
			writeField(g, &b, &it.Properties[i])
		}
	}
	if n.Kind == diagram.KindEntity {
		for _, rf := range gen.RelationFields(g, n) {
			typ := gen.Exported(rf.Target.Name())
			switch {
			case rf.Collection:
				typ = "[" + typ + "!]!"
			case !rf.Rel.Nullable:
				typ += "!"
			}
			fmt.Fprintf(&b, "  %s: %s\n", rf.Name, typ)
		}
	}
	b.WriteString("}\n")
	return b.String()
}

func writeField(g *diagram.Graph, b *strings.Builder, p *diagram.Property) {
	var typ string
	switch {
	case p.PrimaryKey:
		typ = "ID"
	case g.EnumByName(p.Type) != nil:
		typ = gen.Exported(p.Type)
	default:
		typ = dialect.GraphQLType(p.Type)
		switch typ {
		case "String", "Int", "Boolean", "ID", "Float", "Time":
		default:
			typ = gen.Exported(typ)
		}
	}
	if !p.Nullable {
		typ += "!"
	}
	fmt.Fprintf(b, "  %s: %s\n", gen.FieldName(p.Name), typ)
}
