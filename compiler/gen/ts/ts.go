// Package ts emits TypeORM-style TypeScript entity classes from a diagram
// snapshot: one file per node, with relation decorators derived from the
// structural relationship edges, including the inverse-side fields that
// are not stored in the diagram itself.
package ts

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/syssam/erdkit/compiler/gen"
	"github.com/syssam/erdkit/dialect"
	"github.com/syssam/erdkit/diagram"
)

// Emitter emits TypeScript entities.
type Emitter struct{}

// New returns a TypeScript emitter.
func New() *Emitter { return &Emitter{} }

// Name implements gen.Emitter.
func (*Emitter) Name() string { return "ts" }

// Emit produces one .ts file per diagram node.
func (e *Emitter) Emit(g *diagram.Graph) ([]gen.Artifact, error) {
	var artifacts []gen.Artifact
	names := make(map[string]int)
	for _, n := range g.Nodes() {
		var content string
		switch n.Kind {
		case diagram.KindEntity:
			content = emitEntity(g, n)
		case diagram.KindEmbeddable:
			content = emitEmbeddable(g, n)
		case diagram.KindEnum:
			content = emitEnum(n.Enum())
		case diagram.KindInterface:
			content = emitInterface(n.Interface())
		default:
			continue
		}
		name := gen.Exported(n.Name())
		if name == "" {
			name = "Unnamed"
		}
		// Node names need not be unique; disambiguate file names.
		if c := names[name]; c > 0 {
			names[name] = c + 1
			name = fmt.Sprintf("%s%d", name, c+1)
		} else {
			names[name] = 1
		}
		artifacts = append(artifacts, gen.Artifact{Name: name + ".ts", Content: []byte(content)})
	}
	return artifacts, nil
}

// file accumulates the body of one TypeScript source file together with
// the imports it needs.
type file struct {
	typeorm map[string]bool
	locals  map[string]bool
	self    string
	body    strings.Builder
}

func newFile(self string) *file {
	return &file{typeorm: make(map[string]bool), locals: make(map[string]bool), self: self}
}

func (f *file) decorator(name string) string {
	f.typeorm[name] = true
	return name
}

func (f *file) local(name string) string {
	if name != f.self && name != "" {
		f.locals[name] = true
	}
	return name
}

func (f *file) render() string {
	var b strings.Builder
	if len(f.typeorm) > 0 {
		names := make([]string, 0, len(f.typeorm))
		for n := range f.typeorm {
			names = append(names, n)
		}
		sort.Strings(names)
		b.WriteString("import { ")
		b.WriteString(strings.Join(names, ", "))
		b.WriteString(" } from \"typeorm\";\n")
	}
	locals := make([]string, 0, len(f.locals))
	for n := range f.locals {
		locals = append(locals, n)
	}
	sort.Strings(locals)
	for _, n := range locals {
		fmt.Fprintf(&b, "import { %s } from \"./%s\";\n", n, n)
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString(f.body.String())
	return b.String()
}

func emitEntity(g *diagram.Graph, n *diagram.Node) string {
	ent := n.Entity()
	className := gen.Exported(ent.Name)
	f := newFile(className)

	extends, implements, ifaces, annotations := structuralClauses(g, n, f)
	for _, a := range annotations {
		fmt.Fprintf(&f.body, "// %s\n", a)
	}
	fmt.Fprintf(&f.body, "@%s()\n", f.decorator("Entity"))
	f.body.WriteString("export class " + className)
	if extends != "" {
		f.body.WriteString(" extends " + extends)
	}
	if len(implements) > 0 {
		f.body.WriteString(" implements " + strings.Join(implements, ", "))
	}
	f.body.WriteString(" {\n")

	members := 0
	seen := make(map[string]bool)
	for i := range ent.Properties {
		if members > 0 {
			f.body.WriteString("\n")
		}
		members++
		seen[gen.FieldName(ent.Properties[i].Name)] = true
		emitProperty(g, f, &ent.Properties[i])
	}

	// The implements clause obliges the class to declare the interface
	// members it does not already have.
	for _, it := range ifaces {
		for i := range it.Properties {
			fieldName := gen.FieldName(it.Properties[i].Name)
			if seen[fieldName] {
				continue
			}
			seen[fieldName] = true
			if members > 0 {
				f.body.WriteString("\n")
			}
			members++
			emitProperty(g, f, &it.Properties[i])
		}
	}

	for _, rf := range gen.RelationFields(g, n) {
		if members > 0 {
			f.body.WriteString("\n")
		}
		members++
		emitRelationField(f, rf)
	}

	f.body.WriteString("}\n")
	return f.render()
}

// structuralClauses resolves inheritance-style edges: Inheritance becomes
// extends, Implementation becomes implements (returning the interface
// payloads so the class can declare their members), and ownership
// relations (Composition, Aggregation, Dependency) degrade to comments
// since they have no decorator analogue.
func structuralClauses(g *diagram.Graph, n *diagram.Node, f *file) (extends string, implements []string, ifaces []*diagram.Interface, annotations []string) {
	for _, e := range g.EdgesFrom(n.ID) {
		if e.Kind != diagram.KindRelationship {
			continue
		}
		target := g.Node(e.Target)
		if target == nil {
			continue
		}
		name := gen.Exported(target.Name())
		switch e.Relationship().Type {
		case diagram.Inheritance:
			if extends == "" {
				extends = f.local(name)
			}
		case diagram.Implementation:
			implements = append(implements, f.local(name))
			if target.Kind == diagram.KindInterface {
				ifaces = append(ifaces, target.Interface())
			}
		case diagram.Composition:
			annotations = append(annotations, "Composition: owns "+name)
		case diagram.Aggregation:
			annotations = append(annotations, "Aggregation: references "+name)
		case diagram.Dependency:
			annotations = append(annotations, "Dependency: uses "+name)
		}
	}
	return extends, implements, ifaces, annotations
}

func emitProperty(g *diagram.Graph, f *file, p *diagram.Property) {
	switch {
	case p.PrimaryKey && p.Type == dialect.TypeNumber:
		fmt.Fprintf(&f.body, "  @%s()\n", f.decorator("PrimaryGeneratedColumn"))
	case p.PrimaryKey:
		fmt.Fprintf(&f.body, "  @%s()\n", f.decorator("PrimaryColumn"))
	default:
		fmt.Fprintf(&f.body, "  @%s(%s)\n", f.decorator("Column"), columnOptions(p))
	}
	tsType := dialect.TSType(p.Type)
	if enum := g.EnumByName(p.Type); enum != nil {
		tsType = f.local(gen.Exported(enum.Name()))
	}
	optional := ""
	if p.Nullable && !p.PrimaryKey {
		optional = "?"
	}
	fmt.Fprintf(&f.body, "  %s%s: %s;\n", gen.FieldName(p.Name), optional, tsType)
}

func columnOptions(p *diagram.Property) string {
	var opts []string
	if p.Unique {
		opts = append(opts, "unique: true")
	}
	if p.Nullable {
		opts = append(opts, "nullable: true")
	}
	if p.Default != nil {
		opts = append(opts, "default: "+tsLiteral(*p.Default))
	}
	if len(opts) == 0 {
		return ""
	}
	return "{ " + strings.Join(opts, ", ") + " }"
}

func emitRelationField(f *file, rf gen.RelationField) {
	target := f.local(gen.Exported(rf.Target.Name()))
	decorator := f.decorator(string(rf.Type))

	args := []string{"() => " + target}
	if rf.Opposite != "" {
		ref := gen.FieldName(rf.Target.Name())
		args = append(args, fmt.Sprintf("(%s) => %s.%s", ref, ref, rf.Opposite))
	}
	if opts := relationOptions(rf); opts != "" {
		args = append(args, opts)
	}
	fmt.Fprintf(&f.body, "  @%s(%s)\n", decorator, strings.Join(args, ", "))

	// The owning side of OneToOne carries the join column; the owning
	// side of ManyToMany carries the join table.
	if !rf.Inverse {
		switch rf.Type {
		case diagram.OneToOne:
			fmt.Fprintf(&f.body, "  @%s()\n", f.decorator("JoinColumn"))
		case diagram.ManyToMany:
			fmt.Fprintf(&f.body, "  @%s()\n", f.decorator("JoinTable"))
		}
	}

	typ := target
	optional := ""
	if rf.Collection {
		typ += "[]"
	} else if rf.Rel.Nullable {
		optional = "?"
	}
	fmt.Fprintf(&f.body, "  %s%s: %s;\n", rf.Name, optional, typ)
}

func relationOptions(rf gen.RelationField) string {
	var opts []string
	r := rf.Rel
	if r.Cascade {
		opts = append(opts, "cascade: true")
	}
	if r.Fetch == diagram.Eager {
		opts = append(opts, "eager: true")
	}
	if r.Nullable && !rf.Collection {
		opts = append(opts, "nullable: true")
	}
	if r.OrphanRemoval {
		opts = append(opts, `orphanedRowAction: "delete"`)
	}
	if !rf.Inverse && r.DeleteRule != "" {
		opts = append(opts, fmt.Sprintf("onDelete: %q", r.DeleteRule.SQL()))
	}
	if len(opts) == 0 {
		return ""
	}
	return "{ " + strings.Join(opts, ", ") + " }"
}

func emitEmbeddable(g *diagram.Graph, n *diagram.Node) string {
	emb := n.Embeddable()
	className := gen.Exported(emb.Name)
	f := newFile(className)
	f.body.WriteString("// Embeddable value object: no identity of its own.\n")
	f.body.WriteString("export class " + className + " {\n")
	for i := range emb.Properties {
		if i > 0 {
			f.body.WriteString("\n")
		}
		emitProperty(g, f, &emb.Properties[i])
	}
	f.body.WriteString("}\n")
	return f.render()
}

func emitEnum(en *diagram.Enum) string {
	var b strings.Builder
	b.WriteString("export enum " + gen.Exported(en.Name) + " {\n")
	for _, v := range en.Values {
		fmt.Fprintf(&b, "  %s = %s,\n", enumKey(v.Key), strconv.Quote(v.Value))
	}
	b.WriteString("}\n")
	return b.String()
}

func emitInterface(it *diagram.Interface) string {
	var b strings.Builder
	b.WriteString("export interface " + gen.Exported(it.Name) + " {\n")
	for i := range it.Properties {
		p := &it.Properties[i]
		optional := ""
		if p.Nullable {
			optional = "?"
		}
		fmt.Fprintf(&b, "  %s%s: %s;\n", gen.FieldName(p.Name), optional, dialect.TSType(p.Type))
	}
	for _, m := range it.Methods {
		ret := m.ReturnType
		if ret == "" {
			ret = "void"
		}
		fmt.Fprintf(&b, "  %s(%s): %s;\n", gen.FieldName(m.Name), m.Parameters, ret)
	}
	b.WriteString("}\n")
	return b.String()
}

// enumKey normalizes an enum member key to the conventional upper-snake
// form without touching keys that already follow it.
func enumKey(key string) string {
	key = strings.TrimSpace(key)
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	return strings.ToUpper(key)
}

// tsLiteral renders a default value: numbers and booleans stay bare,
// anything else is quoted.
func tsLiteral(v string) string {
	if _, err := strconv.ParseFloat(v, 64); err == nil {
		return v
	}
	if v == "true" || v == "false" {
		return v
	}
	return strconv.Quote(v)
}
