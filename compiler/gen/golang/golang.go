// Package golang emits plain Go model structs from a diagram snapshot:
// one file per node in a single model package, with relation fields
// mirrored from the structural relationship edges.
package golang

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dave/jennifer/jen"
	"golang.org/x/tools/imports"

	"github.com/syssam/erdkit/compiler/gen"
	"github.com/syssam/erdkit/dialect"
	"github.com/syssam/erdkit/diagram"
)

// Emitter emits Go model source.
type Emitter struct {
	// Package is the emitted package name; defaults to "model".
	Package string
}

// New returns a Go emitter.
func New() *Emitter { return &Emitter{Package: "model"} }

// Name implements gen.Emitter.
func (*Emitter) Name() string { return "go" }

// Emit produces one .go file per diagram node.
func (e *Emitter) Emit(g *diagram.Graph) ([]gen.Artifact, error) {
	pkg := e.Package
	if pkg == "" {
		pkg = "model"
	}
	var artifacts []gen.Artifact
	for _, n := range g.Nodes() {
		f := jen.NewFile(pkg)
		f.HeaderComment("Code generated by erdkit. DO NOT EDIT.")
		switch n.Kind {
		case diagram.KindEntity:
			emitStruct(g, f, n, n.Entity().Properties, true)
		case diagram.KindEmbeddable:
			emitStruct(g, f, n, n.Embeddable().Properties, false)
		case diagram.KindEnum:
			emitEnum(f, n.Enum())
		case diagram.KindInterface:
			emitInterface(f, n.Interface())
		default:
			continue
		}
		name := gen.ColumnName(n.Name()) + ".go"
		src, err := render(f, name)
		if err != nil {
			return nil, gen.NewGenerationError("go", name, "format emitted source", err)
		}
		artifacts = append(artifacts, gen.Artifact{Name: name, Content: src})
	}
	return artifacts, nil
}

func render(f *jen.File, name string) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, err
	}
	// Pass the rendered source through goimports, the same way generated
	// database code is formatted, to drop any unused imports.
	return imports.Process(name, buf.Bytes(), nil)
}

func emitStruct(g *diagram.Graph, f *jen.File, n *diagram.Node, props []diagram.Property, withRelations bool) {
	structName := gen.Exported(n.Name())
	f.Commentf("%s is the %s model.", structName, n.Name())
	f.Type().Id(structName).StructFunc(func(group *jen.Group) {
		if parent := inheritanceParent(g, n); parent != "" {
			group.Id(parent)
		}
		for i := range props {
			p := &props[i]
			group.Id(gen.Exported(p.Name)).Add(goType(g, p)).Tag(structTags(p))
		}
		if !withRelations {
			return
		}
		for _, rf := range gen.RelationFields(g, n) {
			target := gen.Exported(rf.Target.Name())
			var typ *jen.Statement
			if rf.Collection {
				typ = jen.Index().Op("*").Id(target)
			} else {
				typ = jen.Op("*").Id(target)
			}
			group.Id(gen.Exported(rf.Name)).Add(typ).Tag(map[string]string{
				"json": gen.FieldName(rf.Name) + ",omitempty",
			})
		}
	})
	for _, c := range ownershipComments(g, n) {
		f.Comment(c)
	}
}

// inheritanceParent returns the embedded parent struct name for an
// Inheritance edge, or empty.
func inheritanceParent(g *diagram.Graph, n *diagram.Node) string {
	for _, e := range g.EdgesFrom(n.ID) {
		if e.Kind == diagram.KindRelationship && e.Relationship().Type == diagram.Inheritance {
			if t := g.Node(e.Target); t != nil {
				return gen.Exported(t.Name())
			}
		}
	}
	return ""
}

// ownershipComments degrades relation types without a struct analogue to
// trailing comments.
func ownershipComments(g *diagram.Graph, n *diagram.Node) []string {
	var out []string
	for _, e := range g.EdgesFrom(n.ID) {
		if e.Kind != diagram.KindRelationship {
			continue
		}
		t := g.Node(e.Target)
		if t == nil {
			continue
		}
		name := gen.Exported(t.Name())
		switch e.Relationship().Type {
		case diagram.Implementation:
			out = append(out, fmt.Sprintf("%s implements %s.", gen.Exported(n.Name()), name))
		case diagram.Composition:
			out = append(out, fmt.Sprintf("%s owns %s.", gen.Exported(n.Name()), name))
		case diagram.Aggregation:
			out = append(out, fmt.Sprintf("%s aggregates %s.", gen.Exported(n.Name()), name))
		case diagram.Dependency:
			out = append(out, fmt.Sprintf("%s depends on %s.", gen.Exported(n.Name()), name))
		}
	}
	return out
}

func goType(g *diagram.Graph, p *diagram.Property) jen.Code {
	var base *jen.Statement
	if enum := g.EnumByName(p.Type); enum != nil {
		base = jen.Id(gen.Exported(enum.Name()))
	} else {
		switch t := dialect.GoType(p.Type); t {
		case "time.Time":
			base = jen.Qual("time", "Time")
		case "string", "int", "bool":
			base = jen.Id(t)
		default:
			base = jen.Id(gen.Exported(t))
		}
	}
	if p.Nullable {
		return jen.Op("*").Add(base)
	}
	return base
}

func structTags(p *diagram.Property) map[string]string {
	jsonTag := gen.FieldName(p.Name)
	if p.Nullable {
		jsonTag += ",omitempty"
	}
	return map[string]string{
		"json": jsonTag,
		"db":   gen.ColumnName(p.Name),
	}
}

func emitEnum(f *jen.File, en *diagram.Enum) {
	typeName := gen.Exported(en.Name)
	f.Commentf("%s enumerates the %s values.", typeName, en.Name)
	f.Type().Id(typeName).String()
	if len(en.Values) == 0 {
		return
	}
	f.Const().DefsFunc(func(group *jen.Group) {
		for _, v := range en.Values {
			group.Id(typeName + gen.Exported(strings.ToLower(v.Key))).Id(typeName).Op("=").Lit(v.Value)
		}
	})
}

func emitInterface(f *jen.File, it *diagram.Interface) {
	name := gen.Exported(it.Name)
	f.Commentf("%s is the %s contract.", name, it.Name)
	f.Type().Id(name).InterfaceFunc(func(group *jen.Group) {
		for i := range it.Properties {
			p := &it.Properties[i]
			group.Id(gen.Exported(p.Name)).Params().Add(interfaceType(p.Type))
		}
		for _, m := range it.Methods {
			// Method signatures are free-form text in the diagram and
			// cannot be lowered to typed Go parameters.
			group.Commentf("%s(%s) %s", gen.Exported(m.Name), m.Parameters, m.ReturnType)
		}
	})
}

func interfaceType(irType string) jen.Code {
	switch t := dialect.GoType(irType); t {
	case "time.Time":
		return jen.Qual("time", "Time")
	case "string", "int", "bool":
		return jen.Id(t)
	default:
		return jen.Id(gen.Exported(t))
	}
}
