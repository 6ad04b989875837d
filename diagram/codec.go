package diagram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Version is the persisted diagram document version.
const Version = "1.0"

// now is stubbed in tests to keep emitted documents deterministic.
var now = time.Now

// ParseError reports a rejected diagram document. Unlike DDL import, which
// tolerates bad statements one by one, a structural violation in a diagram
// document aborts the whole import.
type ParseError struct {
	Reason string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return "diagram: parse: " + e.Reason
}

func parseErrorf(format string, args ...any) *ParseError {
	return &ParseError{Reason: fmt.Sprintf(format, args...)}
}

// document is the wire shape of a persisted diagram.
type document struct {
	Version  string         `json:"version" msgpack:"version"`
	Metadata docMetadata    `json:"metadata" msgpack:"metadata"`
	Nodes    []documentNode `json:"nodes" msgpack:"nodes"`
	Edges    []documentEdge `json:"edges" msgpack:"edges"`
}

type docMetadata struct {
	CreatedAt string `json:"createdAt" msgpack:"createdAt"`
	UpdatedAt string `json:"updatedAt" msgpack:"updatedAt"`
	Name      string `json:"name,omitempty" msgpack:"name,omitempty"`
}

type documentNode struct {
	ID       string          `json:"id" msgpack:"id"`
	Type     string          `json:"type" msgpack:"type"`
	Position Position        `json:"position" msgpack:"position"`
	Data     json.RawMessage `json:"data" msgpack:"data"`
}

type documentEdge struct {
	ID           string          `json:"id" msgpack:"id"`
	Type         string          `json:"type" msgpack:"type"`
	Source       string          `json:"source" msgpack:"source"`
	Target       string          `json:"target" msgpack:"target"`
	SourceHandle string          `json:"sourceHandle,omitempty" msgpack:"sourceHandle,omitempty"`
	TargetHandle string          `json:"targetHandle,omitempty" msgpack:"targetHandle,omitempty"`
	Data         json.RawMessage `json:"data" msgpack:"data"`
}

// docEnumMapping mirrors EnumMapping on the wire, where an unset property
// reference is encoded as an explicit null.
type docEnumMapping struct {
	PropertyID   *string `json:"propertyId"`
	PreviousType string  `json:"previousType"`
}

// EncodeJSON serializes the graph to the persisted diagram document
// format. Emission is deterministic: node, edge and payload order follow
// graph insertion order, so the same snapshot always yields identical
// bytes apart from metadata.updatedAt.
func EncodeJSON(g *Graph) ([]byte, error) {
	doc, err := encodeDocument(g)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("diagram: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeBinary serializes the graph document as msgpack. The binary form
// carries the same document shape as EncodeJSON and round-trips through
// DecodeBinary.
func EncodeBinary(g *Graph) ([]byte, error) {
	doc, err := encodeDocument(g)
	if err != nil {
		return nil, err
	}
	b, err := msgpack.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("diagram: encode binary: %w", err)
	}
	return b, nil
}

func encodeDocument(g *Graph) (*document, error) {
	doc := &document{
		Version: Version,
		Metadata: docMetadata{
			CreatedAt: g.Meta.CreatedAt.UTC().Format(time.RFC3339),
			UpdatedAt: now().UTC().Format(time.RFC3339),
			Name:      g.Meta.Name,
		},
		Nodes: []documentNode{},
		Edges: []documentEdge{},
	}
	for _, n := range g.nodes {
		raw, err := json.Marshal(n.Data)
		if err != nil {
			return nil, fmt.Errorf("diagram: encode node %q: %w", n.ID, err)
		}
		doc.Nodes = append(doc.Nodes, documentNode{
			ID:       n.ID,
			Type:     string(n.Kind),
			Position: n.Position,
			Data:     raw,
		})
	}
	for _, e := range g.edges {
		var payload any = e.Data
		if m := e.EnumMapping(); m != nil {
			dm := docEnumMapping{PreviousType: m.PreviousType}
			if m.PropertyID != "" {
				dm.PropertyID = &m.PropertyID
			}
			payload = dm
		}
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("diagram: encode edge %q: %w", e.ID, err)
		}
		doc.Edges = append(doc.Edges, documentEdge{
			ID:           e.ID,
			Type:         string(e.Kind),
			Source:       e.Source,
			Target:       e.Target,
			SourceHandle: e.SourceHandle,
			TargetHandle: e.TargetHandle,
			Data:         raw,
		})
	}
	return doc, nil
}

// DecodeJSON parses a persisted diagram document. Validation is structural
// only: version must be a string, nodes and edges must be arrays, every
// node needs a string id and type plus position and data objects, and
// every edge needs string id, source and target. Any violation fails the
// entire import with a *ParseError.
func DecodeJSON(data []byte, opts ...Option) (*Graph, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, parseErrorf("document is not a JSON object: %v", err)
	}
	if _, err := requireString(root, "version"); err != nil {
		return nil, parseErrorf("%v", err)
	}
	rawNodes, ok := root["nodes"]
	if !ok || !isJSONArray(rawNodes) {
		return nil, parseErrorf("nodes must be an array")
	}
	rawEdges, ok := root["edges"]
	if !ok || !isJSONArray(rawEdges) {
		return nil, parseErrorf("edges must be an array")
	}
	doc := document{}
	if raw, ok := root["metadata"]; ok {
		// Metadata is carried along but not part of structural validation.
		_ = json.Unmarshal(raw, &doc.Metadata)
	}
	var nodeObjs []map[string]json.RawMessage
	if err := json.Unmarshal(rawNodes, &nodeObjs); err != nil {
		return nil, parseErrorf("nodes must be an array of objects: %v", err)
	}
	for i, obj := range nodeObjs {
		id, err := requireString(obj, "id")
		if err != nil {
			return nil, parseErrorf("node %d: %v", i, err)
		}
		typ, err := requireString(obj, "type")
		if err != nil {
			return nil, parseErrorf("node %q: %v", id, err)
		}
		if !isJSONObject(obj["position"]) {
			return nil, parseErrorf("node %q: position must be an object", id)
		}
		if !isJSONObject(obj["data"]) {
			return nil, parseErrorf("node %q: data must be an object", id)
		}
		var pos Position
		if err := json.Unmarshal(obj["position"], &pos); err != nil {
			return nil, parseErrorf("node %q: malformed position: %v", id, err)
		}
		doc.Nodes = append(doc.Nodes, documentNode{ID: id, Type: typ, Position: pos, Data: obj["data"]})
	}
	var edgeObjs []map[string]json.RawMessage
	if err := json.Unmarshal(rawEdges, &edgeObjs); err != nil {
		return nil, parseErrorf("edges must be an array of objects: %v", err)
	}
	for i, obj := range edgeObjs {
		id, err := requireString(obj, "id")
		if err != nil {
			return nil, parseErrorf("edge %d: %v", i, err)
		}
		src, err := requireString(obj, "source")
		if err != nil {
			return nil, parseErrorf("edge %q: %v", id, err)
		}
		tgt, err := requireString(obj, "target")
		if err != nil {
			return nil, parseErrorf("edge %q: %v", id, err)
		}
		de := documentEdge{ID: id, Source: src, Target: tgt, Data: obj["data"]}
		// type and handles are optional strings on the wire.
		_ = json.Unmarshal(obj["type"], &de.Type)
		_ = json.Unmarshal(obj["sourceHandle"], &de.SourceHandle)
		_ = json.Unmarshal(obj["targetHandle"], &de.TargetHandle)
		doc.Edges = append(doc.Edges, de)
	}
	return decodeDocument(&doc, opts)
}

// DecodeBinary parses a msgpack diagram document produced by EncodeBinary.
func DecodeBinary(data []byte, opts ...Option) (*Graph, error) {
	var doc document
	if err := msgpack.Unmarshal(data, &doc); err != nil {
		return nil, parseErrorf("malformed binary document: %v", err)
	}
	return decodeDocument(&doc, opts)
}

func decodeDocument(doc *document, opts []Option) (*Graph, error) {
	g := New(opts...)
	g.Meta.Name = doc.Metadata.Name
	if t, err := time.Parse(time.RFC3339, doc.Metadata.CreatedAt); err == nil {
		g.Meta.CreatedAt = t
	}
	for i, dn := range doc.Nodes {
		if dn.ID == "" {
			return nil, parseErrorf("node %d: missing id", i)
		}
		if dn.Type == "" {
			return nil, parseErrorf("node %q: missing type", dn.ID)
		}
		if len(dn.Data) == 0 || !isJSONObject(dn.Data) {
			return nil, parseErrorf("node %q: data must be an object", dn.ID)
		}
		payload, err := decodeNodeData(NodeKind(dn.Type), dn.Data)
		if err != nil {
			return nil, parseErrorf("node %q: %v", dn.ID, err)
		}
		n := &Node{ID: dn.ID, Kind: NodeKind(dn.Type), Position: dn.Position, Data: payload}
		g.nodes = append(g.nodes, n)
		g.nodeIndex[n.ID] = n
	}
	for i, de := range doc.Edges {
		if de.ID == "" {
			return nil, parseErrorf("edge %d: missing id", i)
		}
		if de.Source == "" || de.Target == "" {
			return nil, parseErrorf("edge %q: missing source or target", de.ID)
		}
		payload, err := decodeEdgeData(EdgeKind(de.Type), de.Data)
		if err != nil {
			return nil, parseErrorf("edge %q: %v", de.ID, err)
		}
		e := &Edge{
			ID: de.ID, Kind: EdgeKind(de.Type),
			Source: de.Source, Target: de.Target,
			SourceHandle: de.SourceHandle, TargetHandle: de.TargetHandle,
			Data: payload,
		}
		g.edges = append(g.edges, e)
		g.edgeIndex[e.ID] = e
	}
	if err := g.validate(); err != nil {
		return nil, parseErrorf("%v", err)
	}
	return g, nil
}

func decodeNodeData(kind NodeKind, raw json.RawMessage) (NodeData, error) {
	var data NodeData
	switch kind {
	case KindEntity:
		data = &Entity{}
	case KindEmbeddable:
		data = &Embeddable{}
	case KindEnum:
		data = &Enum{}
	case KindInterface:
		data = &Interface{}
	default:
		return nil, fmt.Errorf("unknown node type %q", kind)
	}
	if err := json.Unmarshal(raw, data); err != nil {
		return nil, fmt.Errorf("malformed %s data: %v", kind, err)
	}
	return data, nil
}

func decodeEdgeData(kind EdgeKind, raw json.RawMessage) (EdgeData, error) {
	switch kind {
	case KindRelationship:
		r := &Relationship{}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, r); err != nil {
				return nil, fmt.Errorf("malformed relationship data: %v", err)
			}
		}
		return r, nil
	case KindEnumMapping:
		var dm docEnumMapping
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &dm); err != nil {
				return nil, fmt.Errorf("malformed enum-mapping data: %v", err)
			}
		}
		m := &EnumMapping{PreviousType: dm.PreviousType}
		if dm.PropertyID != nil {
			m.PropertyID = *dm.PropertyID
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown edge type %q", kind)
	}
}

func requireString(obj map[string]json.RawMessage, key string) (string, error) {
	raw, ok := obj[key]
	if !ok {
		return "", fmt.Errorf("%s must be a string", key)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%s must be a string", key)
	}
	return s, nil
}

func isJSONArray(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && t[0] == '['
}

func isJSONObject(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && t[0] == '{'
}
