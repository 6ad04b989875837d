package load

import (
	"io"
	"os"

	"github.com/syssam/erdkit/diagram"
)

// JSON decodes a diagram document from r. Any structural violation in
// the document fails the whole import with a *diagram.ParseError; there
// is no partial result for JSON input.
func JSON(r io.Reader, opts ...diagram.Option) (*diagram.Graph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return diagram.DecodeJSON(data, opts...)
}

// JSONFile decodes a diagram document from the file at path.
func JSONFile(path string, opts ...diagram.Option) (*diagram.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return diagram.DecodeJSON(data, opts...)
}

// Binary decodes a msgpack-encoded diagram document from r.
func Binary(r io.Reader, opts ...diagram.Option) (*diagram.Graph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return diagram.DecodeBinary(data, opts...)
}
