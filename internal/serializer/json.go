package serializer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/zjrosen/svcreg/internal/service"
)

// JSONSerializer reads and writes regex service definitions as JSON.
// A file may hold a single definition object or an array of them.
type JSONSerializer struct{}

var _ Serializer = (*JSONSerializer)(nil)

// NewJSON creates a JSON serializer.
func NewJSON() *JSONSerializer { return &JSONSerializer{} }

func (s *JSONSerializer) Supports(path string) bool {
	return strings.HasSuffix(path, ".json")
}

func (s *JSONSerializer) Load(r io.Reader) ([]service.Definition, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading definition stream: %w", err)
	}

	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var defs []*service.RegexDefinition
		if err := json.Unmarshal(data, &defs); err != nil {
			return nil, fmt.Errorf("decoding definition list: %w", err)
		}
		out := make([]service.Definition, 0, len(defs))
		for _, d := range defs {
			out = append(out, d)
		}
		return out, nil
	}

	var def service.RegexDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("decoding definition: %w", err)
	}
	return []service.Definition{&def}, nil
}

func (s *JSONSerializer) Write(w io.Writer, def service.Definition) error {
	concrete, ok := def.(*service.RegexDefinition)
	if !ok {
		return ErrUnsupported
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(concrete); err != nil {
		return fmt.Errorf("encoding definition: %w", err)
	}
	return nil
}
