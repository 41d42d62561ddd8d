package serializer

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/svcreg/internal/service"
)

// YAMLSerializer reads and writes regex service definitions as YAML.
// A file may hold a single definition document or a sequence of them.
type YAMLSerializer struct{}

var _ Serializer = (*YAMLSerializer)(nil)

// NewYAML creates a YAML serializer.
func NewYAML() *YAMLSerializer { return &YAMLSerializer{} }

func (s *YAMLSerializer) Supports(path string) bool {
	return strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml")
}

func (s *YAMLSerializer) Load(r io.Reader) ([]service.Definition, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading definition stream: %w", err)
	}

	var defs []*service.RegexDefinition
	if err := yaml.Unmarshal(data, &defs); err == nil {
		out := make([]service.Definition, 0, len(defs))
		for _, d := range defs {
			out = append(out, d)
		}
		return out, nil
	}

	var def service.RegexDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("decoding definition: %w", err)
	}
	return []service.Definition{&def}, nil
}

func (s *YAMLSerializer) Write(w io.Writer, def service.Definition) error {
	concrete, ok := def.(*service.RegexDefinition)
	if !ok {
		return ErrUnsupported
	}
	data, err := yaml.Marshal(concrete)
	if err != nil {
		return fmt.Errorf("encoding definition: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing definition: %w", err)
	}
	return nil
}
