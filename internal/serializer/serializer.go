// Package serializer defines the pluggable encode/decode capability
// for service definitions. Multiple serializers may be registered;
// the registry tries each until one claims support for a file.
package serializer

import (
	"errors"
	"io"

	"github.com/zjrosen/svcreg/internal/service"
)

// Serialization errors
var (
	ErrUnsupported = errors.New("serializer does not support this file")
)

// Serializer converts service definitions to and from byte streams.
type Serializer interface {
	// Supports reports whether this serializer claims the given file,
	// typically by extension.
	Supports(path string) bool

	// Load decodes zero or more definitions from the stream.
	Load(r io.Reader) ([]service.Definition, error)

	// Write encodes one definition onto the stream.
	Write(w io.Writer, def service.Definition) error
}
