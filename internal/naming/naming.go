// Package naming derives and parses canonical service definition file
// names of the form <name>-<id>.<extension>.
package naming

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/zjrosen/svcreg/internal/service"
)

// fileNamePattern is the recommended basename shape: word characters,
// a dash, the numeric id, then the extension.
const fileNamePattern = `(\w+)-(\d+)\.`

// Scheme builds and parses canonical file names for one extension.
type Scheme struct {
	ext     string
	pattern *regexp.Regexp
}

// New creates a scheme for the given extension (without the dot).
func New(ext string) *Scheme {
	ext = strings.TrimPrefix(ext, ".")
	return &Scheme{
		ext:     ext,
		pattern: regexp.MustCompile(fileNamePattern + regexp.QuoteMeta(ext) + `$`),
	}
}

// Extension returns the extension this scheme filters on, without the dot.
func (s *Scheme) Extension() string { return s.ext }

// Pattern returns the recommended basename pattern, for log messages.
func (s *Scheme) Pattern() string { return s.pattern.String() }

// FileName builds the canonical basename for a definition.
// Spaces in the name are removed so the basename stays a single token.
func (s *Scheme) FileName(def service.Definition) string {
	name := strings.ReplaceAll(def.Name(), " ", "")
	return fmt.Sprintf("%s-%d.%s", name, def.ID(), s.ext)
}

// Parse extracts the name and id from a basename. ok is false when the
// basename does not follow the recommended pattern; such files are
// still load candidates, just not resolvable by name.
func (s *Scheme) Parse(baseName string) (name string, id int64, ok bool) {
	m := s.pattern.FindStringSubmatch(baseName)
	if m == nil {
		return "", 0, false
	}
	id, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return m[1], id, true
}

// Matches reports whether the basename carries the scheme's extension.
// Directory scans use this to filter candidates before any parsing.
func (s *Scheme) Matches(baseName string) bool {
	return strings.HasSuffix(baseName, "."+s.ext)
}
