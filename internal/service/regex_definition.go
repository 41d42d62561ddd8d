package service

import (
	"regexp"
	"strings"
)

// RegexDefinition is a service definition whose service identifier is
// a regular expression matched against incoming service URLs.
type RegexDefinition struct {
	DefinitionID    int64  `json:"id" yaml:"id"`
	ServiceName     string `json:"name" yaml:"name"`
	Pattern         string `json:"service_id" yaml:"service_id"`
	Description     string `json:"description,omitempty" yaml:"description,omitempty"`
	EvaluationOrder int    `json:"evaluation_order,omitempty" yaml:"evaluation_order,omitempty"`
}

var _ Definition = (*RegexDefinition)(nil)

// NewRegexDefinition creates a definition with an unassigned id.
func NewRegexDefinition(name, pattern string) *RegexDefinition {
	return &RegexDefinition{
		DefinitionID: UnassignedID,
		ServiceName:  name,
		Pattern:      pattern,
	}
}

func (d *RegexDefinition) ID() int64 { return d.DefinitionID }

func (d *RegexDefinition) SetID(id int64) { d.DefinitionID = id }

func (d *RegexDefinition) Name() string { return d.ServiceName }

// Matches reports whether serviceID matches the definition's pattern.
// An invalid pattern never matches.
func (d *RegexDefinition) Matches(serviceID string) bool {
	if d.Pattern == "" {
		return false
	}
	re, err := regexp.Compile(d.Pattern)
	if err != nil {
		return false
	}
	return re.MatchString(serviceID)
}

// Compare orders by evaluation order, then name, then id.
func (d *RegexDefinition) Compare(other Definition) int {
	if o, ok := other.(*RegexDefinition); ok && d.EvaluationOrder != o.EvaluationOrder {
		if d.EvaluationOrder < o.EvaluationOrder {
			return -1
		}
		return 1
	}
	if c := strings.Compare(d.ServiceName, other.Name()); c != 0 {
		return c
	}
	switch {
	case d.DefinitionID < other.ID():
		return -1
	case d.DefinitionID > other.ID():
		return 1
	}
	return 0
}
