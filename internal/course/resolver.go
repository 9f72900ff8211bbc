package course

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Export is one top-level key of a course definition file.
type Export struct {
	Name  string
	Value *yaml.Node
}

// Strategy picks the export holding the course definition, if it can.
type Strategy interface {
	Name() string
	Pick(unitID string, exports []Export) (Export, bool)
}

// MissingExportError is returned when no strategy finds a course export.
type MissingExportError struct {
	Unit  string
	Tried []string
}

func (e *MissingExportError) Error() string {
	return fmt.Sprintf("course unit %q has no course export (tried: %s)", e.Unit, strings.Join(e.Tried, ", "))
}

// Resolver runs its strategies in order; the first match wins.
type Resolver struct {
	strategies []Strategy
}

// NewResolver builds a resolver from an explicit strategy list.
func NewResolver(strategies ...Strategy) *Resolver {
	return &Resolver{strategies: strategies}
}

// DefaultResolver tries the camel-cased unit id, then "default", then the
// first export shaped like a course.
func DefaultResolver() *Resolver {
	return NewResolver(CamelCaseExport{}, DefaultExport{}, StructuralExport{})
}

// Resolve returns the chosen export and the name of the strategy that chose it.
func (r *Resolver) Resolve(unitID string, exports []Export) (Export, string, error) {
	tried := make([]string, 0, len(r.strategies))
	for _, s := range r.strategies {
		if exp, ok := s.Pick(unitID, exports); ok {
			return exp, s.Name(), nil
		}
		tried = append(tried, s.Name())
	}
	return Export{}, "", &MissingExportError{Unit: unitID, Tried: tried}
}

// CamelCaseExport matches the export named after the unit id in camel case
// ("intro-to-ai" -> "introToAi").
type CamelCaseExport struct{}

func (CamelCaseExport) Name() string { return "camel-case" }

func (CamelCaseExport) Pick(unitID string, exports []Export) (Export, bool) {
	want := CamelCase(unitID)
	for _, e := range exports {
		if e.Name == want && e.Value.Kind == yaml.MappingNode {
			return e, true
		}
	}
	return Export{}, false
}

// DefaultExport matches the export named "default".
type DefaultExport struct{}

func (DefaultExport) Name() string { return "default" }

func (DefaultExport) Pick(_ string, exports []Export) (Export, bool) {
	for _, e := range exports {
		if e.Name == "default" && e.Value.Kind == yaml.MappingNode {
			return e, true
		}
	}
	return Export{}, false
}

// StructuralExport matches the first export that has a scalar id and a
// modules list.
type StructuralExport struct{}

func (StructuralExport) Name() string { return "structural" }

func (StructuralExport) Pick(_ string, exports []Export) (Export, bool) {
	for _, e := range exports {
		if looksLikeCourse(e.Value) {
			return e, true
		}
	}
	return Export{}, false
}

func looksLikeCourse(n *yaml.Node) bool {
	if n == nil || n.Kind != yaml.MappingNode {
		return false
	}
	var hasID, hasModules bool
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i].Value, n.Content[i+1]
		switch key {
		case "id":
			hasID = val.Kind == yaml.ScalarNode && val.Value != ""
		case "modules":
			hasModules = val.Kind == yaml.SequenceNode
		}
	}
	return hasID && hasModules
}

// CamelCase converts a unit id such as "intro-to-ai" or "data_science 101"
// to "introToAi" / "dataScience101". The first segment keeps its case.
func CamelCase(id string) string {
	parts := strings.FieldsFunc(id, func(r rune) bool {
		return r == '-' || r == '_' || unicode.IsSpace(r)
	})
	if len(parts) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(parts[0])
	for _, p := range parts[1:] {
		r, size := utf8.DecodeRuneInString(p)
		sb.WriteRune(unicode.ToUpper(r))
		sb.WriteString(p[size:])
	}
	return sb.String()
}

// exportsOf lists the top-level keys of a parsed definition file in
// document order.
func exportsOf(doc *yaml.Node) ([]Export, error) {
	root := doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return nil, nil
		}
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("definition must be a mapping of exports, got %s", kindName(root.Kind))
	}

	exports := make([]Export, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		exports = append(exports, Export{Name: root.Content[i].Value, Value: root.Content[i+1]})
	}
	return exports, nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}
