package grapher

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

var ErrInvalidSpec = errors.New("invalid chart spec")

// Selects the rendering profile.
type ChartKind string

const (
	// Empirical CDF of the first column of each file.
	KindCDF ChartKind = "cdf"

	// Column 0 against column 1 of each file, with optional shaded ranges.
	KindLine ChartKind = "line"
)

func (k ChartKind) Valid() bool {
	return k == KindCDF || k == KindLine
}

// A data file and its legend label.
type Series struct {
	Path  string
	Label string
}

// A vertical marker at X.
type Marker struct {
	X     float64
	Label string
}

// A shaded x interval. Nothing is drawn when X1 > X2.
type Span struct {
	X1 float64
	X2 float64
}

// Markers grouped by color: every marker in a group shares one color, and
// each group takes the next color of the cycle.
type MarkerGroups [][]Marker

// Shaded spans grouped by color, like MarkerGroups.
type SpanGroups [][]Span

// ChartSpec carries everything needed to render one chart. The yaml keys are
// the names used by chart documents and match across both kinds.
type ChartSpec struct {
	Kind    ChartKind    `yaml:"kind"`
	Series  []Series     `yaml:"files_and_labels"`
	Markers MarkerGroups `yaml:"lines_and_labels"`
	Ranges  SpanGroups   `yaml:"ranges"`
	Title   string       `yaml:"title"`
	XLabel  string       `yaml:"xlabel"`
	YLabel  string       `yaml:"ylabel"`

	// Output size in inches. Zero means DefaultWidth/DefaultHeight.
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Checks the structure of the spec only. Data files, numeric ranges, label
// uniqueness and span ordering are not checked.
func (s ChartSpec) Validate() error {
	if !s.Kind.Valid() {
		return fmt.Errorf("%w: unknown chart kind %q (want %q or %q)", ErrInvalidSpec, s.Kind, KindCDF, KindLine)
	}

	if s.Kind == KindCDF && len(s.Ranges) > 0 {
		return fmt.Errorf("%w: ranges are only supported by %q charts", ErrInvalidSpec, KindLine)
	}

	if s.Width < 0 || s.Height < 0 {
		return fmt.Errorf("%w: negative chart size %vx%v", ErrInvalidSpec, s.Width, s.Height)
	}

	for i, series := range s.Series {
		if series.Path == "" {
			return fmt.Errorf("%w: series %d has no path", ErrInvalidSpec, i)
		}
	}

	return nil
}

// Accepts [path, label] or {path: ..., label: ...}.
func (s *Series) UnmarshalYAML(node *yaml.Node) error {
	first, second, err := decodePair(node, "path", "label")
	if err != nil {
		return err
	}

	if err := first.Decode(&s.Path); err != nil {
		return err
	}
	return second.Decode(&s.Label)
}

// Accepts [x, label] or {x: ..., label: ...}.
func (m *Marker) UnmarshalYAML(node *yaml.Node) error {
	first, second, err := decodePair(node, "x", "label")
	if err != nil {
		return err
	}

	if err := first.Decode(&m.X); err != nil {
		return err
	}
	return second.Decode(&m.Label)
}

// Accepts [x1, x2] or {x1: ..., x2: ...}.
func (s *Span) UnmarshalYAML(node *yaml.Node) error {
	first, second, err := decodePair(node, "x1", "x2")
	if err != nil {
		return err
	}

	if err := first.Decode(&s.X1); err != nil {
		return err
	}
	return second.Decode(&s.X2)
}

// Markers come in two shapes: a flat list of [x, label] pairs, where each
// marker gets its own color, or a list of groups of such pairs. The shape is
// decided per element, so a flat marker becomes a group of one.
func (g *MarkerGroups) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: markers must be a list, got %s", node.Line, nodeKindName(node))
	}

	groups := make(MarkerGroups, 0, len(node.Content))
	for _, elem := range node.Content {
		if isGroupNode(elem) {
			var group []Marker
			if err := elem.Decode(&group); err != nil {
				return err
			}
			groups = append(groups, group)
			continue
		}

		var marker Marker
		if err := elem.Decode(&marker); err != nil {
			return err
		}
		groups = append(groups, []Marker{marker})
	}

	*g = groups
	return nil
}

// A sequence whose elements are themselves pairs (or an empty sequence) is a
// group; a sequence of scalars is a single pair.
func isGroupNode(node *yaml.Node) bool {
	if node.Kind != yaml.SequenceNode {
		return false
	}
	if len(node.Content) == 0 {
		return true
	}
	kind := node.Content[0].Kind
	return kind == yaml.SequenceNode || kind == yaml.MappingNode
}

func decodePair(node *yaml.Node, firstKey, secondKey string) (*yaml.Node, *yaml.Node, error) {
	switch node.Kind {
	case yaml.SequenceNode:
		if len(node.Content) != 2 {
			return nil, nil, fmt.Errorf("line %d: expected [%s, %s], got %d elements", node.Line, firstKey, secondKey, len(node.Content))
		}
		return node.Content[0], node.Content[1], nil
	case yaml.MappingNode:
		var first, second *yaml.Node
		for i := 0; i+1 < len(node.Content); i += 2 {
			switch node.Content[i].Value {
			case firstKey:
				first = node.Content[i+1]
			case secondKey:
				second = node.Content[i+1]
			}
		}
		if first == nil || second == nil {
			return nil, nil, fmt.Errorf("line %d: expected keys %q and %q", node.Line, firstKey, secondKey)
		}
		return first, second, nil
	default:
		return nil, nil, fmt.Errorf("line %d: expected [%s, %s], got %s", node.Line, firstKey, secondKey, nodeKindName(node))
	}
}

func nodeKindName(node *yaml.Node) string {
	switch node.Kind {
	case yaml.ScalarNode:
		return "scalar"
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "list"
	case yaml.AliasNode:
		return "alias"
	default:
		return "document"
	}
}
