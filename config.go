package grapher

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Reads a chart document. JSON documents work too since they are valid YAML.
// Unknown keys are rejected so that typos in token names do not silently
// drop a part of the chart.
func ParseChartSpec(input io.Reader) (ChartSpec, error) {
	var spec ChartSpec

	decoder := yaml.NewDecoder(input)
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		if errors.Is(err, io.EOF) {
			return ChartSpec{}, fmt.Errorf("%w: empty document", ErrInvalidSpec)
		}
		return ChartSpec{}, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}

	return spec, nil
}

// Loads the chart document at path. Relative series paths are resolved
// against the directory containing the document.
func LoadChartSpec(path string) (ChartSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ChartSpec{}, err
	}

	spec, err := ParseChartSpec(bytes.NewReader(data))
	if err != nil {
		return ChartSpec{}, fmt.Errorf("%s: %w", path, err)
	}

	dir := filepath.Dir(path)
	for i, series := range spec.Series {
		if series.Path != "" && !filepath.IsAbs(series.Path) {
			spec.Series[i].Path = filepath.Join(dir, series.Path)
		}
	}

	return spec, nil
}

// Parses "path=label". Without a label, the file name is used.
func ParseSeriesFlag(value string) (Series, error) {
	path, label, found := strings.Cut(value, "=")
	if path == "" {
		return Series{}, fmt.Errorf("%w: series %q has no path", ErrInvalidSpec, value)
	}

	if !found {
		label = filepath.Base(path)
	}

	return Series{Path: path, Label: label}, nil
}

// Parses "x=label".
func ParseMarkerFlag(value string) (Marker, error) {
	x, label, _ := strings.Cut(value, "=")
	pos, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
	if err != nil {
		return Marker{}, fmt.Errorf("%w: marker %q: %v", ErrInvalidSpec, value, err)
	}

	return Marker{X: pos, Label: label}, nil
}

// Parses "x=label,x=label" into one color group.
func ParseMarkerGroupFlag(value string) ([]Marker, error) {
	group := []Marker{}
	for _, part := range strings.Split(value, ",") {
		marker, err := ParseMarkerFlag(part)
		if err != nil {
			return nil, err
		}
		group = append(group, marker)
	}

	return group, nil
}

// Parses "x1:x2,x1:x2" into one color group.
func ParseSpanGroupFlag(value string) ([]Span, error) {
	group := []Span{}
	for _, part := range strings.Split(value, ",") {
		first, second, found := strings.Cut(part, ":")
		if !found {
			return nil, fmt.Errorf("%w: range %q: expected x1:x2", ErrInvalidSpec, part)
		}

		x1, err := strconv.ParseFloat(strings.TrimSpace(first), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: range %q: %v", ErrInvalidSpec, part, err)
		}

		x2, err := strconv.ParseFloat(strings.TrimSpace(second), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: range %q: %v", ErrInvalidSpec, part, err)
		}

		group = append(group, Span{X1: x1, X2: x2})
	}

	return group, nil
}
