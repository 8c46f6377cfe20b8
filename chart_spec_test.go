package grapher

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func TestChartSpecValidate(t *testing.T) {
	cases := []struct {
		name    string
		spec    ChartSpec
		wantErr bool
	}{
		{"cdf", ChartSpec{Kind: KindCDF}, false},
		{"line with ranges", ChartSpec{Kind: KindLine, Ranges: SpanGroups{{{X1: 1, X2: 2}}}}, false},
		{"inverted range is allowed", ChartSpec{Kind: KindLine, Ranges: SpanGroups{{{X1: 2, X2: 1}}}}, false},
		{"empty kind", ChartSpec{}, true},
		{"unknown kind", ChartSpec{Kind: "bar"}, true},
		{"cdf with ranges", ChartSpec{Kind: KindCDF, Ranges: SpanGroups{{{X1: 1, X2: 2}}}}, true},
		{"negative size", ChartSpec{Kind: KindCDF, Width: -1}, true},
		{"series without path", ChartSpec{Kind: KindCDF, Series: []Series{{Label: "a"}}}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.spec.Validate()
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidSpec) {
					t.Fatalf("expected ErrInvalidSpec, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestMarkerGroupsUnmarshal(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want MarkerGroups
	}{
		{
			name: "flat list gives one group per marker",
			doc:  `[[1, "p50"], [2.5, "p99"]]`,
			want: MarkerGroups{{{X: 1, Label: "p50"}}, {{X: 2.5, Label: "p99"}}},
		},
		{
			name: "nested list keeps groups",
			doc:  `[[[1, "a"], [2, "b"]], [[3, "c"]]]`,
			want: MarkerGroups{{{X: 1, Label: "a"}, {X: 2, Label: "b"}}, {{X: 3, Label: "c"}}},
		},
		{
			name: "empty group",
			doc:  `[[], [[3, "c"]]]`,
			want: MarkerGroups{{}, {{X: 3, Label: "c"}}},
		},
		{
			name: "mapping form",
			doc:  "- x: 4\n  label: start\n- - {x: 5, label: a}\n  - {x: 6, label: b}\n",
			want: MarkerGroups{{{X: 4, Label: "start"}}, {{X: 5, Label: "a"}, {X: 6, Label: "b"}}},
		},
		{
			name: "empty list",
			doc:  `[]`,
			want: MarkerGroups{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got MarkerGroups
			if err := yaml.Unmarshal([]byte(tc.doc), &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("unexpected groups (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("errors", func(t *testing.T) {
		for _, doc := range []string{
			`5`,
			`[[1, "a", "extra"]]`,
			`[["x", "a"]]`,
			`[{x: 1}]`,
		} {
			var got MarkerGroups
			if err := yaml.Unmarshal([]byte(doc), &got); err == nil {
				t.Errorf("expected error for %s, got %v", doc, got)
			}
		}
	})
}

func TestSeriesAndSpanUnmarshal(t *testing.T) {
	var spec struct {
		Series []Series    `yaml:"series"`
		Ranges SpanGroups `yaml:"ranges"`
	}

	doc := strings.Join([]string{
		`series: [["a.txt", "A"], {path: b.txt, label: "it's B"}]`,
		`ranges: [[[1, 2], [5, 3]], [{x1: 7, x2: 8}]]`,
	}, "\n")

	if err := yaml.Unmarshal([]byte(doc), &spec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	wantSeries := []Series{{Path: "a.txt", Label: "A"}, {Path: "b.txt", Label: "it's B"}}
	if diff := cmp.Diff(wantSeries, spec.Series); diff != "" {
		t.Fatalf("unexpected series (-want +got):\n%s", diff)
	}

	wantRanges := SpanGroups{{{X1: 1, X2: 2}, {X1: 5, X2: 3}}, {{X1: 7, X2: 8}}}
	if diff := cmp.Diff(wantRanges, spec.Ranges); diff != "" {
		t.Fatalf("unexpected ranges (-want +got):\n%s", diff)
	}
}
