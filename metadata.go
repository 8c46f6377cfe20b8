package grapher

type ChartOptions struct {
	Kind   ChartKind
	Title  string
	XLabel string
	YLabel string
}

// Sent to browser clients before any curve data. Elements lists every drawn
// element in draw order; DATA messages refer to series by their index among
// the series elements.
type Metadata struct {
	Width        float64
	Height       float64
	ChartOptions ChartOptions
	Elements     []Element
}

func NewMetadata(chart *Chart) Metadata {
	width, height := chart.Inches()

	return Metadata{
		Width:  width,
		Height: height,
		ChartOptions: ChartOptions{
			Kind:   chart.Spec.Kind,
			Title:  chart.Spec.Title,
			XLabel: chart.Spec.XLabel,
			YLabel: chart.Spec.YLabel,
		},
		Elements: chart.Elements(),
	}
}
