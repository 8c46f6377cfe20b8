package grapher

import (
	"golang.org/x/exp/slices"
	"gonum.org/v1/plot/plotter"
)

// EmpiricalCDF sorts a copy of samples and pairs each sorted value with the
// fraction of samples strictly before it, i/n. The last point is therefore
// (max, (n-1)/n). samples is not modified.
func EmpiricalCDF(samples []float64) plotter.XYs {
	sorted := slices.Clone(samples)
	slices.Sort(sorted)

	n := float64(len(sorted))
	xys := make(plotter.XYs, len(sorted))
	for i, x := range sorted {
		xys[i].X = x
		xys[i].Y = float64(i) / n
	}

	return xys
}
