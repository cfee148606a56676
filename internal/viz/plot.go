package viz

import (
	"math"

	"github.com/guptarohit/asciigraph"
)

// Plot draws one series as an asciigraph chart. Series longer than width
// are averaged down into width buckets and NaNs are dropped.
func Plot(values []float64, caption string, width, height int) string {
	data := Downsample(dropNaN(values), width)
	if len(data) == 0 {
		return ""
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(1),
		asciigraph.Caption(caption),
	)
}

// PlotMany overlays several series in distinct colors.
func PlotMany(series [][]float64, caption string, width, height int) string {
	data := make([][]float64, 0, len(series))
	for _, s := range series {
		if d := Downsample(dropNaN(s), width); len(d) > 0 {
			data = append(data, d)
		}
	}
	if len(data) == 0 {
		return ""
	}
	return asciigraph.PlotMany(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(1),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(asciigraph.Cyan, asciigraph.Yellow, asciigraph.Red, asciigraph.Green),
	)
}

// Downsample averages values into at most n buckets.
func Downsample(values []float64, n int) []float64 {
	if n <= 0 || len(values) <= n {
		return values
	}
	out := make([]float64, n)
	bucket := float64(len(values)) / float64(n)
	for i := range out {
		lo := int(float64(i) * bucket)
		hi := int(float64(i+1) * bucket)
		if hi > len(values) {
			hi = len(values)
		}
		sum := 0.0
		for _, v := range values[lo:hi] {
			sum += v
		}
		out[i] = sum / float64(hi-lo)
	}
	return out
}

func dropNaN(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}
