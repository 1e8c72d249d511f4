package swath

import (
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// TrendBin is one depth bin of the coverage trend: the bin's center depth
// and the mean absolute across-track half-width of the soundings that fell
// into it.
type TrendBin struct {
	CenterDepth  float64 `json:"center_depth"`
	MeanAbsWidth float64 `json:"mean_abs_width"`
	Count        int     `json:"count"`
}

// ComputeTrend buckets filtered soundings into binCount equal-width depth
// bins over [min(z), max(z)] and returns the mean |y| per non-empty bin.
// Bin edges follow digitize semantics: a bin owns (lower, upper], except
// the first, which also owns its lower edge. The trend is one-sided
// (half-swath); display layers mirror it to negative y.
func ComputeTrend(z, y []float64, binCount int) []TrendBin {
	if binCount < 1 {
		binCount = 1
	}

	var zs, ys []float64
	for i := range z {
		if finite(z[i]) && finite(y[i]) {
			zs = append(zs, z[i])
			ys = append(ys, math.Abs(y[i]))
		}
	}
	if len(zs) == 0 {
		return nil
	}

	zmin, zmax := floats.Min(zs), floats.Max(zs)
	if zmin == zmax {
		// Degenerate span: everything lands in a single bin.
		return []TrendBin{{
			CenterDepth:  zmin,
			MeanAbsWidth: stat.Mean(ys, nil),
			Count:        len(ys),
		}}
	}

	edges := make([]float64, binCount+1)
	floats.Span(edges, zmin, zmax)
	width := (zmax - zmin) / float64(binCount)

	buckets := make([][]float64, binCount)
	for i, zv := range zs {
		bin := 0
		for j := 1; j <= binCount; j++ {
			if zv <= edges[j] {
				bin = j - 1
				break
			}
		}
		buckets[bin] = append(buckets[bin], ys[i])
	}

	var bins []TrendBin
	for i, b := range buckets {
		if len(b) == 0 {
			continue
		}
		bins = append(bins, TrendBin{
			CenterDepth:  edges[i] + width/2,
			MeanAbsWidth: stat.Mean(b, nil),
			Count:        len(b),
		})
	}
	return bins
}

// WriteTrendExport writes the water-depth-multiple table consumed by
// acquisition planning tools: one "depth nwd" row per bin, where nwd is
// 2*width/depth, bracketed by the sentinel rows "0 5" and "10000 0".
func WriteTrendExport(w io.Writer, bins []TrendBin) error {
	if _, err := fmt.Fprintln(w, "0 5"); err != nil {
		return err
	}
	for _, b := range bins {
		nwd := 0.0
		if b.CenterDepth > 0 {
			nwd = 2 * b.MeanAbsWidth / b.CenterDepth
		}
		if _, err := fmt.Fprintf(w, "%.2f %.3f\n", b.CenterDepth, nwd); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, "10000 0"); err != nil {
		return err
	}
	return nil
}
