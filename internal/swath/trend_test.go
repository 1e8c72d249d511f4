package swath

import (
	"bytes"
	"math"
	"strings"
	"testing"
)

func TestComputeTrendConstantWidth(t *testing.T) {
	// z uniform over [0, 1000], y constant 100: every bin means 100.
	var z, y []float64
	for i := 0; i <= 1000; i++ {
		z = append(z, float64(i))
		y = append(y, 100)
	}
	bins := ComputeTrend(z, y, 10)
	if len(bins) != 10 {
		t.Fatalf("got %d bins, want 10", len(bins))
	}
	for _, b := range bins {
		if b.MeanAbsWidth != 100 {
			t.Errorf("bin at %v: mean width %v, want 100", b.CenterDepth, b.MeanAbsWidth)
		}
	}
	if bins[0].CenterDepth != 50 || bins[9].CenterDepth != 950 {
		t.Errorf("bin centers %v and %v, want 50 and 950", bins[0].CenterDepth, bins[9].CenterDepth)
	}
}

func TestComputeTrendUsesAbsoluteWidth(t *testing.T) {
	// Port widths are negative; the trend is one-sided.
	z := []float64{10, 10, 10, 10}
	y := []float64{-80, 80, -120, 120}
	bins := ComputeTrend(z, y, 10)
	if len(bins) != 1 {
		t.Fatalf("got %d bins, want 1", len(bins))
	}
	if bins[0].MeanAbsWidth != 100 {
		t.Errorf("mean |y| = %v, want 100", bins[0].MeanAbsWidth)
	}
	if bins[0].Count != 4 {
		t.Errorf("count = %d, want 4", bins[0].Count)
	}
}

func TestComputeTrendSkipsUndefined(t *testing.T) {
	z := []float64{5, math.NaN(), 15}
	y := []float64{50, 60, math.NaN()}
	bins := ComputeTrend(z, y, 10)
	total := 0
	for _, b := range bins {
		total += b.Count
	}
	if total != 1 {
		t.Errorf("only the finite pair should be bucketed, got %d", total)
	}
}

func TestComputeTrendEmptyAndDegenerate(t *testing.T) {
	if bins := ComputeTrend(nil, nil, 10); bins != nil {
		t.Errorf("empty input should yield no bins, got %v", bins)
	}
	// All soundings at one depth collapse to a single bin.
	bins := ComputeTrend([]float64{30, 30, 30}, []float64{90, 100, 110}, 10)
	if len(bins) != 1 {
		t.Fatalf("got %d bins, want 1", len(bins))
	}
	if bins[0].CenterDepth != 30 || bins[0].MeanAbsWidth != 100 {
		t.Errorf("got center %v width %v, want 30 and 100", bins[0].CenterDepth, bins[0].MeanAbsWidth)
	}
}

func TestWriteTrendExport(t *testing.T) {
	bins := []TrendBin{
		{CenterDepth: 50, MeanAbsWidth: 100, Count: 4},
		{CenterDepth: 100, MeanAbsWidth: 150, Count: 2},
	}
	var buf bytes.Buffer
	if err := WriteTrendExport(&buf, bins); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := []string{"0 5", "50.00 4.000", "100.00 3.000", "10000 0"}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d: %q", len(lines), len(want), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}
