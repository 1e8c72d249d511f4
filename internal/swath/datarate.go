package swath

import (
	"math"
	"sort"

	"github.com/hydroscan-data/coverage.report/internal/config"
	"github.com/hydroscan-data/coverage.report/internal/units"
)

// CycleRole classifies a ping within its dual-swath cycle.
type CycleRole string

const (
	RoleFirst  CycleRole = "first"
	RoleSecond CycleRole = "second"
)

// DataRateSample is one point of the reconstructed data-rate series. Rates
// are NaN for second-swath pings (their bytes are folded into the cycle's
// first swath) and for pings with undefined timing; intervals outside the
// accepted range are NaN.
type DataRateSample struct {
	Timestamp float64   `json:"timestamp"`
	RateMBph  float64   `json:"rate_mbph"`
	TotalMBph float64   `json:"total_mbph"`
	IntervalS float64   `json:"interval_s"`
	Role      CycleRole `json:"role"`
}

// AnalyzeRates reconstructs the data-rate and ping-interval series for a
// table. Dual-swath acquisition emits two closely spaced swaths per ping
// cycle; their bytes and time deltas are folded into one sample per cycle
// so the short intra-cycle gap never shows up as a rate spike.
func AnalyzeRates(t *DetectionTable, cfg *config.AnalysisConfig) ([]DataRateSample, error) {
	n := t.Len()
	ts := make([]float64, n)
	bytes := make([]float64, n)
	wcRatio := make([]float64, n)
	swaths := make([]int, n)
	for i, r := range t.records {
		ts[i] = r.Timestamp
		bytes[i] = float64(r.BytesSinceLastPing)
		wcRatio[i] = r.WCRatio()
		swaths[i] = r.SwathsPerPing
	}
	return computeRates(ts, bytes, wcRatio, swaths, cfg)
}

func computeRates(ts, bytes, wcRatio []float64, swaths []int, cfg *config.AnalysisConfig) ([]DataRateSample, error) {
	n := len(ts)
	if n == 0 {
		return nil, ErrNoValidTimingData
	}

	ts, err := repairTimestamps(ts)
	if err != nil {
		return nil, err
	}

	// Sort all series by timestamp.
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return ts[order[a]] < ts[order[b]] })
	st := make([]float64, n)
	sb := make([]float64, n)
	sw := make([]float64, n)
	ss := make([]int, n)
	for i, idx := range order {
		st[i] = ts[idx]
		sb[i] = bytes[idx]
		sw[i] = wcRatio[idx]
		ss[i] = swaths[idx]
	}

	dt := make([]float64, n)
	dt[0] = math.NaN()
	for i := 1; i < n; i++ {
		dt[i] = st[i] - st[i-1]
	}

	second := classifySecondSwath(dt, ss, cfg.GetDualSwathRatio())

	// Fold each second swath backward into its cycle's first swath.
	cycleBytes := append([]float64(nil), sb...)
	cycleTime := append([]float64(nil), dt...)
	for i := 0; i+1 < n; i++ {
		if second[i+1] {
			cycleBytes[i] += sb[i+1]
			cycleTime[i] += dt[i+1]
		}
	}

	minIv, maxIv := cfg.GetMinPingIntervalS(), cfg.GetMaxPingIntervalS()
	rawRate := make([]float64, n)
	rawTotal := make([]float64, n)
	intervals := make([]float64, n)
	for i := 0; i < n; i++ {
		if second[i] {
			rawRate[i] = math.NaN()
		} else {
			rawRate[i] = units.BytesToMBPerHour(cycleBytes[i], cycleTime[i])
		}
		rawTotal[i] = rawRate[i]
		if !math.IsNaN(rawRate[i]) && !math.IsNaN(sw[i]) {
			rawTotal[i] = rawRate[i] * (1 + sw[i])
		}
		if math.IsNaN(dt[i]) || dt[i] < minIv || dt[i] > maxIv {
			intervals[i] = math.NaN()
		} else {
			intervals[i] = dt[i]
		}
	}

	window := cfg.GetRateWindow()
	if window > n {
		window = n
	}
	rate := rollingMean(rawRate, window)
	total := rollingMean(rawTotal, window)

	samples := make([]DataRateSample, n)
	for i := 0; i < n; i++ {
		role := RoleFirst
		if second[i] {
			// One rate sample per cycle: the second swath's bytes already
			// live in the first swath's sample.
			role = RoleSecond
			rate[i] = math.NaN()
			total[i] = math.NaN()
		}
		samples[i] = DataRateSample{
			Timestamp: st[i],
			RateMBph:  rate[i],
			TotalMBph: total[i],
			IntervalS: intervals[i],
			Role:      role,
		}
	}
	return samples, nil
}

// classifySecondSwath marks pings whose inter-ping gap collapses to a
// small fraction of the previous gap, the signature of the second swath in
// a dual-swath cycle. Sounder-reported swath counts take precedence over
// the timing heuristic: a ping reporting a single swath per cycle is never
// classified second.
func classifySecondSwath(dt []float64, swaths []int, ratio float64) []bool {
	second := make([]bool, len(dt))
	for i := 1; i < len(dt); i++ {
		if swaths[i] == 1 {
			continue
		}
		if math.IsNaN(dt[i]) || math.IsNaN(dt[i-1]) || dt[i-1] <= 0 {
			continue
		}
		if dt[i]/dt[i-1] < ratio {
			second[i] = true
		}
	}
	return second
}

// repairTimestamps linearly interpolates undefined timestamps over the
// valid neighbors; leading and trailing gaps take the nearest valid value.
// Returns ErrNoValidTimingData when nothing is usable.
func repairTimestamps(ts []float64) ([]float64, error) {
	valid := 0
	for _, v := range ts {
		if finite(v) {
			valid++
		}
	}
	if valid == 0 {
		return nil, ErrNoValidTimingData
	}
	if valid == len(ts) {
		return ts, nil
	}

	out := append([]float64(nil), ts...)
	for i := range out {
		if finite(out[i]) {
			continue
		}
		prev, next := -1, -1
		for j := i - 1; j >= 0; j-- {
			if finite(out[j]) {
				prev = j
				break
			}
		}
		for j := i + 1; j < len(out); j++ {
			if finite(ts[j]) {
				next = j
				break
			}
		}
		switch {
		case prev >= 0 && next >= 0:
			frac := float64(i-prev) / float64(next-prev)
			out[i] = out[prev] + frac*(ts[next]-out[prev])
		case prev >= 0:
			out[i] = out[prev]
		default:
			out[i] = ts[next]
		}
	}
	return out, nil
}

// rollingMean applies a trailing mean of the given window, skipping
// undefined values. A window with no defined value yields NaN rather than
// an error.
func rollingMean(v []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	out := make([]float64, len(v))
	for i := range v {
		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}
		sum, count := 0.0, 0
		for j := lo; j <= i; j++ {
			if !math.IsNaN(v[j]) {
				sum += v[j]
				count++
			}
		}
		if count == 0 {
			out[i] = math.NaN()
		} else {
			out[i] = sum / float64(count)
		}
	}
	return out
}
