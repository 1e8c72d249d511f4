package swath

import (
	"math"

	"github.com/hydroscan-data/coverage.report/internal/config"
	"github.com/hydroscan-data/coverage.report/internal/monitoring"
)

// Mask computes the compound boolean filter mask over t's flattened
// soundings (port block then starboard block). A finite-geometry term is
// always ANDed in; each filter enabled in cfg contributes one more term.
// Runtime-limit filters degrade to pass-all with a warning when the table
// carries no limit fields at all, and pass any individual sounding whose
// ping lacks a limit.
func Mask(t *DetectionTable, cfg *config.AnalysisConfig) []bool {
	flat := t.Flatten()
	n := t.Len()
	mask := make([]bool, flat.Len())
	for i := range mask {
		mask[i] = finite(flat.Y[i]) && finite(flat.Z[i])
	}

	if cfg.GetAngleFilter() {
		lo, hi := cfg.GetMinAngleDeg(), cfg.GetMaxAngleDeg()
		for i := range mask {
			a := math.Abs(flat.Angle[i])
			mask[i] = mask[i] && a >= lo && a <= hi
		}
	}

	if cfg.GetDepthFilter() {
		for i := range mask {
			lo, hi := cfg.GetMinDepthM(), cfg.GetMaxDepthM()
			if t.records[flat.PingIndex[i]].Archive {
				lo, hi = cfg.GetMinArchiveDepthM(), cfg.GetMaxArchiveDepthM()
			}
			mask[i] = mask[i] && flat.Z[i] >= lo && flat.Z[i] <= hi
		}
	}

	if cfg.GetBackscatterFilter() {
		lo, hi := cfg.GetMinBackscatterDB(), cfg.GetMaxBackscatterDB()
		for i := range mask {
			mask[i] = mask[i] && flat.BS[i] >= lo && flat.BS[i] <= hi
		}
	}

	if cfg.GetRuntimeAngleFilter() {
		buffer := cfg.GetRuntimeAngleBufferDeg()
		available := 0
		for i := range mask {
			rec := &t.records[flat.PingIndex[i]]
			limit := rec.MaxPortDeg
			if i >= n {
				limit = rec.MaxStbdDeg
			}
			if limit == nil || math.IsNaN(*limit) {
				continue
			}
			available++
			if math.Abs(flat.Angle[i]) >= 2**limit+buffer {
				mask[i] = false
			}
		}
		if available == 0 {
			monitoring.Logf("runtime angle filter: no angle limits recorded in dataset, passing all soundings")
		}
	}

	if cfg.GetRuntimeCoverageFilter() {
		buffer := cfg.GetRuntimeCoverageBufferM()
		available := 0
		for i := range mask {
			rec := &t.records[flat.PingIndex[i]]
			limit := rec.MaxPortM
			if i >= n {
				limit = rec.MaxStbdM
			}
			if limit == nil || math.IsNaN(*limit) {
				continue
			}
			available++
			if math.Abs(flat.Y[i]) >= 2**limit+buffer {
				mask[i] = false
			}
		}
		if available == 0 {
			monitoring.Logf("runtime coverage filter: no coverage limits recorded in dataset, passing all soundings")
		}
	}

	return mask
}

// PingMask reduces a flattened sounding mask to per-ping acceptance: a
// ping is kept when either of its sides passed.
func PingMask(t *DetectionTable, mask []bool) []bool {
	n := t.Len()
	out := make([]bool, n)
	for i := 0; i < n; i++ {
		out[i] = mask[i] || mask[n+i]
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
