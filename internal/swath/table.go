package swath

import "sort"

// DetectionTable is an immutable, time-ordered snapshot of detection
// records across all loaded files. Mutating operations return a new table;
// a published snapshot is never modified in place, so readers can run a
// full analysis pass against one snapshot without locking.
type DetectionTable struct {
	records []DetectionRecord
}

// NewDetectionTable returns an empty table.
func NewDetectionTable() *DetectionTable {
	return &DetectionTable{}
}

// Len returns the ping count.
func (t *DetectionTable) Len() int {
	return len(t.records)
}

// Records returns the underlying record slice. Callers must not modify it.
func (t *DetectionTable) Records() []DetectionRecord {
	return t.records
}

// Append returns a new table containing t's records plus recs, re-sorted
// by timestamp.
func (t *DetectionTable) Append(recs ...DetectionRecord) *DetectionTable {
	merged := make([]DetectionRecord, 0, len(t.records)+len(recs))
	merged = append(merged, t.records...)
	merged = append(merged, recs...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp < merged[j].Timestamp
	})
	return &DetectionTable{records: merged}
}

// RemoveFile returns a new table with every record from the named source
// file dropped. Removing the last file yields a fresh empty table.
func (t *DetectionTable) RemoveFile(name string) *DetectionTable {
	kept := make([]DetectionRecord, 0, len(t.records))
	for _, r := range t.records {
		if r.Filename != name {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		return NewDetectionTable()
	}
	return &DetectionTable{records: kept}
}

// Files returns the distinct source file names in load order of first
// appearance.
func (t *DetectionTable) Files() []string {
	seen := make(map[string]bool)
	var files []string
	for _, r := range t.records {
		if !seen[r.Filename] {
			seen[r.Filename] = true
			files = append(files, r.Filename)
		}
	}
	return files
}

// Timestamps returns the per-ping timestamp series in table order.
func (t *DetectionTable) Timestamps() []float64 {
	ts := make([]float64, len(t.records))
	for i, r := range t.records {
		ts[i] = r.Timestamp
	}
	return ts
}

// FlatSoundings is the flattened port-then-starboard view of a table used
// by the filter engine and the render feed: indices [0, N) are port
// soundings and [N, 2N) starboard, where N is the ping count. PingIndex
// maps each flattened entry back to its table row.
type FlatSoundings struct {
	Y         []float64
	Z         []float64
	BS        []float64
	Angle     []float64
	PingIndex []int
}

// Len returns the flattened sounding count (2x ping count).
func (f FlatSoundings) Len() int {
	return len(f.Y)
}

// Flatten builds the port-then-starboard sounding view.
func (t *DetectionTable) Flatten() FlatSoundings {
	n := len(t.records)
	f := FlatSoundings{
		Y:         make([]float64, 2*n),
		Z:         make([]float64, 2*n),
		BS:        make([]float64, 2*n),
		Angle:     make([]float64, 2*n),
		PingIndex: make([]int, 2*n),
	}
	for i, r := range t.records {
		f.Y[i], f.Z[i], f.BS[i], f.Angle[i] = r.YPort, r.ZPort, r.BSPort, r.AnglePort
		f.PingIndex[i] = i
		j := n + i
		f.Y[j], f.Z[j], f.BS[j], f.Angle[j] = r.YStbd, r.ZStbd, r.BSStbd, r.AngleStbd
		f.PingIndex[j] = i
	}
	return f
}

// Select returns the subset of f at the given flattened indices, in order.
func (f FlatSoundings) Select(indices []int) FlatSoundings {
	out := FlatSoundings{
		Y:         make([]float64, len(indices)),
		Z:         make([]float64, len(indices)),
		BS:        make([]float64, len(indices)),
		Angle:     make([]float64, len(indices)),
		PingIndex: make([]int, len(indices)),
	}
	for k, idx := range indices {
		out.Y[k] = f.Y[idx]
		out.Z[k] = f.Z[idx]
		out.BS[k] = f.BS[idx]
		out.Angle[k] = f.Angle[idx]
		out.PingIndex[k] = f.PingIndex[idx]
	}
	return out
}

// MaskedIndices converts a boolean mask aligned to f into the list of kept
// flattened indices.
func (f FlatSoundings) MaskedIndices(mask []bool) []int {
	var kept []int
	for i := range mask {
		if mask[i] {
			kept = append(kept, i)
		}
	}
	return kept
}
