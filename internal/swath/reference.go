package swath

import (
	"github.com/hydroscan-data/coverage.report/internal/monitoring"
	"github.com/hydroscan-data/coverage.report/internal/units"
)

// FrameDelta returns the translation (dy, dz) that moves one record's
// geometry from its native frame into the target frame. The legacy
// container records geometry relative to the TX array; the current one
// relative to the mapping origin. Raw always yields (0, 0), as do records
// without installation offsets.
func FrameDelta(rec *DetectionRecord, frame string) (dy, dz float64) {
	if frame == units.Raw || rec.Offsets == nil {
		return 0, 0
	}
	o := rec.Offsets
	switch rec.Format {
	case FormatAll:
		switch frame {
		case units.Origin:
			return o.TxY, o.TxZ
		case units.Waterline:
			return o.TxY, o.TxZ - o.WlZ
		}
		// TXArray is the native frame.
	case FormatKmall:
		switch frame {
		case units.Waterline:
			return 0, -o.WlZ
		case units.TXArray:
			return -o.TxY, -o.TxZ
		}
		// Origin is the native frame.
	}
	return 0, 0
}

// AdjustTable returns a copy of t with port and starboard geometry
// translated into the target frame. Records lacking installation offsets
// are left in their native frame with one warning for the whole table.
func AdjustTable(t *DetectionTable, frame string) *DetectionTable {
	adjusted := make([]DetectionRecord, len(t.records))
	missing := 0
	for i, r := range t.records {
		if r.Offsets == nil && frame != units.Raw {
			missing++
		}
		dy, dz := FrameDelta(&r, frame)
		r.YPort += dy
		r.YStbd += dy
		r.ZPort += dz
		r.ZStbd += dz
		adjusted[i] = r
	}
	if missing > 0 {
		monitoring.Logf("re-referencing to %s: %d of %d pings missing install offsets, left in native frame: %v",
			frame, missing, len(t.records), ErrMissingReferenceFields)
	}
	return &DetectionTable{records: adjusted}
}
