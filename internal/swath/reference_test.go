package swath

import (
	"testing"

	"github.com/hydroscan-data/coverage.report/internal/units"
)

func testOffsets() *InstallOffsets {
	return &InstallOffsets{TxY: 1.5, TxZ: 4.0, WlZ: 0.5}
}

func TestFrameDeltaRawAlwaysZero(t *testing.T) {
	for _, format := range []Format{FormatAll, FormatKmall} {
		rec := &DetectionRecord{Format: format, Offsets: testOffsets()}
		dy, dz := FrameDelta(rec, units.Raw)
		if dy != 0 || dz != 0 {
			t.Errorf("%s: raw frame should yield zero translation, got (%v, %v)", format, dy, dz)
		}
	}
}

func TestFrameDeltaLegacyContainer(t *testing.T) {
	rec := &DetectionRecord{Format: FormatAll, Offsets: testOffsets()}

	dy, dz := FrameDelta(rec, units.Origin)
	if dy != 1.5 || dz != 4.0 {
		t.Errorf("to origin: got (%v, %v), want (1.5, 4.0)", dy, dz)
	}
	dy, dz = FrameDelta(rec, units.Waterline)
	if dy != 1.5 || dz != 3.5 {
		t.Errorf("to waterline: got (%v, %v), want (1.5, 3.5)", dy, dz)
	}
	dy, dz = FrameDelta(rec, units.TXArray)
	if dy != 0 || dz != 0 {
		t.Errorf("tx_array is native: got (%v, %v)", dy, dz)
	}
}

func TestFrameDeltaCurrentContainer(t *testing.T) {
	rec := &DetectionRecord{Format: FormatKmall, Offsets: testOffsets()}

	dy, dz := FrameDelta(rec, units.Waterline)
	if dy != 0 || dz != -0.5 {
		t.Errorf("to waterline: got (%v, %v), want (0, -0.5)", dy, dz)
	}
	dy, dz = FrameDelta(rec, units.TXArray)
	if dy != -1.5 || dz != -4.0 {
		t.Errorf("to tx_array: got (%v, %v), want (-1.5, -4.0)", dy, dz)
	}
	dy, dz = FrameDelta(rec, units.Origin)
	if dy != 0 || dz != 0 {
		t.Errorf("origin is native: got (%v, %v)", dy, dz)
	}
}

func TestFrameDeltaMissingOffsets(t *testing.T) {
	rec := &DetectionRecord{Format: FormatKmall}
	dy, dz := FrameDelta(rec, units.Waterline)
	if dy != 0 || dz != 0 {
		t.Errorf("missing offsets should degrade to zero translation, got (%v, %v)", dy, dz)
	}
}

func TestAdjustTableAppliesBothSides(t *testing.T) {
	tbl := NewDetectionTable().Append(DetectionRecord{
		Format:  FormatAll,
		Offsets: testOffsets(),
		YPort:   -100, ZPort: 50,
		YStbd: 120, ZStbd: 52,
	})

	adj := AdjustTable(tbl, units.Waterline)
	r := adj.Records()[0]
	if r.YPort != -100+1.5 || r.YStbd != 120+1.5 {
		t.Errorf("y adjust: got %v and %v", r.YPort, r.YStbd)
	}
	if r.ZPort != 53.5 || r.ZStbd != 55.5 {
		t.Errorf("z adjust: got %v and %v", r.ZPort, r.ZStbd)
	}
	// Original snapshot untouched.
	if tbl.Records()[0].YPort != -100 {
		t.Error("AdjustTable must not mutate the input snapshot")
	}
}
