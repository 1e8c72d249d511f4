// Package swath implements the multibeam coverage analysis pipeline:
// outermost-detection extraction, reference-frame adjustment, compound
// filtering, decimation, depth-binned coverage trends and dual-swath-aware
// data-rate reconstruction.
package swath

import (
	"encoding/json"
	"math"
)

// Format identifies the container layout a ping record was decoded from.
// The two formats differ in detection validity semantics and in the native
// reference frame of the sounding geometry.
type Format int

const (
	// FormatAll is the legacy container: quality codes below 128 mark a
	// valid detection and geometry is native to the TX array.
	FormatAll Format = iota
	// FormatKmall is the current container: only quality code 0 is valid
	// and geometry is native to the mapping origin.
	FormatKmall
)

func (f Format) String() string {
	switch f {
	case FormatAll:
		return "all"
	case FormatKmall:
		return "kmall"
	}
	return "unknown"
}

// ValidCode reports whether code marks a usable detection under f.
func (f Format) ValidCode(code int) bool {
	if f == FormatKmall {
		return code == 0
	}
	return code < 128
}

// InstallOffsets carries the installation geometry recorded with each ping:
// transducer lever arms, positioning-system lever arms and the waterline
// height, all in the vessel frame (x forward, y starboard, z down).
type InstallOffsets struct {
	TxX float64 `json:"tx_x"`
	TxY float64 `json:"tx_y"`
	TxZ float64 `json:"tx_z"`
	TxR float64 `json:"tx_r"`
	TxP float64 `json:"tx_p"`
	TxH float64 `json:"tx_h"`

	RxX float64 `json:"rx_x"`
	RxY float64 `json:"rx_y"`
	RxZ float64 `json:"rx_z"`
	RxR float64 `json:"rx_r"`
	RxP float64 `json:"rx_p"`
	RxH float64 `json:"rx_h"`

	ApsNum int     `json:"aps_num"`
	ApsX   float64 `json:"aps_x"`
	ApsY   float64 `json:"aps_y"`
	ApsZ   float64 `json:"aps_z"`

	WlZ float64 `json:"wl_z"`
}

// PingRecord is one decoded ping as delivered by the external parser:
// per-beam sounding arrays plus the acquisition parameters in effect.
// All beam arrays share one length.
type PingRecord struct {
	AcrossTrack []float64 `json:"across_track"`
	Depth       []float64 `json:"depth"`
	Backscatter []float64 `json:"backscatter"`
	ValidCode   []int     `json:"valid_code"`
	RxAngle     []float64 `json:"rx_angle"`

	Timestamp float64 `json:"timestamp"`
	PingMode  string  `json:"ping_mode"`
	PulseForm string  `json:"pulse_form"`
	SwathMode string  `json:"swath_mode"`
	Frequency float64 `json:"frequency"`

	// Operator-configured acquisition limits. Nil on records that predate
	// runtime-parameter logging.
	MaxPortDeg *float64 `json:"max_port_deg,omitempty"`
	MaxStbdDeg *float64 `json:"max_stbd_deg,omitempty"`
	MaxPortM   *float64 `json:"max_port_m,omitempty"`
	MaxStbdM   *float64 `json:"max_stbd_m,omitempty"`

	// Nil on legacy records.
	Offsets *InstallOffsets `json:"offsets,omitempty"`

	// SwathsPerPing is the sounder-reported swath count per ping cycle,
	// 0 when the container does not carry it.
	SwathsPerPing int `json:"swaths_per_ping,omitempty"`

	BytesSinceLastPing int64 `json:"bytes_since_last_ping"`
	SourceFileSize     int64 `json:"source_file_size"`
	SourceWCFileSize   int64 `json:"source_wc_file_size"`
}

// DetectionRecord holds the outermost valid sounding on each side of one
// ping plus the ping's acquisition parameters. Geometry fields are NaN
// when the ping had no valid beam (Placeholder) and zero in
// parameter-only scans.
type DetectionRecord struct {
	YPort     float64 `json:"y_port"`
	ZPort     float64 `json:"z_port"`
	BSPort    float64 `json:"bs_port"`
	AnglePort float64 `json:"rx_angle_port"`

	YStbd     float64 `json:"y_stbd"`
	ZStbd     float64 `json:"z_stbd"`
	BSStbd    float64 `json:"bs_stbd"`
	AngleStbd float64 `json:"rx_angle_stbd"`

	Timestamp float64 `json:"timestamp"`
	PingMode  string  `json:"ping_mode"`
	PulseForm string  `json:"pulse_form"`
	SwathMode string  `json:"swath_mode"`
	Frequency float64 `json:"frequency"`

	MaxPortDeg *float64 `json:"max_port_deg,omitempty"`
	MaxStbdDeg *float64 `json:"max_stbd_deg,omitempty"`
	MaxPortM   *float64 `json:"max_port_m,omitempty"`
	MaxStbdM   *float64 `json:"max_stbd_m,omitempty"`

	Offsets *InstallOffsets `json:"offsets,omitempty"`

	Format   Format `json:"format"`
	Filename string `json:"filename"`

	// Placeholder marks a ping with no valid beam on either side; the
	// geometry is NaN but the record is kept so timestamp and byte series
	// stay contiguous for the data-rate analysis.
	Placeholder bool `json:"placeholder,omitempty"`

	// Archive marks records restored from a converted archive rather than
	// parsed this pass; the depth filter may apply a separate range.
	Archive bool `json:"archive,omitempty"`

	SwathsPerPing      int   `json:"swaths_per_ping,omitempty"`
	BytesSinceLastPing int64 `json:"bytes_since_last_ping"`
	SourceFileSize     int64 `json:"source_file_size"`
	SourceWCFileSize   int64 `json:"source_wc_file_size"`
}

// WCRatio estimates the water-column contribution as the size ratio of the
// water-column file to the bathymetry file. Zero when no water-column data
// was recorded.
func (r *DetectionRecord) WCRatio() float64 {
	if r.SourceFileSize <= 0 || r.SourceWCFileSize <= 0 {
		return 0
	}
	return float64(r.SourceWCFileSize) / float64(r.SourceFileSize)
}

// MarshalJSON shadows the geometry fields with pointers so NaN
// (undefined) round-trips as JSON null; JSON numbers cannot carry NaN.
// The pointer fields sit directly on the wrapper struct so they take
// precedence over the embedded alias fields of the same name.
func (r DetectionRecord) MarshalJSON() ([]byte, error) {
	type alias DetectionRecord
	return json.Marshal(struct {
		alias
		YPort     *float64 `json:"y_port"`
		ZPort     *float64 `json:"z_port"`
		BSPort    *float64 `json:"bs_port"`
		AnglePort *float64 `json:"rx_angle_port"`
		YStbd     *float64 `json:"y_stbd"`
		ZStbd     *float64 `json:"z_stbd"`
		BSStbd    *float64 `json:"bs_stbd"`
		AngleStbd *float64 `json:"rx_angle_stbd"`
	}{
		alias:     alias(r),
		YPort:     numOrNull(r.YPort),
		ZPort:     numOrNull(r.ZPort),
		BSPort:    numOrNull(r.BSPort),
		AnglePort: numOrNull(r.AnglePort),
		YStbd:     numOrNull(r.YStbd),
		ZStbd:     numOrNull(r.ZStbd),
		BSStbd:    numOrNull(r.BSStbd),
		AngleStbd: numOrNull(r.AngleStbd),
	})
}

// UnmarshalJSON accepts current records and legacy archives that predate
// the y/z naming, aliasing x_port/x_stbd to y_port/y_stbd. Null or absent
// geometry restores to NaN on placeholder records and zero otherwise.
func (r *DetectionRecord) UnmarshalJSON(b []byte) error {
	type alias DetectionRecord
	aux := struct {
		alias
		YPort     *float64 `json:"y_port"`
		ZPort     *float64 `json:"z_port"`
		BSPort    *float64 `json:"bs_port"`
		AnglePort *float64 `json:"rx_angle_port"`
		YStbd     *float64 `json:"y_stbd"`
		ZStbd     *float64 `json:"z_stbd"`
		BSStbd    *float64 `json:"bs_stbd"`
		AngleStbd *float64 `json:"rx_angle_stbd"`
		XPort     *float64 `json:"x_port"`
		XStbd     *float64 `json:"x_stbd"`
	}{}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*r = DetectionRecord(aux.alias)
	if aux.YPort == nil {
		aux.YPort = aux.XPort
	}
	if aux.YStbd == nil {
		aux.YStbd = aux.XStbd
	}
	r.YPort = numFromNull(aux.YPort, r.Placeholder)
	r.ZPort = numFromNull(aux.ZPort, r.Placeholder)
	r.BSPort = numFromNull(aux.BSPort, r.Placeholder)
	r.AnglePort = numFromNull(aux.AnglePort, r.Placeholder)
	r.YStbd = numFromNull(aux.YStbd, r.Placeholder)
	r.ZStbd = numFromNull(aux.ZStbd, r.Placeholder)
	r.BSStbd = numFromNull(aux.BSStbd, r.Placeholder)
	r.AngleStbd = numFromNull(aux.AngleStbd, r.Placeholder)
	return nil
}

func numOrNull(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func numFromNull(v *float64, placeholder bool) float64 {
	if v == nil {
		if placeholder {
			return math.NaN()
		}
		return 0
	}
	return *v
}
