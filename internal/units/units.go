// Package units provides shared constants and validation for reference
// frames and data-rate conversions.
package units

import "math"

// Reference frame constants. Soundings are re-referenced to one of these
// vertical/lateral datums before filtering and display.
const (
	Waterline = "waterline"
	Origin    = "origin"
	TXArray   = "tx_array"
	Raw       = "raw"
)

// ValidFrames contains all valid reference frame values
var ValidFrames = []string{Waterline, Origin, TXArray, Raw}

// IsValidFrame checks if the given frame is in the list of valid frames
func IsValidFrame(frame string) bool {
	for _, validFrame := range ValidFrames {
		if frame == validFrame {
			return true
		}
	}
	return false
}

// GetValidFramesString returns a comma-separated string of valid frames for error messages
func GetValidFramesString() string {
	return "waterline, origin, tx_array, raw"
}

// Conversion constants. Data rates are stored in bytes and seconds and
// displayed in MB/hr.
const (
	BytesPerMB     = 1e6
	SecondsPerHour = 3600
)

// BytesToMBPerHour converts a byte count over an elapsed time in seconds to
// a rate in MB/hr. A zero, negative, or undefined elapsed time yields NaN
// rather than an infinity or a panic.
func BytesToMBPerHour(bytes, seconds float64) float64 {
	if seconds <= 0 || math.IsNaN(seconds) || math.IsNaN(bytes) {
		return math.NaN()
	}
	return bytes / seconds * SecondsPerHour / BytesPerMB
}
