package swath

import "math"

// ExtractDetection reduces one ping to its outermost valid detection on
// each side. The scan walks inward from beam 0 for port and from the last
// beam for starboard, stopping at the first beam whose quality code passes
// the format's validity test. This is a nearest-to-edge search: when
// invalid beams occupy the array ends the result may not be the
// geometrically most extreme valid beam. A ping with no valid beam yields
// a NaN-geometry placeholder so the timestamp and byte series stay
// contiguous.
func ExtractDetection(rec *PingRecord, format Format, filename string) DetectionRecord {
	d := newDetectionRecord(rec, format, filename)

	n := len(rec.ValidCode)
	port := 0
	for port < n && !format.ValidCode(rec.ValidCode[port]) {
		port++
	}
	if port == n {
		d.Placeholder = true
		d.YPort, d.ZPort, d.BSPort, d.AnglePort = math.NaN(), math.NaN(), math.NaN(), math.NaN()
		d.YStbd, d.ZStbd, d.BSStbd, d.AngleStbd = math.NaN(), math.NaN(), math.NaN(), math.NaN()
		return d
	}
	stbd := n - 1
	for stbd >= 0 && !format.ValidCode(rec.ValidCode[stbd]) {
		stbd--
	}

	d.YPort = rec.AcrossTrack[port]
	d.ZPort = rec.Depth[port]
	d.BSPort = rec.Backscatter[port]
	d.AnglePort = rec.RxAngle[port]

	d.YStbd = rec.AcrossTrack[stbd]
	d.ZStbd = rec.Depth[stbd]
	d.BSStbd = rec.Backscatter[stbd]
	d.AngleStbd = rec.RxAngle[stbd]

	return d
}

// ExtractParams copies a ping's acquisition parameters without scanning
// beams, leaving the geometry zero-filled. Used when only the parameter
// history is needed; orders of magnitude faster than a full extraction.
func ExtractParams(rec *PingRecord, format Format, filename string) DetectionRecord {
	return newDetectionRecord(rec, format, filename)
}

func newDetectionRecord(rec *PingRecord, format Format, filename string) DetectionRecord {
	return DetectionRecord{
		Timestamp:          rec.Timestamp,
		PingMode:           rec.PingMode,
		PulseForm:          rec.PulseForm,
		SwathMode:          rec.SwathMode,
		Frequency:          rec.Frequency,
		MaxPortDeg:         rec.MaxPortDeg,
		MaxStbdDeg:         rec.MaxStbdDeg,
		MaxPortM:           rec.MaxPortM,
		MaxStbdM:           rec.MaxStbdM,
		Offsets:            rec.Offsets,
		Format:             format,
		Filename:           filename,
		SwathsPerPing:      rec.SwathsPerPing,
		BytesSinceLastPing: rec.BytesSinceLastPing,
		SourceFileSize:     rec.SourceFileSize,
		SourceWCFileSize:   rec.SourceWCFileSize,
	}
}
