package swath

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func TestFormatValidCode(t *testing.T) {
	cases := []struct {
		format Format
		code   int
		want   bool
	}{
		{FormatAll, 0, true},
		{FormatAll, 127, true},
		{FormatAll, 128, false},
		{FormatAll, 255, false},
		{FormatKmall, 0, true},
		{FormatKmall, 1, false},
		{FormatKmall, 127, false},
	}
	for _, tc := range cases {
		if got := tc.format.ValidCode(tc.code); got != tc.want {
			t.Errorf("%s.ValidCode(%d) = %v, want %v", tc.format, tc.code, got, tc.want)
		}
	}
}

func TestDetectionRecordLegacyFieldAlias(t *testing.T) {
	legacy := `{"x_port": -42.5, "x_stbd": 38.0, "z_port": 12, "z_stbd": 13, "timestamp": 99}`
	var r DetectionRecord
	if err := json.Unmarshal([]byte(legacy), &r); err != nil {
		t.Fatal(err)
	}
	if r.YPort != -42.5 || r.YStbd != 38.0 {
		t.Errorf("legacy x fields not aliased: y=(%v, %v)", r.YPort, r.YStbd)
	}

	// Current field names win when both are present.
	mixed := `{"x_port": -1, "y_port": -42.5, "timestamp": 99}`
	r = DetectionRecord{}
	if err := json.Unmarshal([]byte(mixed), &r); err != nil {
		t.Fatal(err)
	}
	if r.YPort != -42.5 {
		t.Errorf("y_port should win over x_port, got %v", r.YPort)
	}
}

func TestDetectionRecordPlaceholderRoundTrip(t *testing.T) {
	r := ExtractParams(&PingRecord{Timestamp: 42}, FormatKmall, "line.kmall")
	r.Placeholder = true
	r.YPort = math.NaN()
	r.ZPort = math.NaN()

	b, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"y_port":null`) {
		t.Errorf("NaN geometry should marshal as null: %s", b)
	}

	var back DetectionRecord
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if !math.IsNaN(back.YPort) || !math.IsNaN(back.ZPort) {
		t.Errorf("placeholder geometry should restore to NaN, got y=%v z=%v", back.YPort, back.ZPort)
	}
	if back.YStbd != 0 {
		t.Errorf("defined geometry changed in round trip: %v", back.YStbd)
	}
}

func TestWCRatio(t *testing.T) {
	r := DetectionRecord{SourceFileSize: 200, SourceWCFileSize: 100}
	if got := r.WCRatio(); got != 0.5 {
		t.Errorf("WCRatio = %v, want 0.5", got)
	}
	r = DetectionRecord{SourceFileSize: 200}
	if got := r.WCRatio(); got != 0 {
		t.Errorf("no wc file: WCRatio = %v, want 0", got)
	}
	r = DetectionRecord{SourceWCFileSize: 100}
	if got := r.WCRatio(); got != 0 {
		t.Errorf("no source size: WCRatio = %v, want 0", got)
	}
}
