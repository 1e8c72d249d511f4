package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hydroscan-data/coverage.report/internal/config"
	"github.com/hydroscan-data/coverage.report/internal/monitoring"
	"github.com/hydroscan-data/coverage.report/internal/swath"
)

var testLines = []string{
	`{"timestamp": 100, "valid_code": [0, 0], "across_track": [-50, 50], "depth": [30, 30], "backscatter": [-20, -21], "rx_angle": [-60, 60], "bytes_since_last_ping": 1000}`,
	`{"timestamp": 110, "valid_code": [0, 0], "across_track": [-60, 60], "depth": [35, 35], "backscatter": [-22, -23], "rx_angle": [-61, 61], "bytes_since_last_ping": 1100}`,
	`{"timestamp": 120, "valid_code": [0, 0], "across_track": [-55, 55], "depth": [32, 32], "backscatter": [-24, -25], "rx_angle": [-62, 62], "bytes_since_last_ping": 1200}`,
}

func testServer(t *testing.T) *Server {
	t.Helper()
	monitoring.SetLogger(func(string, ...interface{}) {})
	t.Cleanup(func() { monitoring.SetLogger(nil) })

	dir := t.TempDir()
	path := filepath.Join(dir, "0001_line.kmall.jsonl")
	if err := os.WriteFile(path, []byte(strings.Join(testLines, "\n")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	loader := swath.NewLoader(config.EmptyAnalysisConfig(), "", false)
	res := loader.LoadFiles(context.Background(), []string{path}, false)
	if res.Converted != 1 {
		t.Fatalf("test fixture failed to load: %+v", res)
	}
	return NewServer(loader, config.EmptyAnalysisConfig(), nil)
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(rec, req)
	return rec
}

func TestSummaryEndpoint(t *testing.T) {
	s := testServer(t)
	rec := get(t, s, "/api/summary")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Pings int      `json:"pings"`
		Files []string `json:"files"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Pings != 3 {
		t.Errorf("pings = %d, want 3", body.Pings)
	}
	if len(body.Files) != 1 || body.Files[0] != "0001_line.kmall.jsonl" {
		t.Errorf("files = %v", body.Files)
	}
}

func TestDetectionsEndpoint(t *testing.T) {
	s := testServer(t)
	rec := get(t, s, "/api/detections")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Frame    string     `json:"frame"`
		Total    int        `json:"total"`
		Returned int        `json:"returned"`
		Y        []*float64 `json:"y"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Frame != "waterline" {
		t.Errorf("frame = %q, want waterline", body.Frame)
	}
	if body.Total != 6 || body.Returned != 6 {
		t.Errorf("total=%d returned=%d, want 6 and 6", body.Total, body.Returned)
	}
	if len(body.Y) != 6 {
		t.Errorf("y has %d entries, want 6", len(body.Y))
	}
}

func TestDetectionsMaxPointsOverride(t *testing.T) {
	s := testServer(t)
	rec := get(t, s, "/api/detections?max_points=3")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Returned int `json:"returned"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Returned != 3 {
		t.Errorf("returned = %d, want 3", body.Returned)
	}

	if rec := get(t, s, "/api/detections?max_points=-1"); rec.Code != http.StatusBadRequest {
		t.Errorf("negative max_points: status = %d, want 400", rec.Code)
	}
	if rec := get(t, s, "/api/detections?frame=keel"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad frame: status = %d, want 400", rec.Code)
	}
}

func TestTrendEndpointAndExport(t *testing.T) {
	s := testServer(t)
	rec := get(t, s, "/api/trend")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Bins []swath.TrendBin `json:"bins"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Bins) == 0 {
		t.Fatal("expected at least one trend bin")
	}

	rec = get(t, s, "/api/trend/export")
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if lines[0] != "0 5" || lines[len(lines)-1] != "10000 0" {
		t.Errorf("export missing sentinel rows: %q", lines)
	}
}

func TestRatesEndpoint(t *testing.T) {
	s := testServer(t)
	rec := get(t, s, "/api/rates")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var samples []struct {
		Timestamp float64  `json:"timestamp"`
		RateMBph  *float64 `json:"rate_mbph"`
		Role      string   `json:"role"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &samples); err != nil {
		t.Fatal(err)
	}
	if len(samples) != 3 {
		t.Fatalf("got %d samples, want 3", len(samples))
	}
	if samples[0].RateMBph != nil {
		t.Error("first sample has no interval, rate should be null")
	}
	if samples[1].RateMBph == nil {
		t.Error("second sample should have a defined rate")
	}
}

func TestDebugChartEndpoints(t *testing.T) {
	s := testServer(t)
	for _, path := range []string{"/debug/charts/coverage", "/debug/charts/trend", "/debug/charts/rates"} {
		rec := get(t, s, path)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d", path, rec.Code)
			continue
		}
		if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Errorf("%s: content type = %q", path, ct)
		}
		if !strings.Contains(rec.Body.String(), "echarts") {
			t.Errorf("%s: body does not look like an echarts page", path)
		}
	}
}

func TestCoveragePNG(t *testing.T) {
	s := testServer(t)
	rec := get(t, s, "/debug/coverage.png")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %q, want image/png", ct)
	}
	body := rec.Body.Bytes()
	if len(body) < 8 || body[0] != 0x89 || body[1] != 'P' || body[2] != 'N' || body[3] != 'G' {
		t.Error("response is not a PNG")
	}
}
