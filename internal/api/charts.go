package api

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/hydroscan-data/coverage.report/internal/swath"
)

const echartsAssetsPrefix = "https://go-echarts.github.io/go-echarts-assets/assets/"

// handleCoverageChart renders a quick scatter (HTML) of the filtered,
// decimated swath points using go-echarts. Debugging-only endpoint to eyeball
// coverage without the full UI. Depth is plotted negative-down.
func (s *Server) handleCoverageChart(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.requestConfig(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	selected, filtered := s.filteredSoundings(cfg)
	if selected.Len() == 0 {
		writeJSONError(w, http.StatusNotFound, "no soundings pass the current filters")
		return
	}

	data := make([]opts.ScatterData, 0, selected.Len())
	for i := 0; i < selected.Len(); i++ {
		if math.IsNaN(selected.Y[i]) || math.IsNaN(selected.Z[i]) {
			continue
		}
		data = append(data, opts.ScatterData{Value: []interface{}{selected.Y[i], -selected.Z[i]}})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Swath Coverage", Theme: "dark", Width: "1100px", Height: "700px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Swath Coverage", Subtitle: fmt.Sprintf("frame=%s points=%d filtered=%d", cfg.GetReferenceFrame(), len(data), filtered)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Across-track (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Depth (m)", NameLocation: "middle", NameGap: 35}),
	)
	scatter.AddSeries("soundings", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))

	renderChart(w, scatter)
}

// handleTrendChart renders the depth-binned coverage trend as a line chart,
// mirrored to negative y so both swath sides show.
func (s *Server) handleTrendChart(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.requestConfig(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	bins := s.trendBins(cfg)
	if len(bins) == 0 {
		writeJSONError(w, http.StatusNotFound, "no trend data")
		return
	}

	depths := make([]string, len(bins))
	stbd := make([]opts.LineData, len(bins))
	port := make([]opts.LineData, len(bins))
	for i, b := range bins {
		depths[i] = fmt.Sprintf("%.1f", b.CenterDepth)
		stbd[i] = opts.LineData{Value: b.MeanAbsWidth}
		port[i] = opts.LineData{Value: -b.MeanAbsWidth}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Coverage Trend", Theme: "dark", Width: "1100px", Height: "600px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Coverage vs Depth", Subtitle: fmt.Sprintf("frame=%s bins=%d", cfg.GetReferenceFrame(), len(bins))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Depth (m)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Coverage (m)"}),
	)
	line.SetXAxis(depths).
		AddSeries("stbd", stbd).
		AddSeries("port", port)

	renderChart(w, line)
}

// handleRatesChart renders the smoothed data-rate and ping-interval series.
func (s *Server) handleRatesChart(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.requestConfig(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	samples, err := swath.AnalyzeRates(s.loader.Table(), cfg)
	if err != nil {
		writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}

	times := make([]string, 0, len(samples))
	rates := make([]opts.LineData, 0, len(samples))
	totals := make([]opts.LineData, 0, len(samples))
	for _, smp := range samples {
		if smp.Role == swath.RoleSecond {
			continue
		}
		times = append(times, fmt.Sprintf("%.1f", smp.Timestamp))
		rates = append(rates, lineValue(smp.RateMBph))
		totals = append(totals, lineValue(smp.TotalMBph))
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Data Rate", Theme: "dark", Width: "1100px", Height: "600px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Data Rate (MB/hr)", Subtitle: fmt.Sprintf("cycles=%d", len(times))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time (s)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "MB/hr"}),
	)
	line.SetXAxis(times).
		AddSeries("bathy", rates).
		AddSeries("bathy+wc", totals)

	renderChart(w, line)
}

// lineValue maps undefined samples to nil so echarts draws a gap instead
// of a bogus zero.
func lineValue(v float64) opts.LineData {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return opts.LineData{Value: nil}
	}
	return opts.LineData{Value: v}
}

type chartRenderer interface {
	Render(w io.Writer) error
}

func renderChart(w http.ResponseWriter, c chartRenderer) {
	var buf bytes.Buffer
	if err := c.Render(&buf); err != nil {
		writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
