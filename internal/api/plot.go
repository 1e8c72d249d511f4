package api

import (
	"fmt"
	"image/color"
	"math"
	"net/http"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/hydroscan-data/coverage.report/internal/monitoring"
)

// handleCoveragePNG renders the filtered swath points plus the mirrored
// coverage trend as a static PNG, suitable for pasting into survey reports.
func (s *Server) handleCoveragePNG(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.requestConfig(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	selected, _ := s.filteredSoundings(cfg)
	if selected.Len() == 0 {
		writeJSONError(w, http.StatusNotFound, "no soundings pass the current filters")
		return
	}

	pts := make(plotter.XYs, 0, selected.Len())
	for i := 0; i < selected.Len(); i++ {
		if math.IsNaN(selected.Y[i]) || math.IsNaN(selected.Z[i]) {
			continue
		}
		pts = append(pts, plotter.XY{X: selected.Y[i], Y: -selected.Z[i]})
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Swath Coverage (%s frame)", cfg.GetReferenceFrame())
	p.X.Label.Text = "Across-track (m)"
	p.Y.Label.Text = "Depth (m)"

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	scatter.GlyphStyle.Radius = vg.Points(1)
	scatter.GlyphStyle.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	p.Add(scatter)

	// Overlay the mirrored trend when it exists.
	bins := s.trendBins(cfg)
	if len(bins) > 0 {
		stbd := make(plotter.XYs, len(bins))
		port := make(plotter.XYs, len(bins))
		for i, b := range bins {
			stbd[i] = plotter.XY{X: b.MeanAbsWidth, Y: -b.CenterDepth}
			port[i] = plotter.XY{X: -b.MeanAbsWidth, Y: -b.CenterDepth}
		}
		for _, xys := range []plotter.XYs{port, stbd} {
			line, err := plotter.NewLine(xys)
			if err != nil {
				continue
			}
			line.LineStyle.Width = vg.Points(1.5)
			line.LineStyle.Color = color.RGBA{R: 214, G: 39, B: 40, A: 255}
			p.Add(line)
		}
	}

	wt, err := p.WriterTo(10*vg.Inch, 7*vg.Inch, "png")
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if _, err := wt.WriteTo(w); err != nil {
		monitoring.Logf("writing coverage png failed: %v", err)
	}
}
