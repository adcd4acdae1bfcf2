package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/thermal.report/internal/units"
)

// handleProfileChart renders an HTML line chart of a temperature profile
// using go-echarts. It takes the same parameters as /analyze and is meant
// for quick visual inspection without the frontend; unresolved samples show
// as gaps in the line.
func (s *Server) handleProfileChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	frame, p1, p2, ok := s.analyzeParams(w, r)
	if !ok {
		return
	}
	if !s.engine.Ready() {
		s.writeJSONError(w, http.StatusServiceUnavailable, "no video loaded")
		return
	}

	samples := s.engine.AnalyzeLine(frame, p1, p2)
	if len(samples) == 0 {
		s.writeJSONError(w, http.StatusNotFound, "no samples along requested line")
		return
	}

	xs := make([]string, len(samples))
	data := make([]opts.LineData, len(samples))
	for i, sample := range samples {
		xs[i] = strconv.Itoa(i)
		if sample.Valid {
			data[i] = opts.LineData{Value: units.Convert(sample.Celsius, s.units)}
		} else {
			data[i] = opts.LineData{Value: nil}
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Temperature Profile",
			Theme:     "dark",
			Width:     "1200px",
			Height:    "600px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title: "Temperature Profile",
			Subtitle: fmt.Sprintf("frame=%d line=(%d,%d)-(%d,%d) samples=%d",
				frame, p1.X, p1.Y, p2.X, p2.Y, len(samples)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "sample"}),
		charts.WithYAxisOpts(opts.YAxis{Name: units.Symbol(s.units)}),
	)
	line.SetXAxis(xs)
	line.AddSeries("temperature", data)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
