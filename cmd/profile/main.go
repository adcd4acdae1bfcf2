// Command profile runs a single line analysis offline: it opens a video and
// a calibration CSV, samples temperatures along one segment and prints the
// profile statistics. It can also write the profile as a PNG plot and/or an
// interactive HTML chart for inspection without the server.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/thermal.report/internal/thermal"
	"github.com/banshee-data/thermal.report/internal/units"
)

var (
	videoPath = flag.String("video", "", "Video file to analyze")
	csvPath   = flag.String("calibration", "", "Calibration CSV")
	frame     = flag.Int("frame", 0, "Frame index")
	x1        = flag.Int("x1", 0, "Line start X")
	y1        = flag.Int("y1", 0, "Line start Y")
	x2        = flag.Int("x2", 0, "Line end X")
	y2        = flag.Int("y2", 0, "Line end Y")
	unit      = flag.String("units", units.Celsius, "Display unit (celsius, fahrenheit, kelvin)")
	threshold = flag.Float64("threshold", thermal.DefaultMatchThreshold, "Nearest-match RGB distance threshold")
	pngOut    = flag.String("png", "", "Write the profile plot to this PNG file (optional)")
	htmlOut   = flag.String("html", "", "Write an interactive chart to this HTML file (optional)")
)

func main() {
	flag.Parse()

	if *videoPath == "" || *csvPath == "" {
		log.Fatal("both -video and -calibration are required")
	}
	if err := units.Validate(*unit); err != nil {
		log.Fatalf("invalid units: %v", err)
	}

	engine := thermal.NewEngine(thermal.OpenVideoFile, *threshold)
	defer engine.Close()

	entries, err := engine.LoadCalibration(*csvPath)
	if err != nil {
		log.Fatalf("failed to load calibration: %v", err)
	}
	info, err := engine.LoadVideo(*videoPath)
	if err != nil {
		log.Fatalf("failed to load video: %v", err)
	}
	log.Printf("loaded %d calibration entries, %d frames @ %.2f fps", entries, info.Frames, info.FPS)

	p1 := thermal.Point{X: *x1, Y: *y1}
	p2 := thermal.Point{X: *x2, Y: *y2}
	samples := engine.AnalyzeLine(*frame, p1, p2)
	if len(samples) == 0 {
		log.Fatalf("no samples along line (%d,%d)-(%d,%d) in frame %d", *x1, *y1, *x2, *y2, *frame)
	}

	stats := thermal.Summarize(samples)
	sym := units.Symbol(*unit)
	fmt.Printf("samples: %d (%d resolved)\n", stats.Samples, stats.Valid)
	if stats.Valid > 0 {
		fmt.Printf("min:  %8.2f %s\n", units.Convert(stats.Min, *unit), sym)
		fmt.Printf("max:  %8.2f %s\n", units.Convert(stats.Max, *unit), sym)
		fmt.Printf("mean: %8.2f %s\n", units.Convert(stats.Mean, *unit), sym)
		fmt.Printf("p50:  %8.2f %s\n", units.Convert(stats.P50, *unit), sym)
		fmt.Printf("p95:  %8.2f %s\n", units.Convert(stats.P95, *unit), sym)
	}

	if *pngOut != "" {
		if err := writePNG(*pngOut, samples, *unit); err != nil {
			log.Fatalf("failed to write plot: %v", err)
		}
		log.Printf("wrote %s", *pngOut)
	}
	if *htmlOut != "" {
		if err := writeHTML(*htmlOut, samples, *unit); err != nil {
			log.Fatalf("failed to write chart: %v", err)
		}
		log.Printf("wrote %s", *htmlOut)
	}
}

// writePNG renders the profile with gonum/plot. Unresolved samples are
// simply left out of the line.
func writePNG(path string, samples []thermal.Sample, unit string) error {
	p := plot.New()
	p.Title.Text = "Temperature profile"
	p.X.Label.Text = "sample"
	p.Y.Label.Text = units.Symbol(unit)

	pts := make(plotter.XYs, 0, len(samples))
	for i, s := range samples {
		if s.Valid {
			pts = append(pts, plotter.XY{X: float64(i), Y: units.Convert(s.Celsius, unit)})
		}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Width = vg.Points(1)
	p.Add(line)
	p.Add(plotter.NewGrid())

	return p.Save(14*vg.Inch, 6*vg.Inch, path)
}

// writeHTML renders the profile with go-echarts, matching the server's
// /api/profile/chart output.
func writeHTML(path string, samples []thermal.Sample, unit string) error {
	xs := make([]string, len(samples))
	data := make([]opts.LineData, len(samples))
	for i, s := range samples {
		xs[i] = fmt.Sprintf("%d", i)
		if s.Valid {
			data[i] = opts.LineData{Value: units.Convert(s.Celsius, unit)}
		} else {
			data[i] = opts.LineData{Value: nil}
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Temperature Profile", Theme: "dark"}),
		charts.WithTitleOpts(opts.Title{Title: "Temperature Profile"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Name: units.Symbol(unit)}),
	)
	line.SetXAxis(xs)
	line.AddSeries("temperature", data)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return line.Render(f)
}
