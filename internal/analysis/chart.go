package analysis

import (
	"fmt"
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Mr-Dark-debug/motiontrail/internal/database"
	"github.com/Mr-Dark-debug/motiontrail/internal/motion"
)

// RenderChart writes a standalone HTML page plotting x, y, z and planar
// speed for a recorded session against seconds since its first sample.
func RenderChart(w io.Writer, title string, samples []*database.SampleRecord) error {
	if len(samples) == 0 {
		return fmt.Errorf("rendering chart: no samples")
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Theme: "dark", Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("%d samples", len(samples))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "t (s)", NameLocation: "middle", NameGap: 25}),
	)

	base := samples[0].Timestamp
	xAxis := make([]string, len(samples))
	xs := make([]opts.LineData, len(samples))
	ys := make([]opts.LineData, len(samples))
	zs := make([]opts.LineData, len(samples))
	speed := make([]opts.LineData, len(samples))
	for i, r := range samples {
		xAxis[i] = fmt.Sprintf("%.2f", float64(r.Timestamp-base)/float64(time.Second))
		xs[i] = opts.LineData{Value: r.X}
		ys[i] = opts.LineData{Value: r.Y}
		zs[i] = opts.LineData{Value: r.Z}
		speed[i] = opts.LineData{Value: motion.Sample{X: r.X, Y: r.Y}.PlanarSpeed()}
	}

	line.SetXAxis(xAxis).
		AddSeries("x", xs).
		AddSeries("y", ys).
		AddSeries("z", zs).
		AddSeries("speed (x/y)", speed)

	if err := line.Render(w); err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}
	return nil
}
