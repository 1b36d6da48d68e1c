package chart

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"microcap-trading/internal/model"
	"microcap-trading/pkg/logger"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	portfolioColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	benchmarkColor = color.RGBA{R: 255, G: 127, B: 14, A: 255}
	gainColor      = color.RGBA{R: 44, G: 160, B: 44, A: 255}
	drawdownColor  = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

var ErrNothingToPlot = errors.New("portfolio series is empty")

// Renderer draws a performance report to an image file.
type Renderer interface {
	Render(report model.PerformanceReport, path string, title string) error
}

type pngRenderer struct {
	log    *logger.Logger
	width  vg.Length
	height vg.Length
}

func NewRenderer(log *logger.Logger) Renderer {
	return &pngRenderer{
		log:    log,
		width:  10 * vg.Inch,
		height: 6 * vg.Inch,
	}
}

func (r *pngRenderer) Render(report model.PerformanceReport, path string, title string) error {
	if len(report.Portfolio) == 0 {
		return ErrNothingToPlot
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Date"
	p.Y.Label.Text = fmt.Sprintf("Value of $%.0f Investment", report.BaselineEquity)
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	p.Legend.Top = true
	p.Legend.Left = true
	p.Add(plotter.NewGrid())

	portfolioXY := make(plotter.XYs, len(report.Portfolio))
	for i, obs := range report.Portfolio {
		portfolioXY[i] = plotter.XY{X: unix(obs), Y: obs.TotalEquity}
	}
	portfolioLine, portfolioPoints, err := plotter.NewLinePoints(portfolioXY)
	if err != nil {
		return fmt.Errorf("portfolio line: %w", err)
	}
	portfolioLine.Color = portfolioColor
	portfolioLine.Width = vg.Points(2)
	portfolioPoints.Shape = draw.CircleGlyph{}
	portfolioPoints.Color = portfolioColor
	p.Add(portfolioLine, portfolioPoints)
	p.Legend.Add("ChatGPT ($100 Invested)", portfolioLine, portfolioPoints)

	if len(report.Benchmark) > 0 {
		benchmarkXY := make(plotter.XYs, len(report.Benchmark))
		for i, obs := range report.Benchmark {
			benchmarkXY[i] = plotter.XY{X: float64(obs.Date.Unix()), Y: obs.NormalizedValue}
		}
		benchmarkLine, err := plotter.NewLine(benchmarkXY)
		if err != nil {
			return fmt.Errorf("benchmark line: %w", err)
		}
		benchmarkLine.Color = benchmarkColor
		benchmarkLine.Width = vg.Points(2)
		benchmarkLine.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
		p.Add(benchmarkLine)
		p.Legend.Add(fmt.Sprintf("%s ($100 Invested)", report.BenchmarkTicker), benchmarkLine)
	}

	labels, err := annotations(report)
	if err != nil {
		return err
	}
	p.Add(labels...)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create chart dir: %w", err)
		}
	}
	if err := p.Save(r.width, r.height, path); err != nil {
		return fmt.Errorf("save chart: %w", err)
	}

	r.log.Info("Chart saved", logger.StringField("path", path))
	return nil
}

// annotations marks the largest gain, the final value of both lines and the max drawdown.
func annotations(report model.PerformanceReport) ([]plot.Plotter, error) {
	last := report.Portfolio[len(report.Portfolio)-1]
	points := []struct {
		x, y  float64
		text  string
		color color.Color
	}{
		{
			x:     float64(report.LargestRun.EndDate.Unix()),
			y:     equityOn(report.Portfolio, report.LargestRun.EndDate.Unix()),
			text:  fmt.Sprintf("+%.1f%% largest gain", report.LargestRun.GainPct),
			color: gainColor,
		},
		{
			x:     unix(last),
			y:     last.TotalEquity,
			text:  fmt.Sprintf("%+.1f%%", report.FinalReturnPct),
			color: portfolioColor,
		},
		{
			x:     float64(report.MaxDrawdown.Date.Unix()),
			y:     report.MaxDrawdown.EquityValue,
			text:  fmt.Sprintf("%.1f%% max drawdown", report.MaxDrawdown.DrawdownPct),
			color: drawdownColor,
		},
	}
	if n := len(report.Benchmark); n > 0 {
		b := report.Benchmark[n-1]
		points = append(points, struct {
			x, y  float64
			text  string
			color color.Color
		}{
			x:     float64(b.Date.Unix()),
			y:     b.NormalizedValue,
			text:  fmt.Sprintf("%+.1f%%", report.BenchmarkReturnPct),
			color: benchmarkColor,
		})
	}

	out := make([]plot.Plotter, 0, len(points))
	for _, pt := range points {
		l, err := plotter.NewLabels(plotter.XYLabels{
			XYs:    plotter.XYs{{X: pt.x, Y: pt.y}},
			Labels: []string{pt.text},
		})
		if err != nil {
			return nil, fmt.Errorf("annotation: %w", err)
		}
		for i := range l.TextStyle {
			l.TextStyle[i].Color = pt.color
		}
		l.Offset = vg.Point{X: vg.Points(4), Y: vg.Points(4)}
		out = append(out, l)
	}
	return out, nil
}

func unix(obs model.EquityObservation) float64 {
	return float64(obs.Date.Unix())
}

func equityOn(series []model.EquityObservation, ts int64) float64 {
	for _, obs := range series {
		if obs.Date.Unix() == ts {
			return obs.TotalEquity
		}
	}
	return series[len(series)-1].TotalEquity
}

// Summary returns the two printed metric lines of a report.
func Summary(report model.PerformanceReport) []string {
	return []string{
		fmt.Sprintf("Largest run: %s → %s, %+.2f%%",
			report.LargestRun.StartDate.Format("2006-01-02"),
			report.LargestRun.EndDate.Format("2006-01-02"),
			report.LargestRun.GainPct),
		fmt.Sprintf("Max drawdown: %.2f%% on %s (equity %.2f)",
			report.MaxDrawdown.DrawdownPct,
			report.MaxDrawdown.Date.Format("2006-01-02"),
			report.MaxDrawdown.EquityValue),
	}
}
