package chart

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"io"
	"path/filepath"

	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/David-Botos/exo-habitability/pkg/dataset"
)

// errNoData marks a chart whose subset is empty
var errNoData = errors.New("no data to plot")

var (
	planetColor    = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	referenceColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	limitColor     = color.RGBA{R: 44, G: 160, B: 44, A: 255}
	barColor       = color.RGBA{R: 255, G: 127, B: 14, A: 255}
)

// Summary lists the files a render pass wrote and the charts it skipped
type Summary struct {
	Written []string
	Skipped []string
}

// Renderer writes chart configs as PNG files
type Renderer struct {
	logger *zap.Logger
	outDir string
	width  vg.Length
	height vg.Length
}

// NewRenderer creates a renderer writing into outDir
func NewRenderer(logger *zap.Logger, outDir string) (*Renderer, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if outDir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	return &Renderer{
		logger: logger.Named("chart"),
		outDir: outDir,
		width:  8 * vg.Inch,
		height: 6 * vg.Inch,
	}, nil
}

// RenderAll renders every config in order. Empty charts are skipped; the
// first write failure stops the pass.
func (r *Renderer) RenderAll(ctx context.Context, configs []Config) (Summary, error) {
	var summary Summary
	for i := range configs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		path, err := r.Render(&configs[i])
		if errors.Is(err, errNoData) {
			r.logger.Info("Skipping chart with no data", zap.String("file", configs[i].File))
			summary.Skipped = append(summary.Skipped, configs[i].File)
			continue
		}
		if err != nil {
			return summary, err
		}
		summary.Written = append(summary.Written, path)
	}

	r.logger.Info("Charts rendered",
		zap.Int("written", len(summary.Written)),
		zap.Int("skipped", len(summary.Skipped)),
		zap.String("output_dir", r.outDir))
	return summary, nil
}

// Render writes one chart and returns its path
func (r *Renderer) Render(cfg *Config) (string, error) {
	if cfg.Empty() {
		return "", errNoData
	}

	p, err := r.build(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to build chart %s: %w", cfg.File, err)
	}

	wt, err := p.WriterTo(r.width, r.height, "png")
	if err != nil {
		return "", fmt.Errorf("failed to encode chart %s: %w", cfg.File, err)
	}

	path := filepath.Join(r.outDir, cfg.File)
	err = dataset.WriteFileAtomic(path, func(w io.Writer) error {
		_, err := wt.WriteTo(w)
		return err
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

func (r *Renderer) build(cfg *Config) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = cfg.Title
	p.X.Label.Text = cfg.XAxis
	p.Y.Label.Text = cfg.YAxis
	p.Legend.Top = true

	switch cfg.Kind {
	case KindScatter:
		if err := addScatter(p, cfg); err != nil {
			return nil, err
		}
	case KindBar:
		if err := addBars(p, cfg); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown chart kind %d", cfg.Kind)
	}
	return p, nil
}

func addScatter(p *plot.Plot, cfg *Config) error {
	p.Add(plotter.NewGrid())
	if cfg.LogX {
		p.X.Scale = plot.LogScale{}
		p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	}

	plotted := 0
	for _, series := range cfg.Series {
		xys := toXYs(series.Points, cfg.LogX)
		if len(xys) == 0 {
			continue
		}

		s, err := plotter.NewScatter(xys)
		if err != nil {
			return err
		}
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		if series.Reference {
			s.GlyphStyle.Color = referenceColor
			s.GlyphStyle.Radius = vg.Points(5)
		} else {
			s.GlyphStyle.Color = planetColor
			s.GlyphStyle.Radius = vg.Points(2)
			plotted += len(xys)
		}
		p.Add(s)
		p.Legend.Add(series.Name, s)
	}
	if plotted == 0 {
		return errNoData
	}

	if cfg.HLine != nil {
		limit := *cfg.HLine
		line := plotter.NewFunction(func(float64) float64 { return limit })
		line.Color = limitColor
		line.Width = vg.Points(1.5)
		line.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("%g G limit", limit), line)
		if p.Y.Max < limit {
			p.Y.Max = limit * 1.1
		}
	}
	return nil
}

func addBars(p *plot.Plot, cfg *Config) error {
	values := make(plotter.Values, len(cfg.Bars))
	names := make([]string, len(cfg.Bars))
	for i, b := range cfg.Bars {
		values[i] = b.Value
		names[i] = b.Label
	}

	bars, err := plotter.NewBarChart(values, vg.Points(40))
	if err != nil {
		return err
	}
	bars.Color = barColor
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(names...)

	// counts above each bar
	labels := plotter.XYLabels{
		XYs:    make(plotter.XYs, len(values)),
		Labels: make([]string, len(values)),
	}
	for i, v := range values {
		labels.XYs[i] = plotter.XY{X: float64(i), Y: v}
		labels.Labels[i] = fmt.Sprintf("%g", v)
	}
	l, err := plotter.NewLabels(labels)
	if err != nil {
		return err
	}
	for i := range l.TextStyle {
		l.TextStyle[i].XAlign = text.XCenter
		l.TextStyle[i].YAlign = text.YBottom
	}
	p.Add(l)
	p.Y.Min = 0
	return nil
}

// toXYs converts points, dropping non-positive x on a log axis
func toXYs(points []dataset.Pair, logX bool) plotter.XYs {
	xys := make(plotter.XYs, 0, len(points))
	for _, pt := range points {
		if logX && pt.X <= 0 {
			continue
		}
		xys = append(xys, plotter.XY{X: pt.X, Y: pt.Y})
	}
	return xys
}
