package charts

import (
	"fmt"
	"image/color"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/racetime/internal/dva"
	"github.com/banshee-data/racetime/internal/fsutil"
)

// PlotOptions sizes the PNG plots.
type PlotOptions struct {
	WidthIn  float64
	HeightIn float64
}

var lineColors = []color.Color{
	color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
}

// WritePNGs saves one plot per quantity into dir and returns the paths
// written, e.g. dir/speed.png.
func WritePNGs(fsys fsutil.FileSystem, dir string, res *dva.Result, o PlotOptions) ([]string, error) {
	if res == nil || len(res.Samples) == 0 {
		return nil, fmt.Errorf("%w: nothing to plot", dva.ErrEmptyResult)
	}
	if o.WidthIn <= 0 {
		o.WidthIn = 10
	}
	if o.HeightIn <= 0 {
		o.HeightIn = 4
	}
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create plot dir: %w", err)
	}

	paths := make([]string, 0, len(Quantities))
	for i, q := range Quantities {
		p, err := linePlot(res.Samples, q, lineColors[i%len(lineColors)])
		if err != nil {
			return paths, fmt.Errorf("%s plot: %w", q.Slug, err)
		}

		path := filepath.Join(dir, q.Slug+".png")
		if err := savePlot(fsys, p, path, o); err != nil {
			return paths, fmt.Errorf("save %s plot: %w", q.Slug, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func linePlot(samples []dva.DerivedSample, q Series, c color.Color) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = q.Name + " vs Time"
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = q.Label

	pts := make(plotter.XYs, len(samples))
	for i, s := range samples {
		pts[i] = plotter.XY{X: s.ContinuousTime, Y: q.Value(s)}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.Width = vg.Points(1.5)
	line.Color = c

	p.Add(plotter.NewGrid(), line)
	return p, nil
}

func savePlot(fsys fsutil.FileSystem, p *plot.Plot, path string, o PlotOptions) error {
	wt, err := p.WriterTo(vg.Length(o.WidthIn)*vg.Inch, vg.Length(o.HeightIn)*vg.Inch, "png")
	if err != nil {
		return err
	}
	f, err := fsys.Create(path)
	if err != nil {
		return err
	}
	if _, err := wt.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
