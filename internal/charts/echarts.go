// Package charts renders DVA results as an interactive HTML page and as PNG
// line plots.
package charts

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/racetime/internal/dva"
	"github.com/banshee-data/racetime/internal/units"
)

// DefaultAssetsHost serves echarts.min.js for the HTML page.
const DefaultAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// HTMLOptions controls the HTML page.
type HTMLOptions struct {
	Title      string
	Units      string // display units for the top speed subtitle
	AssetsHost string
}

// Series is one plotted quantity against continuous time.
type Series struct {
	Name  string
	Slug  string
	Label string
	Value func(dva.DerivedSample) float64
}

// Quantities lists the plotted columns in page order.
var Quantities = []Series{
	{Name: "Acceleration", Slug: "acceleration", Label: "Acceleration (m/s²)", Value: func(s dva.DerivedSample) float64 { return s.Acceleration }},
	{Name: "Speed", Slug: "speed", Label: "Speed (m/s)", Value: func(s dva.DerivedSample) float64 { return s.Speed }},
	{Name: "Distance", Slug: "distance", Label: "Distance (m)", Value: func(s dva.DerivedSample) float64 { return s.Distance }},
}

// RenderHTML writes a page with one line chart per quantity.
func RenderHTML(w io.Writer, res *dva.Result, o HTMLOptions) error {
	if res == nil || len(res.Samples) == 0 {
		return fmt.Errorf("%w: nothing to chart", dva.ErrEmptyResult)
	}
	if o.Title == "" {
		o.Title = "Race Time"
	}
	if o.Units == "" {
		o.Units = units.KMPH
	}
	if o.AssetsHost == "" {
		o.AssetsHost = DefaultAssetsHost
	}

	top := units.ConvertSpeed(res.Summary.TopSpeedMPS, o.Units)
	subtitle := fmt.Sprintf("Top Speed %.4f %s, End Time %.4f s", top, units.Label(o.Units), res.Summary.EndTime)

	page := components.NewPage()
	page.PageTitle = o.Title
	page.AssetsHost = o.AssetsHost
	page.SetLayout(components.PageFlexLayout)

	for i, q := range Quantities {
		data := make([]opts.LineData, 0, len(res.Samples))
		for _, s := range res.Samples {
			data = append(data, opts.LineData{Value: []interface{}{s.ContinuousTime, q.Value(s)}})
		}

		title := opts.Title{Title: q.Name}
		if i == 0 {
			title = opts.Title{Title: o.Title + ": " + q.Name, Subtitle: subtitle}
		}

		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "420px", AssetsHost: o.AssetsHost}),
			charts.WithTitleOpts(title),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
			charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Time (s)", NameLocation: "middle", NameGap: 25}),
			charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: q.Label}),
		)
		line.AddSeries(q.Slug, data, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(len(data) < 60)}))
		page.AddCharts(line)
	}

	return page.Render(w)
}
