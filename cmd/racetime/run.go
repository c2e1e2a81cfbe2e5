package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/banshee-data/racetime/internal/api"
	"github.com/banshee-data/racetime/internal/charts"
	"github.com/banshee-data/racetime/internal/config"
	"github.com/banshee-data/racetime/internal/dataset"
	"github.com/banshee-data/racetime/internal/dva"
	"github.com/banshee-data/racetime/internal/fsutil"
	"github.com/banshee-data/racetime/internal/httputil"
	"github.com/banshee-data/racetime/internal/monitoring"
	"github.com/banshee-data/racetime/internal/security"
	"github.com/banshee-data/racetime/internal/units"
	"github.com/banshee-data/racetime/internal/version"
)

const remoteTimeout = 30 * time.Second

type options struct {
	input    string
	mass     float64
	friction float64
	dir      string
	out      string
	detail   string
	parquet  string
	plots    string
	html     string
	units    string
	config   string
	logLevel string
	server   string
	version  bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	var o options
	fs := flag.NewFlagSet("racetime", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.input, "input", "", "thrust table CSV (\"-\" reads stdin)")
	fs.Float64Var(&o.mass, "mass", 0, "vehicle mass in grams")
	fs.Float64Var(&o.friction, "friction", 0, "coefficient of friction")
	fs.StringVar(&o.dir, "dir", ".", "directory every output path must stay inside")
	fs.StringVar(&o.out, "out", "", "write the DVA table as CSV (\"-\" writes stdout)")
	fs.StringVar(&o.detail, "detail", "", "write every intermediate column as CSV")
	fs.StringVar(&o.parquet, "parquet", "", "write the DVA table as Parquet")
	fs.StringVar(&o.plots, "plots", "", "write acceleration, speed and distance PNG plots to this directory")
	fs.StringVar(&o.html, "html", "", "write an interactive chart page")
	fs.StringVar(&o.units, "units", "", "top speed units: "+units.GetValidUnitsString())
	fs.StringVar(&o.config, "config", "", "path to a JSON or YAML config file")
	fs.StringVar(&o.logLevel, "log-level", "", "log level (overrides config)")
	fs.StringVar(&o.server, "server", "", "compute on a racetime server at this base URL")
	fs.BoolVar(&o.version, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return &o, nil
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer, fsys fsutil.FileSystem) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if o.version {
		fmt.Fprintln(stdout, version.String())
		return nil
	}

	cfg, err := config.Resolve(o.config)
	if err != nil {
		return err
	}
	level := o.logLevel
	if level == "" {
		level = cfg.GetLogLevel()
	}
	if err := monitoring.Logger().Configure(level, cfg.GetLogFormat(), cfg.GetLogOutput()); err != nil {
		return err
	}
	if cfg.GetLogOutput() == "stderr" {
		monitoring.Logger().SetOutput(stderr)
	}
	logger := monitoring.Logger().WithComponent("cli")

	unit := o.units
	if unit == "" {
		unit = cfg.GetDisplayUnits()
	}
	if !units.IsValid(unit) {
		return fmt.Errorf("%w: units must be one of %s, got %q", dva.ErrInvalidParameter, units.GetValidUnitsString(), unit)
	}
	if o.input == "" {
		return fmt.Errorf("%w: -input is required", dva.ErrMissingInput)
	}
	if o.server != "" && o.detail != "" {
		return fmt.Errorf("-detail is only available for local runs")
	}

	paths, err := resolveOutputs(o)
	if err != nil {
		return err
	}

	table, err := readInput(o.input, stdin, fsys)
	if err != nil {
		return err
	}
	p := dva.Params{VehicleMass: o.mass, FrictionCoefficient: o.friction}

	var (
		res   *dva.Result
		trace []dva.KinematicSample
	)
	if o.server != "" {
		res, err = computeRemote(o.server, table, p)
	} else {
		res, trace, err = computeLocal(table, p, paths.detail != "")
	}
	if err != nil {
		return err
	}
	logger.WithFields(monitoring.Fields{
		"samples": res.Summary.Samples,
		"remote":  o.server != "",
	}).Debug("dva computed")

	summaryOut := stdout
	if o.out == "-" {
		if err := dataset.WriteDerived(stdout, res.Samples); err != nil {
			return err
		}
		summaryOut = stderr
	} else if paths.out != "" {
		if err := writeFile(fsys, paths.out, func(w io.Writer) error { return dataset.WriteDerived(w, res.Samples) }); err != nil {
			return err
		}
		logger.Infof("wrote %s", paths.out)
	}

	if paths.detail != "" {
		if err := writeFile(fsys, paths.detail, func(w io.Writer) error { return dataset.WriteDetailed(w, trace) }); err != nil {
			return err
		}
		logger.Infof("wrote %s", paths.detail)
	}

	if paths.parquet != "" {
		if err := writeFile(fsys, paths.parquet, func(w io.Writer) error { return dataset.WriteParquet(w, res.Samples) }); err != nil {
			return err
		}
		logger.Infof("wrote %s", paths.parquet)
	}

	if paths.plots != "" {
		written, err := charts.WritePNGs(fsys, paths.plots, res, charts.PlotOptions{
			WidthIn:  cfg.GetChartWidthIn(),
			HeightIn: cfg.GetChartHeightIn(),
		})
		if err != nil {
			return err
		}
		for _, path := range written {
			logger.Infof("wrote %s", path)
		}
	}

	if paths.html != "" {
		err := writeFile(fsys, paths.html, func(w io.Writer) error {
			return charts.RenderHTML(w, res, charts.HTMLOptions{
				Title:      "Race Time",
				Units:      unit,
				AssetsHost: cfg.GetEchartsAssetsHost(),
			})
		})
		if err != nil {
			return err
		}
		logger.Infof("wrote %s", paths.html)
	}

	printSummary(summaryOut, res, unit)
	return nil
}

type outputPaths struct {
	out, detail, parquet, plots, html string
}

// resolveOutputs places every requested output under o.dir.
func resolveOutputs(o *options) (outputPaths, error) {
	out := o.out
	if out == "-" {
		out = ""
	}
	var paths outputPaths
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{out, &paths.out},
		{o.detail, &paths.detail},
		{o.parquet, &paths.parquet},
		{o.plots, &paths.plots},
		{o.html, &paths.html},
	} {
		if f.name == "" {
			continue
		}
		p, err := security.OutputPath(o.dir, f.name)
		if err != nil {
			return outputPaths{}, err
		}
		*f.dst = p
	}
	return paths, nil
}

func readInput(name string, stdin io.Reader, fsys fsutil.FileSystem) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(stdin)
	}
	data, err := fsys.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", dva.ErrMissingInput, err)
	}
	return data, nil
}

func computeLocal(table []byte, p dva.Params, withTrace bool) (*dva.Result, []dva.KinematicSample, error) {
	series, err := dataset.ReadSamples(bytes.NewReader(table))
	if err != nil {
		return nil, nil, err
	}
	res, err := dva.Run(series, p)
	if err != nil {
		return nil, nil, err
	}
	if !withTrace {
		return res, nil, nil
	}
	trace, err := dva.Trace(series, p)
	if err != nil {
		return nil, nil, err
	}
	return res, trace, nil
}

func computeRemote(server string, table []byte, p dva.Params) (*dva.Result, error) {
	ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout)
	defer cancel()

	client := api.NewClient(server, httputil.NewStandardClient(&http.Client{Timeout: remoteTimeout}))
	resp, err := client.Compute(ctx, bytes.NewReader(table), p, units.MPS)
	if err != nil {
		return nil, err
	}
	return &dva.Result{
		Samples: resp.Samples,
		Summary: dva.Summary{
			TopSpeed:    units.ConvertSpeed(resp.TopSpeedMPS, units.KMPH),
			TopSpeedMPS: resp.TopSpeedMPS,
			EndTime:     resp.EndTime,
			Samples:     len(resp.Samples),
		},
	}, nil
}

func writeFile(fsys fsutil.FileSystem, path string, write func(io.Writer) error) error {
	f, err := fsys.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func printSummary(w io.Writer, res *dva.Result, unit string) {
	fmt.Fprintf(w, "Top Speed (%s): %.4f\n", units.Label(unit), units.ConvertSpeed(res.Summary.TopSpeedMPS, unit))
	fmt.Fprintf(w, "End Time (sec): %.4f\n", res.Summary.EndTime)
}
