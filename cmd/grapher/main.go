package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/cactusdynamics/grapher"
	"github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"
)

type Options struct {
	Config string `short:"c" long:"config" description:"chart document (YAML or JSON) using the files_and_labels, lines_and_labels, ranges, title, xlabel and ylabel keys" value-name:"FILE"`
	Kind   string `short:"k" long:"kind" description:"chart kind" choice:"cdf" choice:"line"`

	Series      []string `short:"s" long:"series" description:"data file and legend label, repeatable" value-name:"PATH=LABEL"`
	VLines      []string `long:"vline" description:"vertical marker with its own color, repeatable" value-name:"X=LABEL"`
	VLineGroups []string `long:"vline-group" description:"vertical markers sharing one color, repeatable" value-name:"X=LABEL,X=LABEL"`
	Ranges      []string `long:"range" description:"shaded x ranges sharing one color (line charts), repeatable" value-name:"X1:X2,X1:X2"`

	Title  string `short:"t" long:"title" description:"chart title"`
	XLabel string `long:"xlabel" description:"x axis label"`
	YLabel string `long:"ylabel" description:"y axis label"`

	Output string  `short:"o" long:"output" description:"write the chart to this file (format from extension) instead of serving it" value-name:"FILE"`
	Width  float64 `long:"width" description:"chart width in inches"`
	Height float64 `long:"height" description:"chart height in inches"`

	Host      string `long:"host" description:"host to serve the chart on" default:"localhost"`
	Port      uint16 `short:"p" long:"port" description:"port to serve the chart on (0 picks a free one)" default:"5274"`
	NoBrowser bool   `long:"no-browser" description:"do not open a browser tab"`

	LogLevel string `long:"log-level" description:"log level" default:"info" choice:"debug" choice:"info" choice:"warn" choice:"error"`

	Args struct {
		Series []string `positional-arg-name:"PATH=LABEL"`
	} `positional-args:"yes"`
}

// Merges the chart document, if any, with the flags. Flags win: scalar flags
// replace document values when set, and list flags replace the whole list.
// --vline markers come before --vline-group groups.
func buildSpec(opts Options) (grapher.ChartSpec, error) {
	var spec grapher.ChartSpec
	if opts.Config != "" {
		var err error
		spec, err = grapher.LoadChartSpec(opts.Config)
		if err != nil {
			return grapher.ChartSpec{}, err
		}
	}

	if opts.Kind != "" {
		spec.Kind = grapher.ChartKind(opts.Kind)
	}

	seriesFlags := append(append([]string{}, opts.Series...), opts.Args.Series...)
	if len(seriesFlags) > 0 {
		spec.Series = make([]grapher.Series, 0, len(seriesFlags))
		for _, value := range seriesFlags {
			series, err := grapher.ParseSeriesFlag(value)
			if err != nil {
				return grapher.ChartSpec{}, err
			}
			spec.Series = append(spec.Series, series)
		}
	}

	if len(opts.VLines) > 0 || len(opts.VLineGroups) > 0 {
		spec.Markers = grapher.MarkerGroups{}
		for _, value := range opts.VLines {
			marker, err := grapher.ParseMarkerFlag(value)
			if err != nil {
				return grapher.ChartSpec{}, err
			}
			spec.Markers = append(spec.Markers, []grapher.Marker{marker})
		}

		for _, value := range opts.VLineGroups {
			group, err := grapher.ParseMarkerGroupFlag(value)
			if err != nil {
				return grapher.ChartSpec{}, err
			}
			spec.Markers = append(spec.Markers, group)
		}
	}

	if len(opts.Ranges) > 0 {
		spec.Ranges = grapher.SpanGroups{}
		for _, value := range opts.Ranges {
			group, err := grapher.ParseSpanGroupFlag(value)
			if err != nil {
				return grapher.ChartSpec{}, err
			}
			spec.Ranges = append(spec.Ranges, group)
		}
	}

	if opts.Title != "" {
		spec.Title = opts.Title
	}
	if opts.XLabel != "" {
		spec.XLabel = opts.XLabel
	}
	if opts.YLabel != "" {
		spec.YLabel = opts.YLabel
	}
	if opts.Width != 0 {
		spec.Width = opts.Width
	}
	if opts.Height != 0 {
		spec.Height = opts.Height
	}

	return spec, spec.Validate()
}

func run(ctx context.Context, opts Options) error {
	level, err := logrus.ParseLevel(opts.LogLevel)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)

	spec, err := buildSpec(opts)
	if err != nil {
		return err
	}

	chart, err := grapher.Render(ctx, spec)
	if err != nil {
		return err
	}

	if opts.Output != "" {
		if err := chart.Save(opts.Output); err != nil {
			return fmt.Errorf("saving chart: %w", err)
		}
		logrus.WithField("path", opts.Output).Info("wrote chart")
		return nil
	}

	server, err := grapher.NewHttpServer(chart, opts.Host, opts.Port, !opts.NoBrowser)
	if err != nil {
		return err
	}

	return server.Run(ctx)
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	parser.Usage = "[OPTIONS] [PATH=LABEL...]"

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts); err != nil {
		logrus.WithError(err).Error("grapher failed")
		os.Exit(1)
	}
}
