// Package main provides a command that fetches the insights view once and
// prints it as a terminal chart.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/breatheroute/airdash/internal/airquality/aqapi"
	"github.com/breatheroute/airdash/internal/insights"
	"github.com/breatheroute/airdash/internal/termview"
)

// Version is set at compile time via ldflags.
var Version = "dev"

type options struct {
	apiURL      string
	granularity string
	window      int
	year        int
	timeout     time.Duration
	barWidth    int
	verbose     bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	var opts options

	return &cli.Command{
		Name:    "airdash-insights",
		Usage:   "Print NO2 and O3 trends for the configured backend",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "api-url",
				Usage:       "Air quality backend base URL",
				Value:       aqapi.DefaultBaseURL,
				Sources:     cli.EnvVars("AIRDASH_API_BASE_URL"),
				Destination: &opts.apiURL,
			},
			&cli.StringFlag{
				Name:        "granularity",
				Aliases:     []string{"g"},
				Usage:       "monthly, weekly or daily",
				Value:       string(insights.Monthly),
				Destination: &opts.granularity,
			},
			&cli.IntFlag{
				Name:        "window",
				Aliases:     []string{"w"},
				Usage:       "Window size for the granularity (0 uses the default)",
				Destination: &opts.window,
			},
			&cli.IntFlag{
				Name:        "year",
				Usage:       "Year to chart in monthly view (0 uses the current year)",
				Destination: &opts.year,
			},
			&cli.DurationFlag{
				Name:        "timeout",
				Usage:       "Timeout for a single backend request",
				Value:       10 * time.Second,
				Destination: &opts.timeout,
			},
			&cli.IntFlag{
				Name:        "bar-width",
				Usage:       "Width of the longest bar",
				Value:       termview.DefaultBarWidth,
				Destination: &opts.barWidth,
			},
			&cli.BoolFlag{
				Name:        "verbose",
				Aliases:     []string{"v"},
				Usage:       "Log requests to stderr",
				Destination: &opts.verbose,
			},
		},
		Action: func(ctx context.Context, _ *cli.Command) error {
			return run(ctx, opts)
		},
	}
}

func run(ctx context.Context, opts options) error {
	level := zerolog.WarnLevel
	if opts.verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().
		Timestamp().
		Logger()

	sel, err := selection(opts, time.Now())
	if err != nil {
		return err
	}

	fetcher := insights.NewFetcher(insights.FetcherConfig{
		Source: aqapi.NewClient(aqapi.ClientConfig{
			BaseURL: opts.apiURL,
			Timeout: opts.timeout,
			Logger:  log,
		}),
		Logger: log,
	})

	result, err := fetcher.Fetch(ctx, sel)
	if err != nil {
		return fmt.Errorf("%s: %w", insights.FailureMessage, err)
	}

	years := insights.Years(result.Historical.Monthly)
	if opts.year != 0 {
		sel, err = sel.WithYear(opts.year, years)
		if err != nil {
			return err
		}
	}

	view := insights.View{
		Status:        insights.StatusReady,
		Selection:     sel,
		WindowOptions: sel.Granularity.WindowSizes(),
		Title:         sel.Title(),
		Chart:         insights.Transform(result.Historical, sel),
		Years:         years,
		Seasonal:      result.Seasonal,
		UpdatedAt:     time.Now(),
	}

	fmt.Println(termview.Render(view, termview.Options{BarWidth: opts.barWidth}))
	return nil
}

// selection builds the range selection from the flags. The year is applied
// after the fetch, once the available years are known.
func selection(opts options, now time.Time) (insights.RangeSelection, error) {
	g, err := insights.ParseGranularity(opts.granularity)
	if err != nil {
		return insights.RangeSelection{}, err
	}

	sel, err := insights.NewRangeSelection(now).WithGranularity(g)
	if err != nil {
		return insights.RangeSelection{}, err
	}

	if opts.window != 0 {
		sel, err = sel.WithWindowSize(g, opts.window)
		if err != nil {
			return insights.RangeSelection{}, err
		}
	}
	return sel, nil
}
