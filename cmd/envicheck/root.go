package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/envicheck/envicheck/internal/aqi"
	"github.com/envicheck/envicheck/internal/geo"
	"github.com/envicheck/envicheck/internal/inspector"
	"github.com/envicheck/envicheck/internal/terminal"
)

const defaultBackend = "http://localhost:8080"

// errReported marks a failure that has already been shown to the user.
var errReported = errors.New("reported")

type options struct {
	backend string
	timeout time.Duration
	verbose bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "envicheck",
		Short:         "Inspect air quality and weather for any location",
		Long:          "envicheck queries an EnviCheck backend for the environment report of a coordinate or a searched place.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	backend := os.Getenv("ENVICHECK_BACKEND")
	if backend == "" {
		backend = defaultBackend
	}
	rootCmd.PersistentFlags().StringVarP(&opts.backend, "backend", "b", backend, "Backend base URL")
	rootCmd.PersistentFlags().DurationVarP(&opts.timeout, "timeout", "t", inspector.DefaultFetchTimeout, "Request timeout")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Print map events and debug logs")

	rootCmd.AddCommand(
		newInspectCmd(opts),
		newSearchCmd(opts),
		newClassifyCmd(),
		newInteractiveCmd(opts),
	)
	return rootCmd
}

// session wires a controller to the terminal front end.
type session struct {
	controller *inspector.Controller
	mapView    *terminal.Map
}

func newSession(cmd *cobra.Command, opts *options) (*session, error) {
	logger := zerolog.Nop()
	mapOpts := []terminal.Option{}
	if opts.verbose {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).
			Level(zerolog.DebugLevel).
			With().Timestamp().Logger()
		mapOpts = append(mapOpts, terminal.WithVerbose(), terminal.WithLoading())
	}

	backendCfg := inspector.FetcherConfig{BaseURL: opts.backend}
	mapView := terminal.NewMap(cmd.OutOrStdout(), mapOpts...)

	controller, err := inspector.NewController(inspector.Config{
		Map:          mapView,
		Fetcher:      inspector.NewHTTPFetcher(backendCfg),
		Geocoder:     inspector.NewHTTPSearcher(backendCfg),
		Notifier:     terminal.NewNotifier(cmd.ErrOrStderr()),
		FetchTimeout: opts.timeout,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}
	return &session{controller: controller, mapView: mapView}, nil
}

func newInspectCmd(opts *options) *cobra.Command {
	var lat, lon string

	cmd := &cobra.Command{
		Use:     "inspect",
		Short:   "Show the environment report for a coordinate",
		Example: "  envicheck inspect --lat 48.8566 --lon 2.3522",
		RunE: func(cmd *cobra.Command, _ []string) error {
			coord, err := geo.Parse(lat, lon)
			if err != nil {
				return err
			}
			s, err := newSession(cmd, opts)
			if err != nil {
				return err
			}
			return reported(s.controller.HandleCoordinate(cmd.Context(), coord))
		},
	}
	cmd.Flags().StringVar(&lat, "lat", "", "Latitude in degrees")
	cmd.Flags().StringVar(&lon, "lon", "", "Longitude in degrees")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
	return cmd
}

func newSearchCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "search <place>",
		Short:   "Find a place and show its environment report",
		Example: "  envicheck search Eiffel Tower",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, opts)
			if err != nil {
				return err
			}
			return reported(s.controller.HandleSearch(cmd.Context(), strings.Join(args, " ")))
		},
	}
}

// reported wraps a controller error; the notifier has already printed it.
func reported(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", errReported, err)
}

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "classify <aqi>",
		Short:   "Print the AQI category for a value",
		Example: "  envicheck classify 42",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.Atoi(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("invalid AQI %q: must be an integer", args[0])
			}
			band := aqi.Classify(value)
			fmt.Fprintf(cmd.OutOrStdout(), "%d: %s (%s)\n%s\n", value, band.Category, band.StyleClass, band.Description)
			return nil
		},
	}
}

func newInteractiveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Read coordinates (lat,lon) or place names from stdin",
		Long: "Each input line starts a new interaction without waiting for the previous one. " +
			"Lines of the form \"lat,lon\" are inspected directly; anything else is searched.",
		Aliases: []string{"repl"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(cmd, opts)
			if err != nil {
				return err
			}
			return readInteractions(cmd.Context(), cmd.InOrStdin(), s.controller)
		},
	}
}

// readInteractions dispatches one interaction per input line and waits for
// all of them once the input is exhausted.
func readInteractions(ctx context.Context, in io.Reader, c *inspector.Controller) error {
	inspect := c.CoordinateHandler(ctx)

	var searches sync.WaitGroup
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if coord, ok := parseCoordinateLine(line); ok {
			inspect(coord)
			continue
		}
		searches.Add(1)
		go func(query string) {
			defer searches.Done()
			_ = c.HandleSearch(ctx, query)
		}(line)
	}

	searches.Wait()
	c.Wait()
	return scanner.Err()
}

func parseCoordinateLine(line string) (geo.Coordinate, bool) {
	lat, lon, ok := strings.Cut(line, ",")
	if !ok {
		return geo.Coordinate{}, false
	}
	coord, err := geo.Parse(strings.TrimSpace(lat), strings.TrimSpace(lon))
	if err != nil {
		return geo.Coordinate{}, false
	}
	return coord, true
}
