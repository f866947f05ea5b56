// Command apexlinectl runs the racing-line optimizer and inspects its
// run archive.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"

	"gonum.org/v1/gonum/spatial/r3"

	"apexline/internal/config"
	"apexline/internal/stats"
	"apexline/internal/track"
	"apexline/internal/trackio"
	"apexline/pkg/apexline"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}
	switch args[0] {
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "fitness":
		return runFitness(ctx, args[1:])
	case "diagnostics":
		return runDiagnostics(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "plot":
		return runPlot(ctx, args[1:])
	case "track-info":
		return runTrackInfo(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(msg string) error {
	return errors.New(msg + `

usage: apexlinectl <command> [flags]

commands:
  run          run an optimization and archive the result
  runs         list archived runs
  fitness      print a run's best-fitness history
  diagnostics  print a run's per-generation telemetry
  export       write a run's best line as CSV vertices
  plot         re-render a run's plots from the archive
  track-info   describe a track without optimizing`)
}

type storeFlags struct {
	kind   *string
	dbPath *string
}

func addStoreFlags(fs *flag.FlagSet) storeFlags {
	return storeFlags{
		kind:   fs.String("store", "", "store backend: memory|sqlite (default from config)"),
		dbPath: fs.String("db-path", "apexline.db", "sqlite database path"),
	}
}

func newClient(ctx context.Context, sf storeFlags, cfg config.Config) (*apexline.Client, error) {
	kind := cfg.Store.Kind
	if *sf.kind != "" {
		kind = *sf.kind
	}
	dbPath := cfg.Store.Path
	if dbPath == "" {
		dbPath = *sf.dbPath
	}
	artifactsDir := cfg.Output.ArtifactsDir
	return apexline.NewClient(ctx, apexline.Options{
		StoreKind:    kind,
		DBPath:       dbPath,
		ArtifactsDir: artifactsDir,
	})
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML configuration file (defaults used when empty)")
	seed := fs.Int64("seed", -1, "override random seed")
	generations := fs.Int("generations", 0, "override generation limit")
	strategy := fs.String("strategy", "", "override strategy: mu_plus_lambda|cma_es")
	trackName := fs.String("track", "", "override synthetic track name")
	trackCSV := fs.String("track-csv", "", "override track centerline CSV path")
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if *seed >= 0 {
		cfg.Run.Seed = *seed
	}
	if *generations > 0 {
		cfg.Run.Generations = *generations
	}
	if *strategy != "" {
		cfg.Run.Strategy = *strategy
	}
	if *trackCSV != "" {
		cfg.Track = config.TrackConfig{Source: "csv", Path: *trackCSV}
	} else if *trackName != "" {
		cfg.Track = config.TrackConfig{Source: "synthetic", Name: *trackName}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	client, err := newClient(ctx, sf, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	summary, err := client.Run(ctx, apexline.RunRequest{Config: cfg})
	if err != nil {
		return err
	}

	fmt.Printf("run %s on %s finished: %s after %d generations\n",
		summary.RunID, summary.Track, summary.StopReason, summary.GenerationsRun)
	fmt.Printf("best lap time %.3fs (fitness %.6f)\n", summary.BestLapTimeSeconds, summary.BestFitness)
	fmt.Printf("artifacts: %s\n", summary.ArtifactsDir)
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "maximum runs to list")
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(ctx, sf, config.Default())
	if err != nil {
		return err
	}
	defer client.Close()

	runs, err := client.Runs(ctx, *limit)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tCREATED\tTRACK\tSTRATEGY\tGENS\tLAP TIME\tSTOP")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d\t%.3fs\t%s\n",
			r.ID, r.CreatedAtUTC, r.Track, r.Strategy, r.GenerationsRun, r.Generations, r.BestLapTimeSec, r.StopReason)
	}
	return w.Flush()
}

func runFitness(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fitness", flag.ContinueOnError)
	runID := fs.String("run", "", "run id")
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return errors.New("-run is required")
	}

	client, err := newClient(ctx, sf, config.Default())
	if err != nil {
		return err
	}
	defer client.Close()

	history, ok, err := client.FitnessHistory(ctx, *runID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no fitness history for run %s", *runID)
	}
	for i, f := range history {
		fmt.Printf("%d\t%.6f\n", i+1, f)
	}
	return nil
}

func runDiagnostics(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("diagnostics", flag.ContinueOnError)
	runID := fs.String("run", "", "run id")
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return errors.New("-run is required")
	}

	client, err := newClient(ctx, sf, config.Default())
	if err != nil {
		return err
	}
	defer client.Close()

	diagnostics, ok, err := client.Diagnostics(ctx, *runID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no diagnostics for run %s", *runID)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "GEN\tBEST\tMEAN\tMIN\tSTD\tINVALID\tMEAN SIGMA")
	for _, d := range diagnostics {
		fmt.Fprintf(w, "%d\t%.6f\t%.6f\t%.6f\t%.6f\t%d\t%.4f\n",
			d.Generation, d.BestFitness, d.MeanFitness, d.MinFitness, d.FitnessStd, d.InvalidCount, d.MeanSigma)
	}
	return w.Flush()
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	runID := fs.String("run", "", "run id")
	out := fs.String("out", "", "output CSV path (stdout when empty)")
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return errors.New("-run is required")
	}

	client, err := newClient(ctx, sf, config.Default())
	if err != nil {
		return err
	}
	defer client.Close()

	line, ok, err := client.BestLine(ctx, *runID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no best line for run %s", *runID)
	}

	points := make([]r3.Vec, len(line.Vertices))
	for i, v := range line.Vertices {
		points[i] = r3.Vec{X: v.X, Y: v.Y, Z: v.Z}
	}
	if *out == "" {
		return trackio.WriteLineCSV(os.Stdout, points)
	}
	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := trackio.WriteLineCSV(f, points); err != nil {
		return err
	}
	fmt.Printf("wrote %d vertices to %s (lap time %.3fs)\n", len(points), *out, line.LapTimeSeconds)
	return nil
}

func runPlot(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("plot", flag.ContinueOnError)
	runID := fs.String("run", "", "run id")
	out := fs.String("out", "", "output directory (default artifacts/<run>)")
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return errors.New("-run is required")
	}

	cfg := config.Default()
	client, err := newClient(ctx, sf, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	run, ok, err := client.RunByID(ctx, *runID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no run %s", *runID)
	}
	history, _, err := client.FitnessHistory(ctx, *runID)
	if err != nil {
		return err
	}
	diagnostics, _, err := client.Diagnostics(ctx, *runID)
	if err != nil {
		return err
	}
	line, ok, err := client.BestLine(ctx, *runID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no best line for run %s", *runID)
	}

	dir := *out
	if dir == "" {
		dir = filepath.Join(cfg.Output.ArtifactsDir, *runID)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := stats.WritePlots(dir, stats.RunArtifacts{
		Run:              run,
		Config:           cfg,
		BestByGeneration: history,
		Diagnostics:      diagnostics,
		Best:             line,
	}); err != nil {
		return err
	}
	fmt.Printf("wrote plots for run %s to %s\n", *runID, dir)
	return nil
}

func runTrackInfo(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("track-info", flag.ContinueOnError)
	trackName := fs.String("track", "", "synthetic track name")
	trackCSV := fs.String("track-csv", "", "track centerline CSV path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var source apexline.TrackSource
	switch {
	case *trackCSV != "":
		source = apexline.CSVTrackSource{Path: *trackCSV}
	case *trackName != "":
		source = apexline.SyntheticTrackSource{TrackName: *trackName}
	default:
		return errors.New("one of -track or -track-csv is required")
	}

	points, widths, err := source.Load(ctx)
	if err != nil {
		return err
	}
	trk, err := track.New(points, widths)
	if err != nil {
		return err
	}

	minW, maxW := widths[0], widths[0]
	for _, w := range widths[1:] {
		if w < minW {
			minW = w
		}
		if w > maxW {
			maxW = w
		}
	}
	fmt.Printf("track %s: %d points, %.1fm perimeter, width %.1f-%.1fm\n",
		source.Name(), trk.PointCount(), trk.ArcLength(), minW, maxW)
	return nil
}
