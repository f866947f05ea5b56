// Package apexline is the public facade of the racing-line optimizer:
// construct a client, point it at a track source, run, inspect the
// archive, export the line.
package apexline

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"apexline/internal/config"
	"apexline/internal/evo"
	"apexline/internal/model"
	"apexline/internal/sim"
	"apexline/internal/stats"
	"apexline/internal/storage"
	"apexline/internal/track"
)

const defaultArtifactsDir = "artifacts"

// Options configures a Client.
type Options struct {
	StoreKind    string // "memory" (default) or "sqlite"
	DBPath       string
	ArtifactsDir string
}

// Client owns the run archive and artifact directory.
type Client struct {
	store        storage.Store
	artifactsDir string
}

func NewClient(ctx context.Context, opts Options) (*Client, error) {
	store, err := storage.NewStore(opts.StoreKind, opts.DBPath)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	dir := opts.ArtifactsDir
	if dir == "" {
		dir = defaultArtifactsDir
	}
	return &Client{store: store, artifactsDir: dir}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// ResultSink receives the best candidate's reconstructed path and run
// statistics, typically to render or export it in a host tool.
type ResultSink interface {
	Consume(ctx context.Context, summary RunSummary, line model.BestLine) error
}

// RunRequest describes one optimization run. Source overrides the track
// section of the config when set; Sink is optional.
type RunRequest struct {
	Config config.Config
	Source TrackSource
	Sink   ResultSink
}

// RunSummary reports a finished run.
type RunSummary struct {
	RunID              string
	ArtifactsDir       string
	Track              string
	StopReason         string
	GenerationsRun     int
	BestLapTimeSeconds float64
	BestFitness        float64
	BestByGeneration   []float64
}

// Run executes an optimization run end to end: load geometry, build the
// track model, evolve, persist, export.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	cfg := req.Config
	if err := cfg.Validate(); err != nil {
		return RunSummary{}, err
	}

	source := req.Source
	if source == nil {
		var err error
		source, err = SourceFromConfig(cfg.Track)
		if err != nil {
			return RunSummary{}, err
		}
	}
	points, widths, err := source.Load(ctx)
	if err != nil {
		return RunSummary{}, fmt.Errorf("load track %s: %w", source.Name(), err)
	}
	trk, err := track.New(points, widths)
	if err != nil {
		return RunSummary{}, err
	}

	evaluator, err := evo.NewEvaluator(trk, sim.Params{
		Vehicle: sim.Vehicle{
			MassKG:          cfg.Vehicle.MassKG,
			PeakPowerW:      cfg.Vehicle.PeakPowerW,
			PeakBrakeDecel:  cfg.Vehicle.PeakBrakeDecel,
			Friction:        cfg.Vehicle.Friction,
			DragCoefficient: cfg.Vehicle.DragCoefficient,
			FrontalAreaM2:   cfg.Vehicle.FrontalAreaM2,
			MaxSpeedMPS:     cfg.Vehicle.MaxSpeedMPS,
		},
		StartSpeedMPS: cfg.Run.StartSpeedMPS,
		Gravity:       cfg.Vehicle.Gravity,
	}, cfg.Run.Density, cfg.Run.PenaltyFitness)
	if err != nil {
		return RunSummary{}, err
	}

	strategy, err := buildStrategy(trk, cfg.Run)
	if err != nil {
		return RunSummary{}, err
	}

	engine, err := evo.NewEngine(evo.EngineConfig{
		Evaluator:      evaluator,
		Strategy:       strategy,
		Generations:    cfg.Run.Generations,
		PlateauWindow:  cfg.Run.PlateauWindow,
		PlateauEpsilon: cfg.Run.PlateauEpsilon,
		Workers:        cfg.Run.Workers,
		Seed:           cfg.Run.Seed,
	})
	if err != nil {
		return RunSummary{}, err
	}

	seedRng := rand.New(rand.NewSource(cfg.Run.Seed))
	initial, err := evo.SeedPopulation(seedRng, trk, cfg.Run.SampleCount, cfg.Run.Mu, cfg.Run.SigmaFraction)
	if err != nil {
		return RunSummary{}, err
	}

	result, err := engine.Run(ctx, initial)
	if err != nil {
		return RunSummary{}, err
	}

	line, profile, err := evaluator.Line(result.Best.Candidate)
	if err != nil {
		return RunSummary{}, err
	}
	vertices := make([]model.Vertex, len(line.Points))
	for i, p := range line.Points {
		vertices[i] = model.Vertex{X: p.X, Y: p.Y, Z: p.Z}
	}

	runID := uuid.NewString()
	best := model.BestLine{
		VersionedRecord: storage.Stamp(),
		RunID:           runID,
		LapTimeSeconds:  result.Best.Record.LapTimeSeconds,
		Fitness:         result.Best.Record.Fitness,
		Genes:           result.Best.Candidate.Genes,
		Vertices:        vertices,
		Velocity:        profile.Segments,
	}
	run := model.RunRecord{
		VersionedRecord: storage.Stamp(),
		ID:              runID,
		CreatedAtUTC:    time.Now().UTC().Format(time.RFC3339),
		Track:           source.Name(),
		Strategy:        strategy.Name(),
		Mu:              cfg.Run.Mu,
		Lambda:          cfg.Run.Lambda,
		SampleCount:     cfg.Run.SampleCount,
		Generations:     cfg.Run.Generations,
		GenerationsRun:  result.GenerationsRun,
		Seed:            cfg.Run.Seed,
		StopReason:      result.StopReason,
		BestLapTimeSec:  result.Best.Record.LapTimeSeconds,
		BestFitness:     result.Best.Record.Fitness,
	}

	if err := c.store.SaveRun(ctx, run); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveFitnessHistory(ctx, runID, result.BestByGeneration); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveDiagnostics(ctx, runID, result.Diagnostics); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveBestLine(ctx, best); err != nil {
		return RunSummary{}, err
	}

	artifacts := stats.RunArtifacts{
		Run:              run,
		Config:           cfg,
		BestByGeneration: result.BestByGeneration,
		Diagnostics:      result.Diagnostics,
		Best:             best,
	}
	dir, err := stats.Write(c.artifactsDir, artifacts)
	if err != nil {
		return RunSummary{}, err
	}
	if cfg.Output.Plots {
		if err := stats.WritePlots(dir, artifacts); err != nil {
			return RunSummary{}, err
		}
	}

	summary := RunSummary{
		RunID:              runID,
		ArtifactsDir:       dir,
		Track:              source.Name(),
		StopReason:         result.StopReason,
		GenerationsRun:     result.GenerationsRun,
		BestLapTimeSeconds: result.Best.Record.LapTimeSeconds,
		BestFitness:        result.Best.Record.Fitness,
		BestByGeneration:   result.BestByGeneration,
	}
	if req.Sink != nil {
		if err := req.Sink.Consume(ctx, summary, best); err != nil {
			return RunSummary{}, fmt.Errorf("result sink: %w", err)
		}
	}
	return summary, nil
}

func buildStrategy(trk *track.Track, rc config.RunConfig) (evo.Strategy, error) {
	switch rc.Strategy {
	case "mu_plus_lambda":
		mutation, err := evo.NewSelfAdaptiveMutation(trk, rc.SampleCount, rc.Tau)
		if err != nil {
			return nil, err
		}
		recombiner, err := evo.NewRecombiner(rc.Recombination)
		if err != nil {
			return nil, err
		}
		return evo.NewMuPlusLambda(rc.Mu, rc.Lambda, mutation, recombiner)
	case "cma_es":
		return evo.NewCMAES(trk, rc.SampleCount, rc.Lambda, rc.SigmaFraction)
	default:
		return nil, fmt.Errorf("unsupported strategy: %s", rc.Strategy)
	}
}

// Runs lists archived runs, newest first.
func (c *Client) Runs(ctx context.Context, limit int) ([]model.RunRecord, error) {
	return c.store.ListRuns(ctx, limit)
}

// Run returns one archived run record.
func (c *Client) RunByID(ctx context.Context, id string) (model.RunRecord, bool, error) {
	return c.store.GetRun(ctx, id)
}

// FitnessHistory returns the per-generation best fitness of a run.
func (c *Client) FitnessHistory(ctx context.Context, runID string) ([]float64, bool, error) {
	return c.store.GetFitnessHistory(ctx, runID)
}

// Diagnostics returns the per-generation telemetry of a run.
func (c *Client) Diagnostics(ctx context.Context, runID string) ([]model.GenerationDiagnostics, bool, error) {
	return c.store.GetDiagnostics(ctx, runID)
}

// BestLine returns the winning racing line of a run.
func (c *Client) BestLine(ctx context.Context, runID string) (model.BestLine, bool, error) {
	return c.store.GetBestLine(ctx, runID)
}
