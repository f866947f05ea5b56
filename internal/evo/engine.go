package evo

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"

	"github.com/sourcegraph/conc/pool"
	"gonum.org/v1/gonum/stat"

	"apexline/internal/model"
)

// Stop reasons reported in RunResult and the run archive.
const (
	StopGenerationLimit = "generation_limit"
	StopPlateau         = "plateau"
	StopCancelled       = "cancelled"
)

// EngineConfig wires an engine together. Strategy is pluggable: the
// engine only ever asks it for the next pool.
type EngineConfig struct {
	Evaluator *Evaluator
	Strategy  Strategy

	Generations    int
	PlateauWindow  int     // 0 disables plateau detection
	PlateauEpsilon float64 // minimum relative best-fitness gain per window

	Workers int
	Seed    int64
}

// RunResult is what a finished (or cancelled) run hands to the caller.
type RunResult struct {
	Best             ScoredCandidate
	BestByGeneration []float64
	Diagnostics      []model.GenerationDiagnostics
	GenerationsRun   int
	StopReason       string
}

// Engine drives the optimization through its generation states:
// evaluate, select, reproduce, loop until a termination criterion fires.
type Engine struct {
	cfg EngineConfig
	rng *rand.Rand
}

func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Evaluator == nil {
		return nil, fmt.Errorf("evaluator is required")
	}
	if cfg.Strategy == nil {
		return nil, fmt.Errorf("strategy is required")
	}
	if cfg.Generations <= 0 {
		return nil, fmt.Errorf("generations must be > 0")
	}
	if cfg.PlateauWindow < 0 {
		return nil, fmt.Errorf("plateau window must be >= 0")
	}
	if cfg.PlateauWindow > 0 && cfg.PlateauEpsilon < 0 {
		return nil, fmt.Errorf("plateau epsilon must be >= 0")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return &Engine{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}, nil
}

// Run evolves the initial population until the generation limit, a
// fitness plateau or cancellation. Cancellation is cooperative: it is
// observed at generation boundaries only, and the best candidate seen so
// far is returned rather than discarded.
func (e *Engine) Run(ctx context.Context, initial []model.Candidate) (RunResult, error) {
	if len(initial) == 0 {
		return RunResult{}, fmt.Errorf("initial population is empty")
	}

	population := make([]model.Candidate, len(initial))
	copy(population, initial)

	result := RunResult{
		BestByGeneration: make([]float64, 0, e.cfg.Generations),
		Diagnostics:      make([]model.GenerationDiagnostics, 0, e.cfg.Generations),
	}
	haveBest := false

	for gen := 0; gen < e.cfg.Generations; gen++ {
		if ctx.Err() != nil {
			result.StopReason = StopCancelled
			return result, nil
		}

		scored, err := e.evaluatePool(population)
		if err != nil {
			return RunResult{}, err
		}

		for _, sc := range scored {
			if !haveBest || sc.Record.Fitness > result.Best.Record.Fitness {
				result.Best = ScoredCandidate{Candidate: sc.Candidate.Clone(), Record: sc.Record}
				haveBest = true
			}
		}
		result.BestByGeneration = append(result.BestByGeneration, result.Best.Record.Fitness)
		result.Diagnostics = append(result.Diagnostics, summarize(scored, gen+1))
		result.GenerationsRun = gen + 1

		if e.plateaued(result.BestByGeneration) {
			result.StopReason = StopPlateau
			return result, nil
		}
		if gen == e.cfg.Generations-1 {
			break
		}

		population, err = e.cfg.Strategy.NextGeneration(e.rng, scored)
		if err != nil {
			return RunResult{}, err
		}
		if len(population) == 0 {
			return RunResult{}, fmt.Errorf("strategy %s produced an empty pool", e.cfg.Strategy.Name())
		}
	}

	result.StopReason = StopGenerationLimit
	return result, nil
}

// evaluatePool scores every candidate concurrently. Results are written
// by index, so worker scheduling never changes the outcome.
func (e *Engine) evaluatePool(population []model.Candidate) ([]ScoredCandidate, error) {
	scored := make([]ScoredCandidate, len(population))
	errs := make([]error, len(population))

	p := pool.New().WithMaxGoroutines(e.cfg.Workers)
	for i, cand := range population {
		i, cand := i, cand
		p.Go(func() {
			record, err := e.cfg.Evaluator.Evaluate(cand)
			if err != nil {
				errs[i] = err
				return
			}
			scored[i] = ScoredCandidate{Candidate: cand, Record: record}
		})
	}
	p.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("evaluate candidate %d: %w", i, err)
		}
	}
	return scored, nil
}

// plateaued reports whether the best fitness gained less than the
// configured relative epsilon over the plateau window.
func (e *Engine) plateaued(history []float64) bool {
	w := e.cfg.PlateauWindow
	if w <= 0 || len(history) <= w {
		return false
	}
	latest := history[len(history)-1]
	earlier := history[len(history)-1-w]
	if earlier <= 0 {
		return false
	}
	return (latest-earlier)/earlier < e.cfg.PlateauEpsilon
}

func summarize(scored []ScoredCandidate, generation int) model.GenerationDiagnostics {
	fitnesses := make([]float64, len(scored))
	invalid := 0
	sigmaSum := 0.0
	sigmaCount := 0
	best := scored[0]
	for i, sc := range scored {
		fitnesses[i] = sc.Record.Fitness
		if !sc.Record.Valid {
			invalid++
		}
		for _, g := range sc.Candidate.Genes {
			sigmaSum += g.Sigma
			sigmaCount++
		}
		if sc.Record.Fitness > best.Record.Fitness {
			best = sc
		}
	}

	d := model.GenerationDiagnostics{
		Generation:   generation,
		BestFitness:  best.Record.Fitness,
		BestLapTime:  best.Record.LapTimeSeconds,
		MeanFitness:  stat.Mean(fitnesses, nil),
		MinFitness:   floatsMin(fitnesses),
		InvalidCount: invalid,
	}
	if len(fitnesses) > 1 {
		d.FitnessStd = stat.StdDev(fitnesses, nil)
	}
	if sigmaCount > 0 {
		d.MeanSigma = sigmaSum / float64(sigmaCount)
	}
	return d
}

func floatsMin(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}
