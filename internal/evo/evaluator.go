package evo

import (
	"fmt"

	"apexline/internal/model"
	"apexline/internal/path"
	"apexline/internal/sim"
	"apexline/internal/track"
)

// DefaultPenaltyFitness scores invalid paths. It sits far below any
// achievable 1/lapTime, so bad genomes lose selection without crashing
// the run.
const DefaultPenaltyFitness = 1e-6

// DefaultDensity is the number of dense path samples per gene.
const DefaultDensity = 8

// Evaluator maps a candidate to a fitness record: reconstruct the
// continuous path, re-check track limits (interpolation can bow outside
// bounds between clamped genes), then simulate. A pure function of its
// inputs, so evaluations run concurrently without shared state.
type Evaluator struct {
	trk     *track.Track
	params  sim.Params
	density int
	penalty float64
}

func NewEvaluator(trk *track.Track, params sim.Params, density int, penalty float64) (*Evaluator, error) {
	if trk == nil {
		return nil, fmt.Errorf("track is required")
	}
	if err := params.Vehicle.Validate(); err != nil {
		return nil, err
	}
	if density <= 0 {
		density = DefaultDensity
	}
	if penalty <= 0 {
		penalty = DefaultPenaltyFitness
	}
	params.Closed = true
	return &Evaluator{trk: trk, params: params, density: density, penalty: penalty}, nil
}

// Evaluate scores one candidate. Invalid paths get the penalty fitness;
// an error means the candidate structure itself is malformed, which is an
// invariant violation rather than a normal outcome.
func (e *Evaluator) Evaluate(cand model.Candidate) (model.FitnessRecord, error) {
	line, err := path.Reconstruct(e.trk, cand.Offsets(), e.density)
	if err != nil {
		return model.FitnessRecord{}, err
	}
	if ok, reason := line.Validate(e.trk); !ok {
		return model.FitnessRecord{
			Valid:         false,
			InvalidReason: reason,
			Fitness:       e.penalty,
		}, nil
	}
	profile, err := sim.Simulate(line.Points, e.params)
	if err != nil {
		return model.FitnessRecord{}, err
	}
	return model.FitnessRecord{
		LapTimeSeconds: profile.LapTimeSeconds,
		Valid:          true,
		Fitness:        1 / profile.LapTimeSeconds,
	}, nil
}

// Line reconstructs a candidate's dense path and velocity profile, used
// for the best-so-far candidate once a run finishes.
func (e *Evaluator) Line(cand model.Candidate) (path.Line, sim.Profile, error) {
	line, err := path.Reconstruct(e.trk, cand.Offsets(), e.density)
	if err != nil {
		return path.Line{}, sim.Profile{}, err
	}
	profile, err := sim.Simulate(line.Points, e.params)
	if err != nil {
		return path.Line{}, sim.Profile{}, err
	}
	return line, profile, nil
}

// Track returns the track the evaluator scores against.
func (e *Evaluator) Track() *track.Track {
	return e.trk
}
