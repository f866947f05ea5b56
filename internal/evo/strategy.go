package evo

import (
	"math/rand"

	"apexline/internal/model"
)

// ScoredCandidate pairs a candidate with its fitness record for one
// generation.
type ScoredCandidate struct {
	Candidate model.Candidate
	Record    model.FitnessRecord
}

// Strategy produces the next generation pool from the current evaluated
// pool. The engine depends on nothing else, so a covariance-adaptive
// strategy drops in without touching the track model, path reconstruction
// or the simulator.
type Strategy interface {
	Name() string
	NextGeneration(rng *rand.Rand, evaluated []ScoredCandidate) ([]model.Candidate, error)
}
