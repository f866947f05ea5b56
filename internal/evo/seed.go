package evo

import (
	"fmt"
	"math/rand"

	"apexline/internal/model"
	"apexline/internal/track"
)

// GeneArcs returns the fixed arc-length sample points for n genes on trk.
func GeneArcs(trk *track.Track, n int) []float64 {
	arcs := make([]float64, n)
	step := trk.ArcLength() / float64(n)
	for i := range arcs {
		arcs[i] = float64(i) * step
	}
	return arcs
}

// SeedPopulation draws mu candidates with offsets uniform within the local
// track bounds and sigma set to sigmaFraction of the local half-width.
func SeedPopulation(rng *rand.Rand, trk *track.Track, n, mu int, sigmaFraction float64) ([]model.Candidate, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if n < 4 {
		return nil, fmt.Errorf("gene count must be >= 4, got %d", n)
	}
	if mu <= 0 {
		return nil, fmt.Errorf("population size must be > 0, got %d", mu)
	}
	if sigmaFraction <= 0 || sigmaFraction > 1 {
		return nil, fmt.Errorf("sigma fraction must be in (0, 1], got %v", sigmaFraction)
	}

	arcs := GeneArcs(trk, n)
	population := make([]model.Candidate, mu)
	for p := range population {
		genes := make([]model.Gene, n)
		for i, s := range arcs {
			hw := trk.HalfWidthAt(s)
			genes[i] = model.Gene{
				Offset: (2*rng.Float64() - 1) * hw,
				Sigma:  sigmaFraction * hw,
			}
		}
		population[p] = model.Candidate{Genes: genes}
	}
	return population, nil
}
