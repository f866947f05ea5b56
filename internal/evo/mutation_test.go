package evo

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"apexline/internal/model"
	"apexline/internal/track"
)

func newTestTrack(t *testing.T, radius, width float64, n int) *track.Track {
	t.Helper()
	points := make([]r3.Vec, n)
	widths := make([]float64, n)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		points[i] = r3.Vec{X: radius * math.Cos(a), Y: radius * math.Sin(a)}
		widths[i] = width
	}
	trk, err := track.New(points, widths)
	if err != nil {
		t.Fatalf("new track: %v", err)
	}
	return trk
}

func TestSelfAdaptiveMutationStaysInBounds(t *testing.T) {
	trk := newTestTrack(t, 50, 10, 64)
	mut, err := NewSelfAdaptiveMutation(trk, 16, 0.5)
	if err != nil {
		t.Fatalf("new mutation: %v", err)
	}

	rng := rand.New(rand.NewSource(7))
	pop, err := SeedPopulation(rng, trk, 16, 1, 0.3)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	cand := pop[0]
	for iter := 0; iter < 500; iter++ {
		cand, err = mut.Apply(rng, cand)
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
		for i, g := range cand.Genes {
			if math.Abs(g.Offset) > 5+1e-12 {
				t.Fatalf("iter %d gene %d offset %v outside half-width", iter, i, g.Offset)
			}
			if g.Sigma <= 0 {
				t.Fatalf("iter %d gene %d sigma %v not positive", iter, i, g.Sigma)
			}
		}
	}
}

func TestSelfAdaptiveMutationDoesNotAliasParent(t *testing.T) {
	trk := newTestTrack(t, 50, 10, 64)
	mut, err := NewSelfAdaptiveMutation(trk, 8, 0.3)
	if err != nil {
		t.Fatalf("new mutation: %v", err)
	}

	parent := model.Candidate{Genes: make([]model.Gene, 8)}
	for i := range parent.Genes {
		parent.Genes[i] = model.Gene{Offset: 1, Sigma: 0.5}
	}
	before := parent.Clone()

	if _, err := mut.Apply(rand.New(rand.NewSource(1)), parent); err != nil {
		t.Fatalf("apply: %v", err)
	}
	for i := range parent.Genes {
		if parent.Genes[i] != before.Genes[i] {
			t.Fatalf("parent gene %d modified in place", i)
		}
	}
}

func TestSelfAdaptiveMutationRejectsGeneCountMismatch(t *testing.T) {
	trk := newTestTrack(t, 50, 10, 64)
	mut, err := NewSelfAdaptiveMutation(trk, 8, 0.3)
	if err != nil {
		t.Fatalf("new mutation: %v", err)
	}
	_, err = mut.Apply(rand.New(rand.NewSource(1)), model.Candidate{Genes: make([]model.Gene, 5)})
	if err == nil {
		t.Fatal("expected gene count mismatch error")
	}
}

func TestSeedPopulationRespectsBounds(t *testing.T) {
	trk := newTestTrack(t, 50, 8, 64)
	rng := rand.New(rand.NewSource(3))
	pop, err := SeedPopulation(rng, trk, 12, 20, 0.3)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if len(pop) != 20 {
		t.Fatalf("population size = %d, want 20", len(pop))
	}
	for p, cand := range pop {
		if len(cand.Genes) != 12 {
			t.Fatalf("candidate %d has %d genes, want 12", p, len(cand.Genes))
		}
		for i, g := range cand.Genes {
			if math.Abs(g.Offset) > 4 {
				t.Fatalf("candidate %d gene %d offset %v outside half-width", p, i, g.Offset)
			}
			if math.Abs(g.Sigma-0.3*4) > 1e-12 {
				t.Fatalf("candidate %d gene %d sigma %v, want %v", p, i, g.Sigma, 0.3*4)
			}
		}
	}
}
