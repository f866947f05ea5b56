package evo

import (
	"fmt"
	"math"
	"math/rand"

	"apexline/internal/model"
	"apexline/internal/track"
)

// DefaultSigmaFloor keeps step sizes strictly positive no matter how many
// times the log-normal update shrinks them.
const DefaultSigmaFloor = 1e-6

// SelfAdaptiveMutation mutates each gene's step size before using it, so
// mutation rates co-evolve with the line itself ("mutated mutabilities").
type SelfAdaptiveMutation struct {
	Tau        float64
	SigmaFloor float64

	halfWidths []float64 // bound per gene sample
}

// NewSelfAdaptiveMutation builds the operator for n genes on trk. tau is
// the learning rate of the log-normal sigma update.
func NewSelfAdaptiveMutation(trk *track.Track, n int, tau float64) (*SelfAdaptiveMutation, error) {
	if trk == nil {
		return nil, fmt.Errorf("track is required")
	}
	if n < 4 {
		return nil, fmt.Errorf("gene count must be >= 4, got %d", n)
	}
	if tau <= 0 {
		return nil, fmt.Errorf("learning rate tau must be > 0, got %v", tau)
	}
	hws := make([]float64, n)
	for i, s := range GeneArcs(trk, n) {
		hws[i] = trk.HalfWidthAt(s)
	}
	return &SelfAdaptiveMutation{Tau: tau, SigmaFloor: DefaultSigmaFloor, halfWidths: hws}, nil
}

func (m *SelfAdaptiveMutation) Name() string {
	return "self_adaptive"
}

// Apply mutates every gene independently: first the step size through a
// log-normal perturbation, then the offset using the fresh step size.
// Offsets are clamped into the local track bounds, not reflected.
func (m *SelfAdaptiveMutation) Apply(rng *rand.Rand, cand model.Candidate) (model.Candidate, error) {
	if rng == nil {
		return model.Candidate{}, fmt.Errorf("random source is required")
	}
	if len(cand.Genes) != len(m.halfWidths) {
		return model.Candidate{}, fmt.Errorf("gene count mismatch: got=%d want=%d", len(cand.Genes), len(m.halfWidths))
	}

	out := cand.Clone()
	for i := range out.Genes {
		sigma := out.Genes[i].Sigma * math.Exp(m.Tau*rng.NormFloat64())
		if sigma < m.SigmaFloor {
			sigma = m.SigmaFloor
		}
		hw := m.halfWidths[i]
		offset := clamp(out.Genes[i].Offset+sigma*rng.NormFloat64(), -hw, hw)
		out.Genes[i] = model.Gene{Offset: offset, Sigma: sigma}
	}
	return out, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
