package evo

import (
	"fmt"
	"math/rand"

	"apexline/internal/model"
)

// Recombination names for configuration.
const (
	RecombinationNone         = ""
	RecombinationDiscrete     = "discrete"
	RecombinationIntermediate = "intermediate"
)

// Recombiner crosses two parents' gene vectors (offsets and sigmas alike)
// into one offspring.
type Recombiner interface {
	Name() string
	Cross(rng *rand.Rand, a, b model.Candidate) (model.Candidate, error)
}

// NewRecombiner resolves a recombination scheme by name. The empty name
// means recombination is disabled and returns nil.
func NewRecombiner(name string) (Recombiner, error) {
	switch name {
	case RecombinationNone:
		return nil, nil
	case RecombinationDiscrete:
		return DiscreteRecombiner{}, nil
	case RecombinationIntermediate:
		return IntermediateRecombiner{}, nil
	default:
		return nil, fmt.Errorf("unsupported recombination scheme: %s", name)
	}
}

// DiscreteRecombiner picks each gene whole from one of the two parents.
type DiscreteRecombiner struct{}

func (DiscreteRecombiner) Name() string {
	return RecombinationDiscrete
}

func (DiscreteRecombiner) Cross(rng *rand.Rand, a, b model.Candidate) (model.Candidate, error) {
	if rng == nil {
		return model.Candidate{}, fmt.Errorf("random source is required")
	}
	if len(a.Genes) != len(b.Genes) {
		return model.Candidate{}, fmt.Errorf("gene count mismatch: %d vs %d", len(a.Genes), len(b.Genes))
	}
	child := a.Clone()
	for i := range child.Genes {
		if rng.Intn(2) == 1 {
			child.Genes[i] = b.Genes[i]
		}
	}
	return child, nil
}

// IntermediateRecombiner averages the two parents gene by gene.
type IntermediateRecombiner struct{}

func (IntermediateRecombiner) Name() string {
	return RecombinationIntermediate
}

func (IntermediateRecombiner) Cross(_ *rand.Rand, a, b model.Candidate) (model.Candidate, error) {
	if len(a.Genes) != len(b.Genes) {
		return model.Candidate{}, fmt.Errorf("gene count mismatch: %d vs %d", len(a.Genes), len(b.Genes))
	}
	child := a.Clone()
	for i := range child.Genes {
		child.Genes[i] = model.Gene{
			Offset: (a.Genes[i].Offset + b.Genes[i].Offset) / 2,
			Sigma:  (a.Genes[i].Sigma + b.Genes[i].Sigma) / 2,
		}
	}
	return child, nil
}
