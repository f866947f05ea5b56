package evo

import (
	"fmt"
	"math/rand"
	"sort"

	"apexline/internal/model"
)

// MuPlusLambda is the (mu+lambda) evolution strategy: from the combined
// pool of parents and offspring it keeps the mu fittest as survivors and
// breeds lambda offspring from them. Survivors stay in the returned pool,
// so the best observed fitness never decreases.
type MuPlusLambda struct {
	Mu       int
	Lambda   int
	Mutation *SelfAdaptiveMutation

	// Recombination is optional; when nil, offspring come from a single
	// mutated parent.
	Recombination Recombiner
}

func NewMuPlusLambda(mu, lambda int, mutation *SelfAdaptiveMutation, recombination Recombiner) (*MuPlusLambda, error) {
	if mu <= 0 {
		return nil, fmt.Errorf("mu must be > 0, got %d", mu)
	}
	if lambda <= 0 {
		return nil, fmt.Errorf("lambda must be > 0, got %d", lambda)
	}
	if mutation == nil {
		return nil, fmt.Errorf("mutation operator is required")
	}
	return &MuPlusLambda{Mu: mu, Lambda: lambda, Mutation: mutation, Recombination: recombination}, nil
}

func (s *MuPlusLambda) Name() string {
	return "mu_plus_lambda"
}

func (s *MuPlusLambda) NextGeneration(rng *rand.Rand, evaluated []ScoredCandidate) ([]model.Candidate, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if len(evaluated) == 0 {
		return nil, fmt.Errorf("evaluated pool is empty")
	}

	ranked := make([]ScoredCandidate, len(evaluated))
	copy(ranked, evaluated)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Record.Fitness > ranked[j].Record.Fitness
	})

	mu := s.Mu
	if mu > len(ranked) {
		mu = len(ranked)
	}
	survivors := ranked[:mu]

	next := make([]model.Candidate, 0, mu+s.Lambda)
	for _, sc := range survivors {
		next = append(next, sc.Candidate.Clone())
	}
	for i := 0; i < s.Lambda; i++ {
		parent := survivors[rng.Intn(mu)].Candidate
		if s.Recombination != nil {
			mate := survivors[rng.Intn(mu)].Candidate
			child, err := s.Recombination.Cross(rng, parent, mate)
			if err != nil {
				return nil, err
			}
			parent = child
		}
		child, err := s.Mutation.Apply(rng, parent)
		if err != nil {
			return nil, err
		}
		next = append(next, child)
	}
	return next, nil
}
