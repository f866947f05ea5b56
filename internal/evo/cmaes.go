package evo

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"apexline/internal/model"
	"apexline/internal/track"
)

// CMAES adapts a population-wide covariance matrix over the offset vector
// instead of per-gene step sizes. It works in normalized coordinates
// (offset divided by local half-width), so the box constraint is the unit
// cube and samples are clamped back into it.
//
// References: https://en.wikipedia.org/wiki/CMA-ES,
// https://arxiv.org/pdf/1604.00772.pdf
type CMAES struct {
	Lambda int

	dim        int
	bounds     []float64 // half-width per gene
	sigmaFloor float64

	initialized bool
	generation  int
	mean        []float64
	sigma       float64
	cov         *mat.SymDense
	pathC       []float64
	pathSigma   []float64

	// eigendecomposition of cov, refreshed every update
	eigVecs *mat.Dense
	eigVals []float64

	mu      int
	weights []float64
	muEff   float64
	cc      float64
	cs      float64
	c1      float64
	cmu     float64
	damps   float64
	chiN    float64
}

// NewCMAES builds the strategy for n genes on trk. initialSigma is the
// initial global step size in normalized coordinates (a fraction of the
// half-width, matching the seed population's sigma fraction).
func NewCMAES(trk *track.Track, n, lambda int, initialSigma float64) (*CMAES, error) {
	if trk == nil {
		return nil, fmt.Errorf("track is required")
	}
	if n < 4 {
		return nil, fmt.Errorf("gene count must be >= 4, got %d", n)
	}
	if lambda < 2 {
		return nil, fmt.Errorf("lambda must be >= 2, got %d", lambda)
	}
	if initialSigma <= 0 || initialSigma > 1 {
		return nil, fmt.Errorf("initial sigma must be in (0, 1], got %v", initialSigma)
	}

	bounds := make([]float64, n)
	for i, s := range GeneArcs(trk, n) {
		bounds[i] = trk.HalfWidthAt(s)
	}

	c := &CMAES{
		Lambda:     lambda,
		dim:        n,
		bounds:     bounds,
		sigmaFloor: DefaultSigmaFloor,
		sigma:      initialSigma,
	}
	c.setConstants()
	return c, nil
}

func (c *CMAES) Name() string {
	return "cma_es"
}

func (c *CMAES) setConstants() {
	d := float64(c.dim)
	c.mu = c.Lambda / 2
	if c.mu < 1 {
		c.mu = 1
	}
	c.weights = make([]float64, c.mu)
	for i := range c.weights {
		c.weights[i] = math.Log(float64(c.mu)+0.5) - math.Log(float64(i+1))
	}
	floats.Scale(1/floats.Sum(c.weights), c.weights)

	sumSq := 0.0
	for _, w := range c.weights {
		sumSq += w * w
	}
	c.muEff = 1 / sumSq

	c.cs = (c.muEff + 2) / (d + c.muEff + 5)
	c.damps = 1 + 2*math.Max(0, math.Sqrt((c.muEff-1)/(d+1))-1) + c.cs
	c.cc = (4 + c.muEff/d) / (d + 4 + 2*c.muEff/d)
	c.c1 = 2 / ((d+1.3)*(d+1.3) + c.muEff)
	c.cmu = math.Min(1-c.c1, 2*(c.muEff-2+1/c.muEff)/((d+2)*(d+2)+c.muEff))
	c.chiN = math.Sqrt(d) * (1 - 1/(4*d) + 1/(21*d*d))
}

func (c *CMAES) NextGeneration(rng *rand.Rand, evaluated []ScoredCandidate) ([]model.Candidate, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if len(evaluated) == 0 {
		return nil, fmt.Errorf("evaluated pool is empty")
	}
	for i, sc := range evaluated {
		if len(sc.Candidate.Genes) != c.dim {
			return nil, fmt.Errorf("candidate %d gene count mismatch: got=%d want=%d", i, len(sc.Candidate.Genes), c.dim)
		}
	}

	ranked := make([]ScoredCandidate, len(evaluated))
	copy(ranked, evaluated)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Record.Fitness > ranked[j].Record.Fitness
	})

	if !c.initialized {
		c.initState(ranked)
	} else {
		c.update(ranked)
	}
	if err := c.factorize(); err != nil {
		return nil, err
	}
	return c.sample(rng), nil
}

// initState seeds the search distribution from the first evaluated pool,
// which was not drawn from this strategy.
func (c *CMAES) initState(ranked []ScoredCandidate) {
	c.mean = make([]float64, c.dim)
	top := c.mu
	if top > len(ranked) {
		top = len(ranked)
	}
	wsum := 0.0
	for k := 0; k < top; k++ {
		u := c.normalize(ranked[k].Candidate)
		w := c.weights[k]
		floats.AddScaled(c.mean, w, u)
		wsum += w
	}
	floats.Scale(1/wsum, c.mean)

	c.cov = identitySym(c.dim)
	c.pathC = make([]float64, c.dim)
	c.pathSigma = make([]float64, c.dim)
	c.generation = 0
	c.initialized = true
}

func (c *CMAES) update(ranked []ScoredCandidate) {
	c.generation++

	top := c.mu
	if top > len(ranked) {
		top = len(ranked)
	}
	ys := make([][]float64, top)
	for k := 0; k < top; k++ {
		u := c.normalize(ranked[k].Candidate)
		y := make([]float64, c.dim)
		floats.SubTo(y, u, c.mean)
		floats.Scale(1/c.sigma, y)
		ys[k] = y
	}

	yw := make([]float64, c.dim)
	for k := 0; k < top; k++ {
		floats.AddScaled(yw, c.weights[k], ys[k])
	}

	floats.AddScaled(c.mean, c.sigma, yw)
	for i := range c.mean {
		c.mean[i] = clamp(c.mean[i], -1, 1)
	}

	// Sigma path and step-size control.
	invSqrtCyw := c.applyInvSqrtC(yw)
	csFactor := math.Sqrt(c.cs * (2 - c.cs) * c.muEff)
	for i := range c.pathSigma {
		c.pathSigma[i] = (1-c.cs)*c.pathSigma[i] + csFactor*invSqrtCyw[i]
	}
	psNorm := floats.Norm(c.pathSigma, 2)

	expected := math.Sqrt(1 - math.Pow(1-c.cs, 2*float64(c.generation)))
	hsig := 0.0
	if psNorm/expected/c.chiN < 1.4+2/float64(c.dim+1) {
		hsig = 1
	}

	ccFactor := math.Sqrt(c.cc * (2 - c.cc) * c.muEff)
	for i := range c.pathC {
		c.pathC[i] = (1-c.cc)*c.pathC[i] + hsig*ccFactor*yw[i]
	}

	// Covariance update: rank-one from the evolution path plus rank-mu
	// from the selected samples.
	delta := (1 - hsig) * c.cc * (2 - c.cc)
	for i := 0; i < c.dim; i++ {
		for j := i; j < c.dim; j++ {
			v := (1 - c.c1 - c.cmu + c.c1*delta) * c.cov.At(i, j)
			v += c.c1 * c.pathC[i] * c.pathC[j]
			for k := 0; k < top; k++ {
				v += c.cmu * c.weights[k] * ys[k][i] * ys[k][j]
			}
			c.cov.SetSym(i, j, v)
		}
	}

	c.sigma *= math.Exp((c.cs / c.damps) * (psNorm/c.chiN - 1))
	if c.sigma < c.sigmaFloor {
		c.sigma = c.sigmaFloor
	}
}

func (c *CMAES) factorize() error {
	var eig mat.EigenSym
	if ok := eig.Factorize(c.cov, true); !ok {
		return fmt.Errorf("cma-es: covariance eigendecomposition failed")
	}
	c.eigVals = eig.Values(nil)
	for i, v := range c.eigVals {
		if v < 1e-12 {
			c.eigVals[i] = 1e-12
		}
	}
	if c.eigVecs == nil {
		c.eigVecs = &mat.Dense{}
	}
	eig.VectorsTo(c.eigVecs)
	return nil
}

// applyInvSqrtC computes C^(-1/2) v from the last factorization.
func (c *CMAES) applyInvSqrtC(v []float64) []float64 {
	if c.eigVecs == nil {
		return append([]float64(nil), v...) // C is still the identity
	}
	tmp := make([]float64, c.dim)
	for j := 0; j < c.dim; j++ {
		dot := 0.0
		for i := 0; i < c.dim; i++ {
			dot += c.eigVecs.At(i, j) * v[i]
		}
		tmp[j] = dot / math.Sqrt(c.eigVals[j])
	}
	out := make([]float64, c.dim)
	for i := 0; i < c.dim; i++ {
		dot := 0.0
		for j := 0; j < c.dim; j++ {
			dot += c.eigVecs.At(i, j) * tmp[j]
		}
		out[i] = dot
	}
	return out
}

func (c *CMAES) sample(rng *rand.Rand) []model.Candidate {
	out := make([]model.Candidate, c.Lambda)
	for k := range out {
		z := make([]float64, c.dim)
		for i := range z {
			z[i] = rng.NormFloat64()
		}
		// y = B * diag(sqrt(eigVals)) * z
		y := make([]float64, c.dim)
		for i := 0; i < c.dim; i++ {
			sum := 0.0
			for j := 0; j < c.dim; j++ {
				sum += c.eigVecs.At(i, j) * math.Sqrt(c.eigVals[j]) * z[j]
			}
			y[i] = sum
		}
		genes := make([]model.Gene, c.dim)
		for i := 0; i < c.dim; i++ {
			u := clamp(c.mean[i]+c.sigma*y[i], -1, 1)
			stddev := c.sigma * math.Sqrt(c.cov.At(i, i)) * c.bounds[i]
			if stddev < c.sigmaFloor {
				stddev = c.sigmaFloor
			}
			genes[i] = model.Gene{Offset: u * c.bounds[i], Sigma: stddev}
		}
		out[k] = model.Candidate{Genes: genes}
	}
	return out
}

func (c *CMAES) normalize(cand model.Candidate) []float64 {
	u := make([]float64, c.dim)
	for i, g := range cand.Genes {
		u[i] = clamp(g.Offset/c.bounds[i], -1, 1)
	}
	return u
}

func identitySym(n int) *mat.SymDense {
	m := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		m.SetSym(i, i, 1)
	}
	return m
}
