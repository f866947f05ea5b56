// Package path reconstructs a continuous racing line from gene offsets
// and checks it against track limits.
package path

import (
	"fmt"

	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/spatial/r3"

	"apexline/internal/track"
)

// wrapPad is the number of gene points mirrored on each side of the
// sampling window so the cubic fit stays smooth across the start line.
const wrapPad = 3

// Line is a densely resampled racing line. Arc, Offset and Points are
// parallel slices; Points is what the simulator consumes.
type Line struct {
	Arc    []float64
	Offset []float64
	Points []r3.Vec
}

// Reconstruct fits a cubic spline through the gene offsets at their fixed
// arc-length sample points and resamples it densely. density is the
// number of output samples per gene.
func Reconstruct(trk *track.Track, offsets []float64, density int) (Line, error) {
	n := len(offsets)
	if n < 4 {
		return Line{}, fmt.Errorf("reconstruct: need at least 4 offsets, got %d", n)
	}
	if density < 1 {
		return Line{}, fmt.Errorf("reconstruct: density must be >= 1, got %d", density)
	}

	total := trk.ArcLength()
	step := total / float64(n)

	// Pad both ends with wrapped genes so the closed loop has no seam.
	xs := make([]float64, 0, n+2*wrapPad)
	ys := make([]float64, 0, n+2*wrapPad)
	for i := -wrapPad; i < n+wrapPad; i++ {
		xs = append(xs, float64(i)*step)
		ys = append(ys, offsets[((i%n)+n)%n])
	}

	var spline interp.NaturalCubic
	if err := spline.Fit(xs, ys); err != nil {
		return Line{}, fmt.Errorf("reconstruct: fit spline: %w", err)
	}

	m := n * density
	line := Line{
		Arc:    make([]float64, m),
		Offset: make([]float64, m),
		Points: make([]r3.Vec, m),
	}
	for i := 0; i < m; i++ {
		s := float64(i) * total / float64(m)
		off := spline.Predict(s)
		line.Arc[i] = s
		line.Offset[i] = off
		line.Points[i] = trk.Lateral(s, off)
	}
	return line, nil
}

// Validate reports whether the reconstructed line stays inside the track
// limits and does not cross itself. Gene-level clamping is not enough:
// the spline can bow outside the limits between two in-bounds genes, so
// every dense sample is re-checked here.
func (l Line) Validate(trk *track.Track) (bool, string) {
	for i, s := range l.Arc {
		hw := trk.HalfWidthAt(s)
		if l.Offset[i] > hw || l.Offset[i] < -hw {
			return false, fmt.Sprintf("offset %.3f exceeds half-width %.3f at arc %.1f", l.Offset[i], hw, s)
		}
	}
	if i, j, crossed := l.selfIntersects(); crossed {
		return false, fmt.Sprintf("segments %d and %d intersect", i, j)
	}
	return true, ""
}

// selfIntersects scans all non-adjacent segment pairs of the closed line
// for a crossing in the XY plane.
func (l Line) selfIntersects() (int, int, bool) {
	n := len(l.Points)
	for i := 0; i < n; i++ {
		a1 := l.Points[i]
		a2 := l.Points[(i+1)%n]
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue // adjacent across the wrap
			}
			b1 := l.Points[j]
			b2 := l.Points[(j+1)%n]
			if segmentsCross(a1, a2, b1, b2) {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

func segmentsCross(a1, a2, b1, b2 r3.Vec) bool {
	d1 := orient(b1, b2, a1)
	d2 := orient(b1, b2, a2)
	d3 := orient(a1, a2, b1)
	d4 := orient(a1, a2, b2)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

// orient is the signed area test in the XY plane.
func orient(a, b, c r3.Vec) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}
