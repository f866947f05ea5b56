// Package track holds the immutable geometric model of a closed circuit.
package track

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// GeometryError reports malformed or insufficient input geometry. It is
// fatal: a run never starts on a track that failed construction.
type GeometryError struct {
	Reason string
}

func (e *GeometryError) Error() string {
	return "track geometry: " + e.Reason
}

// Sample is one interpolated point of the track centerline.
type Sample struct {
	Position  r3.Vec
	ArcLength float64
	HalfWidth float64
	Curvature float64
}

// Track is an ordered, closed sequence of centerline samples. Read-only
// after construction, so it is safe to share across concurrent
// evaluations without locking.
type Track struct {
	points     []r3.Vec
	arc        []float64 // cumulative arc length at each point, arc[0] = 0
	halfWidths []float64
	curvatures []float64 // signed, from second difference of heading
	normals    []r3.Vec  // unit lateral (left) direction in the XY plane
	total      float64
}

const minPointSeparation = 1e-9

// New builds a Track from an ordered closed loop of centerline points and
// per-point full track widths. The last point connects back to the first;
// do not repeat the first point at the end.
func New(points []r3.Vec, widths []float64) (*Track, error) {
	if len(points) < 4 {
		return nil, &GeometryError{Reason: fmt.Sprintf("need at least 4 centerline points, got %d", len(points))}
	}
	if len(widths) != len(points) {
		return nil, &GeometryError{Reason: fmt.Sprintf("width count %d does not match point count %d", len(widths), len(points))}
	}
	seen := make(map[r3.Vec]int, len(points))
	for i, p := range points {
		if !isFiniteVec(p) {
			return nil, &GeometryError{Reason: fmt.Sprintf("point %d is not finite", i)}
		}
		if prev, dup := seen[p]; dup {
			return nil, &GeometryError{Reason: fmt.Sprintf("points %d and %d are not distinct", prev, i)}
		}
		seen[p] = i
	}
	for i, w := range widths {
		if !(w > 0) || math.IsInf(w, 0) {
			return nil, &GeometryError{Reason: fmt.Sprintf("width at point %d must be > 0, got %v", i, w)}
		}
	}

	n := len(points)
	t := &Track{
		points:     append([]r3.Vec(nil), points...),
		arc:        make([]float64, n),
		halfWidths: make([]float64, n),
		curvatures: make([]float64, n),
		normals:    make([]r3.Vec, n),
	}
	for i, w := range widths {
		t.halfWidths[i] = w / 2
	}

	total := 0.0
	for i := 0; i < n; i++ {
		next := points[(i+1)%n]
		seg := r3.Norm(r3.Sub(next, points[i]))
		if seg < minPointSeparation {
			return nil, &GeometryError{Reason: fmt.Sprintf("points %d and %d are not distinct", i, (i+1)%n)}
		}
		t.arc[i] = total
		total += seg
	}
	t.total = total

	// Headings and lateral normals come from the XY projection; elevation
	// is carried along but does not bend the line model.
	headings := make([]float64, n)
	for i := 0; i < n; i++ {
		d := r3.Sub(points[(i+1)%n], points[i])
		headings[i] = math.Atan2(d.Y, d.X)
		t.normals[i] = r3.Vec{X: -math.Sin(headings[i]), Y: math.Cos(headings[i])}
	}
	for i := 0; i < n; i++ {
		prev := (i - 1 + n) % n
		ds := (segmentLength(t, prev) + segmentLength(t, i)) / 2
		t.curvatures[i] = wrapAngle(headings[i]-headings[prev]) / ds
	}

	return t, nil
}

func segmentLength(t *Track, i int) float64 {
	n := len(t.points)
	next := (i + 1) % n
	if next == 0 {
		return t.total - t.arc[i]
	}
	return t.arc[next] - t.arc[i]
}

// ArcLength returns the total perimeter of the circuit.
func (t *Track) ArcLength() float64 {
	return t.total
}

// PointCount returns the number of centerline points the track was built from.
func (t *Track) PointCount() int {
	return len(t.points)
}

// SampleAt interpolates the centerline at the given arc-length coordinate.
// The coordinate wraps around the circuit.
func (t *Track) SampleAt(s float64) Sample {
	s = t.wrap(s)
	i, frac := t.locate(s)
	n := len(t.points)
	next := (i + 1) % n
	return Sample{
		Position:  lerpVec(t.points[i], t.points[next], frac),
		ArcLength: s,
		HalfWidth: lerp(t.halfWidths[i], t.halfWidths[next], frac),
		Curvature: lerp(t.curvatures[i], t.curvatures[next], frac),
	}
}

// HalfWidthAt returns the interpolated half-width at an arc-length coordinate.
func (t *Track) HalfWidthAt(s float64) float64 {
	s = t.wrap(s)
	i, frac := t.locate(s)
	return lerp(t.halfWidths[i], t.halfWidths[(i+1)%len(t.points)], frac)
}

// PositionAt returns the interpolated centerline position.
func (t *Track) PositionAt(s float64) r3.Vec {
	s = t.wrap(s)
	i, frac := t.locate(s)
	return lerpVec(t.points[i], t.points[(i+1)%len(t.points)], frac)
}

// Lateral maps a signed lateral offset at an arc-length coordinate to a
// point in track space. Positive offsets move toward the left limit.
func (t *Track) Lateral(s, offset float64) r3.Vec {
	s = t.wrap(s)
	i, _ := t.locate(s)
	pos := t.PositionAt(s)
	return r3.Add(pos, r3.Scale(offset, t.normals[i]))
}

func (t *Track) wrap(s float64) float64 {
	s = math.Mod(s, t.total)
	if s < 0 {
		s += t.total
	}
	return s
}

// locate returns the index of the segment containing s and the fractional
// position along it. s must already be wrapped into [0, total).
func (t *Track) locate(s float64) (int, float64) {
	n := len(t.points)
	lo, hi := 0, n-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if t.arc[mid] <= s {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	seg := segmentLength(t, lo)
	return lo, (s - t.arc[lo]) / seg
}

func lerp(a, b, frac float64) float64 {
	return a + (b-a)*frac
}

func lerpVec(a, b r3.Vec, frac float64) r3.Vec {
	return r3.Add(a, r3.Scale(frac, r3.Sub(b, a)))
}

func wrapAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

func isFiniteVec(v r3.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}
