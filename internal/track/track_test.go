package track

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func circlePoints(radius float64, n int) ([]r3.Vec, []float64) {
	points := make([]r3.Vec, n)
	widths := make([]float64, n)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		points[i] = r3.Vec{X: radius * math.Cos(a), Y: radius * math.Sin(a)}
		widths[i] = 10
	}
	return points, widths
}

func TestNewRejectsTooFewPoints(t *testing.T) {
	points, widths := circlePoints(50, 3)
	_, err := New(points, widths)
	if err == nil {
		t.Fatal("expected error for 3-point track")
	}
	var geomErr *GeometryError
	if !errors.As(err, &geomErr) {
		t.Fatalf("expected GeometryError, got %T: %v", err, err)
	}
}

func TestNewRejectsDuplicatePoints(t *testing.T) {
	points, widths := circlePoints(50, 8)
	points[5] = points[2]
	if _, err := New(points, widths); err == nil {
		t.Fatal("expected error for duplicate points")
	}
}

func TestNewRejectsNonPositiveWidth(t *testing.T) {
	for _, w := range []float64{0, -1} {
		points, widths := circlePoints(50, 8)
		widths[3] = w
		if _, err := New(points, widths); err == nil {
			t.Fatalf("expected error for width %v", w)
		}
	}
}

func TestArcLengthOfCircle(t *testing.T) {
	points, widths := circlePoints(50, 360)
	trk, err := New(points, widths)
	if err != nil {
		t.Fatalf("new track: %v", err)
	}
	want := 2 * math.Pi * 50
	if got := trk.ArcLength(); math.Abs(got-want) > want*1e-3 {
		t.Fatalf("arc length = %v, want ~%v", got, want)
	}
}

func TestCurvatureOfCircle(t *testing.T) {
	points, widths := circlePoints(50, 360)
	trk, err := New(points, widths)
	if err != nil {
		t.Fatalf("new track: %v", err)
	}
	for _, s := range []float64{0, 40, 120, trk.ArcLength() - 1} {
		sample := trk.SampleAt(s)
		if math.Abs(math.Abs(sample.Curvature)-1.0/50) > 1e-3 {
			t.Fatalf("curvature at %v = %v, want ~%v", s, sample.Curvature, 1.0/50)
		}
	}
}

func TestSampleAtWraps(t *testing.T) {
	points, widths := circlePoints(50, 64)
	trk, err := New(points, widths)
	if err != nil {
		t.Fatalf("new track: %v", err)
	}
	total := trk.ArcLength()
	a := trk.SampleAt(12.5)
	b := trk.SampleAt(12.5 + total)
	c := trk.SampleAt(12.5 - total)
	if r3.Norm(r3.Sub(a.Position, b.Position)) > 1e-9 {
		t.Fatal("sample did not wrap forward")
	}
	if r3.Norm(r3.Sub(a.Position, c.Position)) > 1e-9 {
		t.Fatal("sample did not wrap backward")
	}
	if a.HalfWidth != 5 {
		t.Fatalf("half width = %v, want 5", a.HalfWidth)
	}
}

func TestLateralOffsetMovesAcrossTrack(t *testing.T) {
	points, widths := circlePoints(50, 128)
	trk, err := New(points, widths)
	if err != nil {
		t.Fatalf("new track: %v", err)
	}
	center := trk.PositionAt(30)
	offset := trk.Lateral(30, 3)
	d := r3.Norm(r3.Sub(offset, center))
	if math.Abs(d-3) > 1e-6 {
		t.Fatalf("lateral displacement = %v, want 3", d)
	}
	// Positive offsets on a counterclockwise circle point inward.
	if r3.Norm(offset) > r3.Norm(center) {
		t.Fatal("positive offset moved outward on a counterclockwise track")
	}
}
