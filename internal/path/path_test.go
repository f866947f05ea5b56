package path

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"apexline/internal/track"
)

func circleTrack(t *testing.T, radius, width float64, n int) *track.Track {
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

func TestReconstructInterpolatesGenePoints(t *testing.T) {
	trk := circleTrack(t, 50, 10, 128)
	n := 16
	offsets := make([]float64, n)
	for i := range offsets {
		offsets[i] = 2 * math.Sin(float64(i))
	}

	line, err := Reconstruct(trk, offsets, 4)
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	if len(line.Points) != n*4 {
		t.Fatalf("dense point count = %d, want %d", len(line.Points), n*4)
	}
	// Dense sample i*density lands exactly on gene i.
	for i := 0; i < n; i++ {
		got := line.Offset[i*4]
		if math.Abs(got-offsets[i]) > 1e-9 {
			t.Fatalf("gene %d: reconstructed offset %v, want %v", i, got, offsets[i])
		}
	}
}

func TestReconstructZeroOffsetsFollowsCenterline(t *testing.T) {
	trk := circleTrack(t, 50, 10, 128)
	line, err := Reconstruct(trk, make([]float64, 16), 8)
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	for i, p := range line.Points {
		center := trk.PositionAt(line.Arc[i])
		if r3.Norm(r3.Sub(p, center)) > 1e-9 {
			t.Fatalf("point %d strayed from centerline", i)
		}
	}
}

func TestValidateFlagsOutOfBoundsSample(t *testing.T) {
	trk := circleTrack(t, 50, 10, 128)
	line := Line{
		Arc:    []float64{0, 10, 20},
		Offset: []float64{0, 5.5, 0}, // half-width is 5
		Points: []r3.Vec{trk.PositionAt(0), trk.Lateral(10, 5.5), trk.PositionAt(20)},
	}
	ok, reason := line.Validate(trk)
	if ok {
		t.Fatal("expected out-of-bounds line to be invalid")
	}
	if reason == "" {
		t.Fatal("expected a reason")
	}
}

// A cubic fit can overshoot between two clamped, in-bounds genes; the
// validity check has to catch what gene-level clamping cannot.
func TestSplineOvershootCaughtBetweenGenes(t *testing.T) {
	trk := circleTrack(t, 50, 8, 128) // half-width 4
	n := 32
	offsets := make([]float64, n)
	for i := range offsets {
		offsets[i] = -3.9
	}
	for i := 10; i <= 13; i++ {
		offsets[i] = 3.9
	}

	line, err := Reconstruct(trk, offsets, 8)
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	maxOffset := 0.0
	for _, off := range line.Offset {
		if math.Abs(off) > maxOffset {
			maxOffset = math.Abs(off)
		}
	}
	if maxOffset <= 4 {
		t.Fatalf("expected spline to overshoot half-width 4, max offset %v", maxOffset)
	}
	if ok, _ := line.Validate(trk); ok {
		t.Fatal("expected overshooting line to be invalid")
	}
}

func TestValidateDetectsSelfIntersection(t *testing.T) {
	trk := circleTrack(t, 50, 10, 128)
	// A manufactured figure-eight: two segments that cross in the plane.
	line := Line{
		Arc:    []float64{0, 1, 2, 3},
		Offset: []float64{0, 0, 0, 0},
		Points: []r3.Vec{
			{X: 0, Y: 0}, {X: 10, Y: 10},
			{X: 10, Y: 0}, {X: 0, Y: 10},
		},
	}
	if ok, _ := line.Validate(trk); ok {
		t.Fatal("expected crossing line to be invalid")
	}
}

func TestReconstructRejectsBadInput(t *testing.T) {
	trk := circleTrack(t, 50, 10, 64)
	if _, err := Reconstruct(trk, []float64{1, 2, 3}, 4); err == nil {
		t.Fatal("expected error for too few offsets")
	}
	if _, err := Reconstruct(trk, make([]float64, 8), 0); err == nil {
		t.Fatal("expected error for zero density")
	}
}
