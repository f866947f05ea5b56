package sim

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func testVehicle() Vehicle {
	return Vehicle{
		MassKG:          1000,
		PeakPowerW:      5e6, // effectively unlimited
		PeakBrakeDecel:  50,
		Friction:        1.2,
		DragCoefficient: 0,
		FrontalAreaM2:   0,
		MaxSpeedMPS:     100,
	}
}

func circlePath(radius float64, n int) []r3.Vec {
	points := make([]r3.Vec, n)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		points[i] = r3.Vec{X: radius * math.Cos(a), Y: radius * math.Sin(a)}
	}
	return points
}

// Circular track, friction 1.2, g = 9.81, radius 50: cornering cap
// sqrt(1.2*9.81*50) ~ 24.26 m/s everywhere, lap time ~ 2*pi*50/24.26.
func TestCircularTrackCorneringLimited(t *testing.T) {
	profile, err := Simulate(circlePath(50, 360), Params{
		Vehicle:       testVehicle(),
		StartSpeedMPS: 30, // above the cap; clamped to a flying lap at the cap
		Closed:        true,
	})
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}

	wantCap := math.Sqrt(1.2 * 9.81 * 50)
	wantLap := 2 * math.Pi * 50 / wantCap
	if math.Abs(profile.LapTimeSeconds-wantLap) > wantLap*0.01 {
		t.Fatalf("lap time = %.3fs, want ~%.3fs", profile.LapTimeSeconds, wantLap)
	}
	for i, seg := range profile.Segments {
		if math.Abs(seg.ExitSpeedMPS-wantCap) > wantCap*0.01 {
			t.Fatalf("segment %d exit speed %.3f, want ~%.3f", i, seg.ExitSpeedMPS, wantCap)
		}
	}
}

// A straight with no binding power or brake limit and a constant speed
// cap v covers length L in exactly L/v.
func TestStraightPathConstantSpeed(t *testing.T) {
	points := make([]r3.Vec, 51)
	for i := range points {
		points[i] = r3.Vec{X: float64(i) * 10}
	}
	v := testVehicle()
	v.MaxSpeedMPS = 50

	profile, err := Simulate(points, Params{
		Vehicle:       v,
		StartSpeedMPS: 50,
		Closed:        false,
	})
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	want := 500.0 / 50.0
	if math.Abs(profile.LapTimeSeconds-want) > 1e-9 {
		t.Fatalf("lap time = %v, want %v", profile.LapTimeSeconds, want)
	}
}

// The defining correctness property of the two-pass scan: no segment
// speed ever exceeds the corner cap.
func TestProfileNeverExceedsCornerCap(t *testing.T) {
	// A wavy closed path with alternating corners.
	n := 240
	points := make([]r3.Vec, n)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		r := 80 + 18*math.Sin(4*a)
		points[i] = r3.Vec{X: r * math.Cos(a), Y: r * math.Sin(a)}
	}

	vehicle := testVehicle()
	vehicle.PeakPowerW = 300_000
	vehicle.PeakBrakeDecel = 14
	vehicle.DragCoefficient = 0.9
	vehicle.FrontalAreaM2 = 1.8

	profile, err := Simulate(points, Params{Vehicle: vehicle, Closed: true})
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if profile.LapTimeSeconds <= 0 {
		t.Fatal("expected positive lap time")
	}
	for i, seg := range profile.Segments {
		if seg.EntrySpeedMPS > seg.CornerCapMPS+1e-9 {
			t.Fatalf("segment %d entry %.3f exceeds cap %.3f", i, seg.EntrySpeedMPS, seg.CornerCapMPS)
		}
		if seg.ExitSpeedMPS > seg.CornerCapMPS+1e-9 {
			t.Fatalf("segment %d exit %.3f exceeds cap %.3f", i, seg.ExitSpeedMPS, seg.CornerCapMPS)
		}
		if seg.ExitSpeedMPS > vehicle.MaxSpeedMPS+1e-9 {
			t.Fatalf("segment %d exit %.3f exceeds top speed", i, seg.ExitSpeedMPS)
		}
	}
}

func TestStandingStartAcceleratesForward(t *testing.T) {
	points := make([]r3.Vec, 21)
	for i := range points {
		points[i] = r3.Vec{X: float64(i) * 10}
	}
	vehicle := testVehicle()
	vehicle.PeakPowerW = 200_000

	profile, err := Simulate(points, Params{Vehicle: vehicle, StartSpeedMPS: 0, Closed: false})
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if first := profile.Segments[0].EntrySpeedMPS; first != 0 {
		t.Fatalf("entry speed %v, want standing start", first)
	}
	for i := 1; i < len(profile.Segments); i++ {
		if profile.Segments[i].ExitSpeedMPS < profile.Segments[i-1].ExitSpeedMPS {
			t.Fatalf("speed fell on a straight at segment %d", i)
		}
	}
}

func TestSimulateRejectsMalformedInput(t *testing.T) {
	valid := testVehicle()

	cases := []struct {
		name   string
		points []r3.Vec
		params Params
	}{
		{"too few points", circlePath(50, 2), Params{Vehicle: valid, Closed: true}},
		{"nan mass", circlePath(50, 16), Params{Vehicle: func() Vehicle { v := valid; v.MassKG = math.NaN(); return v }(), Closed: true}},
		{"zero power", circlePath(50, 16), Params{Vehicle: func() Vehicle { v := valid; v.PeakPowerW = 0; return v }(), Closed: true}},
		{"negative friction", circlePath(50, 16), Params{Vehicle: func() Vehicle { v := valid; v.Friction = -1; return v }(), Closed: true}},
		{"negative start speed", circlePath(50, 16), Params{Vehicle: valid, StartSpeedMPS: -5, Closed: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Simulate(tc.points, tc.params)
			if err == nil {
				t.Fatal("expected error")
			}
			var simErr *SimulationError
			if !errors.As(err, &simErr) {
				t.Fatalf("expected SimulationError, got %T: %v", err, err)
			}
		})
	}
}

func TestHairpinCuspProducesFiniteProfile(t *testing.T) {
	// Out and back along nearly the same line. Radii at the reversal
	// points are degenerate; the result must stay finite and positive.
	points := []r3.Vec{
		{X: 0, Y: 0}, {X: 50, Y: 0.01}, {X: 100, Y: 0}, {X: 50, Y: -0.01},
	}
	profile, err := Simulate(points, Params{Vehicle: testVehicle(), Closed: true, MinRadiusM: 2})
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	for i, seg := range profile.Segments {
		if seg.RadiusMeters < 2 {
			t.Fatalf("segment %d radius %v below floor", i, seg.RadiusMeters)
		}
		if math.IsNaN(seg.ExitSpeedMPS) || seg.ExitSpeedMPS <= 0 {
			t.Fatalf("segment %d has degenerate speed %v", i, seg.ExitSpeedMPS)
		}
	}
}
