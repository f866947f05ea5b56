// Package sim converts a racing line into a velocity profile and a lap
// time using a two-pass point-mass model.
//
// Calculation reference: http://www.jameshakewill.com/Lap_Time_Simulation.pdf
package sim

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"apexline/internal/model"
)

// AirDensity is the density of air in kg/m^3 used for drag terms.
const AirDensity = 1.19

// DefaultGravity is standard gravitational acceleration in m/s^2.
const DefaultGravity = 9.81

// Params configures one simulation.
type Params struct {
	Vehicle Vehicle

	// StartSpeedMPS is the entry speed of the first segment. Zero is a
	// standing start; the corner cap of the first segment is a flying lap.
	StartSpeedMPS float64

	// Closed treats the path as a lap that wraps from the last point back
	// to the first. Open paths are simulated end to end.
	Closed bool

	// Gravity defaults to DefaultGravity when zero.
	Gravity float64

	// MinRadiusM floors degenerate corner radii (cusps) instead of letting
	// them produce an undefined cornering cap. Defaults to 1 m.
	MinRadiusM float64

	// MinSpeedMPS floors the speeds used in divisions. Defaults to 0.1 m/s.
	MinSpeedMPS float64
}

func (p Params) withDefaults() Params {
	if p.Gravity == 0 {
		p.Gravity = DefaultGravity
	}
	if p.MinRadiusM == 0 {
		p.MinRadiusM = 1.0
	}
	if p.MinSpeedMPS == 0 {
		p.MinSpeedMPS = 0.1
	}
	return p
}

// Profile is the per-segment result of a simulation.
type Profile struct {
	LapTimeSeconds float64
	Segments       []model.VelocityPoint
}

// Simulate runs the two-pass scan over the path and returns the lap time
// and velocity profile. The path is assumed syntactically valid (on-track
// checks belong to the fitness evaluator); only malformed input is
// rejected, with a SimulationError.
func Simulate(points []r3.Vec, p Params) (Profile, error) {
	p = p.withDefaults()
	if err := p.Vehicle.Validate(); err != nil {
		return Profile{}, err
	}
	if math.IsNaN(p.StartSpeedMPS) || math.IsInf(p.StartSpeedMPS, 0) || p.StartSpeedMPS < 0 {
		return Profile{}, &SimulationError{Reason: fmt.Sprintf("start speed must be finite and >= 0, got %v", p.StartSpeedMPS)}
	}
	if math.IsNaN(p.Gravity) || p.Gravity <= 0 {
		return Profile{}, &SimulationError{Reason: "gravity must be positive"}
	}
	minPoints := 3
	if p.Closed {
		minPoints = 4
	}
	if len(points) < minPoints {
		return Profile{}, &SimulationError{Reason: fmt.Sprintf("path needs at least %d points, got %d", minPoints, len(points))}
	}
	for i, pt := range points {
		if math.IsNaN(pt.X+pt.Y+pt.Z) || math.IsInf(pt.X+pt.Y+pt.Z, 0) {
			return Profile{}, &SimulationError{Reason: fmt.Sprintf("path point %d is not finite", i)}
		}
	}

	segs := buildSegments(points, p)
	n := len(segs)

	caps := make([]float64, n)
	for i := range segs {
		caps[i] = cornerCap(segs[i].radius, p)
	}

	entry := make([]float64, n)
	exit := make([]float64, n)

	// Forward pass: acceleration-limited, clamped to the corner cap.
	v := math.Min(p.StartSpeedMPS, caps[0])
	for i := 0; i < n; i++ {
		if v > caps[i] {
			v = caps[i]
		}
		out := accelExit(v, segs[i].length, p)
		if out > caps[i] {
			out = caps[i]
		}
		entry[i] = v
		exit[i] = out
		v = out
	}

	// Backward pass: deceleration-limited, working back from each corner
	// cap. On a closed lap the sweep starts by comparing the final segment
	// against the first segment's entry.
	next := 0
	for i := n - 1; i >= 0; i-- {
		if p.Closed || i < n-1 {
			if exit[i] > entry[next] {
				maxEntry := brakeEntry(entry[next], segs[i], p)
				if entry[i] > maxEntry {
					entry[i] = maxEntry
				}
				exit[i] = entry[next]
			}
		}
		next = i
	}

	profile := Profile{Segments: make([]model.VelocityPoint, n)}
	dist := 0.0
	for i := 0; i < n; i++ {
		mean := entry[i] + exit[i]
		if mean < p.MinSpeedMPS {
			mean = p.MinSpeedMPS
		}
		dt := 2 * segs[i].length / mean
		dist += segs[i].length
		profile.LapTimeSeconds += dt
		profile.Segments[i] = model.VelocityPoint{
			DistanceMeters: dist,
			SpeedMPS:       exit[i],
			SegmentTimeSec: dt,
			CornerCapMPS:   caps[i],
			RadiusMeters:   segs[i].radius,
			SegmentLengthM: segs[i].length,
			EntrySpeedMPS:  entry[i],
			ExitSpeedMPS:   exit[i],
		}
	}
	return profile, nil
}

type segment struct {
	length float64
	radius float64 // math.Inf(1) on a straight
}

func buildSegments(points []r3.Vec, p Params) []segment {
	n := len(points)
	count := n - 1
	if p.Closed {
		count = n
	}
	segs := make([]segment, count)
	for i := 0; i < count; i++ {
		a := points[i]
		b := points[(i+1)%n]
		segs[i] = segment{
			length: r3.Norm(r3.Sub(b, a)),
			radius: pathRadius(points, i, p),
		}
	}
	return segs
}

// pathRadius estimates the local corner radius at point i from the
// circumradius of (prev, i, next). Collinear points give an infinite
// radius; degenerate cusps are floored at MinRadiusM.
func pathRadius(points []r3.Vec, i int, p Params) float64 {
	n := len(points)
	var prev, next int
	if p.Closed {
		prev = (i - 1 + n) % n
		next = (i + 1) % n
	} else {
		if i == 0 || i >= n-1 {
			return math.Inf(1)
		}
		prev = i - 1
		next = i + 1
	}

	a := r3.Norm(r3.Sub(points[next], points[prev]))
	b := r3.Norm(r3.Sub(points[next], points[i]))
	c := r3.Norm(r3.Sub(points[i], points[prev]))
	if b == 0 || c == 0 {
		return p.MinRadiusM
	}

	cosAngle := (c*c + b*b - a*a) / (2 * b * c)
	cosAngle = math.Max(-1, math.Min(1, cosAngle))
	angle := math.Acos(cosAngle)
	if angle == 0 || angle == math.Pi {
		return math.Inf(1)
	}
	sin := math.Sin(math.Pi - angle)
	if sin < 1e-12 {
		return math.Inf(1)
	}
	r := a / (2 * sin)
	if r < p.MinRadiusM {
		return p.MinRadiusM
	}
	return r
}

// cornerCap is the friction-limited cornering speed, including the drag
// contribution to the force budget. Straights are capped by top speed only.
func cornerCap(radius float64, p Params) float64 {
	v := p.Vehicle
	if math.IsInf(radius, 1) {
		return v.MaxSpeedMPS
	}
	totalForce := v.Friction * v.MassKG * p.Gravity
	drag := v.dragArea(AirDensity)
	denom := math.Pow(math.Pow(v.MassKG/radius, 2)+drag*drag, 0.25)
	cap := math.Sqrt(totalForce) / denom
	return math.Min(cap, v.MaxSpeedMPS)
}

// accelExit is the power-limited exit speed over a segment, capped by the
// low-speed traction limit and top speed.
func accelExit(entry, length float64, p Params) float64 {
	v := p.Vehicle
	speed := math.Max(entry, p.MinSpeedMPS)
	dragForce := v.dragArea(AirDensity) * speed * speed
	accel := (v.PeakPowerW/speed - dragForce) / v.MassKG
	traction := v.Friction * p.Gravity
	if accel > traction {
		accel = traction
	}
	if accel < 0 {
		accel = 0
	}
	out := math.Sqrt(entry*entry + 2*accel*length)
	return math.Min(out, v.MaxSpeedMPS)
}

// brakeEntry is the highest entry speed from which the vehicle can slow to
// exitSpeed within the segment. Braking force is the friction-circle
// remainder after cornering load, capped by the brake system, plus drag.
func brakeEntry(exitSpeed float64, seg segment, p Params) float64 {
	v := p.Vehicle
	totalForce := v.Friction * v.MassKG * p.Gravity
	var centripetal float64
	if !math.IsInf(seg.radius, 1) {
		centripetal = v.MassKG * exitSpeed * exitSpeed / seg.radius
	}
	braking := 0.0
	if totalForce > centripetal {
		braking = math.Sqrt(totalForce*totalForce - centripetal*centripetal)
	}
	if limit := v.MassKG * v.PeakBrakeDecel; braking > limit {
		braking = limit
	}
	dragForce := v.dragArea(AirDensity) * exitSpeed * exitSpeed
	deltaV2 := 2 * seg.length * (braking + dragForce) / v.MassKG
	entry := math.Sqrt(exitSpeed*exitSpeed + deltaV2)
	return math.Min(entry, v.MaxSpeedMPS)
}
