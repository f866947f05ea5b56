package sim

import (
	"fmt"
	"math"
)

// SimulationError reports malformed simulator input: a degenerate path or
// non-finite vehicle parameters. It is fatal for a single evaluation only.
type SimulationError struct {
	Reason string
}

func (e *SimulationError) Error() string {
	return "simulation: " + e.Reason
}

// Vehicle is the point-mass vehicle model. No suspension, no tire thermal
// model, no downforce map: mass, engine power, brakes, tire friction and
// air drag are the whole story.
type Vehicle struct {
	MassKG          float64
	PeakPowerW      float64
	PeakBrakeDecel  float64 // m/s^2
	Friction        float64 // tire/surface friction coefficient
	DragCoefficient float64
	FrontalAreaM2   float64
	MaxSpeedMPS     float64
}

func (v Vehicle) Validate() error {
	checks := []struct {
		name    string
		value   float64
		allowZS bool // zero allowed (drag terms may be disabled)
	}{
		{"mass", v.MassKG, false},
		{"peak power", v.PeakPowerW, false},
		{"peak brake deceleration", v.PeakBrakeDecel, false},
		{"friction coefficient", v.Friction, false},
		{"drag coefficient", v.DragCoefficient, true},
		{"frontal area", v.FrontalAreaM2, true},
		{"max speed", v.MaxSpeedMPS, false},
	}
	for _, c := range checks {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) {
			return &SimulationError{Reason: fmt.Sprintf("%s is not finite", c.name)}
		}
		if c.value < 0 || (!c.allowZS && c.value == 0) {
			return &SimulationError{Reason: fmt.Sprintf("%s must be positive, got %v", c.name, c.value)}
		}
	}
	return nil
}

// dragArea is the lumped 0.5 * Cd * rho * A drag term.
func (v Vehicle) dragArea(airDensity float64) float64 {
	return 0.5 * v.DragCoefficient * airDensity * v.FrontalAreaM2
}
