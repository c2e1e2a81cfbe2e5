// Package dva derives distance, velocity and acceleration for a CO2 dragster
// from a measured force/drag/mass time series.
//
// The derivation is a chain of pure stages. Each stage takes the previous
// stage's table and returns a new one; no stage modifies its input:
//
//	BuildDVA -> NormalizeTime -> Accelerate -> Integrate -> Trim -> Summarize
//
// Run executes the whole chain and is the entry point used by the CLI and the
// HTTP API.
package dva

import (
	"fmt"
	"math"
)

// DistanceCutoff is the race length in metres. Samples past it are dropped.
const DistanceCutoff = 20.0

// AccelerationScale converts NetForce/TotalMass from N/g to m/s². Total mass is
// kept in grams throughout, so the ratio is a thousand times too small.
const AccelerationScale = 1000.0

// Sample is one input record.
type Sample struct {
	Time    float64 // s
	Force   float64 // N, raw thrust
	CO2Mass float64 // g, propellant mass remaining
	Drag    float64 // N
}

// Params are the scalar vehicle parameters supplied alongside the series.
type Params struct {
	VehicleMass         float64 // g, without propellant
	FrictionCoefficient float64 // kinetic, dimensionless
}

// Validate rejects non-positive or non-finite parameters.
func (p Params) Validate() error {
	if !(p.VehicleMass > 0) || math.IsInf(p.VehicleMass, 0) {
		return fmt.Errorf("%w: vehicle mass must be > 0, got %v", ErrInvalidParameter, p.VehicleMass)
	}
	if !(p.FrictionCoefficient > 0) || math.IsInf(p.FrictionCoefficient, 0) {
		return fmt.Errorf("%w: friction coefficient must be > 0, got %v", ErrInvalidParameter, p.FrictionCoefficient)
	}
	return nil
}

// MassForce is a row of the builder stage.
type MassForce struct {
	Time      float64 // s
	TotalMass float64 // g
	NetForce  float64 // N
}

// TimedSample adds the time axis produced by NormalizeTime.
type TimedSample struct {
	MassForce
	DeltaTime      float64 // s since the previous row, 0 for the first
	ContinuousTime float64 // s since the first retained row
}

// AccelSample adds the acceleration produced by Accelerate.
type AccelSample struct {
	TimedSample
	Acceleration float64 // m/s²
}

// KinematicSample carries every intermediate column of the integrator.
type KinematicSample struct {
	AccelSample
	SpeedChange    float64 // m/s
	Speed          float64 // m/s
	DistanceChange float64 // m
	Distance       float64 // m
}

// DerivedSample is a reporting row.
type DerivedSample struct {
	ContinuousTime float64 `json:"continuous_time"`
	Acceleration   float64 `json:"acceleration"`
	Speed          float64 `json:"speed"`
	Distance       float64 `json:"distance"`
}

// Summary holds the race metrics of a retained series.
type Summary struct {
	TopSpeed    float64 `json:"top_speed_kmph"` // km/h
	TopSpeedMPS float64 `json:"top_speed_mps"`
	EndTime     float64 `json:"end_time"` // s
	Samples     int     `json:"samples"`
}

// Result is the output of a full run.
type Result struct {
	Samples []DerivedSample `json:"samples"`
	Summary Summary         `json:"summary"`
}

// Clone returns a deep copy of r.
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	out := &Result{Summary: r.Summary}
	if r.Samples != nil {
		out.Samples = make([]DerivedSample, len(r.Samples))
		copy(out.Samples, r.Samples)
	}
	return out
}
