package dva

import "gonum.org/v1/gonum/floats"

// NormalizeTime adds the per-row delta and a continuous time axis that starts
// at zero on the first row.
func NormalizeTime(rows []MassForce) []TimedSample {
	out := make([]TimedSample, len(rows))
	if len(rows) == 0 {
		return out
	}

	deltas := make([]float64, len(rows))
	for i := 1; i < len(rows); i++ {
		deltas[i] = rows[i].Time - rows[i-1].Time
	}
	continuous := floats.CumSum(make([]float64, len(deltas)), deltas)

	for i, r := range rows {
		out[i] = TimedSample{
			MassForce:      r,
			DeltaTime:      deltas[i],
			ContinuousTime: continuous[i],
		}
	}
	return out
}

// Accelerate derives acceleration in m/s² from net force and total mass.
// A row with zero total mass has zero acceleration.
func Accelerate(rows []TimedSample) []AccelSample {
	out := make([]AccelSample, len(rows))
	for i, r := range rows {
		var a float64
		if r.TotalMass != 0 {
			a = (r.NetForce / r.TotalMass) * AccelerationScale
		}
		out[i] = AccelSample{TimedSample: r, Acceleration: a}
	}
	return out
}
