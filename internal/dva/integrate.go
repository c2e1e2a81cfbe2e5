package dva

import "gonum.org/v1/gonum/floats"

// trapezoidSteps returns the per-row trapezoid areas of y over dt. The first
// step is always zero.
func trapezoidSteps(y, dt []float64) []float64 {
	steps := make([]float64, len(y))
	for i := 1; i < len(y); i++ {
		steps[i] = (y[i-1] + y[i]) / 2 * dt[i]
	}
	return steps
}

// Integrate applies cumulative trapezoidal integration twice: acceleration
// to speed, then speed to distance. The sample spacing is irregular, so each
// step uses its own DeltaTime.
func Integrate(rows []AccelSample) []KinematicSample {
	out := make([]KinematicSample, len(rows))
	if len(rows) == 0 {
		return out
	}

	accel := make([]float64, len(rows))
	dt := make([]float64, len(rows))
	for i, r := range rows {
		accel[i] = r.Acceleration
		dt[i] = r.DeltaTime
	}

	speedChange := trapezoidSteps(accel, dt)
	speed := floats.CumSum(make([]float64, len(rows)), speedChange)
	distanceChange := trapezoidSteps(speed, dt)
	distance := floats.CumSum(make([]float64, len(rows)), distanceChange)

	for i, r := range rows {
		out[i] = KinematicSample{
			AccelSample:    r,
			SpeedChange:    speedChange[i],
			Speed:          speed[i],
			DistanceChange: distanceChange[i],
			Distance:       distance[i],
		}
	}
	return out
}
