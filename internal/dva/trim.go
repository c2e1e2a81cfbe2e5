package dva

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/racetime/internal/units"
)

// Trim projects the reporting columns and keeps the leading run of rows with
// Distance <= DistanceCutoff. Distance never decreases, so this cuts at the
// first row past the finish line.
func Trim(rows []KinematicSample) []DerivedSample {
	out := make([]DerivedSample, 0, len(rows))
	for _, r := range rows {
		if r.Distance > DistanceCutoff {
			break
		}
		out = append(out, DerivedSample{
			ContinuousTime: r.ContinuousTime,
			Acceleration:   r.Acceleration,
			Speed:          r.Speed,
			Distance:       r.Distance,
		})
	}
	return out
}

// Summarize computes top speed and end time for a retained series.
func Summarize(rows []DerivedSample) (Summary, error) {
	if len(rows) == 0 {
		return Summary{}, fmt.Errorf("%w: no retained samples to summarise", ErrEmptyResult)
	}
	speeds := make([]float64, len(rows))
	for i, r := range rows {
		speeds[i] = r.Speed
	}
	top := floats.Max(speeds)
	return Summary{
		TopSpeed:    top * units.MPSToKMPH,
		TopSpeedMPS: top,
		EndTime:     rows[len(rows)-1].ContinuousTime,
		Samples:     len(rows),
	}, nil
}
