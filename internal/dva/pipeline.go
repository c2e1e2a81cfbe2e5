package dva

import "fmt"

// Trace runs every stage up to the integrator and returns the full
// intermediate table, before the distance cutoff is applied.
func Trace(series []Sample, p Params) ([]KinematicSample, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: no samples supplied", ErrMissingInput)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	built := BuildDVA(series, p)
	if len(built) == 0 {
		return nil, fmt.Errorf("%w: net force never becomes positive in %d samples", ErrEmptyResult, len(series))
	}
	return Integrate(Accelerate(NormalizeTime(built))), nil
}

// Run executes the full pipeline and returns the retained reporting rows
// with their summary.
func Run(series []Sample, p Params) (*Result, error) {
	kin, err := Trace(series, p)
	if err != nil {
		return nil, err
	}

	trimmed := Trim(kin)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: first sample is already past %gm", ErrEmptyResult, DistanceCutoff)
	}

	summary, err := Summarize(trimmed)
	if err != nil {
		return nil, err
	}
	return &Result{Samples: trimmed, Summary: summary}, nil
}
