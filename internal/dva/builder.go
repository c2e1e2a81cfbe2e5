package dva

import "github.com/banshee-data/racetime/internal/units"

// FrictionForce returns the rolling friction in Newtons for a total mass in grams.
func FrictionForce(totalMass, frictionCoefficient float64) float64 {
	return units.Weight(totalMass) * frictionCoefficient
}

// NetForce is thrust minus friction minus drag. It may be negative.
func NetForce(force, friction, drag float64) float64 {
	return force - friction - drag
}

// clampToZero sets every negative value to exactly zero.
func clampToZero(cols ...*float64) {
	for _, c := range cols {
		if *c < 0 {
			*c = 0
		}
	}
}

// columns lists every column of the row for blanket operations.
func (r *MassForce) columns() []*float64 {
	return []*float64{&r.Time, &r.TotalMass, &r.NetForce}
}

// BuildDVA computes total mass and net force for every sample, clamps
// negative values to zero and drops the samples before the first one whose
// unclamped net force is strictly positive. The returned table is re-indexed
// from zero and is empty when net force never becomes positive.
//
// Parameters are not validated here; Run does that.
func BuildDVA(series []Sample, p Params) []MassForce {
	rows := make([]MassForce, len(series))
	start := -1
	for i, s := range series {
		total := s.CO2Mass + p.VehicleMass
		net := NetForce(s.Force, FrictionForce(total, p.FrictionCoefficient), s.Drag)
		if start < 0 && net > 0 {
			start = i
		}
		rows[i] = MassForce{Time: s.Time, TotalMass: total, NetForce: net}
		clampToZero(rows[i].columns()...)
	}
	if start < 0 {
		return []MassForce{}
	}
	out := make([]MassForce, len(rows)-start)
	copy(out, rows[start:])
	return out
}
