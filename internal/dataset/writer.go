package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/banshee-data/racetime/internal/dva"
)

// DerivedHeader is the header row of the DVA export.
var DerivedHeader = []string{"Continuous Time", "Acceleration (a)", "Speed (v)", "Distance (d)"}

// DetailedHeader is the header row of the full intermediate export.
var DetailedHeader = []string{
	"Time (s)", "Total Mass", "Fnet", "Δt", "Continuous Time", "Acceleration (a)",
	"Speed Change (delta v)", "Speed (v)", "Distance Change (delta d)", "Distance (d)",
}

// formatFloat renders the shortest representation that round-trips.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeAll(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	return nil
}

// WriteDerived writes the reporting columns of a run as CSV.
func WriteDerived(w io.Writer, rows []dva.DerivedSample) error {
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = []string{
			formatFloat(r.ContinuousTime),
			formatFloat(r.Acceleration),
			formatFloat(r.Speed),
			formatFloat(r.Distance),
		}
	}
	return writeAll(w, DerivedHeader, records)
}

// WriteDetailed writes every intermediate column of the integrator as CSV.
func WriteDetailed(w io.Writer, rows []dva.KinematicSample) error {
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = []string{
			formatFloat(r.Time),
			formatFloat(r.TotalMass),
			formatFloat(r.NetForce),
			formatFloat(r.DeltaTime),
			formatFloat(r.ContinuousTime),
			formatFloat(r.Acceleration),
			formatFloat(r.SpeedChange),
			formatFloat(r.Speed),
			formatFloat(r.DistanceChange),
			formatFloat(r.Distance),
		}
	}
	return writeAll(w, DetailedHeader, records)
}

// WriteSamples writes input samples with the spreadsheet headers the
// calculator accepts.
func WriteSamples(w io.Writer, samples []dva.Sample) error {
	records := make([][]string, len(samples))
	for i, s := range samples {
		records[i] = []string{
			formatFloat(s.Time),
			formatFloat(s.Force),
			formatFloat(s.CO2Mass),
			formatFloat(s.Drag),
		}
	}
	return writeAll(w, InputHeader, records)
}
