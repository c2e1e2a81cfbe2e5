// Package dataset reads measured dragster runs from delimited text and
// writes derived DVA tables back out.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/banshee-data/racetime/internal/dva"
)

// Column identifiers for the required input columns.
const (
	ColTime    = "time"
	ColForce   = "force"
	ColCO2Mass = "co2_mass"
	ColDrag    = "drag"
)

// RequiredColumns lists the input columns in canonical order.
var RequiredColumns = []string{ColTime, ColForce, ColCO2Mass, ColDrag}

// headerAliases maps normalised header text to a column identifier. The
// spreadsheet headers of the original calculator are accepted as well as the
// snake-case names.
var headerAliases = map[string]string{
	"time":        ColTime,
	"times":       ColTime,
	"timesec":     ColTime,
	"forcen":      ColForce,
	"force":       ColForce,
	"thrust":      ColForce,
	"thrustn":     ColForce,
	"co2mass":     ColCO2Mass,
	"co2massmco2": ColCO2Mass,
	"co2massg":    ColCO2Mass,
	"mco2":        ColCO2Mass,
	"drag":        ColDrag,
	"dragfd":      ColDrag,
	"dragn":       ColDrag,
	"dragforce":   ColDrag,
	"fd":          ColDrag,
}

// normaliseHeader lowercases h and drops everything but letters and digits,
// so "CO2 Mass (Mco2)" becomes "co2massmco2".
func normaliseHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	var b strings.Builder
	for _, r := range strings.ToLower(h) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// resolveColumns maps each required column to its index in header.
func resolveColumns(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(RequiredColumns))
	for i, h := range header {
		col, ok := headerAliases[normaliseHeader(h)]
		if !ok {
			continue
		}
		if prev, dup := idx[col]; dup {
			return nil, fmt.Errorf("%w: columns %q and %q both map to %s", dva.ErrMalformedTable, header[prev], h, col)
		}
		idx[col] = i
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: missing required columns: %s", dva.ErrMalformedTable, strings.Join(missing, ", "))
	}
	return idx, nil
}

func parseField(record []string, i int, col string, line int) (float64, error) {
	if i >= len(record) {
		return 0, fmt.Errorf("%w: line %d: missing %s value", dva.ErrMalformedTable, line, col)
	}
	raw := strings.TrimSpace(record[i])
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: line %d: %s value %q is not numeric", dva.ErrMalformedTable, line, col, raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: line %d: %s value %q is not finite", dva.ErrMalformedTable, line, col, raw)
	}
	return v, nil
}

// ReadSamples parses a delimited table with one header row. Columns are
// matched by name; order and extra columns do not matter. Time must not
// decrease from one row to the next.
//
// An input with no header at all yields dva.ErrMissingInput; every shape or
// value problem yields dva.ErrMalformedTable.
func ReadSamples(r io.Reader) ([]dva.Sample, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: no table supplied", dva.ErrMissingInput)
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: table is empty", dva.ErrMissingInput)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %w", dva.ErrMalformedTable, err)
	}
	// ReuseRecord: the header slice is overwritten by the next Read.
	header = append([]string(nil), header...)

	idx, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	samples := make([]dva.Sample, 0, 256)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", dva.ErrMalformedTable, err)
		}
		line, _ := cr.FieldPos(0)

		var s dva.Sample
		if s.Time, err = parseField(record, idx[ColTime], ColTime, line); err != nil {
			return nil, err
		}
		if s.Force, err = parseField(record, idx[ColForce], ColForce, line); err != nil {
			return nil, err
		}
		if s.CO2Mass, err = parseField(record, idx[ColCO2Mass], ColCO2Mass, line); err != nil {
			return nil, err
		}
		if s.Drag, err = parseField(record, idx[ColDrag], ColDrag, line); err != nil {
			return nil, err
		}

		if n := len(samples); n > 0 && s.Time < samples[n-1].Time {
			return nil, fmt.Errorf("%w: line %d: time %v goes backwards from %v", dva.ErrMalformedTable, line, s.Time, samples[n-1].Time)
		}
		samples = append(samples, s)
	}
	return samples, nil
}
