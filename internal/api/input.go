package api

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/banshee-data/racetime/internal/dataset"
	"github.com/banshee-data/racetime/internal/dva"
	"github.com/banshee-data/racetime/internal/units"
)

// Form and query parameter names.
const (
	ParamMass     = "mass"
	ParamFriction = "friction"
	ParamUnits    = "units"
	ParamName     = "name"
	FieldFile     = "file"
)

type input struct {
	series []dva.Sample
	params dva.Params
	units  string
}

// parseInput reads the table and parameters of a compute request. The table
// is either the raw body or the "file" part of a multipart form; parameters
// come from the query string or form fields.
func (s *Server) parseInput(w http.ResponseWriter, r *http.Request) (*input, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	var (
		body   io.Reader
		lookup func(string) string
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(s.maxUpload); err != nil {
			return nil, fmt.Errorf("%w: %w", dva.ErrMissingInput, err)
		}
		f, _, err := r.FormFile(FieldFile)
		if err != nil {
			return nil, fmt.Errorf("%w: form field %q: %v", dva.ErrMissingInput, FieldFile, err)
		}
		defer f.Close()
		body = f
		lookup = r.FormValue
	default:
		body = r.Body
		lookup = r.URL.Query().Get
	}

	mass, err := parseParam(lookup, ParamMass)
	if err != nil {
		return nil, err
	}
	friction, err := parseParam(lookup, ParamFriction)
	if err != nil {
		return nil, err
	}

	unit := strings.ToLower(strings.TrimSpace(lookup(ParamUnits)))
	if unit == "" {
		unit = s.units
	}
	if !units.IsValid(unit) {
		return nil, fmt.Errorf("%w: units must be one of %s, got %q", dva.ErrInvalidParameter, units.GetValidUnitsString(), unit)
	}

	series, err := dataset.ReadSamples(body)
	if err != nil {
		return nil, err
	}
	return &input{
		series: series,
		params: dva.Params{VehicleMass: mass, FrictionCoefficient: friction},
		units:  unit,
	}, nil
}

func parseParam(lookup func(string) string, name string) (float64, error) {
	raw := strings.TrimSpace(lookup(name))
	if raw == "" {
		return 0, fmt.Errorf("%w: parameter %q is required", dva.ErrMissingInput, name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: parameter %q: %q is not a number", dva.ErrInvalidParameter, name, raw)
	}
	return v, nil
}
