// Package api serves the race-time calculation over HTTP.
package api

import (
	"bytes"
	"errors"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/banshee-data/racetime/internal/cache"
	"github.com/banshee-data/racetime/internal/charts"
	"github.com/banshee-data/racetime/internal/dataset"
	"github.com/banshee-data/racetime/internal/dva"
	"github.com/banshee-data/racetime/internal/httputil"
	"github.com/banshee-data/racetime/internal/monitoring"
	"github.com/banshee-data/racetime/internal/security"
	"github.com/banshee-data/racetime/internal/timeutil"
	"github.com/banshee-data/racetime/internal/units"
	"github.com/banshee-data/racetime/internal/version"
)

// DefaultMaxUploadBytes bounds uploaded tables.
const DefaultMaxUploadBytes = 8 << 20

// DerivedFileName is the download name of the DVA export.
const DerivedFileName = "dva_data.csv"

// Options configures a Server.
type Options struct {
	Units          string // default display units for top speed
	AssetsHost     string // echarts asset prefix for the charts page
	MaxUploadBytes int64
	Clock          timeutil.Clock

	// RateLimit caps compute requests per second across all clients.
	// Zero disables limiting.
	RateLimit float64
	RateBurst int
}

type Server struct {
	cache      *cache.Cache
	units      string
	assetsHost string
	maxUpload  int64
	clock      timeutil.Clock
	limiter    *rate.Limiter
}

// NewServer returns a Server computing runs through c.
func NewServer(c *cache.Cache, o Options) *Server {
	if o.Units == "" {
		o.Units = units.KMPH
	}
	if o.MaxUploadBytes <= 0 {
		o.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if o.Clock == nil {
		o.Clock = timeutil.RealClock{}
	}
	s := &Server{
		cache:      c,
		units:      o.Units,
		assetsHost: o.AssetsHost,
		maxUpload:  o.MaxUploadBytes,
		clock:      o.Clock,
	}
	if o.RateLimit > 0 {
		burst := o.RateBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(o.RateLimit), burst)
	}
	return s
}

// DVAResponse is the JSON body of POST /api/dva.
type DVAResponse struct {
	RunID         string              `json:"run_id"`
	TopSpeed      float64             `json:"top_speed"`
	TopSpeedUnits string              `json:"top_speed_units"`
	TopSpeedMPS   float64             `json:"top_speed_mps"`
	EndTime       float64             `json:"end_time"`
	Cached        bool                `json:"cached"`
	Samples       []dva.DerivedSample `json:"samples"`
}

// VersionResponse is the JSON body of GET /api/version.
type VersionResponse struct {
	Version   string `json:"version"`
	GitSHA    string `json:"git_sha"`
	BuildTime string `json:"build_time"`
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/dva", s.handleDVA)
	mux.HandleFunc("/api/dva/csv", s.handleDVACSV)
	mux.HandleFunc("/api/dva/parquet", s.handleDVAParquet)
	mux.HandleFunc("/api/dva/charts", s.handleDVACharts)
	mux.HandleFunc("/api/example.csv", s.handleExample)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/cache", s.handleCacheStats)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// compute parses the request and runs it through the cache.
func (s *Server) compute(w http.ResponseWriter, r *http.Request) (*cache.Run, string, bool) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return nil, "", false
	}
	if s.limiter != nil && !s.limiter.Allow() {
		httputil.WriteJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return nil, "", false
	}
	in, err := s.parseInput(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return nil, "", false
	}
	run, err := s.cache.Compute(r.Context(), in.series, in.params)
	if err != nil {
		s.writeError(w, r, err)
		return nil, "", false
	}
	monitoring.Logger().WithComponent("api").WithFields(monitoring.Fields{
		"run_id":  run.ID,
		"cached":  run.Cached,
		"samples": len(in.series),
		"kept":    run.Result.Summary.Samples,
	}).Debug("dva computed")
	return run, in.units, true
}

func (s *Server) handleDVA(w http.ResponseWriter, r *http.Request) {
	run, unit, ok := s.compute(w, r)
	if !ok {
		return
	}
	res := run.Result
	httputil.WriteJSONOK(w, DVAResponse{
		RunID:         run.ID,
		TopSpeed:      units.ConvertSpeed(res.Summary.TopSpeedMPS, unit),
		TopSpeedUnits: unit,
		TopSpeedMPS:   res.Summary.TopSpeedMPS,
		EndTime:       res.Summary.EndTime,
		Cached:        run.Cached,
		Samples:       res.Samples,
	})
}

func (s *Server) handleDVACSV(w http.ResponseWriter, r *http.Request) {
	run, _, ok := s.compute(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := dataset.WriteDerived(&buf, run.Result.Samples); err != nil {
		s.writeError(w, r, err)
		return
	}
	name := DerivedFileName
	if label := r.FormValue(ParamName); label != "" {
		name = security.SanitizeFilename(label) + "_" + DerivedFileName
	}
	httputil.WriteAttachment(w, "text/csv; charset=utf-8", name, buf.Bytes())
}

func (s *Server) handleDVAParquet(w http.ResponseWriter, r *http.Request) {
	run, _, ok := s.compute(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := dataset.WriteParquet(&buf, run.Result.Samples); err != nil {
		s.writeError(w, r, err)
		return
	}
	httputil.WriteAttachment(w, "application/vnd.apache.parquet", dataset.ParquetFileName, buf.Bytes())
}

func (s *Server) handleDVACharts(w http.ResponseWriter, r *http.Request) {
	run, unit, ok := s.compute(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	err := charts.RenderHTML(&buf, run.Result, charts.HTMLOptions{
		Title:      "Race Time",
		Units:      unit,
		AssetsHost: s.assetsHost,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Run-ID", run.ID)
	w.Write(buf.Bytes())
}

func (s *Server) handleExample(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteAttachment(w, "text/csv; charset=utf-8", dataset.ExampleFileName, dataset.ExampleCSV())
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, VersionResponse{
		Version:   version.Version,
		GitSHA:    version.GitSHA,
		BuildTime: version.BuildTime,
	})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, s.cache.Stats())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{"status": "ok"})
}

// StatusFor maps a pipeline or input error to an HTTP status.
func StatusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, dva.ErrMissingInput),
		errors.Is(err, dva.ErrInvalidParameter),
		errors.Is(err, dva.ErrMalformedTable):
		return http.StatusBadRequest
	case errors.Is(err, dva.ErrEmptyResult):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		monitoring.Logger().WithComponent("api").WithError(err).Errorf("%s %s failed", r.Method, r.URL.Path)
		msg = "internal error"
	}
	httputil.WriteJSONError(w, status, msg)
}
