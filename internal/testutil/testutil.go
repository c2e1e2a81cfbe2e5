// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/banshee-data/racetime/internal/dva"
)

// DragsterParams is a typical 50 g body on a waxed line.
var DragsterParams = dva.Params{VehicleMass: 50, FrictionCoefficient: 0.05}

// ThrustCurve returns a short recorded cartridge burn with an idle lead-in.
func ThrustCurve() []dva.Sample {
	return []dva.Sample{
		{Time: 0.000, Force: 0.0, CO2Mass: 38.0, Drag: 0.00},
		{Time: 0.010, Force: 0.03, CO2Mass: 38.0, Drag: 0.00},
		{Time: 0.020, Force: 8.5, CO2Mass: 37.1, Drag: 0.00},
		{Time: 0.035, Force: 22.0, CO2Mass: 34.0, Drag: 0.02},
		{Time: 0.050, Force: 18.0, CO2Mass: 30.2, Drag: 0.08},
		{Time: 0.080, Force: 12.0, CO2Mass: 24.9, Drag: 0.20},
		{Time: 0.120, Force: 7.5, CO2Mass: 19.0, Drag: 0.45},
		{Time: 0.200, Force: 4.0, CO2Mass: 12.3, Drag: 0.80},
		{Time: 0.300, Force: 2.1, CO2Mass: 7.0, Drag: 1.00},
		{Time: 0.450, Force: 1.0, CO2Mass: 3.1, Drag: 1.10},
		{Time: 0.600, Force: 0.4, CO2Mass: 1.0, Drag: 1.05},
		{Time: 0.800, Force: 0.0, CO2Mass: 0.0, Drag: 0.95},
		{Time: 1.000, Force: 0.0, CO2Mass: 0.0, Drag: 0.85},
		{Time: 1.500, Force: 0.0, CO2Mass: 0.0, Drag: 0.70},
	}
}

// ThrustCurveCSV is ThrustCurve in the spreadsheet layout users upload.
const ThrustCurveCSV = `Time (s),Force (N),CO2 Mass (Mco2),Drag (FD)
0,0,38,0
0.01,0.03,38,0
0.02,8.5,37.1,0
0.035,22,34,0.02
0.05,18,30.2,0.08
0.08,12,24.9,0.2
0.12,7.5,19,0.45
0.2,4,12.3,0.8
0.3,2.1,7,1
0.45,1,3.1,1.1
0.6,0.4,1,1.05
0.8,0,0,0.95
1,0,0,0.85
1.5,0,0,0.7
`

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// NewTestRequest creates a test HTTP request.
func NewTestRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

// NewTestRecorder creates a test response recorder.
func NewTestRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}

// NewCSVRequest builds a POST with a raw text/csv body and query parameters.
func NewCSVRequest(path, body string, query url.Values) *http.Request {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "text/csv")
	return req
}

// NewMultipartRequest builds a POST carrying body as the "file" part plus
// plain form fields.
func NewMultipartRequest(t *testing.T, path, body string, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	fw, err := mw.CreateFormFile("file", "data.csv")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := io.WriteString(fw, body); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}
