package testutil

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/banshee-data/racetime/internal/dataset"
)

func TestAssertStatusCode_Matching(t *testing.T) {
	fakeT := &testing.T{}
	AssertStatusCode(fakeT, http.StatusOK, http.StatusOK)
	if fakeT.Failed() {
		t.Error("expected no failure for matching status codes")
	}
}

func TestAssertNoError_NilErr(t *testing.T) {
	fakeT := &testing.T{}
	AssertNoError(fakeT, nil)
	if fakeT.Failed() {
		t.Error("expected no failure for nil error")
	}
}

func TestAssertError_WithErr(t *testing.T) {
	fakeT := &testing.T{}
	AssertError(fakeT, errors.New("something wrong"))
	if fakeT.Failed() {
		t.Error("expected no failure when error is present")
	}
}

func TestNewTestRequest(t *testing.T) {
	t.Parallel()

	req := NewTestRequest(http.MethodGet, "/api/version")
	if req.Method != http.MethodGet {
		t.Errorf("method = %s, want GET", req.Method)
	}
	if req.URL.Path != "/api/version" {
		t.Errorf("path = %s, want /api/version", req.URL.Path)
	}
}

func TestNewTestRecorder_InitialState(t *testing.T) {
	w := NewTestRecorder()
	if w.Code != http.StatusOK {
		t.Errorf("initial Code = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Body.Len() != 0 {
		t.Errorf("initial body length = %d, want 0", w.Body.Len())
	}
}

func TestThrustCurveCSVMatchesSamples(t *testing.T) {
	got, err := dataset.ReadSamples(strings.NewReader(ThrustCurveCSV))
	if err != nil {
		t.Fatalf("ReadSamples: %v", err)
	}
	want := ThrustCurve()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestNewCSVRequest(t *testing.T) {
	req := NewCSVRequest("/api/dva", "a,b\n", url.Values{"mass": {"50"}})
	if req.Method != http.MethodPost {
		t.Errorf("method = %s, want POST", req.Method)
	}
	if got := req.URL.Query().Get("mass"); got != "50" {
		t.Errorf("mass = %q, want 50", got)
	}
	if ct := req.Header.Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestNewMultipartRequest(t *testing.T) {
	req := NewMultipartRequest(t, "/api/dva", "a,b\n1,2\n", map[string]string{"friction": "0.1"})
	if err := req.ParseMultipartForm(1 << 20); err != nil {
		t.Fatalf("ParseMultipartForm: %v", err)
	}
	if got := req.FormValue("friction"); got != "0.1" {
		t.Errorf("friction = %q, want 0.1", got)
	}
	f, _, err := req.FormFile("file")
	if err != nil {
		t.Fatalf("FormFile: %v", err)
	}
	defer f.Close()
	data, _ := io.ReadAll(f)
	if string(data) != "a,b\n1,2\n" {
		t.Errorf("file body = %q", data)
	}
}
