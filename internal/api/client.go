package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/banshee-data/racetime/internal/dva"
	"github.com/banshee-data/racetime/internal/httputil"
)

// Client submits tables to a remote racetime server.
type Client struct {
	baseURL string
	http    httputil.HTTPClient
}

// NewClient returns a Client for the server at baseURL.
func NewClient(baseURL string, hc httputil.HTTPClient) *Client {
	if hc == nil {
		hc = httputil.NewStandardClient(nil)
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// Error is a non-2xx reply from the server.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Unwrap recovers the pipeline error class from the message prefix the
// server writes, so callers can use errors.Is on remote failures.
func (e *Error) Unwrap() error {
	for _, sentinel := range []error{
		dva.ErrMissingInput,
		dva.ErrInvalidParameter,
		dva.ErrMalformedTable,
		dva.ErrEmptyResult,
	} {
		if strings.HasPrefix(e.Message, sentinel.Error()+":") {
			return sentinel
		}
	}
	return nil
}

// Compute posts table as CSV and returns the decoded reply.
func (c *Client) Compute(ctx context.Context, table io.Reader, p dva.Params, unit string) (*DVAResponse, error) {
	q := url.Values{}
	q.Set(ParamMass, strconv.FormatFloat(p.VehicleMass, 'g', -1, 64))
	q.Set(ParamFriction, strconv.FormatFloat(p.FrictionCoefficient, 'g', -1, 64))
	if unit != "" {
		q.Set(ParamUnits, unit)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/dva?"+q.Encode(), table)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "text/csv")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error == "" {
			body.Error = http.StatusText(resp.StatusCode)
		}
		return nil, &Error{StatusCode: resp.StatusCode, Message: body.Error}
	}

	var out DVAResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}
