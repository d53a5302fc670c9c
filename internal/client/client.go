// Package client talks to a running intelhub API over HTTP and to its gRPC
// health service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"intelhub.dev/internal/dossier"
	"intelhub.dev/internal/travel"
)

// ErrUnauthorized is returned for 401 and 403 responses.
var ErrUnauthorized = errors.New("unauthorized")

// Client wraps the HTTP API.
type Client struct {
	base  string
	http  *http.Client
	token string
}

// Option configures Client.
type Option func(*Client)

// WithToken sends token as a bearer credential.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AnalyzeTrips pairs records server side without storing them.
func (c *Client) AnalyzeTrips(ctx context.Context, records []travel.Crossing, sort bool) (travel.Report, error) {
	var report travel.Report
	err := c.do(ctx, http.MethodPost, "/v1/analysis/trips", map[string]any{"records": records, "sort": sort}, &report)
	return report, err
}

// SubjectTrips fetches the report built from a subject's stored crossings.
func (c *Client) SubjectTrips(ctx context.Context, subjectID string) (travel.Report, error) {
	var report travel.Report
	err := c.do(ctx, http.MethodGet, "/v1/subjects/"+url.PathEscape(subjectID)+"/trips", nil, &report)
	return report, err
}

// AddCrossing stores a crossing for its subject.
func (c *Client) AddCrossing(ctx context.Context, cr travel.Crossing) (travel.Crossing, error) {
	var stored travel.Crossing
	err := c.do(ctx, http.MethodPost, "/v1/subjects/"+url.PathEscape(cr.SubjectID)+"/crossings", cr, &stored)
	return stored, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error     string `json:"error"`
			RequestID string `json:"request_id"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&apiErr)
		return mapStatus(resp.StatusCode, apiErr.Error, apiErr.RequestID)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// mapStatus turns an API error response back into the domain sentinel.
func mapStatus(code int, msg, requestID string) error {
	var base error
	switch code {
	case http.StatusBadRequest:
		base = travel.ErrInvalidRecord
	case http.StatusUnprocessableEntity:
		base = travel.ErrOutOfOrder
	case http.StatusNotFound:
		base = dossier.ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		base = ErrUnauthorized
	default:
		base = fmt.Errorf("status %d", code)
	}
	if requestID != "" {
		return fmt.Errorf("%w: %s (request %s)", base, msg, requestID)
	}
	return fmt.Errorf("%w: %s", base, msg)
}

// CheckHealth queries the standard gRPC health service at target and
// returns the serving status name.
func CheckHealth(ctx context.Context, target string, opts ...grpc.DialOption) (string, error) {
	if len(opts) == 0 {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return "", err
	}
	defer conn.Close()
	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return "", err
	}
	return resp.GetStatus().String(), nil
}
