// Package store is the client for the remote document store the records
// layer persists to. It exposes row CRUD over two collections, the user
// directory, the SMS channel, and the file bucket, and translates every
// failure into a structured Error exactly once, at this boundary.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/salus-hms/salus-api/internal/config"
	"github.com/salus-hms/salus-api/pkg/metrics"
)

// Client is the process-wide connection handle. It is read-only after New and
// safe for concurrent use.
type Client struct {
	endpoint           string
	projectID          string
	apiKey             string
	databaseID         string
	patientTableID     string
	appointmentTableID string
	bucketID           string

	httpClient *http.Client
	metrics    *metrics.Collector
}

func New(cfg config.StoreConfig, collector *metrics.Collector) *Client {
	return &Client{
		endpoint:           strings.TrimRight(cfg.Endpoint, "/"),
		projectID:          cfg.ProjectID,
		apiKey:             cfg.APIKey,
		databaseID:         cfg.DatabaseID,
		patientTableID:     cfg.PatientTableID,
		appointmentTableID: cfg.AppointmentTableID,
		bucketID:           cfg.BucketID,
		httpClient:         &http.Client{Timeout: cfg.RequestTimeout},
		metrics:            collector,
	}
}

// PatientTableID returns the configured patient collection identifier.
func (c *Client) PatientTableID() string { return c.patientTableID }

// AppointmentTableID returns the configured appointment collection identifier.
func (c *Client) AppointmentTableID() string { return c.appointmentTableID }

type storeErrorBody struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
	Type    string `json:"type"`
}

// do performs one request and returns the raw response body. Any non-2xx
// response is classified into a *Error here and nowhere else.
func (c *Client) do(ctx context.Context, service, operation, method, path string, query url.Values, contentType string, body io.Reader) ([]byte, error) {
	u := c.endpoint + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", operation, err)
	}

	req.Header.Set("X-Appwrite-Project", c.projectID)
	req.Header.Set("X-Appwrite-Key", c.apiKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if c.metrics != nil {
		c.metrics.StoreRequestDuration.WithLabelValues(service, operation).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		c.countRequest(service, operation, "transport_error")
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.countRequest(service, operation, "transport_error")
		return nil, fmt.Errorf("%s: reading response: %w", operation, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb storeErrorBody
		if jsonErr := json.Unmarshal(raw, &eb); jsonErr != nil || eb.Message == "" {
			eb.Message = strings.TrimSpace(string(raw))
		}
		if eb.Code == 0 {
			eb.Code = resp.StatusCode
		}
		serr := classify(eb.Code, eb.Message)
		c.countRequest(service, operation, string(serr.Kind))
		return nil, fmt.Errorf("%s: %w", operation, serr)
	}

	c.countRequest(service, operation, "ok")
	return raw, nil
}

func (c *Client) doJSON(ctx context.Context, service, operation, method, path string, query url.Values, payload any, out any) error {
	var body io.Reader
	contentType := ""
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("%s: encoding payload: %w", operation, err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}

	raw, err := c.do(ctx, service, operation, method, path, query, contentType, body)
	if err != nil {
		return err
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%s: decoding response: %w", operation, err)
		}
	}
	return nil
}

func (c *Client) countRequest(service, operation, outcome string) {
	if c.metrics != nil {
		c.metrics.StoreRequestsTotal.WithLabelValues(service, operation, outcome).Inc()
	}
}
