package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"github.com/alex-pricope/family-portal/logging"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RestClient talks to a Supabase (PostgREST) project. Every call is a single HTTP
// request with no retries.
type RestClient struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func NewRestClient(baseURL, apiKey string, timeout time.Duration) *RestClient {
	return &RestClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// Eq builds a PostgREST equality filter with the value URL-escaped.
func Eq(column, value string) string {
	return column + "=eq." + url.QueryEscape(value)
}

type restRequest struct {
	method string
	table  string
	query  string
	body   any
	prefer string
}

// Select decodes the matching rows of table into dest.
func (c *RestClient) Select(ctx context.Context, table, filter, columns string, dest any) error {
	query := ""
	if columns != "" {
		query = "select=" + url.QueryEscape(columns)
	}
	if filter != "" {
		if query != "" {
			query += "&"
		}
		query += filter
	}

	body, err := c.do(ctx, restRequest{method: http.MethodGet, table: table, query: query})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode %s rows: %w", table, err)
	}
	return nil
}

// Insert creates a row and returns the first row of the representation, or nil.
func (c *RestClient) Insert(ctx context.Context, table string, row any) (json.RawMessage, error) {
	body, err := c.do(ctx, restRequest{
		method: http.MethodPost,
		table:  table,
		body:   row,
		prefer: "return=representation",
	})
	if err != nil {
		return nil, err
	}
	return firstRow(body)
}

// Upsert inserts a row or merges it into the existing one that conflicts on conflictColumn.
func (c *RestClient) Upsert(ctx context.Context, table string, row any, conflictColumn string) (json.RawMessage, error) {
	req := restRequest{
		method: http.MethodPost,
		table:  table,
		body:   row,
		prefer: "return=representation",
	}
	if conflictColumn != "" {
		req.prefer = "return=representation,resolution=merge-duplicates"
		req.query = "on_conflict=" + url.QueryEscape(conflictColumn)
	}

	body, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	return firstRow(body)
}

// Delete removes the rows matching filter. Matching nothing is not an error.
func (c *RestClient) Delete(ctx context.Context, table, filter string) error {
	_, err := c.do(ctx, restRequest{method: http.MethodDelete, table: table, query: filter})
	return err
}

func (c *RestClient) do(ctx context.Context, r restRequest) ([]byte, error) {
	if c.BaseURL == "" || c.APIKey == "" {
		return nil, ErrStoreNotConfigured
	}

	endpoint := fmt.Sprintf("%s/rest/v1/%s", c.BaseURL, r.table)
	if r.query != "" {
		endpoint += "?" + r.query
	}

	var reader io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("encode %s row: %w", r.table, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.APIKey)
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.prefer != "" {
		req.Header.Set("Prefer", r.prefer)
	}

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		logging.Log.Errorf("STORE: %s %s request failed: %v", r.method, r.table, err)
		return nil, fmt.Errorf("supabase %s %s: %w", r.method, r.table, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", r.table, err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &ExternalStoreError{
			Method: r.method,
			Table:  r.table,
			Status: res.StatusCode,
			Body:   string(body),
		}
	}
	return body, nil
}

func firstRow(body []byte) (json.RawMessage, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode representation: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}
