// Package airtable is a small REST client for reading recipe records from an Airtable table.
package airtable

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/content-studio/internal/config"
	"github.com/jonathan/content-studio/internal/schemas"
)

// DefaultBaseURL is the Airtable REST API root.
const DefaultBaseURL = "https://api.airtable.com/v0"

// DefaultTimeout bounds one API call.
const DefaultTimeout = 15 * time.Second

// MaxPageSize is the largest page Airtable returns.
const MaxPageSize = 100

const maxResponseBytes = 8 << 20

// Error is returned for failed API calls and unexpected payloads.
type Error struct {
	StatusCode int
	Type       string
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	msg := "airtable request failed"
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Type != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Type)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NotFound reports whether the API answered 404.
func (e *Error) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Record is a table row.
type Record struct {
	ID          string         `json:"id"`
	CreatedTime string         `json:"createdTime"`
	Fields      map[string]any `json:"fields"`
}

type listResponse struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset"`
}

// Client reads one table.
type Client struct {
	apiKey  string
	baseID  string
	table   string
	baseURL string
	client  *http.Client
}

// NewClient creates a client. An empty baseURL uses the public API.
func NewClient(apiKey, baseID, table, baseURL string, client *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		apiKey:  apiKey,
		baseID:  baseID,
		table:   table,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// NewClientFromConfig creates a client from configuration, or a *config.MissingKeyError.
func NewClientFromConfig(cfg *config.Config) (*Client, error) {
	if err := cfg.RequireAirtable(); err != nil {
		return nil, err
	}
	a := cfg.Airtable
	return NewClient(a.APIKey, a.BaseID, a.Table, a.BaseURL, nil), nil
}

// ListOptions filter a List call.
type ListOptions struct {
	Formula    string
	MaxRecords int
	Fields     []string
	SortField  string
}

// List returns the records matching opts, following pagination until MaxRecords is reached.
func (c *Client) List(ctx context.Context, opts ListOptions) ([]Record, error) {
	params := url.Values{}
	if opts.Formula != "" {
		params.Set("filterByFormula", opts.Formula)
	}
	if opts.MaxRecords > 0 {
		params.Set("maxRecords", strconv.Itoa(opts.MaxRecords))
		params.Set("pageSize", strconv.Itoa(min(opts.MaxRecords, MaxPageSize)))
	}
	for _, field := range opts.Fields {
		params.Add("fields[]", field)
	}
	if opts.SortField != "" {
		params.Set("sort[0][field]", opts.SortField)
		params.Set("sort[0][direction]", "asc")
	}

	var records []Record
	for {
		body, err := c.get(ctx, c.tableURL(), params)
		if err != nil {
			return nil, err
		}
		var page listResponse
		if err := schemas.Decode(schemas.AirtableList, body, &page); err != nil {
			return nil, &Error{Message: "unexpected list payload", Cause: err}
		}
		records = append(records, page.Records...)

		if page.Offset == "" || (opts.MaxRecords > 0 && len(records) >= opts.MaxRecords) {
			break
		}
		params.Set("offset", page.Offset)
	}

	if opts.MaxRecords > 0 && len(records) > opts.MaxRecords {
		records = records[:opts.MaxRecords]
	}
	return records, nil
}

// Get returns one record by id.
func (c *Client) Get(ctx context.Context, id string) (*Record, error) {
	body, err := c.get(ctx, c.tableURL()+"/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	var record Record
	if err := schemas.Decode(schemas.AirtableRecord, body, &record); err != nil {
		return nil, &Error{Message: "unexpected record payload", Cause: err}
	}
	return &record, nil
}

func (c *Client) tableURL() string {
	return c.baseURL + "/" + url.PathEscape(c.baseID) + "/" + url.PathEscape(c.table)
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &Error{Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &Error{Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &Error{StatusCode: resp.StatusCode, Message: "failed to read response body", Cause: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errType, message := parseError(body)
		return nil, &Error{StatusCode: resp.StatusCode, Type: errType, Message: message}
	}
	return body, nil
}

// parseError reads both error shapes: {"error": "NOT_FOUND"} and
// {"error": {"type": "...", "message": "..."}}.
func parseError(body []byte) (string, string) {
	var payload struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Error) == 0 {
		return "", strings.TrimSpace(string(body))
	}
	var code string
	if err := json.Unmarshal(payload.Error, &code); err == nil {
		return code, ""
	}
	var detail struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(payload.Error, &detail)
	return detail.Type, detail.Message
}
