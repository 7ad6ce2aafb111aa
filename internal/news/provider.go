package news

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonathan/content-studio/internal/types"
)

// DefaultTimeout bounds one upstream search call.
const DefaultTimeout = 20 * time.Second

const maxResponseBytes = 8 << 20

// ErrUnsupportedQuery is returned by a provider that cannot express a query. Such a
// query is not counted as attempted.
var ErrUnsupportedQuery = errors.New("query not supported by provider")

// Provider is an upstream news or search API.
type Provider interface {
	Name() string
	Search(ctx context.Context, q Query) ([]types.RawArticle, error)
}

func newHTTPClient(client *http.Client) *http.Client {
	if client != nil {
		return client
	}
	return &http.Client{Timeout: DefaultTimeout}
}

// getJSON performs a GET and returns the body of a 2xx response. Any other outcome is an
// *UpstreamError carrying the upstream message when one can be found.
func getJSON(ctx context.Context, client *http.Client, provider, endpoint string, params url.Values, headers map[string]string) ([]byte, error) {
	fullURL := endpoint
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, &UpstreamError{Provider: provider, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &UpstreamError{Provider: provider, Message: "request failed", Cause: redactError(err, params)}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &UpstreamError{Provider: provider, StatusCode: resp.StatusCode, Message: "failed to read response body", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{Provider: provider, StatusCode: resp.StatusCode, Message: upstreamMessage(body)}
	}
	return body, nil
}

// upstreamMessage pulls "message" or "error" out of an error body.
func upstreamMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		switch v := payload.Error.(type) {
		case string:
			return v
		case map[string]any:
			if msg, ok := v["message"].(string); ok {
				return msg
			}
		}
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}

// redactError keeps API keys passed as query parameters out of error messages.
func redactError(err error, params url.Values) error {
	key := params.Get("api_key")
	if key == "" || !strings.Contains(err.Error(), key) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), key, "REDACTED")}
}

type redactedError struct{ msg string }

func (e *redactedError) Error() string { return e.msg }
