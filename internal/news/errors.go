// Package news searches the upstream news providers (NewsAPI, SerpAPI and Google News
// RSS) and turns their payloads into raw articles for the headline pipeline.
package news

import (
	"fmt"
	"strings"
)

// UpstreamError is returned when a provider call fails: transport errors, non-2xx
// responses, API level errors and payloads that fail schema validation.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Message    string
	Cause      error
}

func (e *UpstreamError) Error() string {
	msg := fmt.Sprintf("%s request failed", e.Provider)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *UpstreamError) Unwrap() error {
	return e.Cause
}

// NoProvidersError is returned when no provider is configured.
type NoProvidersError struct{}

func (e *NoProvidersError) Error() string {
	return "no news provider is configured: set NEWSAPI_API_KEY or SERPAPI_KEY, or enable RSS"
}

// AllFailedError is returned when every upstream query failed.
type AllFailedError struct {
	Attempted int
	First     error
}

func (e *AllFailedError) Error() string {
	return fmt.Sprintf("all %d upstream queries failed: %v", e.Attempted, e.First)
}

func (e *AllFailedError) Unwrap() error {
	return e.First
}

// UnsupportedRequestError is returned when no configured provider can run any query of a
// request, for example a category-only request without NewsAPI.
type UnsupportedRequestError struct {
	Providers []string
}

func (e *UnsupportedRequestError) Error() string {
	return fmt.Sprintf("no configured provider (%s) supports this request; add a query or keywords", strings.Join(e.Providers, ", "))
}
