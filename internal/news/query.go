package news

import (
	"strings"
	"time"

	"github.com/jonathan/content-studio/internal/types"
)

// Query is one upstream search derived from a headlines request.
type Query struct {
	Text           string
	Category       string
	Country        string
	Language       string
	Sources        []string
	Domains        []string
	ExcludeDomains []string
	From           time.Time
	To             time.Time
	Freshness      string
	PageSize       int
}

// Label identifies the query in warnings.
func (q Query) Label() string {
	if q.Text != "" {
		return q.Text
	}
	parts := make([]string, 0, 3)
	if q.Category != "" {
		parts = append(parts, "category:"+q.Category)
	}
	if q.Country != "" {
		parts = append(parts, "country:"+q.Country)
	}
	if len(q.Sources) > 0 {
		parts = append(parts, "sources:"+strings.Join(q.Sources, ","))
	}
	if len(parts) == 0 {
		return "top-headlines"
	}
	return strings.Join(parts, " ")
}

// FreshnessWindow converts a freshness value ("1h", "6h", "24h", "7d", "30d") to a duration.
func FreshnessWindow(freshness string) (time.Duration, bool) {
	switch freshness {
	case "1h":
		return time.Hour, true
	case "6h":
		return 6 * time.Hour, true
	case "24h":
		return 24 * time.Hour, true
	case "7d":
		return 7 * 24 * time.Hour, true
	case "30d":
		return 30 * 24 * time.Hour, true
	default:
		return 0, false
	}
}

// BuildQueries expands a request into upstream queries: the base query, then one query per
// keyword ("<query> <keyword>", or the keyword alone without a base query). A request with
// only filters yields a single query without text.
func BuildQueries(req *types.HeadlinesRequest, now time.Time, pageSize int) []Query {
	base := Query{
		Category:       req.Category,
		Country:        strings.ToLower(req.Country),
		Language:       strings.ToLower(req.Language),
		Sources:        req.Sources,
		Domains:        req.Domains,
		ExcludeDomains: req.ExcludeDomains,
		Freshness:      req.Freshness,
		PageSize:       pageSize,
	}
	base.From, base.To = req.DateRange()
	if window, ok := FreshnessWindow(req.Freshness); ok {
		base.From = now.Add(-window)
		base.To = time.Time{}
	}

	text := strings.TrimSpace(req.Query)
	var queries []Query
	seen := make(map[string]bool)
	add := func(t string) {
		key := strings.ToLower(t)
		if seen[key] {
			return
		}
		seen[key] = true
		q := base
		q.Text = t
		queries = append(queries, q)
	}

	if text != "" || len(req.Keywords) == 0 {
		add(text)
	}
	for _, keyword := range req.Keywords {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}
		if text == "" {
			add(keyword)
		} else {
			add(text + " " + keyword)
		}
	}
	return queries
}

// SerpTBS returns the Google "tbs" time filter for a query, or "".
func SerpTBS(q Query) string {
	switch q.Freshness {
	case "1h":
		return "qdr:h"
	case "6h", "24h":
		return "qdr:d"
	case "7d":
		return "qdr:w"
	case "30d":
		return "qdr:m"
	}
	if q.From.IsZero() && q.To.IsZero() {
		return ""
	}
	tbs := "cdr:1"
	if !q.From.IsZero() {
		tbs += ",cd_min:" + q.From.Format("1/2/2006")
	}
	if !q.To.IsZero() {
		tbs += ",cd_max:" + q.To.Format("1/2/2006")
	}
	return tbs
}

// googleNewsWhen returns the "when:" operator understood by Google News search.
func googleNewsWhen(freshness string) string {
	if _, ok := FreshnessWindow(freshness); !ok {
		return ""
	}
	return "when:" + freshness
}
