package headlines

import (
	"encoding/base64"
	"net/url"
	"regexp"
	"strings"
)

// redirectParams are the query parameters redirectors use to carry the destination URL.
var redirectParams = []string{"url", "u", "q"}

var embeddedHTTPURL = regexp.MustCompile(`https?://[A-Za-z0-9\-._~:/?#\[\]@!$&'()*+,;=%]+`)

// maxVariantExploration bounds the work queue even if a redirector keeps producing new URLs.
const maxVariantExploration = 256

// BuildURLVariants expands a URL into the equivalent forms a citation may use: without hash,
// without query string, with the other http/https scheme, with or without "www.", and the
// destination of Google News / Google redirect links. Every discovered URL is explored again
// until no new form appears. Each variant is returned with and without a trailing slash.
// The normalized input is always the first element.
func BuildURLVariants(raw string) []string {
	seed := canonicalizeURL(raw)
	if seed == "" {
		return nil
	}

	seen := make(map[string]bool)
	var discovered []string
	queue := []string{seed}

	for len(queue) > 0 && len(seen) < maxVariantExploration {
		current := queue[0]
		queue = queue[1:]
		if seen[current] {
			continue
		}
		seen[current] = true
		discovered = append(discovered, current)

		for _, next := range expandURL(current) {
			if !seen[next] {
				queue = append(queue, next)
			}
		}
	}

	out := make([]string, 0, len(discovered)*2)
	emitted := make(map[string]bool)
	emit := func(v string) {
		if v != "" && !emitted[v] {
			emitted[v] = true
			out = append(out, v)
		}
	}
	for _, v := range discovered {
		emit(v)
		for _, twin := range slashTwins(v) {
			emit(twin)
		}
	}
	return out
}

// URLsEquivalent reports whether two URLs share at least one variant.
func URLsEquivalent(a, b string) bool {
	left := BuildURLVariants(a)
	if len(left) == 0 {
		return false
	}
	index := make(map[string]bool, len(left))
	for _, v := range left {
		index[v] = true
	}
	for _, v := range BuildURLVariants(b) {
		if index[v] {
			return true
		}
	}
	return false
}

// canonicalizeURL trims the URL and lowercases scheme and host when it parses.
func canonicalizeURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	parsed, ok := parseAbsolute(trimmed)
	if !ok {
		return trimmed
	}
	return parsed.String()
}

func parseAbsolute(raw string) (*url.URL, bool) {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return nil, false
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, false
	}
	parsed.Scheme = scheme
	parsed.Host = strings.ToLower(parsed.Host)
	return parsed, true
}

// expandURL returns the one-step variants of an already canonical URL.
func expandURL(current string) []string {
	parsed, ok := parseAbsolute(current)
	if !ok {
		return nil
	}

	var out []string
	add := func(u *url.URL) {
		if s := u.String(); s != current {
			out = append(out, s)
		}
	}

	if parsed.Fragment != "" || parsed.RawFragment != "" {
		noHash := *parsed
		noHash.Fragment = ""
		noHash.RawFragment = ""
		add(&noHash)
	}

	if isRedirector(parsed) {
		// Stripping the query or toggling www on a redirector would make every redirect link
		// look alike; only the unwrapped destinations are useful.
		out = append(out, unwrapRedirect(parsed)...)
		return out
	}

	if parsed.RawQuery != "" || parsed.ForceQuery {
		noQuery := *parsed
		noQuery.RawQuery = ""
		noQuery.ForceQuery = false
		noQuery.Fragment = ""
		noQuery.RawFragment = ""
		add(&noQuery)
	}

	swapped := *parsed
	if parsed.Scheme == "https" {
		swapped.Scheme = "http"
	} else {
		swapped.Scheme = "https"
	}
	add(&swapped)

	toggled := *parsed
	if strings.HasPrefix(parsed.Host, "www.") {
		toggled.Host = strings.TrimPrefix(parsed.Host, "www.")
	} else {
		toggled.Host = "www." + parsed.Host
	}
	add(&toggled)

	return out
}

func isRedirector(u *url.URL) bool {
	host := u.Hostname()
	if host == "news.google.com" {
		return true
	}
	return (host == "www.google.com" || host == "google.com") && u.Path == "/url"
}

// unwrapRedirect extracts destination URLs from a redirector link: first from the url/u/q
// query parameters, then from base64-encoded path segments (Google News article ids).
func unwrapRedirect(u *url.URL) []string {
	var out []string
	query := u.Query()
	for _, key := range redirectParams {
		for _, value := range query[key] {
			if dest := canonicalizeURL(value); isHTTPURL(dest) {
				out = append(out, dest)
			}
		}
	}

	for _, segment := range strings.Split(u.Path, "/") {
		if len(segment) < 16 {
			continue
		}
		decoded, ok := decodeBase64Segment(segment)
		if !ok {
			continue
		}
		for _, match := range embeddedHTTPURL.FindAllString(decoded, -1) {
			if dest := canonicalizeURL(match); isHTTPURL(dest) {
				out = append(out, dest)
			}
		}
	}
	return out
}

func isHTTPURL(s string) bool {
	_, ok := parseAbsolute(s)
	return ok
}

// decodeBase64Segment tries URL-safe and standard alphabets, with or without padding.
func decodeBase64Segment(segment string) (string, bool) {
	encodings := []*base64.Encoding{
		base64.RawURLEncoding,
		base64.URLEncoding,
		base64.RawStdEncoding,
		base64.StdEncoding,
	}
	trimmed := strings.TrimRight(segment, "=")
	for _, enc := range encodings {
		input := trimmed
		if enc == base64.URLEncoding || enc == base64.StdEncoding {
			if rem := len(input) % 4; rem != 0 {
				input += strings.Repeat("=", 4-rem)
			}
		}
		if decoded, err := enc.DecodeString(input); err == nil {
			return string(decoded), true
		}
	}
	return "", false
}

// slashTwins returns the URL with its trailing slash toggled. URLs carrying a query or
// fragment are left alone since a slash there would change the value, not the path.
func slashTwins(v string) []string {
	if strings.ContainsAny(v, "?#") {
		return nil
	}
	trimmed := strings.TrimRight(v, "/")
	if trimmed == "" {
		return nil
	}
	if strings.HasSuffix(trimmed, ":") {
		return nil
	}
	if trimmed == v {
		return []string{v + "/"}
	}
	return []string{trimmed, trimmed + "/"}
}
