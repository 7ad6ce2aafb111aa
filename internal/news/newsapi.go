package news

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/content-studio/internal/schemas"
	"github.com/jonathan/content-studio/internal/types"
)

// NewsAPIBaseURL is the public NewsAPI endpoint.
const NewsAPIBaseURL = "https://newsapi.org"

// removedTitle marks articles NewsAPI withdrew after indexing.
const removedTitle = "[Removed]"

// NewsAPIClient searches NewsAPI /v2/everything and /v2/top-headlines.
type NewsAPIClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewNewsAPIClient creates a client. An empty baseURL uses the public API.
func NewNewsAPIClient(apiKey, baseURL string, client *http.Client) *NewsAPIClient {
	if baseURL == "" {
		baseURL = NewsAPIBaseURL
	}
	return &NewsAPIClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newHTTPClient(client),
	}
}

// Name returns the provider name.
func (c *NewsAPIClient) Name() string {
	return "newsapi"
}

type newsAPIResponse struct {
	Status       string `json:"status"`
	Code         string `json:"code"`
	Message      string `json:"message"`
	TotalResults int    `json:"totalResults"`
	Articles     []struct {
		Source *struct {
			Name *string `json:"name"`
		} `json:"source"`
		Title       *string `json:"title"`
		Description *string `json:"description"`
		URL         *string `json:"url"`
		PublishedAt *string `json:"publishedAt"`
	} `json:"articles"`
}

// Search runs q against top-headlines when it carries category, country or sources
// filters, and against everything otherwise.
func (c *NewsAPIClient) Search(ctx context.Context, q Query) ([]types.RawArticle, error) {
	endpoint, params := c.buildRequest(q)
	if params == nil {
		return nil, ErrUnsupportedQuery
	}

	body, err := getJSON(ctx, c.client, c.Name(), c.baseURL+endpoint, params, map[string]string{"X-Api-Key": c.apiKey})
	if err != nil {
		return nil, err
	}

	var payload newsAPIResponse
	if err := schemas.Decode(schemas.NewsAPI, body, &payload); err != nil {
		return nil, &UpstreamError{Provider: c.Name(), Message: "unexpected payload", Cause: err}
	}
	if payload.Status != "ok" {
		msg := payload.Message
		if payload.Code != "" {
			msg = payload.Code + ": " + msg
		}
		return nil, &UpstreamError{Provider: c.Name(), Message: msg}
	}

	articles := make([]types.RawArticle, 0, len(payload.Articles))
	for _, a := range payload.Articles {
		title := deref(a.Title)
		if title == "" || title == removedTitle {
			continue
		}
		article := types.RawArticle{
			Title:       title,
			URL:         deref(a.URL),
			Description: deref(a.Description),
			PublishedAt: deref(a.PublishedAt),
			Engine:      c.Name(),
		}
		if a.Source != nil {
			article.SourceName = deref(a.Source.Name)
		}
		articles = append(articles, article)
	}
	return articles, nil
}

// buildRequest returns the endpoint path and parameters. Params are nil when the query
// cannot be expressed.
func (c *NewsAPIClient) buildRequest(q Query) (string, url.Values) {
	params := url.Values{}
	if q.PageSize > 0 {
		params.Set("pageSize", strconv.Itoa(min(q.PageSize, 100)))
	}
	if q.Text != "" {
		params.Set("q", q.Text)
	}

	if q.Category != "" || q.Country != "" || len(q.Sources) > 0 {
		if len(q.Sources) > 0 {
			params.Set("sources", strings.Join(q.Sources, ","))
		} else {
			if q.Category != "" {
				params.Set("category", q.Category)
			}
			if q.Country != "" {
				params.Set("country", q.Country)
			}
		}
		return "/v2/top-headlines", params
	}

	if q.Text == "" && len(q.Domains) == 0 {
		return "/v2/everything", nil
	}
	if len(q.Domains) > 0 {
		params.Set("domains", strings.Join(q.Domains, ","))
	}
	if len(q.ExcludeDomains) > 0 {
		params.Set("excludeDomains", strings.Join(q.ExcludeDomains, ","))
	}
	if q.Language != "" {
		params.Set("language", q.Language)
	}
	if !q.From.IsZero() {
		params.Set("from", q.From.UTC().Format(time.RFC3339))
	}
	if !q.To.IsZero() {
		params.Set("to", q.To.UTC().Format(time.RFC3339))
	}
	params.Set("sortBy", "publishedAt")
	return "/v2/everything", params
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
