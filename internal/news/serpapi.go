package news

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/jonathan/content-studio/internal/schemas"
	"github.com/jonathan/content-studio/internal/types"
)

// SerpAPIBaseURL is the public SerpAPI endpoint.
const SerpAPIBaseURL = "https://serpapi.com"

// SerpAPI engines.
const (
	EngineGoogle     = "google"
	EngineGoogleNews = "google_news"
)

// SerpAPIClient searches one SerpAPI engine.
type SerpAPIClient struct {
	apiKey  string
	engine  string
	baseURL string
	client  *http.Client
}

// NewSerpAPIClient creates a client for engine. An empty baseURL uses the public API.
func NewSerpAPIClient(apiKey, engine, baseURL string, client *http.Client) *SerpAPIClient {
	if baseURL == "" {
		baseURL = SerpAPIBaseURL
	}
	if engine == "" {
		engine = EngineGoogleNews
	}
	return &SerpAPIClient{
		apiKey:  apiKey,
		engine:  engine,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newHTTPClient(client),
	}
}

// Name returns the provider name including the engine.
func (c *SerpAPIClient) Name() string {
	return "serpapi:" + c.engine
}

// serpSource accepts both the object form ({"name": "..."}) and the plain string form.
type serpSource string

func (s *serpSource) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*s = serpSource(name)
		return nil
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*s = serpSource(obj.Name)
	return nil
}

type serpResult struct {
	Title     string       `json:"title"`
	Link      string       `json:"link"`
	Snippet   string       `json:"snippet"`
	Date      string       `json:"date"`
	Source    serpSource   `json:"source"`
	Stories   []serpResult `json:"stories"`
	Highlight *serpResult  `json:"highlight"`
}

type serpResponse struct {
	Error          string       `json:"error"`
	NewsResults    []serpResult `json:"news_results"`
	OrganicResults []serpResult `json:"organic_results"`
}

// noResultsPrefix is how SerpAPI reports an empty result page.
const noResultsPrefix = "Google hasn't returned any results"

// Search runs q against the engine. Queries without text are not supported.
func (c *SerpAPIClient) Search(ctx context.Context, q Query) ([]types.RawArticle, error) {
	params, ok := c.buildParams(q)
	if !ok {
		return nil, ErrUnsupportedQuery
	}

	body, err := getJSON(ctx, c.client, c.Name(), c.baseURL+"/search.json", params, nil)
	if err != nil {
		return nil, err
	}

	var payload serpResponse
	if err := schemas.Decode(schemas.SerpAPI, body, &payload); err != nil {
		return nil, &UpstreamError{Provider: c.Name(), Message: "unexpected payload", Cause: err}
	}
	if payload.Error != "" {
		if strings.HasPrefix(payload.Error, noResultsPrefix) {
			return nil, nil
		}
		return nil, &UpstreamError{Provider: c.Name(), Message: payload.Error}
	}

	var articles []types.RawArticle
	results := payload.NewsResults
	if len(results) == 0 {
		results = payload.OrganicResults
	}
	for i := range results {
		articles = c.flatten(articles, &results[i])
	}
	return articles, nil
}

// flatten appends r and its nested stories. Google News groups coverage of one story
// under a highlight and a list of stories.
func (c *SerpAPIClient) flatten(out []types.RawArticle, r *serpResult) []types.RawArticle {
	if r.Link != "" && r.Title != "" {
		out = append(out, types.RawArticle{
			Title:       strings.TrimSpace(r.Title),
			URL:         strings.TrimSpace(r.Link),
			Description: strings.TrimSpace(r.Snippet),
			SourceName:  strings.TrimSpace(string(r.Source)),
			PublishedAt: strings.TrimSpace(r.Date),
			Engine:      c.Name(),
		})
	}
	if r.Highlight != nil {
		out = c.flatten(out, r.Highlight)
	}
	for i := range r.Stories {
		out = c.flatten(out, &r.Stories[i])
	}
	return out
}

func (c *SerpAPIClient) buildParams(q Query) (url.Values, bool) {
	text := q.Text
	for _, domain := range q.Domains {
		text = strings.TrimSpace(text + " site:" + domain)
	}
	for _, domain := range q.ExcludeDomains {
		text = strings.TrimSpace(text + " -site:" + domain)
	}

	params := url.Values{}
	params.Set("engine", c.engine)
	params.Set("api_key", c.apiKey)
	if q.Country != "" {
		params.Set("gl", q.Country)
	}
	if q.Language != "" {
		params.Set("hl", q.Language)
	}

	switch c.engine {
	case EngineGoogleNews:
		if text == "" {
			return nil, false
		}
		if when := googleNewsWhen(q.Freshness); when != "" {
			text += " " + when
		}
		params.Set("q", text)
	default:
		if text == "" {
			return nil, false
		}
		params.Set("q", text)
		if tbs := SerpTBS(q); tbs != "" {
			params.Set("tbs", tbs)
		}
		if q.PageSize > 0 {
			params.Set("num", strconv.Itoa(min(q.PageSize, 100)))
		}
	}
	return params, true
}
