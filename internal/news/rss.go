package news

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/jonathan/content-studio/internal/headlines"
	"github.com/jonathan/content-studio/internal/types"
)

// GoogleNewsRSSURL is the Google News search feed.
const GoogleNewsRSSURL = "https://news.google.com/rss/search"

// RSSClient searches the Google News RSS feed. It needs no API key.
type RSSClient struct {
	baseURL string
	client  *http.Client
}

// NewRSSClient creates a client. An empty baseURL uses Google News.
func NewRSSClient(baseURL string, client *http.Client) *RSSClient {
	if baseURL == "" {
		baseURL = GoogleNewsRSSURL
	}
	return &RSSClient{baseURL: baseURL, client: newHTTPClient(client)}
}

// Name returns the provider name.
func (c *RSSClient) Name() string {
	return "rss"
}

// Search fetches the feed for q. Queries without text are not supported.
func (c *RSSClient) Search(ctx context.Context, q Query) ([]types.RawArticle, error) {
	text := q.Text
	for _, domain := range q.Domains {
		text = strings.TrimSpace(text + " site:" + domain)
	}
	if text == "" {
		return nil, ErrUnsupportedQuery
	}
	if when := googleNewsWhen(q.Freshness); when != "" {
		text += " " + when
	}

	params := url.Values{}
	params.Set("q", text)
	lang := q.Language
	if lang == "" {
		lang = "en"
	}
	country := strings.ToUpper(q.Country)
	if country == "" {
		country = "US"
	}
	params.Set("hl", lang+"-"+country)
	params.Set("gl", country)
	params.Set("ceid", country+":"+lang)

	parser := gofeed.NewParser()
	parser.Client = c.client
	feed, err := parser.ParseURLWithContext(c.baseURL+"?"+params.Encode(), ctx)
	if err != nil {
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) {
			return nil, &UpstreamError{Provider: c.Name(), StatusCode: httpErr.StatusCode, Message: httpErr.Status}
		}
		return nil, &UpstreamError{Provider: c.Name(), Message: "failed to parse feed", Cause: err}
	}

	articles := make([]types.RawArticle, 0, len(feed.Items))
	for _, item := range feed.Items {
		if article, ok := c.articleFromItem(item); ok {
			articles = append(articles, article)
		}
	}
	return articles, nil
}

func (c *RSSClient) articleFromItem(item *gofeed.Item) (types.RawArticle, bool) {
	if item == nil || strings.TrimSpace(item.Title) == "" || strings.TrimSpace(item.Link) == "" {
		return types.RawArticle{}, false
	}

	title, publisher := headlines.SplitPublisherSuffix(item.Title)
	description := htmlText(item.Description)
	// Google News descriptions only repeat the title and publisher.
	if description != "" && strings.HasPrefix(headlines.NormalizeHeadlineText(description), headlines.NormalizeHeadlineText(title)) {
		description = ""
	}

	published := strings.TrimSpace(item.Published)
	if item.PublishedParsed != nil {
		published = item.PublishedParsed.UTC().Format(time.RFC3339)
	}

	return types.RawArticle{
		Title:       title,
		URL:         strings.TrimSpace(item.Link),
		Description: description,
		SourceName:  publisher,
		PublishedAt: published,
		Engine:      c.Name(),
	}, true
}

// htmlText returns the text content of an HTML fragment.
func htmlText(fragment string) string {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" || !strings.Contains(fragment, "<") {
		return fragment
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
