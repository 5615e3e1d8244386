package feed

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/salesintel/tracker/pkg/logger"
	"github.com/salesintel/tracker/pkg/models"
)

const googleNewsRSSURL = "https://news.google.com/rss/search?q=%s&hl=en-US&gl=US&ceid=US:en"

// pubDate formats seen in Google News feeds.
var pubDateLayouts = []string{
	time.RFC1123,  // Mon, 02 Jan 2006 15:04:05 GMT
	time.RFC1123Z, // Mon, 02 Jan 2006 15:04:05 -0700
}

// GoogleNewsProvider fetches company news from the Google News RSS search feed.
type GoogleNewsProvider struct {
	client      *http.Client
	maxArticles int
	baseURL     string
}

// NewGoogleNewsProvider creates new Google News provider.
func NewGoogleNewsProvider(maxArticles int, timeout time.Duration) *GoogleNewsProvider {
	return &GoogleNewsProvider{
		client:      &http.Client{Timeout: timeout},
		maxArticles: maxArticles,
		baseURL:     googleNewsRSSURL,
	}
}

func (g *GoogleNewsProvider) GetName() string {
	return "google_news"
}

type rssDocument struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title   string `xml:"title"`
	Link    string `xml:"link"`
	Source  string `xml:"source"`
	PubDate string `xml:"pubDate"`
}

// FetchCompanyNews queries the feed with `"name" OR "ticker"` and parses the
// result. Entries with unparseable dates get a nil publish time instead of
// failing the fetch.
func (g *GoogleNewsProvider) FetchCompanyNews(ctx context.Context, companyName, ticker string) ([]models.FeedItem, error) {
	query := fmt.Sprintf("%q", companyName)
	if ticker != "" {
		query = fmt.Sprintf("%q OR %q", companyName, ticker)
	}

	feedURL := fmt.Sprintf(g.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, "GET", feedURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("feed HTTP error %d: %s", resp.StatusCode, string(body))
	}

	var doc rssDocument
	if err := xml.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode feed: %w", err)
	}

	items := make([]models.FeedItem, 0, len(doc.Channel.Items))
	for _, entry := range doc.Channel.Items {
		items = append(items, models.FeedItem{
			Title:       entry.Title,
			URL:         entry.Link,
			Source:      entry.Source,
			PublishedAt: parsePubDate(entry.PubDate),
		})
	}

	// Cap candidates to bound downstream classification cost.
	if len(items) > g.maxArticles {
		items = items[:g.maxArticles]
	}

	logger.Debug("fetched company news",
		zap.String("company", companyName),
		zap.Int("count", len(items)),
	)

	return items, nil
}

func parsePubDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}
