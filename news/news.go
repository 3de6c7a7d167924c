// Package news fetches market headlines and matches them against the
// symbols the user holds.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gmporto/carteira"
	"github.com/gmporto/carteira/cache"
)

const defaultFeedURL = "https://api.infomoney.com.br/ativos/noticias"

// Client fetches headlines from a JSON news feed. It satisfies
// carteira.NewsProvider.
type Client struct {
	feedURL string
	httpc   *http.Client
	store   *cache.Store
	log     zerolog.Logger
	limit   int
}

// Option configures a Client.
type Option func(*Client)

// WithFeedURL overrides the feed endpoint, for tests.
func WithFeedURL(u string) Option {
	return func(c *Client) { c.feedURL = u }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// WithCache enables feed caching.
func WithCache(store *cache.Store) Option {
	return func(c *Client) { c.store = store }
}

// WithLogger sets the client logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithLimit caps how many headlines Latest returns.
func WithLimit(n int) Option {
	return func(c *Client) { c.limit = n }
}

// New creates a news client.
func New(opts ...Option) *Client {
	c := &Client{
		feedURL: defaultFeedURL,
		httpc:   &http.Client{Timeout: 30 * time.Second},
		log:     zerolog.Nop(),
		limit:   30,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type feedItem struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"publishedAt"`
}

// Latest fetches the newest headlines, most recent first.
func (c *Client) Latest(ctx context.Context) ([]carteira.Article, error) {
	if articles, ok := c.cached(); ok {
		return articles, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cannot http GET %v/%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var items []feedItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("news feed is not JSON: %w", err)
	}

	articles := make([]carteira.Article, 0, len(items))
	for _, it := range items {
		if it.Title == "" || it.URL == "" {
			continue
		}
		articles = append(articles, carteira.Article{
			Title:       it.Title,
			URL:         it.URL,
			Source:      it.Source,
			PublishedAt: it.PublishedAt,
		})
		if len(articles) == c.limit {
			break
		}
	}
	c.remember(articles)
	return articles, nil
}

var tickerRe = regexp.MustCompile(`\b[A-Z]{4}\d{1,2}\b`)

// MatchHoldings tags each article with the held symbols its title
// mentions, either as a bare ticker (PETR4) or by company prefix. The
// returned slice is a copy; the input is not modified.
func MatchHoldings(articles []carteira.Article, held []string) []carteira.Article {
	heldSet := make(map[string]bool, len(held))
	for _, s := range held {
		heldSet[strings.ToUpper(s)] = true
	}

	tagged := make([]carteira.Article, len(articles))
	for i, a := range articles {
		a.Symbols = nil
		seen := make(map[string]bool)
		for _, ticker := range tickerRe.FindAllString(strings.ToUpper(a.Title), -1) {
			if heldSet[ticker] && !seen[ticker] {
				a.Symbols = append(a.Symbols, ticker)
				seen[ticker] = true
			}
		}
		tagged[i] = a
	}
	return tagged
}

// OnlyHoldings filters to articles that mention at least one held symbol.
func OnlyHoldings(articles []carteira.Article, held []string) []carteira.Article {
	var matched []carteira.Article
	for _, a := range MatchHoldings(articles, held) {
		if len(a.Symbols) > 0 {
			matched = append(matched, a)
		}
	}
	return matched
}

const cacheKey = "news:latest"

func (c *Client) cached() ([]carteira.Article, bool) {
	if c.store == nil {
		return nil, false
	}
	data, ok := c.store.Get(cacheKey)
	if !ok {
		return nil, false
	}
	var articles []carteira.Article
	if err := json.Unmarshal(data, &articles); err != nil {
		c.store.Delete(cacheKey)
		return nil, false
	}
	return articles, true
}

func (c *Client) remember(articles []carteira.Article) {
	if c.store == nil {
		return
	}
	data, err := json.Marshal(articles)
	if err != nil {
		return
	}
	c.store.Set(cacheKey, data, cache.TTL(cache.ClassNews, time.Now()))
}
