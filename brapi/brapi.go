// Package brapi fetches B3 quotes from the brapi.dev API.
package brapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/gmporto/carteira"
	"github.com/gmporto/carteira/cache"
)

const defaultBaseURL = "https://brapi.dev/api"

// Client is a quote client for brapi.dev. It satisfies
// carteira.QuoteProvider.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
	store   *cache.Store
	log     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint. Tests point it at an httptest
// server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithToken sets the API token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// WithCache enables quote caching with session-aware TTLs.
func WithCache(store *cache.Store) Option {
	return func(c *Client) { c.store = store }
}

// WithLogger sets the client logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a brapi client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		httpc:   &http.Client{Timeout: 30 * time.Second},
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// quoteResult is one entry of the brapi response. The ticker field has
// drifted across API versions; every known spelling is declared and
// normalize picks whichever is populated.
type quoteResult struct {
	Symbol        string  `json:"symbol"`
	Ticker        string  `json:"ticker"`
	Codigo        string  `json:"codigo"`
	Price         float64 `json:"regularMarketPrice"`
	ChangePercent float64 `json:"regularMarketChangePercent"`
	LongName      string  `json:"longName"`
	ShortName     string  `json:"shortName"`
}

type quoteResponse struct {
	Results []quoteResult `json:"results"`
	Error   string        `json:"message"`
}

// normalize converts a raw result into a Quote, resolving field drift.
func (r quoteResult) normalize(now time.Time) (carteira.Quote, error) {
	symbol := r.Symbol
	if symbol == "" {
		symbol = r.Ticker
	}
	if symbol == "" {
		symbol = r.Codigo
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return carteira.Quote{}, fmt.Errorf("quote result has no recognizable ticker field")
	}
	if r.Price <= 0 {
		return carteira.Quote{}, fmt.Errorf("quote for %s has non-positive price %v", symbol, r.Price)
	}
	name := r.LongName
	if name == "" {
		name = r.ShortName
	}
	return carteira.Quote{
		Symbol:    symbol,
		Price:     decimal.NewFromFloat(r.Price),
		Change:    decimal.NewFromFloat(r.ChangePercent),
		Name:      name,
		UpdatedAt: now,
	}, nil
}

// Quote fetches the latest quote for one symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (carteira.Quote, error) {
	quotes, err := c.Quotes(ctx, []string{symbol})
	if err != nil {
		return carteira.Quote{}, err
	}
	q, ok := quotes[strings.ToUpper(symbol)]
	if !ok {
		return carteira.Quote{}, fmt.Errorf("brapi returned no quote for %s", symbol)
	}
	return q, nil
}

// Quotes fetches quotes for a batch of symbols in one request. Cached
// entries are served without touching the network; only the misses go
// upstream.
func (c *Client) Quotes(ctx context.Context, symbols []string) (map[string]carteira.Quote, error) {
	quotes := make(map[string]carteira.Quote, len(symbols))
	var misses []string
	for _, symbol := range symbols {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if q, ok := c.cached(symbol); ok {
			quotes[symbol] = q
			continue
		}
		misses = append(misses, symbol)
	}
	if len(misses) == 0 {
		return quotes, nil
	}

	var resp quoteResponse
	addr := fmt.Sprintf("%s/quote/%s", c.baseURL, url.PathEscape(strings.Join(misses, ",")))
	if err := c.getJSON(ctx, addr, &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 && resp.Error != "" {
		return nil, fmt.Errorf("brapi: %s", resp.Error)
	}

	now := time.Now()
	for _, r := range resp.Results {
		q, err := r.normalize(now)
		if err != nil {
			c.log.Warn().Err(err).Msg("dropped malformed quote result")
			continue
		}
		quotes[q.Symbol] = q
		c.remember(q)
	}
	return quotes, nil
}

func (c *Client) cached(symbol string) (carteira.Quote, bool) {
	if c.store == nil {
		return carteira.Quote{}, false
	}
	data, ok := c.store.Get("quote:" + symbol)
	if !ok {
		return carteira.Quote{}, false
	}
	var q carteira.Quote
	if err := json.Unmarshal(data, &q); err != nil {
		c.store.Delete("quote:" + symbol)
		return carteira.Quote{}, false
	}
	return q, true
}

func (c *Client) remember(q carteira.Quote) {
	if c.store == nil {
		return
	}
	data, err := json.Marshal(q)
	if err != nil {
		return
	}
	c.store.Set("quote:"+q.Symbol, data, cache.TTL(cache.ClassQuote, time.Now()))
}

// getJSON performs a GET and unmarshals the JSON response into data.
func (c *Client) getJSON(ctx context.Context, addr string, data any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cannot http GET %v/%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, data)
}
