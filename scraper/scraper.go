// Package scraper pulls dividend announcements out of the undocumented
// JSON endpoint behind a B3 earnings website. The endpoint is not an API:
// field names, date formats, and payload shapes drift without notice, so
// extraction is jsonpath-based and every row is treated as suspect.
package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/gmporto/carteira"
	"github.com/gmporto/carteira/cache"
)

const defaultBaseURL = "https://statusinvest.com.br"

// earning-type codes the endpoint expects per asset class.
const (
	modeStock = "1"
	modeFII   = "2"
)

// Client scrapes dividend rows and payout history. It satisfies
// carteira.DividendProvider and carteira.HistoryProvider.
type Client struct {
	baseURL string
	httpc   *http.Client
	store   *cache.Store
	log     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the endpoint, for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// WithCache enables per-symbol scrape caching.
func WithCache(store *cache.Store) Option {
	return func(c *Client) { c.store = store }
}

// WithLogger sets the client logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a scraper client.
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

// IsFII reports whether a B3 ticker names a real-estate fund. FII tickers
// end in 11 (HGLG11, MXRF11); the handful of stock units that share the
// suffix get scraped in the wrong mode and simply return no rows.
func IsFII(symbol string) bool {
	return strings.HasSuffix(symbol, "11")
}

// Dividends scrapes announcement rows for every symbol. A symbol that
// fails is logged and skipped; the rows of its siblings still come back.
func (c *Client) Dividends(ctx context.Context, symbols []string) ([]carteira.RawDividend, error) {
	var rows []carteira.RawDividend
	var failed int
	for _, symbol := range symbols {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		symbolRows, err := c.scrape(ctx, symbol)
		if err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("dividend scrape failed")
			failed++
			continue
		}
		rows = append(rows, symbolRows...)
	}
	if failed == len(symbols) && failed > 0 {
		return nil, fmt.Errorf("dividend scrape failed for all %d symbols", failed)
	}
	return rows, nil
}

func (c *Client) scrape(ctx context.Context, symbol string) ([]carteira.RawDividend, error) {
	if rows, ok := c.cached(symbol); ok {
		return rows, nil
	}

	mode := modeStock
	if IsFII(symbol) {
		mode = modeFII
	}
	form := url.Values{
		"code": {symbol},
		"type": {mode},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/acao/companytickerprovents", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cannot http POST %v/%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	rows, err := extract(symbol, body)
	if err != nil {
		return nil, err
	}
	c.remember(symbol, rows)
	return rows, nil
}

// History scrapes the trailing-12-month per-share payout chart for every
// symbol. Same tolerance as Dividends: a failed symbol is skipped, an
// error comes back only when every symbol fails.
func (c *Client) History(ctx context.Context, symbols []string) (map[string][]carteira.MonthlyIncome, error) {
	history := make(map[string][]carteira.MonthlyIncome, len(symbols))
	var failed int
	for _, symbol := range symbols {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		months, err := c.scrapeHistory(ctx, symbol)
		if err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("history scrape failed")
			failed++
			continue
		}
		history[symbol] = months
	}
	if failed == len(symbols) && failed > 0 {
		return nil, fmt.Errorf("history scrape failed for all %d symbols", failed)
	}
	return history, nil
}

func (c *Client) scrapeHistory(ctx context.Context, symbol string) ([]carteira.MonthlyIncome, error) {
	key := "history:" + symbol
	if c.store != nil {
		if data, ok := c.store.Get(key); ok {
			var months []carteira.MonthlyIncome
			if err := json.Unmarshal(data, &months); err == nil {
				return months, nil
			}
			c.store.Delete(key)
		}
	}

	mode := modeStock
	if IsFII(symbol) {
		mode = modeFII
	}
	form := url.Values{
		"code":    {symbol},
		"type":    {mode},
		"chartBy": {"month"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/acao/getearningchart", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cannot http POST %v/%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	months, err := extractHistory(symbol, body)
	if err != nil {
		return nil, err
	}
	if c.store != nil {
		if data, err := json.Marshal(months); err == nil {
			c.store.Set(key, data, cache.TTL(cache.ClassDividend, time.Now()))
		}
	}
	return months, nil
}

var monthRe = regexp.MustCompile(`^(\d{2})/(\d{4})$`)

// extractHistory reads the payout chart rows. Months arrive as "MM/yyyy"
// labels and are normalized to "yyyy-MM"; unparseable labels pass through
// and are discarded during aggregation.
func extractHistory(symbol string, body []byte) ([]carteira.MonthlyIncome, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("history response for %s is not JSON: %w", symbol, err)
	}
	jval, err := jsonpath.Get("$.chart.category[*]", doc)
	if err != nil {
		return nil, fmt.Errorf("no history rows for %s: %w", symbol, err)
	}
	jrows, ok := jval.([]any)
	if !ok {
		jrows = []any{jval}
	}

	months := make([]carteira.MonthlyIncome, 0, len(jrows))
	for _, jrow := range jrows {
		m, ok := jrow.(map[string]any)
		if !ok {
			continue
		}
		months = append(months, carteira.MonthlyIncome{
			Month: toISOMonth(stringField(m, "month", "label")),
			Value: toDecimal(m["value"]),
		})
	}
	return months, nil
}

func toISOMonth(s string) string {
	s = strings.TrimSpace(s)
	if m := monthRe.FindStringSubmatch(s); m != nil {
		return fmt.Sprintf("%s-%s", m[2], m[1])
	}
	return s
}

// extract pulls announcement rows out of the response document with
// jsonpath, so a reshuffle of the surrounding object does not break the
// scraper as long as the rows themselves survive.
func extract(symbol string, body []byte) ([]carteira.RawDividend, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("scrape response for %s is not JSON: %w", symbol, err)
	}
	jval, err := jsonpath.Get("$.assetEarningsModels[*]", doc)
	if err != nil {
		return nil, fmt.Errorf("no earnings rows for %s: %w", symbol, err)
	}
	jrows, ok := jval.([]any)
	if !ok {
		jrows = []any{jval}
	}

	rows := make([]carteira.RawDividend, 0, len(jrows))
	for _, jrow := range jrows {
		m, ok := jrow.(map[string]any)
		if !ok {
			continue
		}
		rows = append(rows, carteira.RawDividend{
			Symbol:      symbol,
			Value:       toDecimal(m["v"]),
			PaymentDate: toISODate(stringField(m, "pd", "paymentDividend")),
			ExDate:      toISODate(stringField(m, "ed", "dateCom")),
			Type:        stringField(m, "etd", "earningType"),
		})
	}
	return rows, nil
}

func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// toDecimal reads a value that arrives sometimes as a number and
// sometimes as a pt-BR formatted string ("1,10", "1.234,56"). A comma
// marks the string as pt-BR, so its dots are thousands separators and are
// stripped before the comma becomes the decimal point.
func toDecimal(v any) decimal.Decimal {
	switch val := v.(type) {
	case float64:
		return decimal.NewFromFloat(val)
	case string:
		val = strings.TrimSpace(val)
		if strings.Contains(val, ",") {
			val = strings.ReplaceAll(val, ".", "")
			val = strings.Replace(val, ",", ".", 1)
		}
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return decimal.NewFromFloat(f)
		}
	}
	return decimal.Zero
}

var brDateRe = regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{4})$`)

// toISODate converts the endpoint's dd/MM/yyyy dates to ISO-8601. Already
// ISO dates pass through; anything else is returned untouched and will be
// rejected by reconciliation, which is where malformed rows are counted.
func toISODate(s string) string {
	s = strings.TrimSpace(s)
	if m := brDateRe.FindStringSubmatch(s); m != nil {
		return fmt.Sprintf("%s-%s-%s", m[3], m[2], m[1])
	}
	return s
}

func (c *Client) cached(symbol string) ([]carteira.RawDividend, bool) {
	if c.store == nil {
		return nil, false
	}
	data, ok := c.store.Get("dividends:" + symbol)
	if !ok {
		return nil, false
	}
	var rows []carteira.RawDividend
	if err := json.Unmarshal(data, &rows); err != nil {
		c.store.Delete("dividends:" + symbol)
		return nil, false
	}
	return rows, true
}

func (c *Client) remember(symbol string, rows []carteira.RawDividend) {
	if c.store == nil {
		return
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return
	}
	c.store.Set("dividends:"+symbol, data, cache.TTL(cache.ClassDividend, time.Now()))
}
