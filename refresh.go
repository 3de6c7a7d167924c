package carteira

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// fetchTimeout bounds every provider call. Upstream endpoints hang more
// often than they fail fast.
const fetchTimeout = 60 * time.Second

// QuoteProvider fetches the latest quote for one symbol.
type QuoteProvider interface {
	Quote(ctx context.Context, symbol string) (Quote, error)
}

// DividendProvider fetches raw dividend rows for a set of symbols.
type DividendProvider interface {
	Dividends(ctx context.Context, symbols []string) ([]RawDividend, error)
}

// Article is one market news headline.
type Article struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"publishedAt"`
	Symbols     []string  `json:"symbols,omitempty"`
}

// NewsProvider fetches the latest market headlines.
type NewsProvider interface {
	Latest(ctx context.Context) ([]Article, error)
}

// HistoryProvider fetches trailing-12-month per-share dividend history.
type HistoryProvider interface {
	History(ctx context.Context, symbols []string) (map[string][]MonthlyIncome, error)
}

// Session owns all mutable state for one portfolio: the transaction
// ledger, the known dividend announcements, and the latest fetched market
// data. All methods are safe for concurrent use; a single mutex guards the
// whole state, which is small enough that contention is not a concern.
type Session struct {
	mu sync.Mutex

	ledger        *Ledger
	announcements []Announcement
	quotes        map[string]Quote
	articles      []Article
	history       map[string][]MonthlyIncome
	realized      decimal.Decimal // realized dividend cash, recomputed on settle

	quoteProvider    QuoteProvider
	dividendProvider DividendProvider
	newsProvider     NewsProvider
	historyProvider  HistoryProvider

	gate      *Gate
	debouncer *Debouncer
	log       zerolog.Logger

	// now is injectable for tests.
	now func() Date

	// epoch invalidates in-flight fetches. Each Refresh call bumps it and
	// stamps its goroutines; results arriving with a stale stamp are
	// dropped instead of overwriting newer data.
	epoch uint64

	// lastSettle remembers the state the last settlement pass ran against,
	// so the scan is skipped when nothing that feeds it changed.
	lastSettle settleState

	// positions memoizes ComputePositions keyed by ledger signature.
	positions    []Position
	positionsSig string

	onChange func(DatasetKind)
}

type settleState struct {
	day       Date
	known     int
	ledgerSig string
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithQuoteProvider sets the quote source.
func WithQuoteProvider(p QuoteProvider) SessionOption {
	return func(s *Session) { s.quoteProvider = p }
}

// WithDividendProvider sets the dividend scrape source.
func WithDividendProvider(p DividendProvider) SessionOption {
	return func(s *Session) { s.dividendProvider = p }
}

// WithNewsProvider sets the headline source.
func WithNewsProvider(p NewsProvider) SessionOption {
	return func(s *Session) { s.newsProvider = p }
}

// WithHistoryProvider sets the aggregated dividend history source.
func WithHistoryProvider(p HistoryProvider) SessionOption {
	return func(s *Session) { s.historyProvider = p }
}

// WithLogger sets the session logger.
func WithLogger(log zerolog.Logger) SessionOption {
	return func(s *Session) { s.log = log }
}

// WithClock overrides the session's notion of today. Tests use it to pin
// dates; production code never calls it.
func WithClock(now func() Date) SessionOption {
	return func(s *Session) { s.now = now }
}

// WithDebounce sets the render debounce delay. Zero disables coalescing
// and makes change callbacks synchronous, which keeps tests deterministic.
func WithDebounce(delay time.Duration) SessionOption {
	return func(s *Session) { s.debouncer = NewDebouncer(delay) }
}

// OnChange registers a callback fired (through the debouncer) whenever a
// dataset's signature changes. The server uses it to push updates to
// connected clients. With a zero debounce delay the callback runs
// synchronously under the session lock, so it must not call back into the
// session; with any positive delay it runs on a timer goroutine, outside
// the lock.
func OnChange(fn func(DatasetKind)) SessionOption {
	return func(s *Session) { s.onChange = fn }
}

// NewSession creates a session around an existing ledger and announcement
// set, typically just decoded from disk.
func NewSession(ledger *Ledger, announcements []Announcement, opts ...SessionOption) *Session {
	s := &Session{
		ledger:        ledger,
		announcements: announcements,
		quotes:        make(map[string]Quote),
		gate:          NewGate(),
		debouncer:     NewDebouncer(100 * time.Millisecond),
		log:           zerolog.Nop(),
		now:           Today,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ledger == nil {
		s.ledger = NewLedger()
	}
	return s
}

// SetOnChange replaces the change callback. The server attaches its
// broadcast after the session is built.
func (s *Session) SetOnChange(fn func(DatasetKind)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// notify runs the change callback for every dataset whose signature moved.
// Must be called with the lock held. With a positive debounce delay the
// callback runs after the delay, outside the lock; with a zero delay it
// runs right here, still under the lock (see OnChange).
func (s *Session) notify(kind DatasetKind, signature string) {
	if !s.gate.Changed(kind, signature) {
		return
	}
	if s.onChange == nil {
		return
	}
	fn := s.onChange
	s.debouncer.Trigger(func() { fn(kind) })
}

// AddTransaction validates and appends a transaction, then settles
// dividends against the new ledger state.
func (s *Session) AddTransaction(tx Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ledger.Append(tx); err != nil {
		return err
	}
	s.settleLocked()
	s.notify(DatasetTransactions, s.ledger.Signature())
	return nil
}

// EditTransaction replaces the transaction with the given id.
func (s *Session) EditTransaction(id string, tx Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ledger.Replace(id, tx); err != nil {
		return err
	}
	s.settleLocked()
	s.notify(DatasetTransactions, s.ledger.Signature())
	return nil
}

// RemoveTransaction deletes a transaction. When it was the last one for
// its symbol, the symbol's announcements go with it: keeping dividends for
// a symbol the user never held pollutes every later settlement pass.
func (s *Session) RemoveTransaction(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.ledger.Get(id)
	if !ok {
		return ErrTransactionNotFound
	}
	if err := s.ledger.Remove(id); err != nil {
		return err
	}
	if !s.ledger.HasSymbol(tx.Symbol) {
		s.announcements = DropSymbol(s.announcements, tx.Symbol)
		s.notify(DatasetDividends, AnnouncementsSignature(s.announcements))
	}
	s.settleLocked()
	s.notify(DatasetTransactions, s.ledger.Signature())
	return nil
}

// Transactions returns a snapshot of the ledger in chronological order.
func (s *Session) Transactions() []Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	txs := make([]Transaction, 0, s.ledger.Len())
	for tx := range s.ledger.Transactions() {
		txs = append(txs, tx)
	}
	return txs
}

// Positions returns the current holdings, memoized on the ledger signature.
func (s *Session) Positions() []Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.positionsLocked()
}

func (s *Session) positionsLocked() []Position {
	sig := s.ledger.Signature()
	if sig != s.positionsSig {
		s.positions = s.ledger.ComputePositions()
		s.positionsSig = sig
	}
	return s.positions
}

// Quotes returns a snapshot of the latest fetched quotes.
func (s *Session) Quotes() map[string]Quote {
	s.mu.Lock()
	defer s.mu.Unlock()
	quotes := make(map[string]Quote, len(s.quotes))
	for k, v := range s.quotes {
		quotes[k] = v
	}
	return quotes
}

// Articles returns the latest fetched headlines.
func (s *Session) Articles() []Article {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Article(nil), s.articles...)
}

// History returns the latest fetched per-symbol dividend history.
func (s *Session) History() map[string][]MonthlyIncome {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := make(map[string][]MonthlyIncome, len(s.history))
	for k, v := range s.history {
		history[k] = append([]MonthlyIncome(nil), v...)
	}
	return history
}

// Announcements returns announcements inside the active display window.
func (s *Session) Announcements() []Announcement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Active(s.announcements, s.now())
}

// AllAnnouncements returns every known announcement, for persistence.
func (s *Session) AllAnnouncements() []Announcement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Announcement(nil), s.announcements...)
}

// QuantityHeldAsOf returns the quantity of a symbol held at end of the
// cutoff day.
func (s *Session) QuantityHeldAsOf(symbol string, cutoff Date) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.QuantityHeldAsOf(symbol, cutoff)
}

// RealizedDividends returns the realized dividend cash total from the last
// settlement pass.
func (s *Session) RealizedDividends() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.realized
}

// SettleDividends recomputes realized dividend income. The full rescan is
// cheap but not free, so it is skipped when today, the announcement count,
// and the ledger signature all match the previous pass.
func (s *Session) SettleDividends() Settlement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settleLocked()
}

func (s *Session) settleLocked() Settlement {
	state := settleState{
		day:       s.now(),
		known:     len(s.announcements),
		ledgerSig: s.ledger.Signature(),
	}
	if state == s.lastSettle {
		return Settlement{TotalCash: s.realized}
	}
	settlement := SettlePaidDividends(s.announcements, state.day, s.ledger.QuantityHeldAsOf)
	s.realized = settlement.TotalCash
	s.lastSettle = state
	if len(settlement.NewlyProcessed) > 0 {
		s.log.Info().Int("count", len(settlement.NewlyProcessed)).
			Str("total", settlement.TotalCash.StringFixed(2)).
			Msg("settled paid dividends")
		s.notify(DatasetDividends, AnnouncementsSignature(s.announcements))
	}
	return settlement
}

// SyncDividends scrapes dividend rows for every held symbol and reconciles
// them into the known set. It returns the announcements that were new.
func (s *Session) SyncDividends(ctx context.Context) ([]Announcement, error) {
	if s.dividendProvider == nil {
		return nil, ErrNoProvider
	}
	s.mu.Lock()
	symbols := s.ledger.Symbols()
	s.mu.Unlock()
	if len(symbols) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()
	scraped, err := s.dividendProvider.Dividends(ctx, symbols)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	merged, fresh, dropped := Reconcile(s.announcements, scraped, s.now())
	for _, err := range dropped {
		s.log.Warn().Err(err).Msg("dropped malformed dividend row")
	}
	s.announcements = merged
	s.lastSettle = settleState{} // force the next settle to rescan
	s.settleLocked()
	if len(fresh) > 0 {
		s.notify(DatasetDividends, AnnouncementsSignature(s.announcements))
	}
	return fresh, nil
}

// Refresh fetches quotes for every held symbol, the latest headlines, and
// the aggregated dividend history, concurrently. Every fetch runs to
// completion regardless of its siblings:
// one symbol timing out never discards another symbol's fresh price.
// Failures are logged and the previous value kept.
//
// A refresh started after this one bumps the epoch; this one's stragglers
// then apply nothing.
func (s *Session) Refresh(ctx context.Context) {
	s.mu.Lock()
	s.epoch++
	epoch := s.epoch
	quotes, news, history := s.quoteProvider, s.newsProvider, s.historyProvider
	symbols := make([]string, 0, len(s.positionsLocked()))
	for _, p := range s.positionsLocked() {
		symbols = append(symbols, p.Symbol)
	}
	s.mu.Unlock()

	var wg sync.WaitGroup
	if quotes != nil {
		for _, symbol := range symbols {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.fetchQuote(ctx, quotes, epoch, symbol)
			}()
		}
	}
	if news != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.fetchNews(ctx, news, epoch)
		}()
	}
	if history != nil && len(symbols) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.fetchHistory(ctx, history, epoch, symbols)
		}()
	}
	wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return
	}
	s.settleLocked()
	s.notify(DatasetQuotes, QuotesSignature(s.quotes))
}

func (s *Session) fetchQuote(ctx context.Context, provider QuoteProvider, epoch uint64, symbol string) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()
	quote, err := provider.Quote(ctx, symbol)
	if err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("quote fetch failed")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return
	}
	s.quotes[symbol] = quote
}

func (s *Session) fetchNews(ctx context.Context, provider NewsProvider, epoch uint64) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()
	articles, err := provider.Latest(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("news fetch failed")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return
	}
	s.articles = articles
	s.notify(DatasetNews, ArticlesSignature(articles))
}

func (s *Session) fetchHistory(ctx context.Context, provider HistoryProvider, epoch uint64, symbols []string) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()
	history, err := provider.History(ctx, symbols)
	if err != nil {
		s.log.Warn().Err(err).Msg("history fetch failed")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return
	}
	s.history = history
	s.notify(DatasetHistory, HistorySignature(history))
}
