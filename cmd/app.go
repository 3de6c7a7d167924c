// Package cmd implements the CLI application to manage the portfolio.
package cmd

import (
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"

	"github.com/gmporto/carteira"
	"github.com/gmporto/carteira/brapi"
	"github.com/gmporto/carteira/cache"
	"github.com/gmporto/carteira/internal/config"
	"github.com/gmporto/carteira/news"
	"github.com/gmporto/carteira/pkg/logger"
	"github.com/gmporto/carteira/scraper"
)

// Register the subcommands.
// A main package calls Register(), then Execute() runs the selected one.
func Register(c *subcommands.Commander) {
	c.Register(&buyCmd{}, "transactions")
	c.Register(&sellCmd{}, "transactions")
	c.Register(&txCmd{}, "transactions")

	c.Register(&summaryCmd{}, "reports")
	c.Register(&newsCmd{}, "reports")

	c.Register(&syncCmd{}, "data")
	c.Register(&serveCmd{}, "data")

	c.Register(&assistCmd{}, "help")
	c.Register(&topicCmd{}, "help")
}

// Complete wires shell completion. It returns immediately unless the
// shell invoked the binary for a completion request.
func Complete() {
	dateFlag := predict.Nothing
	root := &complete.Command{
		Sub: map[string]*complete.Command{
			"buy":     {Flags: map[string]complete.Predictor{"s": predict.Nothing, "q": predict.Nothing, "p": predict.Nothing, "d": dateFlag}},
			"sell":    {Flags: map[string]complete.Predictor{"s": predict.Nothing, "q": predict.Nothing, "p": predict.Nothing, "d": dateFlag}},
			"tx":      {Flags: map[string]complete.Predictor{"edit": predict.Nothing, "rm": predict.Nothing}},
			"summary": {Flags: map[string]complete.Predictor{"offline": predict.Nothing}},
			"news":    {Flags: map[string]complete.Predictor{"all": predict.Nothing}},
			"sync":    {},
			"serve":   {},
			"assist":  {Flags: map[string]complete.Predictor{"digest": predict.Nothing}},
			"topic":   {Args: predict.Set{"transacoes", "proventos", "dados", "*"}},
		},
	}
	root.Complete("carteira")
}

// app bundles everything a command needs: the loaded session, the store
// to persist through, and the shared cache.
type app struct {
	cfg     *config.Config
	store   *carteira.Store
	session *carteira.Session
	cache   *cache.Store
}

// openApp loads configuration and the data files and assembles the
// session with its providers. Commands that never touch the network still
// get providers; they just don't call them.
func openApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.DevMode})
	logger.SetGlobalLogger(log)

	store, err := carteira.NewStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	ledger, err := store.LoadLedger()
	if err != nil {
		return nil, fmt.Errorf("loading transactions: %w", err)
	}
	announcements, err := store.LoadAnnouncements()
	if err != nil {
		return nil, fmt.Errorf("loading dividends: %w", err)
	}

	marketCache := cache.New()
	if err := marketCache.Load(cachePath(cfg)); err != nil {
		log.Warn().Err(err).Msg("cache snapshot unreadable, starting cold")
	}

	brapiOpts := []brapi.Option{brapi.WithCache(marketCache), brapi.WithLogger(log)}
	if cfg.BrapiBaseURL != "" {
		brapiOpts = append(brapiOpts, brapi.WithBaseURL(cfg.BrapiBaseURL))
	}
	if cfg.BrapiToken != "" {
		brapiOpts = append(brapiOpts, brapi.WithToken(cfg.BrapiToken))
	}
	scraperOpts := []scraper.Option{scraper.WithCache(marketCache), scraper.WithLogger(log)}
	if cfg.ScrapeURL != "" {
		scraperOpts = append(scraperOpts, scraper.WithBaseURL(cfg.ScrapeURL))
	}
	newsOpts := []news.Option{news.WithCache(marketCache), news.WithLogger(log)}
	if cfg.NewsFeedURL != "" {
		newsOpts = append(newsOpts, news.WithFeedURL(cfg.NewsFeedURL))
	}

	scrape := scraper.New(scraperOpts...)
	session := carteira.NewSession(ledger, announcements,
		carteira.WithQuoteProvider(brapi.New(brapiOpts...)),
		carteira.WithDividendProvider(scrape),
		carteira.WithHistoryProvider(scrape),
		carteira.WithNewsProvider(news.New(newsOpts...)),
		carteira.WithLogger(log),
	)
	return &app{cfg: cfg, store: store, session: session, cache: marketCache}, nil
}

func cachePath(cfg *config.Config) string {
	return cfg.DataDir + "/cache.msgpack"
}

// close persists the cache. Ledger and announcements are saved at each
// mutation, not here.
func (a *app) close() {
	if err := a.cache.Save(cachePath(a.cfg)); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
}

func (a *app) saveLedger() error {
	return a.store.SaveTransactions(a.session.Transactions())
}

func (a *app) saveAnnouncements() error {
	return a.store.SaveAnnouncements(a.session.AllAnnouncements())
}

// fail prints the error and returns the failure exit status.
func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, "Error:", err)
	return subcommands.ExitFailure
}
