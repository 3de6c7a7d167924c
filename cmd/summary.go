package cmd

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"github.com/gmporto/carteira"
	"github.com/gmporto/carteira/renderer"
)

type summaryCmd struct {
	offline bool
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "show the portfolio dashboard" }
func (*summaryCmd) Usage() string {
	return `carteira summary [-offline]

  Renders the dashboard: holdings with allocation and results, the
  dividend calendar, and the latest headlines. With -offline, nothing is
  fetched and positions are valued at cached or cost prices.

`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.offline, "offline", false, "Skip all network fetches.")
}

func (c *summaryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		return fail(err)
	}
	defer a.close()

	if !c.offline {
		a.session.Refresh(ctx)
	}
	a.session.SettleDividends()

	d := renderer.Dashboard{
		Today:         carteira.Today(),
		Positions:     a.session.Positions(),
		Quotes:        a.session.Quotes(),
		Announcements: a.session.AllAnnouncements(),
		Articles:      a.session.Articles(),
		History:       a.session.History(),
		Realized:      a.session.RealizedDividends(),
		Held:          a.session.QuantityHeldAsOf,
	}
	printMarkdown(d.Markdown())

	if err := a.saveAnnouncements(); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}
