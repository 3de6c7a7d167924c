package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

type syncCmd struct{}

func (*syncCmd) Name() string     { return "sync" }
func (*syncCmd) Synopsis() string { return "scrape dividend announcements for held assets" }
func (*syncCmd) Usage() string {
	return `carteira sync

  Scrapes dividend announcements for every symbol in the ledger,
  reconciles them with the known set, and settles any payment whose date
  has arrived.

`
}

func (*syncCmd) SetFlags(f *flag.FlagSet) {}

func (c *syncCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		return fail(err)
	}
	defer a.close()

	fresh, err := a.session.SyncDividends(ctx)
	if err != nil {
		return fail(err)
	}
	if err := a.saveAnnouncements(); err != nil {
		return fail(err)
	}

	if len(fresh) == 0 {
		fmt.Println("No new announcements.")
		return subcommands.ExitSuccess
	}
	fmt.Printf("%d new announcement(s):\n", len(fresh))
	for _, ann := range fresh {
		fmt.Printf("  %s %s/share on %s (%s)\n", ann.Symbol, ann.Value, ann.PaymentDate, ann.Type)
	}
	return subcommands.ExitSuccess
}
