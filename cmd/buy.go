package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/gmporto/carteira"
)

type buyCmd struct {
	symbol   string
	quantity float64
	price    float64
	date     string
}

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "record the purchase of an asset" }
func (*buyCmd) Usage() string {
	return `carteira buy -s <symbol> -q <quantity> -p <price> [-d <date>]

  Records a purchase in the ledger. The date defaults to today.

Usage Examples:
$ carteira buy -s PETR4 -q 100 -p 10.50
$ carteira buy -s HGLG11 -q 10 -p 160.21 -d 2024-01-15

`
}

func (c *buyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "s", "", "Ticker of the asset (e.g. PETR4, HGLG11).")
	f.Float64Var(&c.quantity, "q", 0, "Quantity bought.")
	f.Float64Var(&c.price, "p", 0, "Unit price paid.")
	f.StringVar(&c.date, "d", "", "Trade date (YYYY-MM-DD). Defaults to today.")
}

func (c *buyCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return recordTransaction(c.symbol, c.quantity, c.price, c.date, carteira.NewBuy)
}

// recordTransaction is the shared path of buy and sell.
func recordTransaction(symbol string, quantity, price float64, date string, build func(carteira.Date, string, float64, float64) carteira.Transaction) subcommands.ExitStatus {
	day := carteira.Today()
	if date != "" {
		var err error
		day, err = carteira.ParseDate(date)
		if err != nil {
			return fail(err)
		}
	}

	a, err := openApp()
	if err != nil {
		return fail(err)
	}
	defer a.close()

	tx := build(day, symbol, quantity, price)
	if err := a.session.AddTransaction(tx); err != nil {
		return fail(err)
	}
	if err := a.saveLedger(); err != nil {
		return fail(err)
	}
	fmt.Printf("Recorded %s of %s x%v at %v on %s (id %s)\n", tx.Side, tx.Symbol, tx.Quantity, tx.Price, tx.Date, tx.ID)
	return subcommands.ExitSuccess
}
