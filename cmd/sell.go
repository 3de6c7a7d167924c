package cmd

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"github.com/gmporto/carteira"
)

type sellCmd struct {
	symbol   string
	quantity float64
	price    float64
	date     string
}

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "record the sale of an asset" }
func (*sellCmd) Usage() string {
	return `carteira sell -s <symbol> -q <quantity> -p <price> [-d <date>]

  Records a sale in the ledger. The date defaults to today. Selling more
  than the position held on that date is rejected.

Usage Examples:
$ carteira sell -s PETR4 -q 30 -p 12.00

`
}

func (c *sellCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "s", "", "Ticker of the asset.")
	f.Float64Var(&c.quantity, "q", 0, "Quantity sold.")
	f.Float64Var(&c.price, "p", 0, "Unit price received.")
	f.StringVar(&c.date, "d", "", "Trade date (YYYY-MM-DD). Defaults to today.")
}

func (c *sellCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return recordTransaction(c.symbol, c.quantity, c.price, c.date, carteira.NewSell)
}
