package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"

	"github.com/gmporto/carteira"
)

type txCmd struct {
	edit     string
	remove   string
	symbol   string
	quantity float64
	price    float64
	date     string
}

func (*txCmd) Name() string     { return "tx" }
func (*txCmd) Synopsis() string { return "list, edit, or remove ledger transactions" }
func (*txCmd) Usage() string {
	return `carteira tx [-edit <id> | -rm <id>] [-s <symbol>] [-q <quantity>] [-p <price>] [-d <date>]

  Without flags, lists all transactions. With -edit, replaces the fields
  of one transaction (unset flags keep their current value). With -rm,
  deletes one transaction; removing the last transaction of a symbol also
  removes the symbol's dividend announcements.

Usage Examples:
$ carteira tx
$ carteira tx -edit 4f9d... -q 25
$ carteira tx -rm 4f9d...

`
}

func (c *txCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.edit, "edit", "", "Id of the transaction to edit.")
	f.StringVar(&c.remove, "rm", "", "Id of the transaction to remove.")
	f.StringVar(&c.symbol, "s", "", "New ticker (with -edit).")
	f.Float64Var(&c.quantity, "q", 0, "New quantity (with -edit).")
	f.Float64Var(&c.price, "p", 0, "New unit price (with -edit).")
	f.StringVar(&c.date, "d", "", "New trade date (with -edit).")
}

func (c *txCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.edit != "" && c.remove != "" {
		return fail(fmt.Errorf("-edit and -rm cannot be used together"))
	}

	a, err := openApp()
	if err != nil {
		return fail(err)
	}
	defer a.close()

	switch {
	case c.remove != "":
		return c.doRemove(a)
	case c.edit != "":
		return c.doEdit(a)
	default:
		return c.doList(a)
	}
}

func (c *txCmd) doList(a *app) subcommands.ExitStatus {
	txs := a.session.Transactions()
	if len(txs) == 0 {
		fmt.Println("Ledger is empty.")
		return subcommands.ExitSuccess
	}
	var b strings.Builder
	b.WriteString("| Data | Tipo | Ativo | Qtd | Preço | Id |\n")
	b.WriteString("| --- | --- | --- | ---: | ---: | --- |\n")
	for _, tx := range txs {
		fmt.Fprintf(&b, "| %s | %s | %s | %v | %v | %s |\n",
			tx.Date, tx.Side, tx.Symbol, tx.Quantity, tx.Price, tx.ID)
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}

func (c *txCmd) doEdit(a *app) subcommands.ExitStatus {
	current, ok := a.session.Transactions(), false
	var tx carteira.Transaction
	for _, t := range current {
		if t.ID == c.edit {
			tx, ok = t, true
			break
		}
	}
	if !ok {
		return fail(fmt.Errorf("transaction %q not found", c.edit))
	}

	if c.symbol != "" {
		tx.Symbol = c.symbol
	}
	if c.quantity != 0 {
		tx.Quantity = c.quantity
	}
	if c.price != 0 {
		tx.Price = c.price
	}
	if c.date != "" {
		day, err := carteira.ParseDate(c.date)
		if err != nil {
			return fail(err)
		}
		tx.Date = day
	}

	if err := a.session.EditTransaction(c.edit, tx); err != nil {
		return fail(err)
	}
	if err := a.saveLedger(); err != nil {
		return fail(err)
	}
	fmt.Printf("Updated transaction %s\n", c.edit)
	return subcommands.ExitSuccess
}

func (c *txCmd) doRemove(a *app) subcommands.ExitStatus {
	if err := a.session.RemoveTransaction(c.remove); err != nil {
		return fail(err)
	}
	if err := a.saveLedger(); err != nil {
		return fail(err)
	}
	if err := a.saveAnnouncements(); err != nil {
		return fail(err)
	}
	fmt.Printf("Removed transaction %s\n", c.remove)
	return subcommands.ExitSuccess
}
