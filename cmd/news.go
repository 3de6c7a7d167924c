package cmd

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"github.com/gmporto/carteira/news"
	"github.com/gmporto/carteira/renderer"
)

type newsCmd struct {
	all bool
}

func (*newsCmd) Name() string     { return "news" }
func (*newsCmd) Synopsis() string { return "show market headlines for your holdings" }
func (*newsCmd) Usage() string {
	return `carteira news [-all]

  Fetches the latest market headlines and shows the ones mentioning your
  holdings. With -all, every headline is shown, tagged where it matches.

`
}

func (c *newsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.all, "all", false, "Show all headlines, not only matches.")
}

func (c *newsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		return fail(err)
	}
	defer a.close()

	a.session.Refresh(ctx)

	var held []string
	for _, p := range a.session.Positions() {
		held = append(held, p.Symbol)
	}

	articles := a.session.Articles()
	if c.all {
		articles = news.MatchHoldings(articles, held)
	} else {
		articles = news.OnlyHoldings(articles, held)
	}
	printMarkdown(renderer.NewsMarkdown(articles))
	return subcommands.ExitSuccess
}
