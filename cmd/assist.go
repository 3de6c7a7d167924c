package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
	"google.golang.org/genai"

	"github.com/gmporto/carteira"
	"github.com/gmporto/carteira/agent"
	"github.com/gmporto/carteira/renderer"
)

type assistCmd struct {
	digest bool
}

func (*assistCmd) Name() string     { return "assist" }
func (*assistCmd) Synopsis() string { return "chat with the portfolio assistant" }
func (*assistCmd) Usage() string {
	return `carteira assist [-digest]

  Starts an interactive chat grounded in your positions, dividend
  calendar, and the latest headlines. With -digest, prints a one-shot
  summary of how today's news relates to your holdings and exits.
  Requires GEMINI_API_KEY.

`
}

func (c *assistCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.digest, "digest", false, "Print a news digest and exit.")
}

func (c *assistCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		return fail(err)
	}
	defer a.close()

	if a.cfg.GeminiAPIKey == "" {
		return fail(fmt.Errorf("GEMINI_API_KEY is not set"))
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: a.cfg.GeminiAPIKey})
	if err != nil {
		return fail(err)
	}
	assistant, err := agent.New(ctx, client)
	if err != nil {
		return fail(err)
	}

	a.session.Refresh(ctx)
	a.session.SettleDividends()
	contextFn := func() string { return portfolioContext(a.session) }

	if c.digest {
		answer, err := assistant.Digest(ctx, contextFn())
		if err != nil {
			return fail(err)
		}
		printMarkdown(answer)
		return subcommands.ExitSuccess
	}

	err = assistant.Run(ctx, os.Stdout, os.Stdin, contextFn, func(w io.Writer, md string) {
		fprintMarkdown(w, md)
	})
	if err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

// portfolioContext renders the session as the markdown context block the
// assistant receives with every question.
func portfolioContext(session *carteira.Session) string {
	d := renderer.Dashboard{
		Today:         carteira.Today(),
		Positions:     session.Positions(),
		Quotes:        session.Quotes(),
		Announcements: session.AllAnnouncements(),
		Articles:      session.Articles(),
		History:       session.History(),
		Realized:      session.RealizedDividends(),
		Held:          session.QuantityHeldAsOf,
	}
	return d.Markdown()
}
