package renderer

import (
	"strings"

	"github.com/gmporto/carteira"
)

// NewsMarkdown renders the headline feed. Articles that mention a held
// symbol carry the tickers as a trailing tag list.
func NewsMarkdown(articles []carteira.Article) string {
	r := newRenderer()
	r.Printf("## Notícias\n\n")
	if len(articles) == 0 {
		r.Printf("No headlines right now.\n")
		return r.String()
	}
	for _, a := range articles {
		r.Printf("- [%s](%s)", a.Title, a.URL)
		if a.Source != "" {
			r.Printf(" — %s", a.Source)
		}
		if len(a.Symbols) > 0 {
			r.Printf(" `%s`", strings.Join(a.Symbols, "` `"))
		}
		r.Printf("\n")
	}
	return r.String()
}
