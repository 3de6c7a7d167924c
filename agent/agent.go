// Package agent runs a Gemini-backed assistant over the user's portfolio:
// an interactive chat and a one-shot news digest, both grounded in the
// current positions and dividend calendar.
package agent

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"google.golang.org/genai"
)

const model = "gemini-2.5-flash"

const systemInstruction = `
You are the assistant behind a personal portfolio tracker for a Brazilian
retail investor holding B3 stocks and FIIs. The user's current positions,
dividend calendar, and the latest headlines are provided as context with
each question. Answer in the user's language. Be concrete: cite the
tickers and figures from the context instead of generalities. You are not
a financial advisor and must not give buy or sell recommendations.
`

// Assistant holds one chat session with the model.
type Assistant struct {
	chat *genai.Chat
}

// New creates an assistant and opens its chat session.
func New(ctx context.Context, client *genai.Client) (*Assistant, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemInstruction}}},
	}
	chat, err := client.Chats.Create(ctx, model, config, nil)
	if err != nil {
		return nil, err
	}
	return &Assistant{chat: chat}, nil
}

// Ask sends one question, prefixed with the portfolio context, and returns
// the model's text answer.
func (a *Assistant) Ask(ctx context.Context, portfolioContext, question string) (string, error) {
	parts := []*genai.Part{
		{Text: "Portfolio context:\n" + portfolioContext},
		{Text: question},
	}
	resp, err := a.chat.Send(ctx, parts...)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from the assistant")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return b.String(), nil
}

// Digest asks for a short summary of how the provided headlines relate to
// the user's holdings.
func (a *Assistant) Digest(ctx context.Context, portfolioContext string) (string, error) {
	return a.Ask(ctx, portfolioContext,
		"Summarize, in a few bullet points, how today's headlines relate to my holdings. "+
			"Skip headlines that have no bearing on them.")
}

const prompt = "carteira> "

// Run starts the interactive REPL. Each line is sent with the current
// portfolio context; 'bye' or EOF ends the session. The print callback
// renders each answer (the CLI passes its markdown printer).
func (a *Assistant) Run(ctx context.Context, w io.Writer, r io.Reader, contextFn func() string, print func(io.Writer, string)) error {
	fmt.Fprintln(w, "Assistente da carteira. Digite 'bye' para sair.")
	reader := bufio.NewReader(r)
	for {
		fmt.Fprint(w, prompt)
		input, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if input == "bye" {
			return nil
		}
		answer, err := a.Ask(ctx, contextFn(), input)
		if err != nil {
			return err
		}
		print(w, answer)
	}
}
