package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/gmporto/carteira/docs"
)

type topicCmd struct{}

func (*topicCmd) Name() string     { return "topic" }
func (*topicCmd) Synopsis() string { return "print the documentation about a topic" }
func (*topicCmd) Usage() string {
	return `carteira topic [<name>]

  Prints the documentation about a given topic, or the list of topics
  when called without argument. 'topic "*"' prints everything.

`
}

func (*topicCmd) SetFlags(f *flag.FlagSet) {}

func (c *topicCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	name := "readme"
	if f.NArg() > 0 {
		name = f.Arg(0)
	}
	content, err := docs.Topic(name)
	if err != nil {
		names, lerr := docs.AllTopics()
		if lerr == nil {
			fmt.Printf("Unknown topic %q. Available: %v\n", name, names)
		}
		return fail(err)
	}
	printMarkdown(content)
	return subcommands.ExitSuccess
}
