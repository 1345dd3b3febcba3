package main

import (
	"fmt"

	"github.com/fwojciec/docdex"
)

// Run executes the docs command.
func (c *DocsCmd) Run(deps *Dependencies) error {
	refs, err := deps.Source.List(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docdex.ErrorMessage(err))
		return err
	}

	if len(refs) == 0 {
		fmt.Fprintln(deps.Stdout, "No documents found.")
		return nil
	}

	for _, ref := range refs {
		fmt.Fprintf(deps.Stdout, "%-20s %s\n", ref.Category, ref.RelativePath)
	}
	fmt.Fprintf(deps.Stdout, "\n%d documents\n", len(refs))

	return nil
}
