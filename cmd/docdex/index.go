package main

import (
	"fmt"

	"github.com/fwojciec/docdex"
)

// Run executes the index command.
func (c *IndexCmd) Run(deps *Dependencies) error {
	if !c.Force && !deps.Builder.NeedsRebuild(deps.Ctx) {
		if err := deps.Builder.Load(deps.Ctx); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", docdex.ErrorMessage(err))
			return err
		}
		status := deps.Builder.Status()
		fmt.Fprintf(deps.Stdout, "Index is fresh: %s\n", status.Message)
		fmt.Fprintln(deps.Stdout, "Use --force to rebuild anyway.")
		return nil
	}

	if err := deps.Builder.Refresh(deps.Ctx); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docdex.ErrorMessage(err))
		return err
	}

	status := deps.Builder.Status()
	fmt.Fprintf(deps.Stdout, "Indexed %d chunks from %d documents using %s.\n",
		status.TotalChunks, status.TotalDocs, status.Model)

	return nil
}
