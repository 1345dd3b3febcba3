package main

import (
	"encoding/json"
	"fmt"

	"github.com/fwojciec/docdex"
)

// Run executes the search command.
func (c *SearchCmd) Run(deps *Dependencies) error {
	// Serve from the persisted index; build one first if none exists or if
	// the stored build is stale.
	if deps.Builder.NeedsRebuild(deps.Ctx) {
		fmt.Fprintln(deps.Stderr, "Index is missing or stale; rebuilding...")
		if err := deps.Builder.Refresh(deps.Ctx); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", docdex.ErrorMessage(err))
			return err
		}
	} else if err := deps.Builder.Load(deps.Ctx); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docdex.ErrorMessage(err))
		return err
	}

	resp := deps.Engine.Search(deps.Ctx, c.Query, docdex.SearchOptions{
		Category: c.Category,
		Limit:    c.Limit,
	})

	if c.JSON {
		enc := json.NewEncoder(deps.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	fmt.Fprintln(deps.Stdout, docdex.FormatSearchResponse(resp))

	if resp.Status == docdex.SearchStatusError {
		return docdex.Errorf(docdex.EINTERNAL, "%s", resp.Message)
	}
	return nil
}
