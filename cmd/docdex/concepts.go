package main

import (
	"fmt"
	"sort"

	"github.com/fwojciec/docdex"
)

// Run executes the concepts command.
func (c *ConceptsCmd) Run(deps *Dependencies) error {
	if deps.Concepts == nil {
		return docdex.Errorf(docdex.EINVALID, "concept discovery requires the GitHub source")
	}

	concepts, err := deps.Concepts.ListConcepts(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docdex.ErrorMessage(err))
		return err
	}

	if len(concepts) == 0 {
		fmt.Fprintln(deps.Stdout, "No concepts found.")
		return nil
	}

	names := make([]string, 0, len(concepts))
	for name := range concepts {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintf(deps.Stdout, "%-30s %s\n", name, concepts[name])
	}

	return nil
}
