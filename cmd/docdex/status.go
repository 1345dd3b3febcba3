package main

import (
	"fmt"

	"github.com/fwojciec/docdex"
)

// Run executes the status command.
func (c *StatusCmd) Run(deps *Dependencies) error {
	if err := deps.Builder.Load(deps.Ctx); err != nil && docdex.ErrorCode(err) != docdex.ENOTFOUND {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docdex.ErrorMessage(err))
		return err
	}

	status := deps.Builder.Status()

	fmt.Fprintf(deps.Stdout, "State:   %s\n", status.State)
	fmt.Fprintf(deps.Stdout, "Message: %s\n", status.Message)
	if status.State == docdex.StateReady {
		fmt.Fprintf(deps.Stdout, "Chunks:  %d\n", status.TotalChunks)
		fmt.Fprintf(deps.Stdout, "Docs:    %d\n", status.TotalDocs)
		if status.Model != "" {
			fmt.Fprintf(deps.Stdout, "Model:   %s\n", status.Model)
		}
		fmt.Fprintf(deps.Stdout, "Built:   %s\n", status.BuiltAt.Local().Format("2006-01-02 15:04:05"))
	}

	return nil
}
