package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"photojobs/internal/jobs"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(jobs.ExitCode(err))
	}
}
