// Package main is the entry point for the mcpm CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mcpm-dev/mcpm/cmd/mcpm/commands"
	mcperrors "github.com/mcpm-dev/mcpm/internal/errors"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)

		code := mcperrors.ExitUser
		var exitErr *mcperrors.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.Code
			if exitErr.Suggestion != "" {
				fmt.Fprintln(os.Stderr, exitErr.Suggestion)
			}
		}
		os.Exit(code)
	}
}
