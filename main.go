package main

import (
	"errors"
	"os"

	"github.com/compozy/flowlint/cli"
	"github.com/compozy/flowlint/cli/helpers"
)

func main() {
	cmd := cli.RootCmd()
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, helpers.ErrFindings) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
