package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dunamismax/pixelconvert/internal/cli"
)

func main() {
	if err := cli.NewRootCommand(os.Stdout, os.Stderr).Execute(); err != nil {
		if !errors.Is(err, cli.ErrNothingConverted) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
