package main

import (
	"os"

	"github.com/rustyeddy/riskbench/cmd/riskbench/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
