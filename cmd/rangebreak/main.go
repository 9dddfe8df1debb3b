package main

import (
	"os"

	"github.com/tradelab/rangebreak/cmd/rangebreak/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
