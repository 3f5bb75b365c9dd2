package main

import (
	"os"

	"github.com/inkwell-dev/inkwell/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
