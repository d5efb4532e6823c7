package main

import (
	"os"

	"github.com/vbonduro/dishcarbon/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
