package main

import (
	"os"

	"github.com/finscribe/finscribe/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
