package main

import (
	"os"

	"github.com/conneroisu/pages/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
