package main

import (
	"os"

	"github.com/codegram/codegram/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
