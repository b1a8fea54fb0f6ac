package main

import (
	"os"

	"github.com/binhbb2204/GameShelf/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
