package main

import (
	"os"

	"github.com/coalesce-search/coalesce/cmd/coalesce"
)

func main() {
	if err := coalesce.Execute(); err != nil {
		os.Exit(1)
	}
}
