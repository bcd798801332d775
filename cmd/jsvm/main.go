package main

import (
	"os"

	"github.com/go-jsvm/jsvm/cmd/jsvm/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
