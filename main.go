package main

import (
	"os"

	"github.com/sridarsri23/BrainBridge/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
