// Package main is the entry point for the greenrun CLI.
// greenrun drives demo workloads on a cooperative green-thread runtime.
package main

import (
	"os"

	"github.com/Swind/go-green-runner/cmd/greenrun/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
