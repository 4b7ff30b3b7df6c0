// Command prstat is the pull-request analysis CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/prstat/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
