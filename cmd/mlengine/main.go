// Command mlengine trains, ranks, and scores wire-transfer anomaly
// detection models from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/finshield/mlengine/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
