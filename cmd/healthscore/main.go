// Command healthscore runs the health analytics evaluators on a JSON or YAML
// input file and prints the result.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdin).Execute(); err != nil {
		os.Exit(1)
	}
}
