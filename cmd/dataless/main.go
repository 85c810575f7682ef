// Command dataless inspects dataless SEED metadata dumps and loads them into
// a SQLite catalogue.
package main

import (
	"os"
)

func main() {
	cmd := NewCommand(os.Stdout, os.Stderr)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
