// Command quotectl administers the quote database: schema, rate cards and offline pricing.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}
