// Command storefront serves the public storefront pages and can pre-render
// them to a directory for static hosting.
package main

import (
	"fmt"
	"os"

	_ "go.uber.org/automaxprocs" // Match GOMAXPROCS to the container CPU quota.
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
