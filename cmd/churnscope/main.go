// main is the entry point for the churnscope CLI.
package main

import (
	"fmt"
	"os"

	"github.com/huangsam/churnscope/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}
