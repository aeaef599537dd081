// Command labelctl manages human-in-the-loop label state for multi-label
// text classification.
package main

import (
	"os"

	"github.com/mkalnins/labelctl/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
