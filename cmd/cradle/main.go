// Command cradle plays interactive-fiction stories.
package main

import (
	"fmt"
	"os"

	"github.com/opencode-ai/cradle/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}
