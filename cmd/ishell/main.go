// Command ishell hosts a shell and an AI assistant side by side in one
// terminal, each in its own PTY.
package main

import (
	"fmt"
	"os"

	"ishell/internal/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
