package main

import (
	"fmt"
	"os"

	"archivist/internal/cli"
)

// Version is the current version of the archivist binary.
const Version = "1.0.0"

func main() {
	cli.Version = Version

	rootCmd := cli.NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
