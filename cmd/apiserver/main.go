// Command apiserver runs the ClauseLens HTTP API.
package main

import (
	"fmt"
	"os"

	"github.com/clauselens/clauselens/internal/interfaces/cli"
)

var (
	version = "dev"
	commit  = "unknown"
)

func init() {
	cli.Version = version
	cli.GitCommit = commit
}

func main() {
	if err := cli.ExecuteCommand("serve", os.Args[1:]...); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
