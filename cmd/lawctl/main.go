// Command lawctl is the operator CLI: it imports statutes, maintains the
// derived indexes and runs retrieval queries from the shell.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "1.0.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lawctl",
		Short: "Statute corpus maintenance and retrieval",
		Long: `lawctl manages the statute database used by the search API.

Configuration is read from the environment (and a .env file), the same
way the API server reads it.

Example:
  lawctl import laws.json
  lawctl embed --batch 128
  lawctl reindex --recreate
  lawctl resolve 刑法第二十条
  lawctl search 醉酒驾驶 --page-size 5`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(embedCmd())
	rootCmd.AddCommand(reindexCmd())
	rootCmd.AddCommand(resolveCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(statsCmd())
	return rootCmd
}
