// cindex is the operator CLI: index, inspect and search outside of an
// MCP client.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "cindex",
		Short: "Semantic code search and context retrieval for large repositories",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", ".cindex", "config directory")

	root.AddCommand(newIndexCmd())
	root.AddCommand(newIndexDocsCmd())
	root.AddCommand(newSearchCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newDeleteCmd())
	root.AddCommand(newWatchCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
