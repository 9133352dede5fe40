package cmd

import (
	"davd/internal/cmd/hash"
	"davd/internal/cmd/serve"
	"davd/internal/cmd/version"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "davd",
	Short: "Serve filesystem shares over WebDAV",
}

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serve.ServeCmd)
	rootCmd.AddCommand(version.VersionCmd)
	rootCmd.AddCommand(hash.HashCmd)
}
