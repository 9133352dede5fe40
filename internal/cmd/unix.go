//go:build unix

package cmd

import (
	reloadserver "davd/internal/cmd/reload-server"
)

func init() {
	rootCmd.AddCommand(reloadserver.ReloadConfigCmd)
}
