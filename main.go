package main

import (
	"os"

	"davd/internal/cmd"
)

func main() {
	if cmd.Execute() != nil {
		os.Exit(1)
	}
}
