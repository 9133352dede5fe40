//go:build !unix

package util

import (
	"os"
	"os/signal"
)

func SetupSignalHandlers(h SignalHandlers) {
	sigch := make(chan os.Signal, 2)
	signal.Notify(sigch, os.Interrupt)

	go func() {
		for range sigch {
			go tryCall(h.Sigint, h.OnHandlerPanic)
		}
	}()
}
