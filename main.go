package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mobile-next/rendershell/cli"
	"github.com/mobile-next/rendershell/commands"
	"github.com/mobile-next/rendershell/devices"
)

func main() {
	// track every session's coordinator so devices are released on signals
	registry := devices.NewRegistry()
	commands.SetRegistry(registry)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)
	go func() {
		done <- cli.Execute()
	}()

	select {
	case <-sigChan:
		registry.CleanupAll()
		os.Exit(0)
	case err := <-done:
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}
