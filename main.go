// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"samplex/cmd"
	"samplex/internal/log"
	"samplex/pkg/build"
)

// main is the entry point for the sample browser.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Parse command line arguments and load the configuration
//   - Execute one-off commands (device listing) if requested
//
// 2. Concurrent Phase (Hot Path):
//   - Start the audio engine and the waveform loader
//   - Run the browser, or play files headless and publish snapshots
//
// 3. Shutdown Phase (Cold Path):
//   - Handle termination signals
//   - Finalize recordings and close transports
//   - Clean up resources
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	// Initialize build information including version, commit hash, and build time
	if err := build.Initialize(); err != nil {
		log.Fatalf("%v", err)
	}

	// Cancelling the context stops playback and unwinds every deferred cleanup
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	err := cmd.Execute(ctx, os.Args[1:])

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	if err != nil {
		stop()
		log.Fatalf("%v", err)
	}
}
