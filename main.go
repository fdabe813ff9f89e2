// =============================================================================
// CSV to Tally Sync - Main Entry Point
// =============================================================================
//
// This is the main entry point for the CSV to Tally Sync CLI application.
// It delegates command execution to the cmd package.
//
// USAGE:
//   tallysync sync          - Sync every input row into Tally
//   tallysync validate      - Check configuration and input without sending
//   tallysync version       - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Readers, conversion, payload building, Tally client,
//                      and the sync orchestrator
//   - pkg/           : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/CSV-to-Tally-sync/cmd"
)

func main() {
	cmd.Execute()
}
