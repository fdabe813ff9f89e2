// =============================================================================
// CSV to Tally Sync - Version Command
// =============================================================================
//
// This file defines the 'version' command, which displays the application
// version and build information.
//
// COMMAND USAGE:
//   tallysync version
//
// OUTPUT:
//   CSV to Tally Sync
//   Version:    1.1.0
//   Build Date: 2024-04-01
//   Go Version: go1.24.0
//   Module:     github.com/ginjaninja78/CSV-to-Tally-sync
//   Endpoint:   http://localhost:9000 (default)
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/CSV-to-Tally-sync/internal/config"
)

// =============================================================================
// VERSION INFORMATION
// =============================================================================
// These variables are set at build time using ldflags.
// Example build command:
//   go build -ldflags "-X 'github.com/ginjaninja78/CSV-to-Tally-sync/cmd.Version=1.1.0'"

// Version is the application version.
// Set at build time using ldflags.
var Version = "1.1.0"

// BuildDate is the date the application was built.
// Set at build time using ldflags.
var BuildDate = "unknown"

// =============================================================================
// VERSION COMMAND DEFINITION
// =============================================================================

// versionCmd represents the 'version' command.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the application version",
	Long: `Display the application version, build date, Go runtime version,
module path and the Tally endpoint used when none is configured.`,
	Run: func(cmd *cobra.Command, args []string) {
		printVersion(cmd.OutOrStdout())
	},
}

func printVersion(w io.Writer) {
	fmt.Fprintln(w, "CSV to Tally Sync")
	fmt.Fprintf(w, "Version:    %s\n", Version)
	fmt.Fprintf(w, "Build Date: %s\n", BuildDate)
	fmt.Fprintf(w, "Go Version: %s\n", runtime.Version())
	fmt.Fprintf(w, "Module:     %s\n", modulePath())
	fmt.Fprintf(w, "Endpoint:   %s (default)\n", config.DefaultEndpointURL)
}

// modulePath reports the main module path recorded in the binary.
func modulePath() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Path == "" {
		return "unknown"
	}
	return info.Main.Path
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init registers the version command with the root command.
func init() {
	rootCmd.AddCommand(versionCmd)
}
