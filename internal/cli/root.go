// Package cli provides the zeroctl command-line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/zerosrv/internal/client"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose   bool
	serverURL string

	// apiClient is created before any command that talks to the server.
	apiClient *client.Client
)

// offline lists commands that never contact the server.
var offline = map[string]bool{"version": true, "help": true, "sprt": true}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "zeroctl",
	Short: "Operate a zerosrv match coordinator",
	Long: `zeroctl schedules matches on a zerosrv coordinator and inspects their
progress, the current champion network and server statistics.

The server is taken from --server, then ZEROSRV_URL, then http://localhost:8080.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if offline[cmd.Name()] {
			return nil
		}
		apiClient = client.New(serverURL)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "", "coordinator base URL")

	rootCmd.AddCommand(requestMatchCmd)
	rootCmd.AddCommand(matchesCmd)
	rootCmd.AddCommand(bestCmd)
	rootCmd.AddCommand(sprtCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the zeroctl version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "zeroctl %s\n", Version)
	},
}
