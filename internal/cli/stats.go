package cli

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/zerosrv/internal/metrics"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show server statistics",
	Long: `Show the coordinator's in-memory operation timings since its last restart.

Examples:
  zeroctl stats`,
	RunE: runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	stats, err := apiClient.GetServerStats(context.Background())
	if err != nil {
		return fmt.Errorf("get server stats: %w", err)
	}
	printServerStats(cmd.OutOrStdout(), stats)
	return nil
}

// printServerStats displays server runtime statistics.
func printServerStats(out io.Writer, stats *metrics.Snapshot) {
	fmt.Fprintf(out, "Server Statistics (in-memory, since restart)\n")
	fmt.Fprintf(out, "═══════════════════════════════════════════════\n")
	fmt.Fprintf(out, "Uptime: %.1f seconds\n", stats.UptimeSeconds)

	ops := make([]string, 0, len(stats.Operations))
	for op := range stats.Operations {
		ops = append(ops, op)
	}
	slices.Sort(ops)

	for _, op := range ops {
		fmt.Fprintf(out, "\n%s:\n", op)
		printOpStats(out, stats.Operations[op])
	}
}

// printOpStats displays timing statistics for an operation.
func printOpStats(out io.Writer, op metrics.OperationSnapshot) {
	fmt.Fprintf(out, "  Calls: %d, Errors: %d, Total: %dms\n", op.Count, op.Errors, op.TotalTimeMs)
	fmt.Fprintf(out, "  Time: avg %.1fms, min %dms, max %dms\n",
		op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
}
