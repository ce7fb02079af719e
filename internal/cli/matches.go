package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/zerosrv/internal/models"
	"github.com/raphaelgruber/zerosrv/internal/service"
)

var matchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "List recent matches",
	Long: `List recent matches with their score and SPRT state.

Undecided matches show how far the LLR has moved from the fail bound (0%)
toward the pass bound (100%).

Examples:
  zeroctl matches
  zeroctl matches -v`,
	RunE: runMatches,
}

func runMatches(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	list, err := apiClient.ListMatches(ctx)
	if err != nil {
		return fmt.Errorf("list matches: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, "No matches found.")
		return nil
	}

	fmt.Fprintf(out, "Matches (%d):\n\n", len(list))
	for _, m := range list {
		printMatch(out, m, verbose)
	}
	return nil
}

// sprtLabel renders the SPRT column, with the confidence for undecided matches.
func sprtLabel(m service.MatchSummary) string {
	if m.Confidence != nil {
		return fmt.Sprintf("%d%%", *m.Confidence)
	}
	return m.SPRT
}

func printMatch(out io.Writer, m service.MatchSummary, detailed bool) {
	opponent := models.ShortHash(m.Network2)
	if opponent == "" {
		opponent = "(champion)"
	}

	label := defaultTheme.sprtStyle(m.SPRT).Render(sprtLabel(m))
	fmt.Fprintf(out, "- %s vs %s  %d : %d (%d/%d)  %s",
		models.ShortHash(m.Network1), opponent, m.Wins, m.Losses, m.GameCount, m.NumberToPlay, label)
	if m.IsTest {
		fmt.Fprint(out, " "+defaultTheme.hintStyle().Render("[test]"))
	}
	fmt.Fprintln(out)

	if !detailed {
		return
	}
	fmt.Fprintf(out, "  id: %s  created: %s\n", m.ID, m.Created.Format("2006-01-02 15:04"))
	fmt.Fprintf(out, "  win rate: %.2f%%", 100*m.WinRate)
	if m.Elo != nil {
		fmt.Fprintf(out, "  elo: %+.1f", *m.Elo)
	}
	fmt.Fprintln(out)
}
