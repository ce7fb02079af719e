package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/zerosrv/internal/sprt"
)

var (
	sprtGames    int
	sprtChampion bool
)

var sprtCmd = &cobra.Command{
	Use:   "sprt <wins> <losses>",
	Short: "Evaluate a match score offline",
	Long: `Run the sequential test on a win/loss record and show how many more games
the coordinator would queue for it.

Examples:
  zeroctl sprt 220 80
  zeroctl sprt 30 25 --games 400`,
	Args: cobra.ExactArgs(2),
	RunE: runSPRT,
}

func init() {
	sprtCmd.Flags().IntVarP(&sprtGames, "games", "n", sprt.MaxGames, "number of games the match plays")
	sprtCmd.Flags().BoolVar(&sprtChampion, "champion", false, "candidate is on the champion track")
}

func runSPRT(cmd *cobra.Command, args []string) error {
	wins, err := strconv.Atoi(args[0])
	if err != nil || wins < 0 {
		return fmt.Errorf("invalid wins: %q", args[0])
	}
	losses, err := strconv.Atoi(args[1])
	if err != nil || losses < 0 {
		return fmt.Errorf("invalid losses: %q", args[1])
	}

	out := cmd.OutOrStdout()
	result := sprt.CheckGames(wins, losses)
	llr := sprt.LLR(float64(wins), float64(losses), sprt.Elo0, sprt.Elo1)

	fmt.Fprintf(out, "Record:  %d : %d\n", wins, losses)
	fmt.Fprintf(out, "Result:  %s\n", defaultTheme.sprtStyle(result.String()).Render(result.String()))
	fmt.Fprintf(out, "LLR:     %.3f\n", llr)
	if result == sprt.Continue {
		fmt.Fprintf(out, "Confidence: %d%%\n", sprt.Confidence(wins, losses))
	}
	if games := wins + losses; games > 0 && wins > 0 && losses > 0 {
		fmt.Fprintf(out, "Elo:     %+.1f\n", sprt.EloFromPercent(float64(wins)/float64(games)))
	}

	queue := sprt.NewThrottle().GamesToQueue(sprtGames, wins, losses, sprtChampion)
	fmt.Fprintf(out, "Queue:   %d more games\n", queue)
	return nil
}
