package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/zerosrv/internal/client"
)

var (
	reqNetwork2  string
	reqVisits    int
	reqPlayouts  int
	reqResign    float64
	reqNoise     bool
	reqRandomCnt int
	reqGames     int
	reqTest      bool
	reqKey       string
)

var requestMatchCmd = &cobra.Command{
	Use:   "request-match <network1>",
	Short: "Schedule a match for a candidate network",
	Long: `Schedule a match of network1 against network2, or against whichever
network is champion when the first game is handed out.

The admin key is read from --key or ZEROSRV_ADMIN_KEY.

Examples:
  zeroctl request-match 3f1a...
  zeroctl request-match 3f1a... --network2 9c0d... --games 100 --test
  zeroctl request-match 3f1a... --playouts 1600 --noise`,
	Args: cobra.ExactArgs(1),
	RunE: runRequestMatch,
}

func init() {
	f := requestMatchCmd.Flags()
	f.StringVar(&reqNetwork2, "network2", "", "opponent hash (default: current champion)")
	f.IntVar(&reqVisits, "visits", 0, "visits per move (server default 3200)")
	f.IntVar(&reqPlayouts, "playouts", 0, "playouts per move, instead of visits")
	f.Float64Var(&reqResign, "resign", 0, "resignation percent (server default 10)")
	f.BoolVar(&reqNoise, "noise", false, "enable root noise")
	f.IntVar(&reqRandomCnt, "randomcnt", 0, "number of randomized opening moves")
	f.IntVarP(&reqGames, "games", "n", 0, "number of games to play (server default 400)")
	f.BoolVar(&reqTest, "test", false, "test match, never promotes")
	f.StringVar(&reqKey, "key", "", "admin key")
}

func runRequestMatch(cmd *cobra.Command, args []string) error {
	key := reqKey
	if key == "" {
		key = os.Getenv("ZEROSRV_ADMIN_KEY")
	}
	if key == "" {
		return fmt.Errorf("admin key required (--key or ZEROSRV_ADMIN_KEY)")
	}

	req := client.MatchRequest{
		Key:          key,
		Network1:     args[0],
		Network2:     reqNetwork2,
		Visits:       reqVisits,
		Playouts:     reqPlayouts,
		NumberToPlay: reqGames,
		IsTest:       reqTest,
	}
	flags := cmd.Flags()
	if flags.Changed("resign") {
		req.ResignationPercent = &reqResign
	}
	if flags.Changed("noise") {
		req.Noise = &reqNoise
	}
	if flags.Changed("randomcnt") {
		req.RandomCnt = &reqRandomCnt
	}

	summary, err := apiClient.RequestMatch(context.Background(), req)
	if err != nil {
		return fmt.Errorf("request match: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Match added: %s\n", summary.ID)
	printMatch(cmd.OutOrStdout(), *summary, verbose)
	return nil
}
