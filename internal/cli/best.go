package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var bestCmd = &cobra.Command{
	Use:   "best",
	Short: "Print the current champion network hash",
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := apiClient.BestNetworkHash(context.Background())
		if err != nil {
			return fmt.Errorf("get best network: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}
