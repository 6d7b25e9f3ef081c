package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/safar/agromarket/internal/store"
)

func newStatsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print marketplace aggregates as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			stats, err := store.AdminStats(cmd.Context(), db)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		},
	}
}
