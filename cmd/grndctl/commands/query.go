package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grndstats/backend/internal/application/stats"
)

func (c *CLI) newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <input>",
		Short: "Resolve a username, ENS name, address or numeric id to an account id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.application(cmd.Context())
			if err != nil {
				return err
			}
			resp, err := app.Stats.Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
}

func (c *CLI) newMatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "match <input>",
		Short: "Find the holder record for an input in the cached snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.application(cmd.Context())
			if err != nil {
				return err
			}
			resp, err := app.Stats.Holder(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
}

func (c *CLI) newLeaderboardCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the top holders ranked by total spent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.application(cmd.Context())
			if err != nil {
				return err
			}
			resp, err := app.Stats.Leaderboard(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, fmt.Sprintf("Number of entries (max %d)", stats.MaxLeaderboardLimit))
	return cmd
}

func (c *CLI) newAccountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "account <input>",
		Short: "Print the aggregated account view for an input",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.application(cmd.Context())
			if err != nil {
				return err
			}
			resp, err := app.Stats.Account(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
}
