package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached upstream responses",
	}
	cmd.AddCommand(c.newCacheInvalidateCmd())
	cmd.AddCommand(c.newCacheWarmCmd())
	return cmd
}

func (c *CLI) newCacheInvalidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "invalidate [key]",
		Short: "Drop a cache entry; without a key the holder snapshot is dropped",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.application(cmd.Context())
			if err != nil {
				return err
			}

			key := app.Stats.DatasetKey()
			if len(args) == 1 {
				key = args[0]
			}
			if err := app.Stats.Invalidate(cmd.Context(), key); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "invalidated %s\n", key)
			return err
		},
	}
}

func (c *CLI) newCacheWarmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "warm",
		Short: "Refetch the holder snapshot into the cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.application(cmd.Context())
			if err != nil {
				return err
			}
			n, err := app.Stats.WarmHolders(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "warmed %s with %d holders\n", app.Stats.DatasetKey(), n)
			return err
		},
	}
}
