package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/grndstats/backend/internal/infrastructure/auth"
)

func (c *CLI) newTokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an admin bearer token for the maintenance endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			issued, err := auth.NewJWTService(c.cfg.Admin).Issue(subject, ttl)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), issued)
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "grndctl", "Token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default: admin.expiration)")
	return cmd
}
