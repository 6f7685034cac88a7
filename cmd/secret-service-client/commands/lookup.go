package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nikicat/go-secret-service/pkg/secretservice"
)

// lookup <attr> <value>...: print the first matching secret.
func lookupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <attribute> <value>...",
		Short: "Print the secret matching the attributes",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs, err := parseAttributes(args)
			if err != nil {
				return err
			}
			return a.withService(cmd, func(ctx context.Context, svc *secretservice.Service) error {
				items, err := matching(ctx, svc, attrs)
				if err != nil {
					return err
				}
				if len(items) == 0 {
					return fmt.Errorf("no secret matches: %w", secretservice.ErrNoResult)
				}
				secret, err := items[0].Secret(ctx)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(secret)
				return err
			})
		},
	}
}
