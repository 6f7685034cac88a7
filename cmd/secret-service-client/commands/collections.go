package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nikicat/go-secret-service/pkg/secretservice"
)

// collections: list every collection with its label and lock state.
func collectionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "collections",
		Short: "List collections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc *secretservice.Service) error {
				collections, err := svc.Collections(ctx)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				for _, c := range collections {
					label, err := c.Label(ctx)
					if err != nil {
						return err
					}
					locked, err := c.IsLocked(ctx)
					if err != nil {
						return err
					}
					state := "unlocked"
					if locked {
						state = "locked"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\n", c.Path(), state, label)
				}
				return nil
			})
		},
	}
}
