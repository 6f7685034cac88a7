package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nikicat/go-secret-service/pkg/secretservice"
)

// lock / unlock: change the lock state of the configured collection.
func lockCmd(a *app, lock bool) *cobra.Command {
	use, short := "unlock", "Unlock the configured collection"
	if lock {
		use, short = "lock", "Lock the configured collection"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc *secretservice.Service) error {
				c, err := svc.CollectionByAlias(ctx, a.cfg.Collection)
				if err != nil {
					return fmt.Errorf("collection %q: %w", a.cfg.Collection, err)
				}
				if lock {
					return c.Lock(ctx)
				}
				return c.Unlock(ctx)
			})
		},
	}
}
