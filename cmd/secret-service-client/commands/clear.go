package commands

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"github.com/nikicat/go-secret-service/pkg/secretservice"
)

// clear <attr> <value>...: delete every matching item.
func clearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <attribute> <value>...",
		Short: "Delete items matching the attributes",
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
				for _, item := range items {
					if err := item.Delete(ctx); err != nil {
						return err
					}
					if a.cfg.Debug() {
						log.Printf("Deleted %s", item.Path())
					}
				}
				return nil
			})
		},
	}
}
