package commands

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/nikicat/go-secret-service/pkg/secretservice"
)

// gopassPathAttribute records where an imported secret came from
const gopassPathAttribute = "gopass-path"

// import [--dry-run]: copy gopass-secret-service entries into the
// configured collection.
func importCmd(a *app) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy entries from a gopass-secret-service store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			src, err := a.openSource(ctx, a.cfg.GopassPrefix)
			if err != nil {
				return err
			}
			defer src.Close(ctx)

			entries, err := src.Entries(ctx)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if dryRun {
				for _, e := range entries {
					fmt.Fprintf(w, "%s\t%s\n", e.Path, e.Item.Label)
				}
				return nil
			}

			return a.withService(cmd, func(ctx context.Context, svc *secretservice.Service) error {
				c, err := a.collection(ctx, svc)
				if err != nil {
					return err
				}
				for _, e := range entries {
					attrs := make(map[string]string, len(e.Item.Attributes)+1)
					for k, v := range e.Item.Attributes {
						attrs[k] = v
					}
					attrs[gopassPathAttribute] = e.Path

					item, err := c.CreateItem(ctx, e.Item.Label, attrs, e.Item.Secret, true, e.Item.ContentType)
					if err != nil {
						return fmt.Errorf("failed to import %s: %w", e.Path, err)
					}
					if a.cfg.Debug() {
						log.Printf("Imported %s as %s", e.Path, item.Path())
					}
				}
				fmt.Fprintf(w, "imported %d secrets into %s\n", len(entries), c.Path())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list entries without importing")
	return cmd
}
