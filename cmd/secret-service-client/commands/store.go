package commands

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/nikicat/go-secret-service/pkg/secretservice"
)

// store --label <label> <attr> <value>...: store a secret read from stdin.
func storeCmd(a *app) *cobra.Command {
	var label string
	cmd := &cobra.Command{
		Use:   "store --label <label> <attribute> <value>...",
		Short: "Store a secret read from stdin",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs, err := parseAttributes(args)
			if err != nil {
				return err
			}
			secret, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to read secret: %w", err)
			}
			secret = bytes.TrimSuffix(secret, []byte("\n"))

			return a.withService(cmd, func(ctx context.Context, svc *secretservice.Service) error {
				c, err := a.collection(ctx, svc)
				if err != nil {
					return err
				}
				item, err := c.CreateItem(ctx, label, attrs, secret, true, a.cfg.ContentType)
				if err != nil {
					return err
				}
				if a.cfg.Debug() {
					log.Printf("Stored %s", item.Path())
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&label, "label", "l", "", "label shown to the user")
	_ = cmd.MarkFlagRequired("label")
	return cmd
}
