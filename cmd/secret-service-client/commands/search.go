package commands

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/nikicat/go-secret-service/pkg/secretservice"
)

// search [--all] [--unlock] <attr> <value>...: describe matching items.
func searchCmd(a *app) *cobra.Command {
	var all, unlock bool
	cmd := &cobra.Command{
		Use:   "search <attribute> <value>...",
		Short: "List items matching the attributes",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs, err := parseAttributes(args)
			if err != nil {
				return err
			}
			return a.withService(cmd, func(ctx context.Context, svc *secretservice.Service) error {
				var items []*secretservice.Item
				if unlock {
					items, err = matching(ctx, svc, attrs)
				} else {
					var result secretservice.SearchResult
					result, err = svc.SearchItems(ctx, attrs)
					items = append(result.Unlocked, result.Locked...)
				}
				if err != nil {
					return err
				}
				if len(items) == 0 {
					return fmt.Errorf("no item matches: %w", secretservice.ErrNoResult)
				}
				if !all {
					items = items[:1]
				}
				for _, item := range items {
					if err := describe(ctx, cmd.OutOrStdout(), item); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "show every match, not only the first")
	cmd.Flags().BoolVar(&unlock, "unlock", false, "unlock locked matches and show their secrets")
	return cmd
}

func describe(ctx context.Context, w io.Writer, item *secretservice.Item) error {
	fmt.Fprintf(w, "[%s]\n", item.Path())

	label, err := item.Label(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "label = %s\n", label)

	locked, err := item.IsLocked(ctx)
	if err != nil {
		return err
	}
	if !locked {
		secret, err := item.Secret(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "secret = %s\n", secret)
	}

	created, err := item.Created(ctx)
	if err != nil {
		return err
	}
	modified, err := item.Modified(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "created = %s\n", created.UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "modified = %s\n", modified.UTC().Format(time.RFC3339))

	attrs, err := item.Attributes(ctx)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "attribute.%s = %s\n", k, attrs[k])
	}
	return nil
}
