package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/nikicat/go-secret-service/internal/config"
	"github.com/nikicat/go-secret-service/internal/store"
	"github.com/nikicat/go-secret-service/pkg/secretservice"
)

// Version is set at build time
var Version = "dev"

// dialer opens a Service; tests swap in an in-process daemon
type dialer func(ctx context.Context, algorithm secretservice.Algorithm, opts ...secretservice.Option) (*secretservice.Service, error)

// entrySource yields importable entries
type entrySource interface {
	Entries(ctx context.Context) ([]*store.Entry, error)
	Close(ctx context.Context) error
}

type app struct {
	flags      *config.Flags
	cfg        *config.Config
	dial       dialer
	openSource func(ctx context.Context, prefix string) (entrySource, error)
	logFile    *os.File
}

func defaultApp() *app {
	return &app{
		dial: secretservice.Connect,
		openSource: func(ctx context.Context, prefix string) (entrySource, error) {
			return store.OpenGopass(ctx, prefix)
		},
	}
}

// Execute runs the CLI
func Execute() error {
	return newRootCmd(defaultApp()).Execute()
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "secret-service-client",
		Short:        "Store and look up secrets through the freedesktop.org Secret Service",
		Version:      Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.flags)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			a.cfg = cfg

			// Set up logging
			if cfg.LogFile != "" {
				f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
				if err != nil {
					return fmt.Errorf("failed to open log file: %w", err)
				}
				a.logFile = f
				log.SetOutput(f)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logFile != nil {
				a.logFile.Close()
				log.SetOutput(os.Stderr)
				a.logFile = nil
			}
		},
	}

	a.flags = config.AddFlags(root.PersistentFlags())

	root.AddCommand(
		storeCmd(a),
		lookupCmd(a),
		searchCmd(a),
		clearCmd(a),
		lockCmd(a, true),
		lockCmd(a, false),
		collectionsCmd(a),
		importCmd(a),
	)
	return root
}

// withService connects, runs fn and closes the session. The prompt timeout
// bounds the whole command.
func (a *app) withService(cmd *cobra.Command, fn func(ctx context.Context, svc *secretservice.Service) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if a.cfg.PromptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.PromptTimeout)
		defer cancel()
	}

	algorithm, err := secretservice.ParseAlgorithm(a.cfg.Algorithm)
	if err != nil {
		return err
	}

	svc, err := a.dial(ctx, algorithm,
		secretservice.WithLogger(log.Default()),
		secretservice.WithDebug(a.cfg.Debug()),
		secretservice.WithWindowID(a.cfg.WindowID),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to secret service: %w", err)
	}
	defer func() {
		if err := svc.Close(context.WithoutCancel(ctx)); err != nil {
			log.Printf("Warning: failed to close session: %v", err)
		}
	}()

	return fn(ctx, svc)
}

// collection resolves the configured alias and unlocks it. When the default
// alias is unset any collection will do.
func (a *app) collection(ctx context.Context, svc *secretservice.Service) (*secretservice.Collection, error) {
	c, err := svc.CollectionByAlias(ctx, a.cfg.Collection)
	if errors.Is(err, secretservice.ErrNoResult) && a.cfg.Collection == "default" {
		c, err = svc.AnyCollection(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("collection %q: %w", a.cfg.Collection, err)
	}

	locked, err := c.IsLocked(ctx)
	if err != nil {
		return nil, err
	}
	if locked {
		if err := c.Unlock(ctx); err != nil {
			return nil, fmt.Errorf("failed to unlock %s: %w", c.Path(), err)
		}
	}
	return c, nil
}

// parseAttributes reads "key value" pairs from args
func parseAttributes(args []string) (map[string]string, error) {
	if len(args)%2 != 0 {
		return nil, fmt.Errorf("attributes must be key value pairs, got %d arguments", len(args))
	}
	pairs := make([]secretservice.Attribute, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		pairs = append(pairs, secretservice.Attribute{Key: args[i], Value: args[i+1]})
	}
	return secretservice.NewAttributes(pairs...)
}

// matching searches for items and unlocks the locked ones
func matching(ctx context.Context, svc *secretservice.Service, attrs map[string]string) ([]*secretservice.Item, error) {
	result, err := svc.SearchItems(ctx, attrs)
	if err != nil {
		return nil, err
	}
	items := result.Unlocked
	if len(result.Locked) > 0 {
		objects := make([]secretservice.Object, 0, len(result.Locked))
		for _, it := range result.Locked {
			objects = append(objects, it)
		}
		if err := svc.Unlock(ctx, objects...); err != nil {
			return nil, fmt.Errorf("failed to unlock matching items: %w", err)
		}
		items = append(items, result.Locked...)
	}
	return items, nil
}
