package secretservice

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/godbus/dbus/v5"

	dbtypes "github.com/nikicat/go-secret-service/internal/dbus"
)

// PromptState is the lifecycle position of one prompt resolution
type PromptState int

const (
	PromptIssued PromptState = iota
	PromptDisplayed
	PromptCompleted
	PromptDismissed
)

func (s PromptState) String() string {
	switch s {
	case PromptIssued:
		return "issued"
	case PromptDisplayed:
		return "displayed"
	case PromptCompleted:
		return "completed"
	case PromptDismissed:
		return "dismissed"
	default:
		return fmt.Sprintf("PromptState(%d)", int(s))
	}
}

var errSubscriptionClosed = errors.New("signal subscription closed")

// PromptController drives org.freedesktop.Secret.Prompt objects returned by
// privileged calls. The daemon shows one prompt at a time, so a controller
// resolves one prompt at a time: concurrent Resolve calls wait their turn,
// and a waiting caller leaves the queue when its context ends.
type PromptController struct {
	transport Transport
	windowID  string
	logger    *log.Logger
	debug     bool
	slot      chan struct{}
}

func newPromptController(t Transport, windowID string, logger *log.Logger, debug bool) *PromptController {
	return &PromptController{
		transport: t,
		windowID:  windowID,
		logger:    logger,
		debug:     debug,
		slot:      make(chan struct{}, 1),
	}
}

// Resolve shows the prompt at path and waits for its Completed signal.
// The "/" path needs no prompt and resolves at once to an empty result.
// A dismissal returns ErrPromptDismissed. If ctx ends while waiting, the
// prompt is dismissed in the background and ctx.Err() is returned.
func (c *PromptController) Resolve(ctx context.Context, path dbus.ObjectPath) (dbus.Variant, error) {
	if dbtypes.IsNoPrompt(path) {
		return dbus.Variant{}, nil
	}

	select {
	case c.slot <- struct{}{}:
	case <-ctx.Done():
		return dbus.Variant{}, ctx.Err()
	}
	defer func() { <-c.slot }()

	state := PromptIssued
	c.debugf("prompt %s: %s", path, state)

	// Subscribe before showing the prompt so the signal cannot be missed
	signals, unsubscribe, err := c.transport.Subscribe(ctx, path, dbtypes.PromptInterface, dbtypes.PromptCompleted)
	if err != nil {
		return dbus.Variant{}, &TransportError{Method: "Subscribe", Path: path, Err: err}
	}
	defer unsubscribe()

	prompt := newProxy(c.transport, path, dbtypes.PromptInterface)
	if _, err := prompt.call(ctx, "Prompt", c.windowID); err != nil {
		if ctx.Err() != nil {
			c.dismiss(ctx, prompt)
		}
		return dbus.Variant{}, err
	}
	state = PromptDisplayed
	c.debugf("prompt %s: %s", path, state)

	completed := dbtypes.PromptInterface + "." + dbtypes.PromptCompleted
	for {
		select {
		case sig, ok := <-signals:
			if !ok {
				return dbus.Variant{}, &TransportError{Method: completed, Path: path, Err: errSubscriptionClosed}
			}
			if sig == nil || sig.Path != path || sig.Name != completed {
				continue
			}
			dismissed, result, err := parseCompleted(sig.Body)
			if err != nil {
				return dbus.Variant{}, err
			}
			if dismissed {
				state = PromptDismissed
				c.debugf("prompt %s: %s", path, state)
				return dbus.Variant{}, ErrPromptDismissed
			}
			state = PromptCompleted
			c.debugf("prompt %s: %s", path, state)
			return result, nil
		case <-ctx.Done():
			c.dismiss(ctx, prompt)
			return dbus.Variant{}, ctx.Err()
		}
	}
}

// dismiss tells the daemon to drop the prompt. Errors are only logged.
func (c *PromptController) dismiss(ctx context.Context, prompt proxy) {
	dctx := context.WithoutCancel(ctx)
	go func() {
		if _, err := prompt.call(dctx, "Dismiss"); err != nil {
			c.logger.Printf("Warning: failed to dismiss prompt %s: %v", prompt.path, err)
			return
		}
		c.debugf("prompt %s: dismissed after cancellation", prompt.path)
	}()
}

func parseCompleted(body []interface{}) (bool, dbus.Variant, error) {
	if len(body) != 2 {
		return false, dbus.Variant{}, fmt.Errorf("%w: Completed carries %d values", ErrParse, len(body))
	}
	dismissed, ok := body[0].(bool)
	if !ok {
		return false, dbus.Variant{}, parseError("Completed dismissed flag", body[0])
	}
	result, ok := body[1].(dbus.Variant)
	if !ok {
		return false, dbus.Variant{}, parseError("Completed result", body[1])
	}
	return dismissed, result, nil
}

func (c *PromptController) debugf(format string, args ...interface{}) {
	if c.debug {
		c.logger.Printf(format, args...)
	}
}
