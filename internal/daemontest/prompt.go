package daemontest

import (
	"github.com/godbus/dbus/v5"

	dbtypes "github.com/nikicat/go-secret-service/internal/dbus"
	"github.com/nikicat/go-secret-service/internal/store"
)

// strayPromptPath belongs to no client; signals on it must be ignored
var strayPromptPath = dbtypes.PromptPath("stray")

// PromptAction represents the action to perform after a prompt completes
type PromptAction func() (dbus.Variant, error)

// Prompt is a pending org.freedesktop.Secret.Prompt object
type Prompt struct {
	path      dbus.ObjectPath
	action    PromptAction
	shown     bool
	dismissed bool
	completed bool
}

// newPrompt registers a prompt that runs action when accepted
func (d *Daemon) newPrompt(action PromptAction) dbus.ObjectPath {
	path := dbtypes.PromptPath("p" + store.NewItemID())
	d.prompts[path] = &Prompt{path: path, action: action}
	return path
}

func (d *Daemon) prompt(path dbus.ObjectPath, iface, member string, args []interface{}) ([]interface{}, *dbus.Error) {
	if iface != dbtypes.PromptInterface {
		return nil, ErrUnknownMethod(iface + "." + member)
	}
	p, ok := d.prompts[path]
	if !ok {
		return nil, ErrObjectNotFound("prompt not found")
	}

	switch member {
	case "Prompt":
		if _, err := arg[string](args, 0); err != nil {
			return nil, err
		}
		d.show(p)
		return []interface{}{}, nil
	case "Dismiss":
		d.dismiss(p)
		return []interface{}{}, nil
	}
	return nil, ErrUnknownMethod(iface + "." + member)
}

// show implements org.freedesktop.Secret.Prompt.Prompt
func (d *Daemon) show(p *Prompt) {
	if p.completed || p.dismissed {
		return
	}
	p.shown = true

	switch d.behavior {
	case PromptAccept:
		result, err := p.action()
		if err != nil {
			// Emit completed with dismissed=true on error
			d.dismiss(p)
			return
		}
		p.completed = true
		d.emitCompleted(p, false, result)
	case PromptDismiss:
		d.dismiss(p)
	case PromptHold:
	}
}

// dismiss implements org.freedesktop.Secret.Prompt.Dismiss
func (d *Daemon) dismiss(p *Prompt) {
	if p.completed || p.dismissed {
		return
	}
	p.dismissed = true
	d.emitCompleted(p, true, dbus.MakeVariant(""))
}

func (d *Daemon) emitCompleted(p *Prompt, dismissed bool, result dbus.Variant) {
	completed := dbtypes.PromptInterface + "." + dbtypes.PromptCompleted
	if d.stray {
		d.emit(strayPromptPath, completed, false, dbus.MakeVariant(dbtypes.CollectionPath("stray")))
		d.emit(p.path, dbtypes.PromptInterface+".Shown", false)
	}
	d.emit(p.path, completed, dismissed, result)
	delete(d.prompts, p.path)
}

// PromptsShown returns the number of open prompts the user has been shown
func (d *Daemon) PromptsShown() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := 0
	for _, p := range d.prompts {
		if p.shown {
			n++
		}
	}
	return n
}
