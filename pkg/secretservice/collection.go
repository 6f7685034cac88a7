package secretservice

import (
	"context"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"

	dbtypes "github.com/nikicat/go-secret-service/internal/dbus"
)

// Collection is a handle to one daemon collection. It borrows the
// Service's session and prompt controller.
type Collection struct {
	service *Service
	path    dbus.ObjectPath
	proxy   proxy
}

func newCollection(s *Service, path dbus.ObjectPath) *Collection {
	return &Collection{
		service: s,
		path:    path,
		proxy:   newProxy(s.transport, path, dbtypes.CollectionInterface),
	}
}

// Path returns the collection's object path
func (c *Collection) Path() dbus.ObjectPath {
	return c.path
}

// IsLocked reports the collection's Locked property
func (c *Collection) IsLocked(ctx context.Context) (bool, error) {
	return c.proxy.getBool(ctx, "Locked")
}

// EnsureUnlocked returns ErrLocked if the collection is locked
func (c *Collection) EnsureUnlocked(ctx context.Context) error {
	locked, err := c.IsLocked(ctx)
	if err != nil {
		return err
	}
	if locked {
		return fmt.Errorf("%w: collection %s", ErrLocked, c.path)
	}
	return nil
}

// Unlock unlocks the collection, prompting if needed
func (c *Collection) Unlock(ctx context.Context) error {
	return c.service.Unlock(ctx, c)
}

// Lock locks the collection
func (c *Collection) Lock(ctx context.Context) error {
	return c.service.Lock(ctx, c)
}

// Delete removes the collection and all its items
func (c *Collection) Delete(ctx context.Context) error {
	if err := c.EnsureUnlocked(ctx); err != nil {
		return err
	}
	var prompt dbus.ObjectPath
	if err := c.proxy.callStore(ctx, "Delete", nil, &prompt); err != nil {
		return err
	}
	_, err := c.service.prompts.Resolve(ctx, prompt)
	return err
}

// Items lists the collection's items
func (c *Collection) Items(ctx context.Context) ([]*Item, error) {
	paths, err := c.proxy.getPaths(ctx, "Items")
	if err != nil {
		return nil, err
	}
	return c.service.items(paths), nil
}

// SearchItems returns the items in this collection matching attributes.
// The collection must be unlocked.
func (c *Collection) SearchItems(ctx context.Context, attributes map[string]string) ([]*Item, error) {
	if err := c.EnsureUnlocked(ctx); err != nil {
		return nil, err
	}
	var paths []dbus.ObjectPath
	if err := c.proxy.callStore(ctx, "SearchItems", []interface{}{copyAttributes(attributes)}, &paths); err != nil {
		return nil, err
	}
	return c.service.items(paths), nil
}

// Label returns the collection's label
func (c *Collection) Label(ctx context.Context) (string, error) {
	return c.proxy.getString(ctx, "Label")
}

// SetLabel renames the collection
func (c *Collection) SetLabel(ctx context.Context, label string) error {
	if err := c.EnsureUnlocked(ctx); err != nil {
		return err
	}
	return c.proxy.set(ctx, "Label", label)
}

// Created returns the creation time
func (c *Collection) Created(ctx context.Context) (time.Time, error) {
	return timestamp(ctx, c.proxy, "Created")
}

// Modified returns the last modification time
func (c *Collection) Modified(ctx context.Context) (time.Time, error) {
	return timestamp(ctx, c.proxy, "Modified")
}

// CreateItem stores secret under label and attributes. With replace set, an
// item carrying identical attributes is overwritten instead of duplicated.
func (c *Collection) CreateItem(ctx context.Context, label string, attributes map[string]string, secret []byte, replace bool, contentType string) (*Item, error) {
	if err := c.EnsureUnlocked(ctx); err != nil {
		return nil, err
	}

	encoded, err := c.service.session.encodeSecret(secret, contentType)
	if err != nil {
		return nil, err
	}

	properties := map[string]dbus.Variant{
		dbtypes.ItemLabelProperty:      dbus.MakeVariant(label),
		dbtypes.ItemAttributesProperty: dbus.MakeVariant(copyAttributes(attributes)),
	}

	var created, prompt dbus.ObjectPath
	if err := c.proxy.callStore(ctx, "CreateItem", []interface{}{properties, encoded, replace}, &created, &prompt); err != nil {
		return nil, err
	}

	if dbtypes.IsNoPrompt(created) {
		result, err := c.service.prompts.Resolve(ctx, prompt)
		if err != nil {
			return nil, err
		}
		path, ok := result.Value().(dbus.ObjectPath)
		if !ok || dbtypes.IsNoPrompt(path) {
			return nil, parseError("created item", result.Value())
		}
		created = path
	}

	c.service.debugf("created item %s", created)
	return newItem(c.service, created), nil
}

func timestamp(ctx context.Context, p proxy, name string) (time.Time, error) {
	secs, err := p.getUint64(ctx, name)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(int64(secs), 0), nil
}
