package secretservice

import (
	"context"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"

	dbtypes "github.com/nikicat/go-secret-service/internal/dbus"
)

// Item is a handle to one stored secret
type Item struct {
	service *Service
	path    dbus.ObjectPath
	proxy   proxy
}

func newItem(s *Service, path dbus.ObjectPath) *Item {
	return &Item{
		service: s,
		path:    path,
		proxy:   newProxy(s.transport, path, dbtypes.ItemInterface),
	}
}

// Path returns the item's object path
func (i *Item) Path() dbus.ObjectPath {
	return i.path
}

// IsLocked reports the item's Locked property
func (i *Item) IsLocked(ctx context.Context) (bool, error) {
	return i.proxy.getBool(ctx, "Locked")
}

// EnsureUnlocked returns ErrLocked if the item is locked
func (i *Item) EnsureUnlocked(ctx context.Context) error {
	locked, err := i.IsLocked(ctx)
	if err != nil {
		return err
	}
	if locked {
		return fmt.Errorf("%w: item %s", ErrLocked, i.path)
	}
	return nil
}

// Unlock unlocks the item, prompting if needed
func (i *Item) Unlock(ctx context.Context) error {
	return i.service.Unlock(ctx, i)
}

// Lock locks the item
func (i *Item) Lock(ctx context.Context) error {
	return i.service.Lock(ctx, i)
}

// Attributes returns the lookup attributes
func (i *Item) Attributes(ctx context.Context) (map[string]string, error) {
	return i.proxy.getStringMap(ctx, "Attributes")
}

// SetAttributes replaces the lookup attributes
func (i *Item) SetAttributes(ctx context.Context, attributes map[string]string) error {
	if err := i.EnsureUnlocked(ctx); err != nil {
		return err
	}
	return i.proxy.set(ctx, "Attributes", copyAttributes(attributes))
}

// Label returns the item's label
func (i *Item) Label(ctx context.Context) (string, error) {
	return i.proxy.getString(ctx, "Label")
}

// SetLabel renames the item
func (i *Item) SetLabel(ctx context.Context, label string) error {
	if err := i.EnsureUnlocked(ctx); err != nil {
		return err
	}
	return i.proxy.set(ctx, "Label", label)
}

// Delete removes the item. A locked item fails with ErrLocked.
func (i *Item) Delete(ctx context.Context) error {
	if err := i.EnsureUnlocked(ctx); err != nil {
		return err
	}
	var prompt dbus.ObjectPath
	if err := i.proxy.callStore(ctx, "Delete", nil, &prompt); err != nil {
		return err
	}
	_, err := i.service.prompts.Resolve(ctx, prompt)
	return err
}

// Secret fetches and decrypts the secret. A locked item fails with
// ErrLocked, reported by the daemon.
func (i *Item) Secret(ctx context.Context) ([]byte, error) {
	secret, err := i.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return i.service.session.decodeSecret(secret)
}

// SecretContentType returns the content type stored with the secret
func (i *Item) SecretContentType(ctx context.Context) (string, error) {
	secret, err := i.fetch(ctx)
	if err != nil {
		return "", err
	}
	return secret.ContentType, nil
}

func (i *Item) fetch(ctx context.Context) (dbtypes.Secret, error) {
	var secret dbtypes.Secret
	if err := i.proxy.callStore(ctx, "GetSecret", []interface{}{i.service.session.Handle()}, &secret); err != nil {
		return dbtypes.Secret{}, err
	}
	return secret, nil
}

// SetSecret replaces the secret value
func (i *Item) SetSecret(ctx context.Context, secret []byte, contentType string) error {
	if err := i.EnsureUnlocked(ctx); err != nil {
		return err
	}
	encoded, err := i.service.session.encodeSecret(secret, contentType)
	if err != nil {
		return err
	}
	_, err = i.proxy.call(ctx, "SetSecret", encoded)
	return err
}

// Created returns the creation time
func (i *Item) Created(ctx context.Context) (time.Time, error) {
	return timestamp(ctx, i.proxy, "Created")
}

// Modified returns the last modification time
func (i *Item) Modified(ctx context.Context) (time.Time, error) {
	return timestamp(ctx, i.proxy, "Modified")
}
