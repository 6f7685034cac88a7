package daemontest

import (
	"fmt"

	"github.com/godbus/dbus/v5"

	dbtypes "github.com/nikicat/go-secret-service/internal/dbus"
	"github.com/nikicat/go-secret-service/internal/store"
)

func (d *Daemon) collection(name, iface, member string, args []interface{}) ([]interface{}, *dbus.Error) {
	if iface != dbtypes.CollectionInterface {
		return nil, ErrUnknownMethod(iface + "." + member)
	}

	switch member {
	case "Delete":
		prompt, err := d.DeleteCollection(name)
		if err != nil {
			return nil, err
		}
		return []interface{}{prompt}, nil

	case "SearchItems":
		attributes, err := arg[map[string]string](args, 0)
		if err != nil {
			return nil, err
		}
		results, err := d.SearchCollection(name, attributes)
		if err != nil {
			return nil, err
		}
		return []interface{}{results}, nil

	case "CreateItem":
		properties, err := arg[map[string]dbus.Variant](args, 0)
		if err != nil {
			return nil, err
		}
		secret, err := arg[dbtypes.Secret](args, 1)
		if err != nil {
			return nil, err
		}
		replace, err := arg[bool](args, 2)
		if err != nil {
			return nil, err
		}
		item, prompt, err := d.CreateItem(name, properties, secret, replace)
		if err != nil {
			return nil, err
		}
		return []interface{}{item, prompt}, nil
	}
	return nil, ErrUnknownMethod(iface + "." + member)
}

// DeleteCollection implements org.freedesktop.Secret.Collection.Delete
func (d *Daemon) DeleteCollection(name string) (dbus.ObjectPath, *dbus.Error) {
	if d.collectionLocked(name) {
		return dbtypes.NoPrompt, ErrLocked("collection is locked")
	}

	del := func() (dbus.Variant, error) {
		if err := d.store.DeleteCollection(name); err != nil {
			return dbus.Variant{}, err
		}
		path := dbtypes.CollectionPath(name)
		d.emit(dbtypes.ServicePath, dbtypes.SecretServiceInterface+".CollectionDeleted", path)
		return dbus.MakeVariant(path), nil
	}

	if d.promptDelete {
		return d.newPrompt(del), nil
	}
	if _, err := del(); err != nil {
		return dbtypes.NoPrompt, ErrObjectNotFound(err.Error())
	}
	return dbtypes.NoPrompt, nil
}

// SearchCollection implements org.freedesktop.Secret.Collection.SearchItems
func (d *Daemon) SearchCollection(name string, attributes map[string]string) ([]dbus.ObjectPath, *dbus.Error) {
	if d.collectionLocked(name) {
		return nil, ErrLocked("collection is locked")
	}
	items, err := d.store.SearchItems(name, attributes)
	if err != nil {
		return nil, ErrObjectNotFound(err.Error())
	}

	results := make([]dbus.ObjectPath, 0, len(items))
	for _, item := range items {
		results = append(results, dbtypes.ItemPath(name, item.ID))
	}
	return results, nil
}

// CreateItem implements org.freedesktop.Secret.Collection.CreateItem. With
// replace set, an item with identical attributes is overwritten.
func (d *Daemon) CreateItem(name string, properties map[string]dbus.Variant, secret dbtypes.Secret, replace bool) (dbus.ObjectPath, dbus.ObjectPath, *dbus.Error) {
	if d.collectionLocked(name) {
		return dbtypes.NoPrompt, dbtypes.NoPrompt, ErrLocked("collection is locked")
	}

	plaintext, derr := d.decodeSecret(secret)
	if derr != nil {
		return dbtypes.NoPrompt, dbtypes.NoPrompt, derr
	}

	item := &store.Item{
		Secret:      plaintext,
		ContentType: secret.ContentType,
		Attributes:  make(map[string]string),
	}
	if v, ok := properties[dbtypes.ItemLabelProperty]; ok {
		if l, ok := v.Value().(string); ok {
			item.Label = l
		}
	}
	if v, ok := properties[dbtypes.ItemAttributesProperty]; ok {
		if attrs, ok := v.Value().(map[string]string); ok {
			item.Attributes = attrs
		}
	}

	create := func() (dbus.Variant, error) {
		if replace {
			existing, err := d.store.SearchItems(name, item.Attributes)
			if err != nil {
				return dbus.Variant{}, err
			}
			for _, e := range existing {
				if store.SameAttributes(e.Attributes, item.Attributes) {
					if err := d.store.UpdateItem(name, e.ID, item); err != nil {
						return dbus.Variant{}, err
					}
					path := dbtypes.ItemPath(name, e.ID)
					d.emit(dbtypes.CollectionPath(name), dbtypes.CollectionInterface+".ItemChanged", path)
					return dbus.MakeVariant(path), nil
				}
			}
		}

		id, err := d.store.CreateItem(name, item)
		if err != nil {
			return dbus.Variant{}, err
		}
		path := dbtypes.ItemPath(name, id)
		d.emit(dbtypes.CollectionPath(name), dbtypes.CollectionInterface+".ItemCreated", path)
		return dbus.MakeVariant(path), nil
	}

	if d.promptCreate {
		return dbtypes.NoPrompt, d.newPrompt(create), nil
	}
	result, err := create()
	if err != nil {
		return dbtypes.NoPrompt, dbtypes.NoPrompt, ErrUnsupported(err.Error())
	}
	return result.Value().(dbus.ObjectPath), dbtypes.NoPrompt, nil
}

func (d *Daemon) decodeSecret(secret dbtypes.Secret) ([]byte, *dbus.Error) {
	sess, ok := d.sessions[secret.Session]
	if !ok {
		return nil, ErrSessionNotFound("session not found")
	}
	plaintext, err := sess.Decrypt(secret.Parameters, secret.Value)
	if err != nil {
		return nil, ErrInvalidArgs(fmt.Sprintf("decrypt: %v", err))
	}
	return plaintext, nil
}
