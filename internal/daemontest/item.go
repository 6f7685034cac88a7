package daemontest

import (
	"github.com/godbus/dbus/v5"

	dbtypes "github.com/nikicat/go-secret-service/internal/dbus"
)

func (d *Daemon) item(path dbus.ObjectPath, iface, member string, args []interface{}) ([]interface{}, *dbus.Error) {
	if iface != dbtypes.ItemInterface {
		return nil, ErrUnknownMethod(iface + "." + member)
	}
	collection, id, _ := dbtypes.ParseItemPath(path)
	if _, err := d.store.GetItem(collection, id); err != nil {
		return nil, ErrObjectNotFound(err.Error())
	}

	switch member {
	case "Delete":
		prompt, err := d.DeleteItem(collection, id)
		if err != nil {
			return nil, err
		}
		return []interface{}{prompt}, nil

	case "GetSecret":
		session, err := arg[dbus.ObjectPath](args, 0)
		if err != nil {
			return nil, err
		}
		secret, err := d.GetSecret(collection, id, session)
		if err != nil {
			return nil, err
		}
		return []interface{}{secret}, nil

	case "SetSecret":
		secret, err := arg[dbtypes.Secret](args, 0)
		if err != nil {
			return nil, err
		}
		return []interface{}{}, d.SetSecret(collection, id, secret)
	}
	return nil, ErrUnknownMethod(iface + "." + member)
}

// DeleteItem implements org.freedesktop.Secret.Item.Delete
func (d *Daemon) DeleteItem(collection, id string) (dbus.ObjectPath, *dbus.Error) {
	if d.collectionLocked(collection) {
		return dbtypes.NoPrompt, ErrLocked("item is locked")
	}

	del := func() (dbus.Variant, error) {
		if err := d.store.DeleteItem(collection, id); err != nil {
			return dbus.Variant{}, err
		}
		path := dbtypes.ItemPath(collection, id)
		d.emit(dbtypes.CollectionPath(collection), dbtypes.CollectionInterface+".ItemDeleted", path)
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

// GetSecret implements org.freedesktop.Secret.Item.GetSecret
func (d *Daemon) GetSecret(collection, id string, session dbus.ObjectPath) (dbtypes.Secret, *dbus.Error) {
	if d.collectionLocked(collection) {
		return dbtypes.Secret{}, ErrLocked("item is locked")
	}

	sess, ok := d.sessions[session]
	if !ok {
		return dbtypes.Secret{}, ErrSessionNotFound("session not found")
	}

	item, err := d.store.GetItem(collection, id)
	if err != nil {
		return dbtypes.Secret{}, ErrObjectNotFound(err.Error())
	}
	return encodeSecret(sess, session, item)
}

// SetSecret implements org.freedesktop.Secret.Item.SetSecret
func (d *Daemon) SetSecret(collection, id string, secret dbtypes.Secret) *dbus.Error {
	if d.collectionLocked(collection) {
		return ErrLocked("item is locked")
	}

	plaintext, derr := d.decodeSecret(secret)
	if derr != nil {
		return derr
	}

	item, err := d.store.GetItem(collection, id)
	if err != nil {
		return ErrObjectNotFound(err.Error())
	}

	item.Secret = plaintext
	item.ContentType = secret.ContentType

	if err := d.store.UpdateItem(collection, id, item); err != nil {
		return ErrUnsupported(err.Error())
	}

	d.emit(dbtypes.CollectionPath(collection), dbtypes.CollectionInterface+".ItemChanged", dbtypes.ItemPath(collection, id))
	return nil
}
