package daemontest

import (
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"

	dbtypes "github.com/nikicat/go-secret-service/internal/dbus"
)

// properties implements org.freedesktop.DBus.Properties Get and Set
func (d *Daemon) properties(path dbus.ObjectPath, member string, args []interface{}) ([]interface{}, *dbus.Error) {
	iface, err := arg[string](args, 0)
	if err != nil {
		return nil, err
	}
	name, err := arg[string](args, 1)
	if err != nil {
		return nil, err
	}

	switch member {
	case "Get":
		value, err := d.getProperty(path, iface, name)
		if err != nil {
			return nil, err
		}
		return []interface{}{dbus.MakeVariant(value)}, nil
	case "Set":
		value, err := arg[dbus.Variant](args, 2)
		if err != nil {
			return nil, err
		}
		return []interface{}{}, d.setProperty(path, iface, name, value)
	}
	return nil, ErrUnknownMethod(dbtypes.PropertiesInterface + "." + member)
}

func (d *Daemon) getProperty(path dbus.ObjectPath, iface, name string) (interface{}, *dbus.Error) {
	switch {
	case path == dbtypes.ServicePath && iface == dbtypes.SecretServiceInterface:
		if name != "Collections" {
			break
		}
		names, err := d.store.Collections()
		if err != nil {
			return nil, ErrUnsupported(err.Error())
		}
		paths := make([]dbus.ObjectPath, 0, len(names))
		for _, n := range names {
			paths = append(paths, dbtypes.CollectionPath(n))
		}
		return paths, nil

	case dbtypes.IsItemPath(path) && iface == dbtypes.ItemInterface:
		collection, id, _ := dbtypes.ParseItemPath(path)
		item, err := d.store.GetItem(collection, id)
		if err != nil {
			return nil, ErrObjectNotFound(err.Error())
		}
		switch name {
		case "Locked":
			return d.collectionLocked(collection), nil
		case "Label":
			return item.Label, nil
		case "Attributes":
			return item.Attributes, nil
		case "Created":
			return unixSeconds(item.Created), nil
		case "Modified":
			return unixSeconds(item.Modified), nil
		}

	case iface == dbtypes.CollectionInterface:
		collName, ok := d.collectionName(path)
		if !ok {
			return nil, ErrObjectNotFound(fmt.Sprintf("no collection at %s", path))
		}
		data, err := d.store.GetCollection(collName)
		if err != nil {
			return nil, ErrObjectNotFound(err.Error())
		}
		switch name {
		case "Items":
			ids, err := d.store.Items(collName)
			if err != nil {
				return nil, ErrObjectNotFound(err.Error())
			}
			paths := make([]dbus.ObjectPath, 0, len(ids))
			for _, id := range ids {
				paths = append(paths, dbtypes.ItemPath(collName, id))
			}
			return paths, nil
		case "Label":
			return data.Label, nil
		case "Locked":
			return data.Locked, nil
		case "Created":
			return unixSeconds(data.Created), nil
		case "Modified":
			return unixSeconds(data.Modified), nil
		}
	}
	return nil, ErrInvalidArgs(fmt.Sprintf("no property %s.%s on %s", iface, name, path))
}

func (d *Daemon) setProperty(path dbus.ObjectPath, iface, name string, value dbus.Variant) *dbus.Error {
	switch {
	case dbtypes.IsItemPath(path) && iface == dbtypes.ItemInterface:
		collection, id, _ := dbtypes.ParseItemPath(path)
		if d.collectionLocked(collection) {
			return ErrLocked("item is locked")
		}
		item, err := d.store.GetItem(collection, id)
		if err != nil {
			return ErrObjectNotFound(err.Error())
		}
		switch name {
		case "Label":
			label, ok := value.Value().(string)
			if !ok {
				return ErrInvalidArgs("invalid label type")
			}
			item.Label = label
		case "Attributes":
			attrs, ok := value.Value().(map[string]string)
			if !ok {
				return ErrInvalidArgs("invalid attributes type")
			}
			item.Attributes = attrs
		default:
			return ErrInvalidArgs(fmt.Sprintf("property %s is read-only", name))
		}
		if err := d.store.UpdateItem(collection, id, item); err != nil {
			return ErrUnsupported(err.Error())
		}
		d.emit(dbtypes.CollectionPath(collection), dbtypes.CollectionInterface+".ItemChanged", path)
		return nil

	case iface == dbtypes.CollectionInterface:
		collName, ok := d.collectionName(path)
		if !ok {
			return ErrObjectNotFound(fmt.Sprintf("no collection at %s", path))
		}
		if name != "Label" {
			return ErrInvalidArgs(fmt.Sprintf("property %s is read-only", name))
		}
		if d.collectionLocked(collName) {
			return ErrLocked("collection is locked")
		}
		label, ok := value.Value().(string)
		if !ok {
			return ErrInvalidArgs("invalid label type")
		}
		if err := d.store.SetCollectionLabel(collName, label); err != nil {
			return ErrUnsupported(err.Error())
		}
		d.emit(dbtypes.ServicePath, dbtypes.SecretServiceInterface+".CollectionChanged", dbtypes.CollectionPath(collName))
		return nil
	}
	return ErrInvalidArgs(fmt.Sprintf("no writable property %s.%s on %s", iface, name, path))
}

func unixSeconds(t time.Time) uint64 {
	if t.IsZero() {
		return 0
	}
	return uint64(t.Unix())
}
