package daemontest

import (
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/nikicat/go-secret-service/internal/crypto"
	dbtypes "github.com/nikicat/go-secret-service/internal/dbus"
	"github.com/nikicat/go-secret-service/internal/store"
)

func (d *Daemon) service(iface, member string, args []interface{}) ([]interface{}, *dbus.Error) {
	if iface != dbtypes.SecretServiceInterface {
		return nil, ErrUnknownMethod(iface + "." + member)
	}

	switch member {
	case "OpenSession":
		algorithm, err := arg[string](args, 0)
		if err != nil {
			return nil, err
		}
		input, err := arg[dbus.Variant](args, 1)
		if err != nil {
			return nil, err
		}
		output, path, err := d.OpenSession(algorithm, input)
		if err != nil {
			return nil, err
		}
		return []interface{}{output, path}, nil

	case "CreateCollection":
		properties, err := arg[map[string]dbus.Variant](args, 0)
		if err != nil {
			return nil, err
		}
		alias, err := arg[string](args, 1)
		if err != nil {
			return nil, err
		}
		collection, prompt, err := d.CreateCollection(properties, alias)
		if err != nil {
			return nil, err
		}
		return []interface{}{collection, prompt}, nil

	case "SearchItems":
		attributes, err := arg[map[string]string](args, 0)
		if err != nil {
			return nil, err
		}
		unlocked, locked, err := d.SearchItems(attributes)
		if err != nil {
			return nil, err
		}
		return []interface{}{unlocked, locked}, nil

	case "Unlock", "Lock":
		objects, err := arg[[]dbus.ObjectPath](args, 0)
		if err != nil {
			return nil, err
		}
		var (
			done   []dbus.ObjectPath
			prompt dbus.ObjectPath
		)
		if member == "Unlock" {
			done, prompt, err = d.Unlock(objects)
		} else {
			done, prompt, err = d.Lock(objects)
		}
		if err != nil {
			return nil, err
		}
		return []interface{}{done, prompt}, nil

	case "GetSecrets":
		items, err := arg[[]dbus.ObjectPath](args, 0)
		if err != nil {
			return nil, err
		}
		session, err := arg[dbus.ObjectPath](args, 1)
		if err != nil {
			return nil, err
		}
		secrets, err := d.GetSecrets(items, session)
		if err != nil {
			return nil, err
		}
		return []interface{}{secrets}, nil

	case "ReadAlias":
		name, err := arg[string](args, 0)
		if err != nil {
			return nil, err
		}
		return []interface{}{d.ReadAlias(name)}, nil

	case "SetAlias":
		name, err := arg[string](args, 0)
		if err != nil {
			return nil, err
		}
		collection, err := arg[dbus.ObjectPath](args, 1)
		if err != nil {
			return nil, err
		}
		return []interface{}{}, d.SetAlias(name, collection)
	}
	return nil, ErrUnknownMethod(iface + "." + member)
}

// OpenSession implements org.freedesktop.Secret.Service.OpenSession
func (d *Daemon) OpenSession(algorithm string, input dbus.Variant) (dbus.Variant, dbus.ObjectPath, *dbus.Error) {
	var inputBytes []byte
	if v, ok := input.Value().([]byte); ok {
		inputBytes = v
	}

	session, output, err := crypto.NewSession(algorithm, inputBytes)
	if err != nil {
		return dbus.MakeVariant(""), dbtypes.NoPrompt, ErrUnsupported(err.Error())
	}

	path := dbtypes.SessionPath("s" + store.NewItemID())
	d.sessions[path] = session

	if algorithm == dbtypes.AlgorithmPlain {
		return dbus.MakeVariant(""), path, nil
	}
	if d.brokenHandshake {
		output = []byte{1}
	}
	return dbus.MakeVariant(output), path, nil
}

// CreateCollection implements org.freedesktop.Secret.Service.CreateCollection
func (d *Daemon) CreateCollection(properties map[string]dbus.Variant, alias string) (dbus.ObjectPath, dbus.ObjectPath, *dbus.Error) {
	label := ""
	if v, ok := properties[dbtypes.CollectionLabelProperty]; ok {
		if l, ok := v.Value().(string); ok {
			label = l
		}
	}

	// Use alias as name if provided, otherwise use label
	name := alias
	if name == "" {
		name = label
	}
	name = dbtypes.SanitizeName(name)

	if _, err := d.store.GetCollection(name); err == nil {
		return dbtypes.NoPrompt, dbtypes.NoPrompt, ErrExists("collection already exists")
	}

	create := func() (dbus.Variant, error) {
		if err := d.store.CreateCollection(name, label); err != nil {
			return dbus.Variant{}, err
		}
		if alias != "" {
			if err := d.store.SetAlias(alias, name); err != nil {
				return dbus.Variant{}, err
			}
		}
		path := dbtypes.CollectionPath(name)
		d.emit(dbtypes.ServicePath, dbtypes.SecretServiceInterface+".CollectionCreated", path)
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

// SearchItems implements org.freedesktop.Secret.Service.SearchItems
func (d *Daemon) SearchItems(attributes map[string]string) ([]dbus.ObjectPath, []dbus.ObjectPath, *dbus.Error) {
	results, err := d.store.SearchAllItems(attributes)
	if err != nil {
		return nil, nil, ErrObjectNotFound(err.Error())
	}

	unlocked := []dbus.ObjectPath{}
	locked := []dbus.ObjectPath{}
	for collName, items := range results {
		isLocked := d.collectionLocked(collName)
		for _, item := range items {
			path := dbtypes.ItemPath(collName, item.ID)
			if isLocked {
				locked = append(locked, path)
			} else {
				unlocked = append(unlocked, path)
			}
		}
	}
	return sortPaths(unlocked), sortPaths(locked), nil
}

// Unlock implements org.freedesktop.Secret.Service.Unlock. Items are
// unlocked by unlocking their collection.
func (d *Daemon) Unlock(objects []dbus.ObjectPath) ([]dbus.ObjectPath, dbus.ObjectPath, *dbus.Error) {
	var alreadyUnlocked, needUnlock []dbus.ObjectPath
	for _, path := range objects {
		name, ok := d.owningCollection(path)
		if !ok {
			continue
		}
		if d.collectionLocked(name) {
			needUnlock = append(needUnlock, path)
		} else {
			alreadyUnlocked = append(alreadyUnlocked, path)
		}
	}
	if alreadyUnlocked == nil {
		alreadyUnlocked = []dbus.ObjectPath{}
	}

	unlock := func() (dbus.Variant, error) {
		for _, path := range needUnlock {
			name, ok := d.owningCollection(path)
			if !ok {
				continue
			}
			if err := d.store.SetLocked(name, false); err != nil {
				return dbus.Variant{}, err
			}
		}
		return dbus.MakeVariant(append([]dbus.ObjectPath{}, needUnlock...)), nil
	}

	if d.promptUnlock && len(needUnlock) > 0 {
		return alreadyUnlocked, d.newPrompt(unlock), nil
	}
	if _, err := unlock(); err != nil {
		return nil, dbtypes.NoPrompt, ErrUnsupported(err.Error())
	}
	return append(alreadyUnlocked, needUnlock...), dbtypes.NoPrompt, nil
}

// Lock implements org.freedesktop.Secret.Service.Lock
func (d *Daemon) Lock(objects []dbus.ObjectPath) ([]dbus.ObjectPath, dbus.ObjectPath, *dbus.Error) {
	locked := []dbus.ObjectPath{}
	for _, path := range objects {
		name, ok := d.owningCollection(path)
		if !ok {
			continue
		}
		if err := d.store.SetLocked(name, true); err != nil {
			continue
		}
		locked = append(locked, path)
	}
	return locked, dbtypes.NoPrompt, nil
}

// GetSecrets implements org.freedesktop.Secret.Service.GetSecrets. Locked
// items are left out.
func (d *Daemon) GetSecrets(items []dbus.ObjectPath, session dbus.ObjectPath) (map[dbus.ObjectPath]dbtypes.Secret, *dbus.Error) {
	sess, ok := d.sessions[session]
	if !ok {
		return nil, ErrSessionNotFound("session not found")
	}

	secrets := make(map[dbus.ObjectPath]dbtypes.Secret)
	for _, path := range items {
		collection, id, err := dbtypes.ParseItemPath(path)
		if err != nil || d.collectionLocked(collection) {
			continue
		}
		item, err := d.store.GetItem(collection, id)
		if err != nil {
			continue
		}
		secret, derr := encodeSecret(sess, session, item)
		if derr != nil {
			return nil, derr
		}
		secrets[path] = secret
	}
	return secrets, nil
}

// ReadAlias implements org.freedesktop.Secret.Service.ReadAlias.
// An unknown alias is "/", not an error.
func (d *Daemon) ReadAlias(name string) dbus.ObjectPath {
	collName, err := d.store.GetAlias(name)
	if err != nil {
		return dbtypes.NoPrompt
	}
	return dbtypes.CollectionPath(collName)
}

// SetAlias implements org.freedesktop.Secret.Service.SetAlias
func (d *Daemon) SetAlias(name string, collection dbus.ObjectPath) *dbus.Error {
	if dbtypes.IsNoPrompt(collection) {
		if err := d.store.SetAlias(name, ""); err != nil {
			return ErrUnsupported(err.Error())
		}
		return nil
	}

	collName, err := dbtypes.ParseCollectionPath(collection)
	if err != nil {
		return ErrObjectNotFound(err.Error())
	}
	if err := d.store.SetAlias(name, collName); err != nil {
		return ErrObjectNotFound(err.Error())
	}
	return nil
}

func (d *Daemon) collectionLocked(name string) bool {
	data, err := d.store.GetCollection(name)
	return err == nil && data.Locked
}

// owningCollection maps a collection, alias or item path to its collection
func (d *Daemon) owningCollection(path dbus.ObjectPath) (string, bool) {
	if collection, _, err := dbtypes.ParseItemPath(path); err == nil {
		if _, err := d.store.GetCollection(collection); err != nil {
			return "", false
		}
		return collection, true
	}
	return d.collectionName(path)
}

func encodeSecret(sess crypto.Session, session dbus.ObjectPath, item *store.Item) (dbtypes.Secret, *dbus.Error) {
	params, ciphertext, err := sess.Encrypt(item.Secret)
	if err != nil {
		return dbtypes.Secret{}, ErrUnsupported(fmt.Sprintf("encrypt: %v", err))
	}
	return dbtypes.Secret{
		Session:     session,
		Parameters:  params,
		Value:       ciphertext,
		ContentType: item.ContentType,
	}, nil
}
