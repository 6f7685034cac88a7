package daemontest

import (
	"github.com/godbus/dbus/v5"

	dbtypes "github.com/nikicat/go-secret-service/internal/dbus"
)

func (d *Daemon) session(path dbus.ObjectPath, iface, member string) ([]interface{}, *dbus.Error) {
	if iface != dbtypes.SessionInterface || member != "Close" {
		return nil, ErrUnknownMethod(iface + "." + member)
	}
	sess, ok := d.sessions[path]
	if !ok {
		return nil, ErrSessionNotFound("session not found")
	}
	sess.Close()
	delete(d.sessions, path)
	return []interface{}{}, nil
}
