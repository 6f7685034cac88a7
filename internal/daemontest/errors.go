package daemontest

import (
	"github.com/godbus/dbus/v5"

	dbtypes "github.com/nikicat/go-secret-service/internal/dbus"
)

// ErrLocked returns an IsLocked error
func ErrLocked(msg string) *dbus.Error {
	return dbtypes.NewError(dbtypes.ErrIsLocked, msg)
}

// ErrSessionNotFound returns a NoSession error
func ErrSessionNotFound(msg string) *dbus.Error {
	return dbtypes.NewError(dbtypes.ErrNoSession, msg)
}

// ErrObjectNotFound returns a NoSuchObject error
func ErrObjectNotFound(msg string) *dbus.Error {
	return dbtypes.NewError(dbtypes.ErrNoSuchObject, msg)
}

// ErrExists returns an AlreadyExists error
func ErrExists(msg string) *dbus.Error {
	return dbtypes.NewError(dbtypes.ErrAlreadyExists, msg)
}

// ErrUnsupported returns a NotSupported error
func ErrUnsupported(msg string) *dbus.Error {
	return dbtypes.NewError(dbtypes.ErrNotSupported, msg)
}

// ErrInvalidArgs returns an InvalidArgs error
func ErrInvalidArgs(msg string) *dbus.Error {
	return dbtypes.NewError(dbtypes.ErrInvalidArgs, msg)
}

// ErrUnknownMethod returns an UnknownMethod error
func ErrUnknownMethod(msg string) *dbus.Error {
	return dbtypes.NewError(dbtypes.ErrUnknownMethod, msg)
}
