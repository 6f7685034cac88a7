package dbus

import (
	"github.com/godbus/dbus/v5"
)

// Secret represents a secret as transferred over D-Bus.
// Format: (oayays) - session path, parameters, value, content-type
type Secret struct {
	Session     dbus.ObjectPath
	Parameters  []byte
	Value       []byte
	ContentType string
}

// ServiceName is the well-known D-Bus name for the Secret Service
const ServiceName = "org.freedesktop.secrets"

// ServicePath is the object path for the Secret Service
const ServicePath = dbus.ObjectPath("/org/freedesktop/secrets")

// NoPrompt is the path a daemon returns when no prompt is required.
// It doubles as the "nothing created" marker in CreateCollection/CreateItem.
const NoPrompt = dbus.ObjectPath("/")

// D-Bus interface names
const (
	SecretServiceInterface = "org.freedesktop.Secret.Service"
	CollectionInterface    = "org.freedesktop.Secret.Collection"
	ItemInterface          = "org.freedesktop.Secret.Item"
	SessionInterface       = "org.freedesktop.Secret.Session"
	PromptInterface        = "org.freedesktop.Secret.Prompt"
	PropertiesInterface    = "org.freedesktop.DBus.Properties"
)

// Base paths
const (
	CollectionBasePath = "/org/freedesktop/secrets/collection"
	SessionBasePath    = "/org/freedesktop/secrets/session"
	PromptBasePath     = "/org/freedesktop/secrets/prompt"
	AliasBasePath      = "/org/freedesktop/secrets/aliases"
)

// Well-known aliases
const (
	DefaultAlias = "default"
	SessionAlias = "session"
)

// Property names used in CreateCollection / CreateItem dictionaries
const (
	CollectionLabelProperty = CollectionInterface + ".Label"
	ItemLabelProperty       = ItemInterface + ".Label"
	ItemAttributesProperty  = ItemInterface + ".Attributes"
)

// PromptCompleted is the member name of the prompt completion signal
const PromptCompleted = "Completed"

// Algorithm names
const (
	AlgorithmPlain = "plain"
	AlgorithmDHAES = "dh-ietf1024-sha256-aes128-cbc-pkcs7"
)

// D-Bus error names a Secret Service daemon may reply with
const (
	ErrIsLocked         = "org.freedesktop.Secret.Error.IsLocked"
	ErrNoSession        = "org.freedesktop.Secret.Error.NoSession"
	ErrNoSuchObject     = "org.freedesktop.Secret.Error.NoSuchObject"
	ErrAlreadyExists    = "org.freedesktop.Secret.Error.AlreadyExists"
	ErrNotSupported     = "org.freedesktop.DBus.Error.NotSupported"
	ErrServiceUnknown   = "org.freedesktop.DBus.Error.ServiceUnknown"
	ErrUnknownMethod    = "org.freedesktop.DBus.Error.UnknownMethod"
	ErrUnknownObject    = "org.freedesktop.DBus.Error.UnknownObject"
	ErrInvalidArgs      = "org.freedesktop.DBus.Error.InvalidArgs"
	ErrUnknownInterface = "org.freedesktop.DBus.Error.UnknownInterface"
)

// NewError creates a new D-Bus error
func NewError(name, message string) *dbus.Error {
	return &dbus.Error{
		Name: name,
		Body: []interface{}{message},
	}
}
