package secretservice

import (
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"

	dbtypes "github.com/nikicat/go-secret-service/internal/dbus"
)

// Outcome kinds. Test for them with errors.Is.
var (
	// ErrNoResult is returned when a lookup finds nothing
	ErrNoResult = errors.New("secretservice: no result")

	// ErrLocked is returned when an operation needs the object unlocked first
	ErrLocked = errors.New("secretservice: object locked")

	// ErrPromptDismissed is returned when the user declined a prompt
	ErrPromptDismissed = errors.New("secretservice: prompt dismissed")

	// ErrCrypto is returned for handshake and cipher failures.
	// The Service must be reconnected after one.
	ErrCrypto = errors.New("secretservice: crypto failure")

	// ErrParse is returned when a daemon reply has an unexpected shape
	ErrParse = errors.New("secretservice: malformed reply")

	// ErrDuplicateAttribute is returned by NewAttributes for conflicting keys
	ErrDuplicateAttribute = errors.New("secretservice: duplicate attribute key")

	// ErrUnavailable is returned when no Secret Service provider is reachable
	ErrUnavailable = errors.New("secretservice: no secret service provider")
)

// TransportError wraps a failed method call. The underlying error is kept
// as is; daemon error replies that carry a protocol outcome additionally
// match ErrLocked, ErrNoResult or ErrUnavailable.
type TransportError struct {
	Method string
	Path   dbus.ObjectPath
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("secretservice: %s on %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is maps daemon error names onto the outcome kinds.
func (e *TransportError) Is(target error) bool {
	name, ok := dbusErrorName(e.Err)
	if !ok {
		return false
	}
	switch target {
	case ErrLocked:
		return name == dbtypes.ErrIsLocked
	case ErrNoResult:
		return name == dbtypes.ErrNoSuchObject || name == dbtypes.ErrUnknownObject
	case ErrUnavailable:
		return name == dbtypes.ErrServiceUnknown
	}
	return false
}

// godbus reports error replies as dbus.Error values; other transports may
// hand out pointers.
func dbusErrorName(err error) (string, bool) {
	var value dbus.Error
	if errors.As(err, &value) {
		return value.Name, true
	}
	var ptr *dbus.Error
	if errors.As(err, &ptr) && ptr != nil {
		return ptr.Name, true
	}
	return "", false
}

func parseError(what string, got interface{}) error {
	return fmt.Errorf("%w: %s: got %T", ErrParse, what, got)
}

func cryptoError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrCrypto, op, err)
}
