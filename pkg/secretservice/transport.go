package secretservice

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"

	dbtypes "github.com/nikicat/go-secret-service/internal/dbus"
)

// Transport is the bus capability the client is built on: method calls to
// the Secret Service daemon and signal subscriptions.
type Transport interface {
	// Call invokes method ("interface.Member") on path and returns the reply body
	Call(ctx context.Context, path dbus.ObjectPath, method string, args ...interface{}) ([]interface{}, error)

	// Subscribe starts delivering signals matching path, iface and member.
	// The channel may also carry unrelated signals; callers filter.
	// The returned func removes the subscription.
	Subscribe(ctx context.Context, path dbus.ObjectPath, iface, member string) (<-chan *dbus.Signal, func(), error)

	// Close releases the underlying connection
	Close() error
}

// busTransport talks to org.freedesktop.secrets over a godbus connection
type busTransport struct {
	conn *dbus.Conn
}

// NewBusTransport wraps an established bus connection
func NewBusTransport(conn *dbus.Conn) Transport {
	return &busTransport{conn: conn}
}

func (b *busTransport) Call(ctx context.Context, path dbus.ObjectPath, method string, args ...interface{}) ([]interface{}, error) {
	call := b.conn.Object(dbtypes.ServiceName, path).CallWithContext(ctx, method, 0, args...)
	if call.Err != nil {
		return nil, call.Err
	}
	return call.Body, nil
}

func (b *busTransport) Subscribe(ctx context.Context, path dbus.ObjectPath, iface, member string) (<-chan *dbus.Signal, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	match := []dbus.MatchOption{
		dbus.WithMatchObjectPath(path),
		dbus.WithMatchInterface(iface),
		dbus.WithMatchMember(member),
	}
	if err := b.conn.AddMatchSignal(match...); err != nil {
		return nil, nil, err
	}

	ch := make(chan *dbus.Signal, 8)
	b.conn.Signal(ch)

	cancel := func() {
		b.conn.RemoveSignal(ch)
		_ = b.conn.RemoveMatchSignal(match...)
	}
	return ch, cancel, nil
}

func (b *busTransport) Close() error {
	return b.conn.Close()
}

// proxy binds an object path and interface to the shared transport.
// Entities build one at construction and keep it.
type proxy struct {
	transport Transport
	path      dbus.ObjectPath
	iface     string
}

func newProxy(t Transport, path dbus.ObjectPath, iface string) proxy {
	return proxy{transport: t, path: path, iface: iface}
}

func (p proxy) call(ctx context.Context, member string, args ...interface{}) ([]interface{}, error) {
	return p.invoke(ctx, p.iface+"."+member, args...)
}

func (p proxy) invoke(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	body, err := p.transport.Call(ctx, p.path, method, args...)
	if err != nil {
		return nil, &TransportError{Method: method, Path: p.path, Err: err}
	}
	return body, nil
}

// callStore calls member and stores the reply into dest.
func (p proxy) callStore(ctx context.Context, member string, args []interface{}, dest ...interface{}) error {
	body, err := p.call(ctx, member, args...)
	if err != nil {
		return err
	}
	if err := dbus.Store(body, dest...); err != nil {
		return fmt.Errorf("%w: %s.%s: %v", ErrParse, p.iface, member, err)
	}
	return nil
}

func (p proxy) get(ctx context.Context, name string) (dbus.Variant, error) {
	body, err := p.invoke(ctx, dbtypes.PropertiesInterface+".Get", p.iface, name)
	if err != nil {
		return dbus.Variant{}, err
	}
	var v dbus.Variant
	if err := dbus.Store(body, &v); err != nil {
		return dbus.Variant{}, fmt.Errorf("%w: property %s: %v", ErrParse, name, err)
	}
	return v, nil
}

func (p proxy) set(ctx context.Context, name string, value interface{}) error {
	_, err := p.invoke(ctx, dbtypes.PropertiesInterface+".Set", p.iface, name, dbus.MakeVariant(value))
	return err
}

func (p proxy) getBool(ctx context.Context, name string) (bool, error) {
	v, err := p.get(ctx, name)
	if err != nil {
		return false, err
	}
	b, ok := v.Value().(bool)
	if !ok {
		return false, parseError(name, v.Value())
	}
	return b, nil
}

func (p proxy) getString(ctx context.Context, name string) (string, error) {
	v, err := p.get(ctx, name)
	if err != nil {
		return "", err
	}
	s, ok := v.Value().(string)
	if !ok {
		return "", parseError(name, v.Value())
	}
	return s, nil
}

func (p proxy) getUint64(ctx context.Context, name string) (uint64, error) {
	v, err := p.get(ctx, name)
	if err != nil {
		return 0, err
	}
	u, ok := v.Value().(uint64)
	if !ok {
		return 0, parseError(name, v.Value())
	}
	return u, nil
}

func (p proxy) getPaths(ctx context.Context, name string) ([]dbus.ObjectPath, error) {
	v, err := p.get(ctx, name)
	if err != nil {
		return nil, err
	}
	paths, ok := v.Value().([]dbus.ObjectPath)
	if !ok {
		return nil, parseError(name, v.Value())
	}
	return paths, nil
}

func (p proxy) getStringMap(ctx context.Context, name string) (map[string]string, error) {
	v, err := p.get(ctx, name)
	if err != nil {
		return nil, err
	}
	m, ok := v.Value().(map[string]string)
	if !ok {
		return nil, parseError(name, v.Value())
	}
	return m, nil
}
