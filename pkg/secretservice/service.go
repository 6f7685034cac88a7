// Package secretservice is a client for the freedesktop.org Secret Service
// API. A Service negotiates one transport-encryption Session with the
// daemon and hands out Collection and Item handles that encrypt and
// decrypt secrets through it. Operations the daemon wants confirmed are
// routed through a PromptController.
package secretservice

import (
	"context"
	"fmt"
	"log"

	"github.com/godbus/dbus/v5"

	dbtypes "github.com/nikicat/go-secret-service/internal/dbus"
)

// Object is anything with a daemon object path
type Object interface {
	Path() dbus.ObjectPath
}

// SearchResult splits matches by lock state
type SearchResult struct {
	Unlocked []*Item
	Locked   []*Item
}

// Option configures a Service
type Option func(*options)

type options struct {
	logger   *log.Logger
	debug    bool
	windowID string
}

// WithLogger sets the logger for warnings and debug output
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithDebug enables debug logging
func WithDebug(debug bool) Option {
	return func(o *options) { o.debug = debug }
}

// WithWindowID sets the parent window id passed to prompts
func WithWindowID(id string) Option {
	return func(o *options) { o.windowID = id }
}

// Service is the root handle. It owns the Session and the PromptController.
type Service struct {
	transport     Transport
	ownsTransport bool
	session       *Session
	prompts       *PromptController
	proxy         proxy
	logger        *log.Logger
	debug         bool
}

// Connect opens a private session bus connection and calls New on it.
// Close releases the connection.
func Connect(ctx context.Context, algorithm Algorithm, opts ...Option) (*Service, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to session bus: %w", ErrUnavailable, err)
	}

	svc, err := New(ctx, NewBusTransport(conn), algorithm, opts...)
	if err != nil {
		conn.Close()
		return nil, err
	}
	svc.ownsTransport = true
	return svc, nil
}

// New opens a Session with algorithm over t
func New(ctx context.Context, t Transport, algorithm Algorithm, opts ...Option) (*Service, error) {
	o := options{logger: log.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	session, err := openSession(ctx, t, algorithm)
	if err != nil {
		return nil, err
	}

	s := &Service{
		transport: t,
		session:   session,
		prompts:   newPromptController(t, o.windowID, o.logger, o.debug),
		proxy:     newProxy(t, dbtypes.ServicePath, dbtypes.SecretServiceInterface),
		logger:    o.logger,
		debug:     o.debug,
	}
	s.debugf("opened %s session %s", algorithm, session.Handle())
	return s, nil
}

// Close closes the session and, for Connect-ed services, the connection
func (s *Service) Close(ctx context.Context) error {
	err := s.session.Close(ctx)
	if s.ownsTransport {
		if cerr := s.transport.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Session returns the negotiated session
func (s *Service) Session() *Session {
	return s.session
}

// Prompts returns the controller used for prompts
func (s *Service) Prompts() *PromptController {
	return s.prompts
}

// Collections lists every collection the daemon exposes
func (s *Service) Collections(ctx context.Context) ([]*Collection, error) {
	paths, err := s.proxy.getPaths(ctx, "Collections")
	if err != nil {
		return nil, err
	}
	collections := make([]*Collection, 0, len(paths))
	for _, path := range paths {
		collections = append(collections, newCollection(s, path))
	}
	return collections, nil
}

// CollectionByAlias resolves alias; an unknown alias is ErrNoResult
func (s *Service) CollectionByAlias(ctx context.Context, alias string) (*Collection, error) {
	var path dbus.ObjectPath
	if err := s.proxy.callStore(ctx, "ReadAlias", []interface{}{alias}, &path); err != nil {
		return nil, err
	}
	if dbtypes.IsNoPrompt(path) {
		return nil, fmt.Errorf("%w: alias %q", ErrNoResult, alias)
	}
	return newCollection(s, path), nil
}

// DefaultCollection returns the collection behind the "default" alias
func (s *Service) DefaultCollection(ctx context.Context) (*Collection, error) {
	return s.CollectionByAlias(ctx, dbtypes.DefaultAlias)
}

// AnyCollection tries the default collection, then the transient session
// collection, then the first collection listed.
func (s *Service) AnyCollection(ctx context.Context) (*Collection, error) {
	if c, err := s.DefaultCollection(ctx); err == nil {
		return c, nil
	}
	if c, err := s.CollectionByAlias(ctx, dbtypes.SessionAlias); err == nil {
		return c, nil
	}
	collections, err := s.Collections(ctx)
	if err != nil {
		return nil, err
	}
	if len(collections) == 0 {
		return nil, fmt.Errorf("%w: no collections", ErrNoResult)
	}
	return collections[0], nil
}

// CreateCollection creates a collection, resolving a prompt if the daemon
// asks for one. An empty alias sets none.
func (s *Service) CreateCollection(ctx context.Context, label, alias string) (*Collection, error) {
	properties := map[string]dbus.Variant{
		dbtypes.CollectionLabelProperty: dbus.MakeVariant(label),
	}

	var created, prompt dbus.ObjectPath
	if err := s.proxy.callStore(ctx, "CreateCollection", []interface{}{properties, alias}, &created, &prompt); err != nil {
		return nil, err
	}

	if dbtypes.IsNoPrompt(created) {
		result, err := s.prompts.Resolve(ctx, prompt)
		if err != nil {
			return nil, err
		}
		path, ok := result.Value().(dbus.ObjectPath)
		if !ok || dbtypes.IsNoPrompt(path) {
			return nil, parseError("created collection", result.Value())
		}
		created = path
	}

	s.debugf("created collection %s", created)
	return newCollection(s, created), nil
}

// SearchItems finds items in all collections whose attributes include
// every queried pair.
func (s *Service) SearchItems(ctx context.Context, attributes map[string]string) (SearchResult, error) {
	var unlocked, locked []dbus.ObjectPath
	if err := s.proxy.callStore(ctx, "SearchItems", []interface{}{copyAttributes(attributes)}, &unlocked, &locked); err != nil {
		return SearchResult{}, err
	}
	return SearchResult{
		Unlocked: s.items(unlocked),
		Locked:   s.items(locked),
	}, nil
}

// Unlock unlocks objects, showing a prompt if the daemon requires one
func (s *Service) Unlock(ctx context.Context, objects ...Object) error {
	return s.lockOrUnlock(ctx, "Unlock", objects)
}

// Lock locks objects, showing a prompt if the daemon requires one
func (s *Service) Lock(ctx context.Context, objects ...Object) error {
	return s.lockOrUnlock(ctx, "Lock", objects)
}

func (s *Service) lockOrUnlock(ctx context.Context, method string, objects []Object) error {
	paths := make([]dbus.ObjectPath, 0, len(objects))
	for _, o := range objects {
		paths = append(paths, o.Path())
	}

	var done []dbus.ObjectPath
	var prompt dbus.ObjectPath
	if err := s.proxy.callStore(ctx, method, []interface{}{paths}, &done, &prompt); err != nil {
		return err
	}
	if _, err := s.prompts.Resolve(ctx, prompt); err != nil {
		return err
	}
	s.debugf("%s: %d objects done without prompt", method, len(done))
	return nil
}

// SetAlias points alias at c; a nil collection removes the alias
func (s *Service) SetAlias(ctx context.Context, alias string, c *Collection) error {
	target := dbtypes.NoPrompt
	if c != nil {
		target = c.Path()
	}
	_, err := s.proxy.call(ctx, "SetAlias", alias, target)
	return err
}

// GetSecrets fetches and decrypts the secrets of several items in one call.
// Locked items are left out of the result by the daemon.
func (s *Service) GetSecrets(ctx context.Context, items []*Item) (map[dbus.ObjectPath][]byte, error) {
	paths := make([]dbus.ObjectPath, 0, len(items))
	for _, it := range items {
		paths = append(paths, it.Path())
	}

	var secrets map[dbus.ObjectPath]dbtypes.Secret
	if err := s.proxy.callStore(ctx, "GetSecrets", []interface{}{paths, s.session.Handle()}, &secrets); err != nil {
		return nil, err
	}

	out := make(map[dbus.ObjectPath][]byte, len(secrets))
	for path, secret := range secrets {
		plaintext, err := s.session.decodeSecret(secret)
		if err != nil {
			return nil, err
		}
		out[path] = plaintext
	}
	return out, nil
}

func (s *Service) items(paths []dbus.ObjectPath) []*Item {
	items := make([]*Item, 0, len(paths))
	for _, path := range paths {
		items = append(items, newItem(s, path))
	}
	return items
}

func (s *Service) debugf(format string, args ...interface{}) {
	if s.debug {
		s.logger.Printf(format, args...)
	}
}
