// Package daemontest runs an org.freedesktop.secrets daemon inside the test
// process. A Daemon answers method calls and delivers signals the way a bus
// connection would, so client code can be exercised without a session bus.
package daemontest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/nikicat/go-secret-service/internal/crypto"
	dbtypes "github.com/nikicat/go-secret-service/internal/dbus"
	"github.com/nikicat/go-secret-service/internal/store"
)

// PromptBehavior decides what the simulated user does with a prompt
type PromptBehavior int

const (
	// PromptAccept completes every prompt as soon as it is shown
	PromptAccept PromptBehavior = iota
	// PromptDismiss dismisses every prompt as soon as it is shown
	PromptDismiss
	// PromptHold leaves prompts open until Dismiss is called
	PromptHold
)

// Call is one recorded method call
type Call struct {
	Path   dbus.ObjectPath
	Method string
}

// Option configures a Daemon
type Option func(*Daemon)

// WithPromptBehavior sets how prompts are answered
func WithPromptBehavior(b PromptBehavior) Option {
	return func(d *Daemon) { d.behavior = b }
}

// PromptOnUnlock makes Unlock of a locked object go through a prompt
func PromptOnUnlock() Option {
	return func(d *Daemon) { d.promptUnlock = true }
}

// PromptOnCreate makes CreateCollection and CreateItem go through a prompt
func PromptOnCreate() Option {
	return func(d *Daemon) { d.promptCreate = true }
}

// PromptOnDelete makes Delete of collections and items go through a prompt
func PromptOnDelete() Option {
	return func(d *Daemon) { d.promptDelete = true }
}

// WithStraySignals emits unrelated signals ahead of every prompt completion
func WithStraySignals() Option {
	return func(d *Daemon) { d.stray = true }
}

// WithBrokenHandshake answers dh OpenSession with an invalid public value
func WithBrokenHandshake() Option {
	return func(d *Daemon) { d.brokenHandshake = true }
}

// WithStore replaces the backing store
func WithStore(s store.Store) Option {
	return func(d *Daemon) { d.store = s }
}

// Daemon is an in-process Secret Service. Its Call, Subscribe and Close
// methods have the shape of a client transport.
type Daemon struct {
	mu              sync.Mutex
	store           store.Store
	sessions        map[dbus.ObjectPath]crypto.Session
	prompts         map[dbus.ObjectPath]*Prompt
	subs            map[int]*subscription
	nextSub         int
	pending         []*dbus.Signal
	calls           []Call
	closed          bool
	behavior        PromptBehavior
	promptUnlock    bool
	promptCreate    bool
	promptDelete    bool
	stray           bool
	brokenHandshake bool
}

type subscription struct {
	ch   chan *dbus.Signal
	done chan struct{}
	once sync.Once
}

// New creates a daemon holding an unlocked "login" collection behind the
// default alias.
func New(opts ...Option) *Daemon {
	d := &Daemon{
		store:    store.NewMemoryStore(),
		sessions: make(map[dbus.ObjectPath]crypto.Session),
		prompts:  make(map[dbus.ObjectPath]*Prompt),
		subs:     make(map[int]*subscription),
	}
	for _, opt := range opts {
		opt(d)
	}

	if err := d.ensureDefaultCollection(); err != nil {
		panic(fmt.Sprintf("daemontest: %v", err))
	}
	return d
}

func (d *Daemon) ensureDefaultCollection() error {
	if _, err := d.store.GetAlias(dbtypes.DefaultAlias); err == nil {
		return nil
	}
	if _, err := d.store.GetCollection("login"); err != nil {
		if err := d.store.CreateCollection("login", "Login"); err != nil {
			return err
		}
	}
	return d.store.SetAlias(dbtypes.DefaultAlias, "login")
}

// Call dispatches method ("interface.Member") on path
func (d *Daemon) Call(ctx context.Context, path dbus.ObjectPath, method string, args ...interface{}) ([]interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, dbus.ErrClosed
	}
	d.calls = append(d.calls, Call{Path: path, Method: method})
	body, derr := d.dispatch(path, method, args)
	signals := d.pending
	d.pending = nil
	subs := d.subscribers()
	d.mu.Unlock()

	deliver(subs, signals)
	if derr != nil {
		return nil, derr
	}
	return body, nil
}

func (d *Daemon) dispatch(path dbus.ObjectPath, method string, args []interface{}) ([]interface{}, *dbus.Error) {
	dot := strings.LastIndex(method, ".")
	if dot < 0 {
		return nil, ErrUnknownMethod(fmt.Sprintf("malformed method %q", method))
	}
	iface, member := method[:dot], method[dot+1:]

	if iface == dbtypes.PropertiesInterface {
		return d.properties(path, member, args)
	}

	switch {
	case path == dbtypes.ServicePath:
		return d.service(iface, member, args)
	case strings.HasPrefix(string(path), dbtypes.SessionBasePath+"/"):
		return d.session(path, iface, member)
	case strings.HasPrefix(string(path), dbtypes.PromptBasePath+"/"):
		return d.prompt(path, iface, member, args)
	case dbtypes.IsItemPath(path):
		return d.item(path, iface, member, args)
	}

	if name, ok := d.collectionName(path); ok {
		return d.collection(name, iface, member, args)
	}
	return nil, dbtypes.NewError(dbtypes.ErrUnknownObject, fmt.Sprintf("no object at %s", path))
}

// collectionName resolves a collection or alias path to a collection name
func (d *Daemon) collectionName(path dbus.ObjectPath) (string, bool) {
	var name string
	if dbtypes.IsCollectionPath(path) {
		name, _ = dbtypes.ParseCollectionPath(path)
	} else if alias, err := dbtypes.ParseAliasPath(path); err == nil {
		target, err := d.store.GetAlias(alias)
		if err != nil {
			return "", false
		}
		name = target
	} else {
		return "", false
	}
	if _, err := d.store.GetCollection(name); err != nil {
		return "", false
	}
	return name, true
}

// Subscribe delivers every signal the daemon emits to the returned channel,
// like a bus connection does. Callers filter by path and name.
func (d *Daemon) Subscribe(ctx context.Context, path dbus.ObjectPath, iface, member string) (<-chan *dbus.Signal, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, nil, dbus.ErrClosed
	}
	d.nextSub++
	id := d.nextSub
	sub := &subscription{
		ch:   make(chan *dbus.Signal, 16),
		done: make(chan struct{}),
	}
	d.subs[id] = sub

	cancel := func() {
		d.mu.Lock()
		delete(d.subs, id)
		d.mu.Unlock()
		sub.once.Do(func() { close(sub.done) })
	}
	return sub.ch, cancel, nil
}

// Close stops the daemon. Later calls fail with dbus.ErrClosed.
func (d *Daemon) Close() error {
	d.mu.Lock()
	d.closed = true
	subs := d.subs
	d.subs = make(map[int]*subscription)
	for _, s := range d.sessions {
		s.Close()
	}
	d.sessions = make(map[dbus.ObjectPath]crypto.Session)
	d.mu.Unlock()

	for _, sub := range subs {
		sub.once.Do(func() { close(sub.done) })
	}
	return nil
}

func (d *Daemon) emit(path dbus.ObjectPath, name string, body ...interface{}) {
	d.pending = append(d.pending, &dbus.Signal{
		Sender: dbtypes.ServiceName,
		Path:   path,
		Name:   name,
		Body:   body,
	})
}

func (d *Daemon) subscribers() []*subscription {
	subs := make([]*subscription, 0, len(d.subs))
	for _, s := range d.subs {
		subs = append(subs, s)
	}
	return subs
}

// deliver sends signals in order to each subscriber without blocking the caller
func deliver(subs []*subscription, signals []*dbus.Signal) {
	if len(signals) == 0 {
		return
	}
	for _, sub := range subs {
		go func(sub *subscription) {
			for _, sig := range signals {
				select {
				case sub.ch <- sig:
				case <-sub.done:
					return
				}
			}
		}(sub)
	}
}

// Calls returns the recorded method calls in order
func (d *Daemon) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Call(nil), d.calls...)
}

// CallCount counts recorded calls of method ("interface.Member")
func (d *Daemon) CallCount(method string) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := 0
	for _, c := range d.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Sessions returns the paths of open sessions, sorted
func (d *Daemon) Sessions() []dbus.ObjectPath {
	d.mu.Lock()
	defer d.mu.Unlock()

	paths := make([]dbus.ObjectPath, 0, len(d.sessions))
	for p := range d.sessions {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i] < paths[j] })
	return paths
}

// Subscriptions returns the number of active signal subscriptions
func (d *Daemon) Subscriptions() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.subs)
}

// Store returns the backing store
func (d *Daemon) Store() store.Store {
	return d.store
}

func arg[T any](args []interface{}, i int) (T, *dbus.Error) {
	var zero T
	if i >= len(args) {
		return zero, ErrInvalidArgs(fmt.Sprintf("missing argument %d", i))
	}
	v, ok := args[i].(T)
	if !ok {
		return zero, ErrInvalidArgs(fmt.Sprintf("argument %d: unexpected type %T", i, args[i]))
	}
	return v, nil
}

func sortPaths(paths []dbus.ObjectPath) []dbus.ObjectPath {
	sort.Slice(paths, func(i, j int) bool { return paths[i] < paths[j] })
	return paths
}
