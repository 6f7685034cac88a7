package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gopasspw/gopass/pkg/gopass"
	"github.com/gopasspw/gopass/pkg/gopass/secrets"

	"github.com/nikicat/go-secret-service/internal/daemontest"
	"github.com/nikicat/go-secret-service/internal/store"
	"github.com/nikicat/go-secret-service/pkg/secretservice"
)

type testApp struct {
	*app
	daemon *daemontest.Daemon
}

func newTestApp(t *testing.T, opts ...daemontest.Option) *testApp {
	t.Helper()
	t.Setenv("SECRET_SERVICE_CLIENT_CONFIG", filepath.Join(t.TempDir(), "none.yaml"))

	d := daemontest.New(opts...)
	a := &app{
		dial: func(ctx context.Context, algorithm secretservice.Algorithm, opts ...secretservice.Option) (*secretservice.Service, error) {
			return secretservice.New(ctx, d, algorithm, opts...)
		},
		openSource: func(ctx context.Context, prefix string) (entrySource, error) {
			return nil, errors.New("no gopass in tests")
		},
	}
	return &testApp{app: a, daemon: d}
}

func (ta *testApp) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(ta.app)
	var out, errOut bytes.Buffer
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestStoreLookupClear(t *testing.T) {
	for _, alg := range []string{"plain", "dh"} {
		t.Run(alg, func(t *testing.T) {
			ta := newTestApp(t)

			if _, err := ta.run(t, "hunter2\n", "-a", alg, "store", "--label", "Mail", "service", "mail", "user", "bob"); err != nil {
				t.Fatalf("store failed: %v", err)
			}

			out, err := ta.run(t, "", "-a", alg, "lookup", "service", "mail")
			if err != nil {
				t.Fatalf("lookup failed: %v", err)
			}
			if out != "hunter2" {
				t.Errorf("lookup = %q, expected hunter2", out)
			}

			// Storing again under the same attributes replaces the secret
			if _, err := ta.run(t, "rotated", "-a", alg, "store", "-l", "Mail", "service", "mail", "user", "bob"); err != nil {
				t.Fatalf("store failed: %v", err)
			}
			out, _ = ta.run(t, "", "-a", alg, "lookup", "service", "mail", "user", "bob")
			if out != "rotated" {
				t.Errorf("lookup after replace = %q", out)
			}

			if _, err := ta.run(t, "", "-a", alg, "clear", "service", "mail"); err != nil {
				t.Fatalf("clear failed: %v", err)
			}
			if _, err := ta.run(t, "", "-a", alg, "lookup", "service", "mail"); !errors.Is(err, secretservice.ErrNoResult) {
				t.Errorf("lookup after clear = %v, expected ErrNoResult", err)
			}
		})
	}
}

func TestSearch(t *testing.T) {
	ta := newTestApp(t)
	for i, user := range []string{"alice", "bob"} {
		secret := fmt.Sprintf("pw%d", i)
		if _, err := ta.run(t, secret, "store", "--label", user, "service", "mail", "user", user); err != nil {
			t.Fatalf("store failed: %v", err)
		}
	}

	out, err := ta.run(t, "", "search", "--all", "service", "mail")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	for _, want := range []string{"label = alice", "label = bob", "attribute.user = bob", "secret = pw1"} {
		if !strings.Contains(out, want) {
			t.Errorf("search output missing %q:\n%s", want, out)
		}
	}

	out, err = ta.run(t, "", "search", "service", "mail")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if n := strings.Count(out, "label = "); n != 1 {
		t.Errorf("search without --all printed %d items", n)
	}
}

func TestLockUnlockCollections(t *testing.T) {
	ta := newTestApp(t, daemontest.PromptOnUnlock())

	if _, err := ta.run(t, "", "lock"); err != nil {
		t.Fatalf("lock failed: %v", err)
	}
	out, err := ta.run(t, "", "collections")
	if err != nil {
		t.Fatalf("collections failed: %v", err)
	}
	if !strings.Contains(out, "\tlocked\tLogin") {
		t.Errorf("collections = %q", out)
	}

	if _, err := ta.run(t, "", "unlock"); err != nil {
		t.Fatalf("unlock failed: %v", err)
	}
	out, _ = ta.run(t, "", "collections")
	if !strings.Contains(out, "\tunlocked\tLogin") {
		t.Errorf("collections after unlock = %q", out)
	}
}

func TestUnlockDismissed(t *testing.T) {
	ta := newTestApp(t, daemontest.PromptOnUnlock(), daemontest.WithPromptBehavior(daemontest.PromptDismiss))

	if _, err := ta.run(t, "", "lock"); err != nil {
		t.Fatalf("lock failed: %v", err)
	}
	if _, err := ta.run(t, "pw", "store", "-l", "x", "k", "v"); !errors.Is(err, secretservice.ErrPromptDismissed) {
		t.Errorf("store into locked collection = %v, expected ErrPromptDismissed", err)
	}
}

func TestAttributeErrors(t *testing.T) {
	ta := newTestApp(t)

	if _, err := ta.run(t, "", "lookup", "service", "mail", "user"); err == nil {
		t.Error("expected an error for an odd number of arguments")
	}
	if _, err := ta.run(t, "", "lookup", "k", "1", "k", "2"); !errors.Is(err, secretservice.ErrDuplicateAttribute) {
		t.Errorf("conflicting attributes = %v", err)
	}
	if _, err := ta.run(t, "", "-a", "rot13", "collections"); err == nil {
		t.Error("expected an error for an unknown algorithm")
	}
}

func gopassSecret(password string, kv ...string) gopass.Secret {
	sec := secrets.New()
	sec.SetPassword(password)
	for i := 0; i+1 < len(kv); i += 2 {
		_ = sec.Set(kv[i], kv[i+1])
	}
	return sec
}

type fakeGopass map[string]gopass.Secret

func (f fakeGopass) List(ctx context.Context) ([]string, error) {
	paths := make([]string, 0, len(f))
	for p := range f {
		paths = append(paths, p)
	}
	return paths, nil
}

func (f fakeGopass) Get(ctx context.Context, name, revision string) (gopass.Secret, error) {
	if sec, ok := f[name]; ok {
		return sec, nil
	}
	return nil, fmt.Errorf("not found: %s", name)
}

func TestImport(t *testing.T) {
	ta := newTestApp(t)
	reader := fakeGopass{
		"secret-service/login/a1": gopassSecret("one", "_ss_label", "First", "service", "mail"),
		"secret-service/login/a2": gopassSecret("two"),
	}
	ta.openSource = func(ctx context.Context, prefix string) (entrySource, error) {
		return store.NewGopassSource(reader, prefix), nil
	}

	out, err := ta.run(t, "", "import", "--dry-run")
	if err != nil {
		t.Fatalf("import --dry-run failed: %v", err)
	}
	if !strings.Contains(out, "secret-service/login/a1\tFirst") {
		t.Errorf("dry run output = %q", out)
	}
	if _, err := ta.run(t, "", "lookup", "service", "mail"); err == nil {
		t.Error("dry run must not import")
	}

	out, err = ta.run(t, "", "import")
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if !strings.Contains(out, "imported 2 secrets") {
		t.Errorf("import output = %q", out)
	}

	got, err := ta.run(t, "", "lookup", "service", "mail")
	if err != nil || got != "one" {
		t.Errorf("lookup = %q, %v", got, err)
	}
	got, err = ta.run(t, "", "lookup", gopassPathAttribute, "secret-service/login/a2")
	if err != nil || got != "two" {
		t.Errorf("lookup by gopass path = %q, %v", got, err)
	}

	// Importing again replaces instead of duplicating
	if _, err := ta.run(t, "", "import"); err != nil {
		t.Fatalf("second import failed: %v", err)
	}
	ids, err := ta.daemon.Store().Items("login")
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 {
		t.Errorf("store holds %d items after re-import, expected 2", len(ids))
	}
}
