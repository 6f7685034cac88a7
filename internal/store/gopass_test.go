package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/gopasspw/gopass/pkg/gopass"
	"github.com/gopasspw/gopass/pkg/gopass/secrets"
)

type fakeReader map[string]gopass.Secret

func (f fakeReader) List(ctx context.Context) ([]string, error) {
	paths := make([]string, 0, len(f))
	for p := range f {
		paths = append(paths, p)
	}
	return paths, nil
}

func (f fakeReader) Get(ctx context.Context, name, revision string) (gopass.Secret, error) {
	sec, ok := f[name]
	if !ok {
		return nil, fmt.Errorf("not found: %s", name)
	}
	return sec, nil
}

func newSecret(password string, kv ...string) gopass.Secret {
	sec := secrets.New()
	sec.SetPassword(password)
	for i := 0; i+1 < len(kv); i += 2 {
		_ = sec.Set(kv[i], kv[i+1])
	}
	return sec
}

func TestDecodeItem(t *testing.T) {
	sec := newSecret("hunter2",
		labelKey, "Mail password",
		contentTypeKey, "application/octet-stream",
		createdKey, "2024-01-02T03:04:05Z",
		"service", "mail",
		"_ss_internal", "skip",
	)

	item := DecodeItem("abc", sec)
	if string(item.Secret) != "hunter2" {
		t.Errorf("Secret = %q", item.Secret)
	}
	if item.Label != "Mail password" {
		t.Errorf("Label = %q", item.Label)
	}
	if item.ContentType != "application/octet-stream" {
		t.Errorf("ContentType = %q", item.ContentType)
	}
	if item.Created.Year() != 2024 {
		t.Errorf("Created = %v", item.Created)
	}
	if len(item.Attributes) != 1 || item.Attributes["service"] != "mail" {
		t.Errorf("Attributes = %v", item.Attributes)
	}
}

func TestDecodeItemDefaults(t *testing.T) {
	item := DecodeItem("plain-entry", newSecret("pw"))
	if item.Label != "plain-entry" {
		t.Errorf("Label = %q, expected the id", item.Label)
	}
	if item.ContentType != defaultMimeType {
		t.Errorf("ContentType = %q", item.ContentType)
	}
}

func TestGopassSourceEntries(t *testing.T) {
	reader := fakeReader{
		"secret-service/_aliases":        newSecret("aliases", "default", "login"),
		"secret-service/login/_meta":     newSecret("collection-metadata", collLabelKey, "Login"),
		"secret-service/login/a1":        newSecret("one", labelKey, "first"),
		"secret-service/login/a2":        newSecret("two", labelKey, "second"),
		"secret-service/work/b1":         newSecret("three"),
		"secret-service/work/nested/dir": newSecret("skipped"),
		"personal/bank":                  newSecret("outside prefix"),
	}

	src := NewGopassSource(reader, "secret-service")
	entries, err := src.Entries(context.Background())
	if err != nil {
		t.Fatalf("Entries failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, expected 3", len(entries))
	}

	first := entries[0]
	if first.Path != "secret-service/login/a1" || first.Collection != "login" {
		t.Errorf("first entry = %s in %s", first.Path, first.Collection)
	}
	if first.CollectionLabel != "Login" {
		t.Errorf("CollectionLabel = %q, expected Login", first.CollectionLabel)
	}
	if string(first.Item.Secret) != "one" || first.Item.Label != "first" {
		t.Errorf("first item = %q %q", first.Item.Label, first.Item.Secret)
	}
	if entries[2].CollectionLabel != "work" {
		t.Errorf("collection without metadata should use its name, got %q", entries[2].CollectionLabel)
	}

	if err := src.Close(context.Background()); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
