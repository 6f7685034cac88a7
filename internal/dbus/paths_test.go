package dbus

import (
	"testing"

	"github.com/godbus/dbus/v5"
)

func TestPathBuilders(t *testing.T) {
	tests := []struct {
		name     string
		path     dbus.ObjectPath
		expected dbus.ObjectPath
	}{
		{"collection", CollectionPath("default"), "/org/freedesktop/secrets/collection/default"},
		{"item", ItemPath("login", "i123"), "/org/freedesktop/secrets/collection/login/i123"},
		{"session", SessionPath("s1"), "/org/freedesktop/secrets/session/s1"},
		{"prompt", PromptPath("p456"), "/org/freedesktop/secrets/prompt/p456"},
		{"alias", AliasPath("default"), "/org/freedesktop/secrets/aliases/default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.path != tc.expected {
				t.Errorf("Expected %s, got %s", tc.expected, tc.path)
			}
			if !tc.path.IsValid() {
				t.Errorf("Path %s is not a valid object path", tc.path)
			}
		})
	}
}

func TestIsNoPrompt(t *testing.T) {
	if !IsNoPrompt("/") {
		t.Error("Expected / to mean no prompt")
	}
	if !IsNoPrompt("") {
		t.Error("Expected empty path to mean no prompt")
	}
	if IsNoPrompt(PromptPath("p1")) {
		t.Error("Expected prompt path to need a prompt")
	}
}

func TestParseCollectionPath(t *testing.T) {
	tests := []struct {
		path     dbus.ObjectPath
		expected string
		hasError bool
	}{
		{"/org/freedesktop/secrets/collection/default", "default", false},
		{"/org/freedesktop/secrets/collection/login", "login", false},
		{"/org/freedesktop/secrets/collection/login/i1", "login", false},
		{"/org/freedesktop/secrets/collection/", "", true},
		{"/org/freedesktop/secrets/session/123", "", true},
		{"/invalid/path", "", true},
	}

	for _, tc := range tests {
		t.Run(string(tc.path), func(t *testing.T) {
			result, err := ParseCollectionPath(tc.path)
			if tc.hasError {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
			if result != tc.expected {
				t.Errorf("Expected %s, got %s", tc.expected, result)
			}
		})
	}
}

func TestParseItemPath(t *testing.T) {
	tests := []struct {
		path       dbus.ObjectPath
		collection string
		itemID     string
		hasError   bool
	}{
		{"/org/freedesktop/secrets/collection/default/abc123", "default", "abc123", false},
		{"/org/freedesktop/secrets/collection/login/item456", "login", "item456", false},
		{"/org/freedesktop/secrets/collection/default", "", "", true},
		{"/org/freedesktop/secrets/collection/default/a/b", "", "", true},
		{"/invalid/path", "", "", true},
	}

	for _, tc := range tests {
		t.Run(string(tc.path), func(t *testing.T) {
			coll, item, err := ParseItemPath(tc.path)
			if tc.hasError {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
			if coll != tc.collection {
				t.Errorf("Expected collection %s, got %s", tc.collection, coll)
			}
			if item != tc.itemID {
				t.Errorf("Expected itemID %s, got %s", tc.itemID, item)
			}
		})
	}
}

func TestParseAliasPath(t *testing.T) {
	alias, err := ParseAliasPath("/org/freedesktop/secrets/aliases/default")
	if err != nil {
		t.Fatalf("ParseAliasPath failed: %v", err)
	}
	if alias != "default" {
		t.Errorf("Expected default, got %s", alias)
	}

	if _, err := ParseAliasPath("/org/freedesktop/secrets/collection/default"); err == nil {
		t.Error("Expected error for collection path")
	}
}

func TestIsCollectionPath(t *testing.T) {
	tests := []struct {
		path     dbus.ObjectPath
		expected bool
	}{
		{"/org/freedesktop/secrets/collection/default", true},
		{"/org/freedesktop/secrets/collection/login", true},
		{"/org/freedesktop/secrets/collection/default/item", false},
		{"/org/freedesktop/secrets/session/123", false},
		{"/org/freedesktop/secrets", false},
	}

	for _, tc := range tests {
		t.Run(string(tc.path), func(t *testing.T) {
			result := IsCollectionPath(tc.path)
			if result != tc.expected {
				t.Errorf("IsCollectionPath(%s) = %v, expected %v", tc.path, result, tc.expected)
			}
		})
	}
}

func TestIsItemPath(t *testing.T) {
	tests := []struct {
		path     dbus.ObjectPath
		expected bool
	}{
		{"/org/freedesktop/secrets/collection/default/item", true},
		{"/org/freedesktop/secrets/collection/login/abc123", true},
		{"/org/freedesktop/secrets/collection/default", false},
		{"/org/freedesktop/secrets/session/123", false},
		{"/org/freedesktop/secrets", false},
	}

	for _, tc := range tests {
		t.Run(string(tc.path), func(t *testing.T) {
			result := IsItemPath(tc.path)
			if result != tc.expected {
				t.Errorf("IsItemPath(%s) = %v, expected %v", tc.path, result, tc.expected)
			}
		})
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in, out string
	}{
		{"Test", "Test"},
		{"my collection", "my_collection"},
		{"a/b-c", "a_b_c"},
		{"", "collection"},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if got := SanitizeName(tc.in); got != tc.out {
				t.Errorf("SanitizeName(%q) = %q, expected %q", tc.in, got, tc.out)
			}
		})
	}
}
