package dbus

import (
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"
)

// CollectionPath returns the D-Bus object path for a collection
func CollectionPath(name string) dbus.ObjectPath {
	return dbus.ObjectPath(fmt.Sprintf("%s/%s", CollectionBasePath, name))
}

// ItemPath returns the D-Bus object path for an item
func ItemPath(collection, itemID string) dbus.ObjectPath {
	return dbus.ObjectPath(fmt.Sprintf("%s/%s/%s", CollectionBasePath, collection, itemID))
}

// SessionPath returns the D-Bus object path for a session
func SessionPath(id string) dbus.ObjectPath {
	return dbus.ObjectPath(fmt.Sprintf("%s/%s", SessionBasePath, id))
}

// PromptPath returns the D-Bus object path for a prompt
func PromptPath(id string) dbus.ObjectPath {
	return dbus.ObjectPath(fmt.Sprintf("%s/%s", PromptBasePath, id))
}

// AliasPath returns the D-Bus object path for a collection alias
func AliasPath(alias string) dbus.ObjectPath {
	return dbus.ObjectPath(fmt.Sprintf("%s/%s", AliasBasePath, alias))
}

// IsNoPrompt reports whether path is the "/" placeholder
func IsNoPrompt(path dbus.ObjectPath) bool {
	return path == NoPrompt || path == ""
}

// ParseCollectionPath extracts the collection name from a D-Bus path
func ParseCollectionPath(path dbus.ObjectPath) (string, error) {
	rest, ok := strings.CutPrefix(string(path), CollectionBasePath+"/")
	if !ok || rest == "" {
		return "", fmt.Errorf("invalid collection path: %s", path)
	}
	name, _, _ := strings.Cut(rest, "/")
	return name, nil
}

// ParseItemPath extracts the collection name and item ID from a D-Bus path
func ParseItemPath(path dbus.ObjectPath) (collection, itemID string, err error) {
	rest, ok := strings.CutPrefix(string(path), CollectionBasePath+"/")
	if !ok {
		return "", "", fmt.Errorf("invalid item path: %s", path)
	}
	collection, itemID, ok = strings.Cut(rest, "/")
	if !ok || collection == "" || itemID == "" || strings.Contains(itemID, "/") {
		return "", "", fmt.Errorf("invalid item path: %s", path)
	}
	return collection, itemID, nil
}

// ParseAliasPath extracts the alias name from a D-Bus path
func ParseAliasPath(path dbus.ObjectPath) (string, error) {
	alias, ok := strings.CutPrefix(string(path), AliasBasePath+"/")
	if !ok || alias == "" {
		return "", fmt.Errorf("invalid alias path: %s", path)
	}
	return alias, nil
}

// IsCollectionPath checks if the path is a valid collection path
func IsCollectionPath(path dbus.ObjectPath) bool {
	rest, ok := strings.CutPrefix(string(path), CollectionBasePath+"/")
	return ok && rest != "" && !strings.Contains(rest, "/")
}

// IsItemPath checks if the path is a valid item path
func IsItemPath(path dbus.ObjectPath) bool {
	_, _, err := ParseItemPath(path)
	return err == nil
}

// SanitizeName makes name usable as a single object path element.
// D-Bus path elements only allow [A-Za-z0-9_].
func SanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "collection"
	}
	return b.String()
}
