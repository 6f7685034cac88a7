// Package store holds secret records and the backends that keep them: an
// in-memory Store for the test daemon and a read-only gopass Source for
// importing entries written by gopass-secret-service.
package store

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned for a missing collection, item or alias
	ErrNotFound = errors.New("not found")

	// ErrExists is returned when creating something that is already there
	ErrExists = errors.New("already exists")
)

// Item is one stored secret with its lookup attributes
type Item struct {
	ID          string
	Label       string
	Secret      []byte
	ContentType string
	Attributes  map[string]string

	Created  time.Time
	Modified time.Time
}

// Collection is the metadata of a named group of items
type Collection struct {
	// Name is the path element, Label what users see
	Name  string
	Label string

	Created  time.Time
	Modified time.Time

	Locked bool
}

// Store keeps collections, their items and the alias table.
// Returned records are copies.
type Store interface {
	Collections() ([]string, error)
	GetCollection(name string) (*Collection, error)
	CreateCollection(name, label string) error
	// DeleteCollection drops the items and any alias pointing at it
	DeleteCollection(name string) error
	SetCollectionLabel(name, label string) error
	SetLocked(name string, locked bool) error

	// Items returns item IDs, sorted
	Items(collection string) ([]string, error)
	GetItem(collection, id string) (*Item, error)
	// CreateItem assigns an ID unless item.ID is set and returns it
	CreateItem(collection string, item *Item) (string, error)
	// UpdateItem keeps the ID and creation time of the stored item
	UpdateItem(collection, id string, item *Item) error
	DeleteItem(collection, id string) error

	// SearchItems returns the items of collection carrying every pair
	SearchItems(collection string, attributes map[string]string) ([]*Item, error)
	// SearchAllItems does the same across collections, keyed by name
	SearchAllItems(attributes map[string]string) (map[string][]*Item, error)

	GetAlias(alias string) (string, error)
	// SetAlias with an empty collection removes the alias
	SetAlias(alias, collection string) error
}

// MatchesAttributes reports whether item carries every pair in attrs
func MatchesAttributes(item *Item, attrs map[string]string) bool {
	for k, v := range attrs {
		if got, ok := item.Attributes[k]; !ok || got != v {
			return false
		}
	}
	return true
}

// SameAttributes reports whether a and b hold exactly the same pairs
func SameAttributes(a, b map[string]string) bool {
	return len(a) == len(b) && MatchesAttributes(&Item{Attributes: b}, a)
}
