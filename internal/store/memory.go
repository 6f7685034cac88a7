package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore implements Store in process memory
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
	aliases     map[string]string
	now         func() time.Time
}

type memCollection struct {
	meta  Collection
	items map[string]*Item
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]*memCollection),
		aliases:     make(map[string]string),
		now:         time.Now,
	}
}

// NewItemID returns a fresh id usable as an object path element
func NewItemID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// lookup must be called with mu held
func (s *MemoryStore) lookup(name string) (*memCollection, error) {
	c, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("collection %s: %w", name, ErrNotFound)
	}
	return c, nil
}

func (c *memCollection) item(id string) (*Item, error) {
	it, ok := c.items[id]
	if !ok {
		return nil, fmt.Errorf("item %s/%s: %w", c.meta.Name, id, ErrNotFound)
	}
	return it, nil
}

// Collections returns all collection names, sorted
func (s *MemoryStore) Collections() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemoryStore) GetCollection(name string) (*Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	meta := c.meta
	return &meta, nil
}

// CreateCollection creates a new unlocked collection
func (s *MemoryStore) CreateCollection(name, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[name]; ok {
		return fmt.Errorf("collection %s: %w", name, ErrExists)
	}
	now := s.now()
	s.collections[name] = &memCollection{
		meta:  Collection{Name: name, Label: label, Created: now, Modified: now},
		items: make(map[string]*Item),
	}
	return nil
}

func (s *MemoryStore) DeleteCollection(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.lookup(name); err != nil {
		return err
	}
	delete(s.collections, name)
	for alias, target := range s.aliases {
		if target == name {
			delete(s.aliases, alias)
		}
	}
	return nil
}

func (s *MemoryStore) SetCollectionLabel(name, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.lookup(name)
	if err != nil {
		return err
	}
	c.meta.Label = label
	c.meta.Modified = s.now()
	return nil
}

func (s *MemoryStore) SetLocked(name string, locked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.lookup(name)
	if err != nil {
		return err
	}
	c.meta.Locked = locked
	return nil
}

func (s *MemoryStore) Items(collection string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, err := s.lookup(collection)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(c.items))
	for id := range c.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *MemoryStore) GetItem(collection, id string) (*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, err := s.lookup(collection)
	if err != nil {
		return nil, err
	}
	it, err := c.item(id)
	if err != nil {
		return nil, err
	}
	return cloneItem(it), nil
}

func (s *MemoryStore) CreateItem(collection string, item *Item) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.lookup(collection)
	if err != nil {
		return "", err
	}

	stored := cloneItem(item)
	if stored.ID == "" {
		stored.ID = NewItemID()
	}
	if _, exists := c.items[stored.ID]; exists {
		return "", fmt.Errorf("item %s/%s: %w", collection, stored.ID, ErrExists)
	}
	now := s.now()
	stored.Created, stored.Modified = now, now
	c.items[stored.ID] = stored
	c.meta.Modified = now
	return stored.ID, nil
}

func (s *MemoryStore) UpdateItem(collection, id string, item *Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.lookup(collection)
	if err != nil {
		return err
	}
	existing, err := c.item(id)
	if err != nil {
		return err
	}

	updated := cloneItem(item)
	updated.ID = id
	updated.Created = existing.Created
	updated.Modified = s.now()
	c.items[id] = updated
	c.meta.Modified = updated.Modified
	return nil
}

func (s *MemoryStore) DeleteItem(collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.lookup(collection)
	if err != nil {
		return err
	}
	if _, err := c.item(id); err != nil {
		return err
	}
	delete(c.items, id)
	c.meta.Modified = s.now()
	return nil
}

func (s *MemoryStore) SearchItems(collection string, attributes map[string]string) ([]*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, err := s.lookup(collection)
	if err != nil {
		return nil, err
	}
	return c.search(attributes), nil
}

func (s *MemoryStore) SearchAllItems(attributes map[string]string) (map[string][]*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make(map[string][]*Item)
	for name, c := range s.collections {
		if found := c.search(attributes); len(found) > 0 {
			results[name] = found
		}
	}
	return results, nil
}

// search returns copies ordered by ID
func (c *memCollection) search(attributes map[string]string) []*Item {
	var found []*Item
	for _, it := range c.items {
		if MatchesAttributes(it, attributes) {
			found = append(found, cloneItem(it))
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].ID < found[j].ID })
	return found
}

func (s *MemoryStore) GetAlias(alias string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	name, ok := s.aliases[alias]
	if !ok {
		return "", fmt.Errorf("alias %s: %w", alias, ErrNotFound)
	}
	return name, nil
}

func (s *MemoryStore) SetAlias(alias, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if collection == "" {
		delete(s.aliases, alias)
		return nil
	}
	if _, err := s.lookup(collection); err != nil {
		return err
	}
	s.aliases[alias] = collection
	return nil
}

func cloneItem(item *Item) *Item {
	out := *item
	out.Secret = append([]byte(nil), item.Secret...)
	out.Attributes = make(map[string]string, len(item.Attributes))
	for k, v := range item.Attributes {
		out.Attributes[k] = v
	}
	return &out
}
