package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gopasspw/gopass/pkg/gopass"
	"github.com/gopasspw/gopass/pkg/gopass/api"
)

// Keys gopass-secret-service writes next to the password
const (
	metaPrefix      = "_ss_"
	labelKey        = "_ss_label"
	createdKey      = "_ss_created"
	modifiedKey     = "_ss_modified"
	contentTypeKey  = "_ss_content_type"
	collLabelKey    = "_ss_coll_label"
	defaultMimeType = "text/plain"
)

// Reader is the part of gopass.Store an import needs
type Reader interface {
	List(ctx context.Context) ([]string, error)
	Get(ctx context.Context, name, revision string) (gopass.Secret, error)
}

// Entry is one importable gopass secret
type Entry struct {
	// Collection is the collection directory the entry lives in
	Collection string

	// CollectionLabel comes from the collection's _meta entry, if any
	CollectionLabel string

	// Path is the full gopass path
	Path string

	Item *Item
}

// GopassSource reads secrets from a gopass store. It never writes.
type GopassSource struct {
	reader Reader
	mapper *Mapper
	close  func(context.Context) error
}

// OpenGopass opens the user's gopass store
func OpenGopass(ctx context.Context, prefix string) (*GopassSource, error) {
	gp, err := api.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gopass: %w", err)
	}
	src := NewGopassSource(gp, prefix)
	src.close = gp.Close
	return src, nil
}

// NewGopassSource reads entries under prefix from r
func NewGopassSource(r Reader, prefix string) *GopassSource {
	return &GopassSource{reader: r, mapper: NewMapper(prefix)}
}

// Entries returns every item under the prefix, ordered by path. Collection
// metadata and the alias table are not items and are skipped; their labels
// are attached to the entries instead.
func (s *GopassSource) Entries(ctx context.Context) ([]*Entry, error) {
	allPaths, err := s.reader.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list gopass store: %w", err)
	}
	sort.Strings(allPaths)

	labels := make(map[string]string)
	var entries []*Entry
	for _, p := range allPaths {
		kind, collection, id := s.mapper.Classify(p)
		if kind == KindCollectionMeta {
			if label, err := s.collectionLabel(ctx, p); err == nil {
				labels[collection] = label
			}
			continue
		}
		if kind != KindItem {
			continue
		}

		sec, err := s.reader.Get(ctx, p, "latest")
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		entries = append(entries, &Entry{
			Collection: collection,
			Path:       p,
			Item:       DecodeItem(id, sec),
		})
	}

	for _, e := range entries {
		e.CollectionLabel = labels[e.Collection]
		if e.CollectionLabel == "" {
			e.CollectionLabel = e.Collection
		}
	}
	return entries, nil
}

func (s *GopassSource) collectionLabel(ctx context.Context, metaPath string) (string, error) {
	sec, err := s.reader.Get(ctx, metaPath, "latest")
	if err != nil {
		return "", err
	}
	label, ok := sec.Get(collLabelKey)
	if !ok {
		return "", fmt.Errorf("no label in %s", metaPath)
	}
	return label, nil
}

// Close releases the gopass store
func (s *GopassSource) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// DecodeItem turns a gopass secret into an item. The password is the
// secret value; keys without the _ss_ prefix are lookup attributes.
func DecodeItem(id string, sec gopass.Secret) *Item {
	item := &Item{
		ID:          id,
		Label:       id,
		Secret:      []byte(sec.Password()),
		ContentType: defaultMimeType,
		Attributes:  make(map[string]string),
	}

	for _, key := range sec.Keys() {
		val, ok := sec.Get(key)
		if !ok {
			continue
		}

		switch key {
		case labelKey:
			item.Label = val
		case createdKey:
			if ts, err := time.Parse(time.RFC3339, val); err == nil {
				item.Created = ts
			}
		case modifiedKey:
			if ts, err := time.Parse(time.RFC3339, val); err == nil {
				item.Modified = ts
			}
		case contentTypeKey:
			item.ContentType = val
		default:
			if !strings.HasPrefix(key, metaPrefix) {
				item.Attributes[key] = val
			}
		}
	}

	return item
}
