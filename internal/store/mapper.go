package store

import (
	"strings"
)

// Kind classifies a gopass path written by gopass-secret-service
type Kind int

const (
	// KindOther is outside the prefix, nested, or internal
	KindOther Kind = iota
	// KindItem is <prefix>/<collection>/<id>
	KindItem
	// KindCollectionMeta is <prefix>/<collection>/_meta
	KindCollectionMeta
	// KindAliases is <prefix>/_aliases
	KindAliases
)

const (
	aliasesName = "_aliases"
	metaName    = "_meta"
)

// Mapper reads the gopass-secret-service layout under a prefix
type Mapper struct {
	prefix string
}

// NewMapper creates a mapper for prefix; surrounding slashes are ignored
func NewMapper(prefix string) *Mapper {
	return &Mapper{prefix: strings.Trim(prefix, "/")}
}

// Classify tells what p holds and, for items and metadata, which
// collection and ID it belongs to.
func (m *Mapper) Classify(p string) (kind Kind, collection, id string) {
	rest, ok := strings.CutPrefix(p, m.prefix+"/")
	if !ok || rest == "" {
		return KindOther, "", ""
	}
	if rest == aliasesName {
		return KindAliases, "", ""
	}

	collection, id, ok = strings.Cut(rest, "/")
	switch {
	case !ok || collection == "" || id == "":
		return KindOther, "", ""
	case id == metaName:
		return KindCollectionMeta, collection, ""
	case strings.Contains(id, "/"), strings.HasPrefix(id, "_"):
		return KindOther, "", ""
	}
	return KindItem, collection, id
}
