package store

import (
	"testing"
)

func TestMapperClassify(t *testing.T) {
	m := NewMapper("secret-service")

	tests := []struct {
		path       string
		kind       Kind
		collection string
		id         string
	}{
		{"secret-service/login/abc-123", KindItem, "login", "abc-123"},
		{"secret-service/login/_meta", KindCollectionMeta, "login", ""},
		{"secret-service/_aliases", KindAliases, "", ""},
		{"secret-service/login", KindOther, "", ""},
		{"secret-service/login/", KindOther, "", ""},
		{"secret-service/login/dir/entry", KindOther, "", ""},
		{"secret-service/login/_lock", KindOther, "", ""},
		{"secret-service/", KindOther, "", ""},
		{"secret-service", KindOther, "", ""},
		{"other/login/abc", KindOther, "", ""},
		{"secret-service-2/login/abc", KindOther, "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			kind, coll, id := m.Classify(tc.path)
			if kind != tc.kind || coll != tc.collection || id != tc.id {
				t.Errorf("Classify = (%d, %q, %q), expected (%d, %q, %q)",
					kind, coll, id, tc.kind, tc.collection, tc.id)
			}
		})
	}
}

func TestMapperTrimsPrefixSlashes(t *testing.T) {
	m := NewMapper("/secret-service/")
	if kind, coll, id := m.Classify("secret-service/login/x"); kind != KindItem || coll != "login" || id != "x" {
		t.Errorf("Classify = (%d, %q, %q)", kind, coll, id)
	}
}
