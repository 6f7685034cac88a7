package secretservice

import (
	"errors"
	"testing"
)

func TestNewAttributes(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []Attribute
		want    map[string]string
		wantErr error
	}{
		{"none", nil, map[string]string{}, nil},
		{"distinct", []Attribute{{"a", "1"}, {"b", "2"}}, map[string]string{"a": "1", "b": "2"}, nil},
		{"repeated pair", []Attribute{{"a", "1"}, {"a", "1"}}, map[string]string{"a": "1"}, nil},
		{"conflict", []Attribute{{"a", "1"}, {"a", "2"}}, nil, ErrDuplicateAttribute},
		{"empty value", []Attribute{{"a", ""}}, map[string]string{"a": ""}, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NewAttributes(tc.pairs...)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, expected %v", err, tc.wantErr)
			}
			if tc.wantErr != nil {
				return
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, expected %v", got, tc.want)
			}
			for k, v := range tc.want {
				if got[k] != v {
					t.Errorf("%s = %q, expected %q", k, got[k], v)
				}
			}
		})
	}
}
