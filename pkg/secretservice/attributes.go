package secretservice

import "fmt"

// Attribute is one key/value pair used for lookup
type Attribute struct {
	Key   string
	Value string
}

// NewAttributes builds an attribute map from ordered pairs. Repeating a
// pair verbatim is harmless; repeating a key with another value fails with
// ErrDuplicateAttribute instead of dropping either value.
func NewAttributes(pairs ...Attribute) (map[string]string, error) {
	attrs := make(map[string]string, len(pairs))
	for _, p := range pairs {
		if prev, ok := attrs[p.Key]; ok && prev != p.Value {
			return nil, fmt.Errorf("%w: %q is both %q and %q", ErrDuplicateAttribute, p.Key, prev, p.Value)
		}
		attrs[p.Key] = p.Value
	}
	return attrs, nil
}

func copyAttributes(attrs map[string]string) map[string]string {
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}
