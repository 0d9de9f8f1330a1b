package chromasearch

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Select is the set of output columns projected by a search. The zero value
// means "selection unspecified"; the server then applies its default
// projection. Keys are deduplicated with first-seen order preserved, which
// keeps serialization deterministic.
type Select struct {
	keys []Key
}

// NewSelect creates a projection over the given keys.
func NewSelect(keys ...Key) Select {
	return Select{keys: lo.Uniq(keys)}
}

// SelectAll projects the document, embedding, metadata, and score columns.
func SelectAll() Select {
	return NewSelect(KDocument, KEmbedding, KMetadata, KScore)
}

// Keys returns the projected keys in serialization order.
func (s Select) Keys() []Key {
	out := make([]Key, len(s.keys))
	copy(out, s.keys)
	return out
}

// Payload returns the wire representation {"keys": [...]}.
func (s Select) Payload() map[string]any {
	names := make([]string, len(s.keys))
	for i, k := range s.keys {
		names[i] = string(k)
	}
	return map[string]any{"keys": names}
}

// ParseSelect converts untyped input into a Select.
// Accepted shapes: an existing Select, nil (empty selection), a slice of
// keys or strings, or a map {"keys": [...]}.
func ParseSelect(input any) (Select, error) {
	switch v := input.(type) {
	case Select:
		return v, nil
	case nil:
		return Select{}, nil
	case []Key:
		return NewSelect(v...), nil
	case []string:
		keys := make([]Key, len(v))
		for i, name := range v {
			keys[i] = Key(name)
		}
		return NewSelect(keys...), nil
	case []any:
		return selectFromList(v)
	case map[string]any:
		raw, ok := v["keys"]
		if !ok || len(v) != 1 {
			return Select{}, errors.Wrap(ErrMalformedExpression, `select object must have exactly one "keys" field`)
		}
		list, ok := raw.([]any)
		if !ok {
			return Select{}, errors.Wrap(ErrInvalidType, "select keys must be an array")
		}
		return selectFromList(list)
	default:
		return Select{}, errors.Wrapf(ErrInvalidType, "cannot parse %T as a selection", input)
	}
}

func selectFromList(items []any) (Select, error) {
	keys := make([]Key, len(items))
	for i, item := range items {
		switch k := item.(type) {
		case Key:
			keys[i] = k
		case string:
			keys[i] = Key(k)
		default:
			return Select{}, errors.Wrapf(ErrInvalidType, "select key %d must be a string or Key, got %T", i, item)
		}
	}
	return NewSelect(keys...), nil
}
