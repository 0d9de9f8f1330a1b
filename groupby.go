package chromasearch

import "github.com/pkg/errors"

// Aggregate operators in wire form.
const (
	opMinK = "$min_k"
	opMaxK = "$max_k"
)

// Aggregate selects the top or bottom k records per group by the given keys.
// The zero value means "no aggregate".
type Aggregate struct {
	op   string
	k    int
	keys []Key
}

// MinK keeps the k lowest-valued records per group by the given keys.
func MinK(k int, keys ...Key) (Aggregate, error) {
	return newAggregate(opMinK, k, keys)
}

// MaxK keeps the k highest-valued records per group by the given keys.
func MaxK(k int, keys ...Key) (Aggregate, error) {
	return newAggregate(opMaxK, k, keys)
}

func newAggregate(op string, k int, keys []Key) (Aggregate, error) {
	if k <= 0 {
		return Aggregate{}, errors.Wrapf(ErrInvalidArgument, "%s requires k > 0", op)
	}
	if len(keys) == 0 {
		return Aggregate{}, errors.Wrapf(ErrInvalidArgument, "%s requires at least one key", op)
	}
	out := Aggregate{op: op, k: k, keys: make([]Key, len(keys))}
	copy(out.keys, keys)
	return out, nil
}

// IsZero reports whether the aggregate is absent.
func (a Aggregate) IsZero() bool { return a.op == "" }

// Payload returns the wire representation, e.g.
// {"$min_k": {"keys": [...], "k": 3}}.
func (a Aggregate) Payload() map[string]any {
	names := make([]string, len(a.keys))
	for i, k := range a.keys {
		names[i] = string(k)
	}
	return map[string]any{a.op: map[string]any{"keys": names, "k": a.k}}
}

// GroupBy groups results by a key set and applies a bounded top-k aggregate.
// The zero value is the empty sentinel, reported by IsEmpty and omitted from
// payloads.
type GroupBy struct {
	keys      []Key
	aggregate Aggregate
}

// NewGroupBy creates a grouping. Both the aggregate and at least one key are
// required; specifying only one of the two is an error, never a default.
func NewGroupBy(aggregate Aggregate, keys ...Key) (GroupBy, error) {
	if aggregate.IsZero() {
		return GroupBy{}, errors.Wrap(ErrInvalidArgument, "group by requires an aggregate")
	}
	if len(keys) == 0 {
		return GroupBy{}, errors.Wrap(ErrInvalidArgument, "group by requires at least one key")
	}
	out := GroupBy{keys: make([]Key, len(keys)), aggregate: aggregate}
	copy(out.keys, keys)
	return out, nil
}

// IsEmpty reports whether the grouping is absent.
func (g GroupBy) IsEmpty() bool {
	return len(g.keys) == 0 || g.aggregate.IsZero()
}

// Keys returns the grouping keys.
func (g GroupBy) Keys() []Key {
	out := make([]Key, len(g.keys))
	copy(out, g.keys)
	return out
}

// Aggregate returns the per-group aggregate.
func (g GroupBy) Aggregate() Aggregate { return g.aggregate }

// Payload returns the wire representation.
func (g GroupBy) Payload() map[string]any {
	names := make([]string, len(g.keys))
	for i, k := range g.keys {
		names[i] = string(k)
	}
	return map[string]any{"keys": names, "aggregate": g.aggregate.Payload()}
}

// ParseGroupBy converts untyped input into a GroupBy.
// Accepted shapes: an existing GroupBy, nil (empty), or a map with both
// "keys" and "aggregate" fields.
func ParseGroupBy(input any) (GroupBy, error) {
	switch v := input.(type) {
	case GroupBy:
		return v, nil
	case nil:
		return GroupBy{}, nil
	case map[string]any:
		return parseGroupByMap(v)
	default:
		return GroupBy{}, errors.Wrapf(ErrInvalidType, "cannot parse %T as a group by", input)
	}
}

func parseGroupByMap(m map[string]any) (GroupBy, error) {
	rawKeys, hasKeys := m["keys"]
	rawAgg, hasAgg := m["aggregate"]
	if !hasKeys || !hasAgg || len(m) != 2 {
		return GroupBy{}, errors.Wrap(
			ErrMalformedExpression,
			`group by object requires exactly "keys" and "aggregate" fields`,
		)
	}
	sel, err := ParseSelect(rawKeys)
	if err != nil {
		return GroupBy{}, errors.WithMessage(err, "group by keys")
	}
	agg, err := parseAggregateMap(rawAgg)
	if err != nil {
		return GroupBy{}, err
	}
	return NewGroupBy(agg, sel.Keys()...)
}

func parseAggregateMap(input any) (Aggregate, error) {
	m, ok := input.(map[string]any)
	if !ok {
		return Aggregate{}, errors.Wrapf(ErrInvalidType, "aggregate must be an object, got %T", input)
	}
	if len(m) != 1 {
		return Aggregate{}, errors.Wrap(ErrMalformedExpression, "aggregate must have exactly one operator")
	}
	for op, raw := range m {
		if op != opMinK && op != opMaxK {
			return Aggregate{}, errors.Wrapf(ErrMalformedExpression, "unknown aggregate operator %q", op)
		}
		body, ok := raw.(map[string]any)
		if !ok {
			return Aggregate{}, errors.Wrapf(ErrInvalidType, "%s must be an object", op)
		}
		sel, err := ParseSelect(body["keys"])
		if err != nil {
			return Aggregate{}, errors.WithMessagef(err, "%s keys", op)
		}
		k, err := intField(body["k"])
		if err != nil {
			return Aggregate{}, errors.WithMessagef(err, "%s k", op)
		}
		return newAggregate(op, k, sel.Keys())
	}
	return Aggregate{}, nil // unreachable
}
