package chromasearch

import "github.com/pkg/errors"

// Key identifies a queryable field. Names prefixed with '#' are reserved
// virtual columns; any other name refers to a user metadata field.
type Key string

// Reserved keys for system-managed fields.
const (
	KID        Key = "#id"
	KDocument  Key = "#document"
	KEmbedding Key = "#embedding"
	KMetadata  Key = "#metadata"
	KScore     Key = "#score"
)

// K creates a Key for a metadata field name.
func K(name string) Key { return Key(name) }

// Name returns the field name.
func (k Key) Name() string { return string(k) }

// Eq matches records whose field equals the given scalar.
func (k Key) Eq(value any) (Where, error) { return k.compare(opEq, value) }

// Ne matches records whose field does not equal the given scalar.
func (k Key) Ne(value any) (Where, error) { return k.compare(opNe, value) }

// Gt matches records whose field is greater than the given value.
func (k Key) Gt(value any) (Where, error) { return k.compare(opGt, value) }

// Gte matches records whose field is greater than or equal to the given value.
func (k Key) Gte(value any) (Where, error) { return k.compare(opGte, value) }

// Lt matches records whose field is less than the given value.
func (k Key) Lt(value any) (Where, error) { return k.compare(opLt, value) }

// Lte matches records whose field is less than or equal to the given value.
func (k Key) Lte(value any) (Where, error) { return k.compare(opLte, value) }

// In matches records whose field equals any of the given scalars.
// At least one value is required.
func (k Key) In(values ...any) (Where, error) { return k.membership(opIn, values) }

// NotIn matches records whose field equals none of the given scalars.
// At least one value is required.
func (k Key) NotIn(values ...any) (Where, error) { return k.membership(opNin, values) }

// Contains matches substring occurrence on the reserved document key, or
// array membership of the scalar on ordinary metadata keys. The server
// resolves which case applies; the key only shapes the operator payload.
func (k Key) Contains(value any) (Where, error) { return k.compare(opContains, value) }

// NotContains is the negation of Contains.
func (k Key) NotContains(value any) (Where, error) { return k.compare(opNotContains, value) }

// Regex matches records whose field matches the given pattern.
func (k Key) Regex(pattern string) (Where, error) {
	return newComparison(string(k), opRegex, pattern), nil
}

// NotRegex matches records whose field does not match the given pattern.
func (k Key) NotRegex(pattern string) (Where, error) {
	return newComparison(string(k), opNotRegex, pattern), nil
}

func (k Key) compare(op string, value any) (Where, error) {
	if err := validateOperand(op, value); err != nil {
		return Where{}, errors.WithMessagef(err, "key %q", string(k))
	}
	return newComparison(string(k), op, value), nil
}

func (k Key) membership(op string, values []any) (Where, error) {
	// Materialize up front so the expression never aliases caller-owned data.
	list := make([]any, len(values))
	copy(list, values)
	if err := validateMembershipList(op, list); err != nil {
		return Where{}, errors.WithMessagef(err, "key %q", string(k))
	}
	return newComparison(string(k), op, list), nil
}
