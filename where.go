package chromasearch

import (
	"encoding/json"
	"math"

	"github.com/pkg/errors"
)

// Comparison operators in wire form.
const (
	opEq          = "$eq"
	opNe          = "$ne"
	opGt          = "$gt"
	opGte         = "$gte"
	opLt          = "$lt"
	opLte         = "$lte"
	opIn          = "$in"
	opNin         = "$nin"
	opContains    = "$contains"
	opNotContains = "$not_contains"
	opRegex       = "$regex"
	opNotRegex    = "$not_regex"
	opAnd         = "$and"
	opOr          = "$or"
)

// Where is a boolean filter expression over records. The zero value means
// "no filter". Expressions are immutable; combinators always build new trees.
type Where struct {
	node whereNode
}

// whereNode is the closed variant set of filter expressions.
type whereNode interface {
	wherePayload() any
}

type whereComparison struct {
	key   string
	op    string
	value any
}

func (c whereComparison) wherePayload() any {
	return map[string]any{c.key: map[string]any{c.op: c.value}}
}

type whereCombinator struct {
	op       string // opAnd or opOr
	operands []Where
}

func (c whereCombinator) wherePayload() any {
	items := make([]any, len(c.operands))
	for i, op := range c.operands {
		items[i] = op.Payload()
	}
	return map[string]any{c.op: items}
}

// IsZero reports whether the expression is absent.
func (w Where) IsZero() bool { return w.node == nil }

// Payload returns the wire representation as a plain nested map.
// The tree is validated at construction, so Payload never fails.
func (w Where) Payload() any {
	if w.node == nil {
		return nil
	}
	return w.node.wherePayload()
}

// MarshalJSON serializes the expression to the wire grammar.
func (w Where) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.Payload())
}

// And combines this expression with others via $and. Zero-value operands are
// skipped; with no effective operands the receiver is returned unchanged.
func (w Where) And(others ...Where) Where {
	return combineWhere(opAnd, append([]Where{w}, others...))
}

// Or combines this expression with others via $or. Zero-value operands are
// skipped; with no effective operands the receiver is returned unchanged.
func (w Where) Or(others ...Where) Where {
	return combineWhere(opOr, append([]Where{w}, others...))
}

// And builds a $and over the given expressions. At least one non-zero operand
// is required.
func And(operands ...Where) (Where, error) {
	return newCombinator(opAnd, operands)
}

// Or builds a $or over the given expressions. At least one non-zero operand
// is required.
func Or(operands ...Where) (Where, error) {
	return newCombinator(opOr, operands)
}

func newCombinator(op string, operands []Where) (Where, error) {
	if len(nonZeroWheres(operands)) == 0 {
		return Where{}, errors.Wrapf(ErrInvalidArgument, "%s requires at least one operand", op)
	}
	return combineWhere(op, operands), nil
}

// combineWhere flattens nested combinators of the same operator and collapses
// single-operand results, so no unary $and/$or ever serializes.
func combineWhere(op string, operands []Where) Where {
	flat := make([]Where, 0, len(operands))
	for _, o := range nonZeroWheres(operands) {
		if c, ok := o.node.(whereCombinator); ok && c.op == op {
			flat = append(flat, c.operands...)
			continue
		}
		flat = append(flat, o)
	}
	switch len(flat) {
	case 0:
		return Where{}
	case 1:
		return flat[0]
	default:
		return Where{node: whereCombinator{op: op, operands: flat}}
	}
}

func nonZeroWheres(operands []Where) []Where {
	out := make([]Where, 0, len(operands))
	for _, o := range operands {
		if !o.IsZero() {
			out = append(out, o)
		}
	}
	return out
}

// newComparison is the single factory all Key operator methods delegate to.
func newComparison(key, op string, value any) Where {
	return Where{node: whereComparison{key: key, op: op, value: value}}
}

// ParseWhere converts untyped input into a Where expression.
// Accepted shapes: an existing Where (passthrough), nil (absent), or a nested
// map matching the wire grammar. Anything else is a type error.
func ParseWhere(input any) (Where, error) {
	switch v := input.(type) {
	case Where:
		return v, nil
	case nil:
		return Where{}, nil
	case map[string]any:
		return parseWhereMap(v)
	default:
		return Where{}, errors.Wrapf(ErrInvalidType, "cannot parse %T as a where expression", input)
	}
}

func parseWhereMap(m map[string]any) (Where, error) {
	if len(m) != 1 {
		return Where{}, errors.Wrapf(
			ErrMalformedExpression,
			"where object must have exactly one key, got %d", len(m),
		)
	}
	for key, value := range m {
		if key == opAnd || key == opOr {
			return parseWhereCombinator(key, value)
		}
		return parseWhereField(key, value)
	}
	return Where{}, nil // unreachable
}

func parseWhereCombinator(op string, value any) (Where, error) {
	items, ok := value.([]any)
	if !ok {
		return Where{}, errors.Wrapf(ErrMalformedExpression, "%s requires an array", op)
	}
	if len(items) == 0 {
		return Where{}, errors.Wrapf(ErrMalformedExpression, "%s array must not be empty", op)
	}
	operands := make([]Where, len(items))
	for i, item := range items {
		child, err := ParseWhere(item)
		if err != nil {
			return Where{}, errors.WithMessagef(err, "%s operand %d", op, i)
		}
		operands[i] = child
	}
	return combineWhere(op, operands), nil
}

func parseWhereField(key string, value any) (Where, error) {
	inner, ok := value.(map[string]any)
	if !ok {
		// Shorthand: {field: value} means {field: {"$eq": value}}.
		if err := validateScalar(value); err != nil {
			return Where{}, errors.WithMessagef(err, "field %q", key)
		}
		return newComparison(key, opEq, value), nil
	}
	if len(inner) != 1 {
		return Where{}, errors.Wrapf(
			ErrMalformedExpression,
			"field %q must have exactly one operator, got %d", key, len(inner),
		)
	}
	for op, operand := range inner {
		if err := validateOperand(op, operand); err != nil {
			return Where{}, errors.WithMessagef(err, "field %q", key)
		}
		return newComparison(key, op, operand), nil
	}
	return Where{}, nil // unreachable
}

func validateOperand(op string, operand any) error {
	switch op {
	case opEq, opNe, opContains, opNotContains:
		return validateScalar(operand)
	case opGt, opGte, opLt, opLte:
		return validateOrdered(operand)
	case opIn, opNin:
		items, ok := operand.([]any)
		if !ok {
			return errors.Wrapf(ErrInvalidType, "%s requires an array of values", op)
		}
		return validateMembershipList(op, items)
	case opRegex, opNotRegex:
		if _, ok := operand.(string); !ok {
			return errors.Wrapf(ErrInvalidType, "%s requires a string pattern", op)
		}
		return nil
	default:
		return errors.Wrapf(ErrMalformedExpression, "unknown operator %q", op)
	}
}

func validateMembershipList(op string, items []any) error {
	if len(items) == 0 {
		return errors.Wrapf(ErrInvalidArgument, "%s requires at least one value", op)
	}
	for i, item := range items {
		if err := validateScalar(item); err != nil {
			return errors.WithMessagef(err, "%s value %d", op, i)
		}
	}
	return nil
}

// validateScalar accepts strings, booleans, and finite numbers.
func validateScalar(value any) error {
	switch v := value.(type) {
	case string, bool, int, int32, int64:
		return nil
	case float32:
		return validateFinite(float64(v))
	case float64:
		return validateFinite(v)
	default:
		return errors.Wrapf(ErrInvalidType, "expected a string, number, or boolean, got %T", value)
	}
}

// validateOrdered accepts strings and finite numbers (ordering over booleans
// is rejected).
func validateOrdered(value any) error {
	switch v := value.(type) {
	case string, int, int32, int64:
		return nil
	case float32:
		return validateFinite(float64(v))
	case float64:
		return validateFinite(v)
	default:
		return errors.Wrapf(ErrInvalidType, "expected a string or number, got %T", value)
	}
}

func validateFinite(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return errors.Wrap(ErrInvalidArgument, "value must be finite")
	}
	return nil
}
