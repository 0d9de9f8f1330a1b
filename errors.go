package chromasearch

import "github.com/pkg/errors"

// Error taxonomy for expression construction. All DSL validation fails
// synchronously at construction time; check with errors.Is.
var (
	// ErrInvalidType reports a value of the wrong kind (e.g. a slice where a
	// scalar is required).
	ErrInvalidType = errors.New("invalid type")

	// ErrInvalidArgument reports a well-typed but semantically invalid value
	// (empty operand list, non-positive limit, mismatched weights).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrMalformedExpression reports untyped-map input that does not match the
	// wire grammar (wrong key count, unknown operator, empty $and/$or).
	ErrMalformedExpression = errors.New("malformed expression")
)
