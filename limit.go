package chromasearch

import (
	"math"

	"github.com/pkg/errors"
)

// Limit is the pagination window of a search. The zero value means
// offset 0 with no result cap ("no limit" is distinct from limit 0,
// which is always an error).
type Limit struct {
	offset int
	limit  *int
}

// NewLimit creates a Limit with the given positive result cap.
func NewLimit(limit int) (Limit, error) {
	return NewLimitOffset(limit, 0)
}

// NewLimitOffset creates a Limit with a result cap and a starting offset.
func NewLimitOffset(limit, offset int) (Limit, error) {
	if limit <= 0 {
		return Limit{}, errors.Wrap(ErrInvalidArgument, "limit must be > 0")
	}
	if offset < 0 {
		return Limit{}, errors.Wrap(ErrInvalidArgument, "offset must be >= 0")
	}
	return Limit{offset: offset, limit: &limit}, nil
}

// Offset returns the starting offset.
func (l Limit) Offset() int { return l.offset }

// Limit returns the result cap and whether one is set.
func (l Limit) Limit() (int, bool) {
	if l.limit == nil {
		return 0, false
	}
	return *l.limit, true
}

// Payload returns the wire representation. The limit key is omitted entirely
// when no cap is set.
func (l Limit) Payload() map[string]any {
	p := map[string]any{"offset": l.offset}
	if l.limit != nil {
		p["limit"] = *l.limit
	}
	return p
}

// ParseLimit converts untyped input into a Limit.
// Accepted shapes: an existing Limit, nil (defaults), a number (result cap),
// or a map with optional "offset" and "limit" fields.
func ParseLimit(input any) (Limit, error) {
	switch v := input.(type) {
	case Limit:
		return v, nil
	case nil:
		return Limit{}, nil
	case int:
		return NewLimit(v)
	case int32:
		return NewLimit(int(v))
	case int64:
		return NewLimit(int(v))
	case float64:
		n, err := intFromFloat(v)
		if err != nil {
			return Limit{}, errors.WithMessage(err, "limit")
		}
		return NewLimit(n)
	case map[string]any:
		return parseLimitMap(v)
	default:
		return Limit{}, errors.Wrapf(ErrInvalidType, "cannot parse %T as a limit", input)
	}
}

func parseLimitMap(m map[string]any) (Limit, error) {
	out := Limit{}
	for field, value := range m {
		n, err := intField(value)
		if err != nil {
			return Limit{}, errors.WithMessagef(err, "limit field %q", field)
		}
		switch field {
		case "offset":
			if n < 0 {
				return Limit{}, errors.Wrap(ErrInvalidArgument, "offset must be >= 0")
			}
			out.offset = n
		case "limit":
			if n <= 0 {
				return Limit{}, errors.Wrap(ErrInvalidArgument, "limit must be > 0")
			}
			capped := n
			out.limit = &capped
		default:
			return Limit{}, errors.Wrapf(ErrMalformedExpression, "unknown limit field %q", field)
		}
	}
	return out, nil
}

func intField(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		return intFromFloat(v)
	default:
		return 0, errors.Wrapf(ErrInvalidType, "expected an integer, got %T", value)
	}
}

func intFromFloat(v float64) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, errors.Wrap(ErrInvalidArgument, "expected an integer")
	}
	return int(v), nil
}
