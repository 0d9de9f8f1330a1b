package chromasearch

import "encoding/json"

// Search is the root query expression: filter, ranking, pagination,
// projection, and grouping composed into one wire payload. Search values are
// immutable; every builder method returns a new Search with one field
// replaced, so a base query can be shared and specialized without aliasing.
type Search struct {
	where   Where
	rank    Rank
	limit   Limit
	sel     Select
	groupBy GroupBy
}

// SearchOption configures a Search at construction.
type SearchOption func(*Search) error

// NewSearch creates a Search. Options accept the same untyped shapes as the
// Parse functions and validate immediately.
func NewSearch(opts ...SearchOption) (Search, error) {
	var s Search
	for _, opt := range opts {
		if err := opt(&s); err != nil {
			return Search{}, err
		}
	}
	return s, nil
}

// WithWhere sets the filter from a Where or an untyped wire-grammar map.
func WithWhere(input any) SearchOption {
	return func(s *Search) error {
		w, err := ParseWhere(input)
		if err != nil {
			return err
		}
		s.where = w
		return nil
	}
}

// WithRank sets the ranking expression.
func WithRank(rank Rank) SearchOption {
	return func(s *Search) error {
		s.rank = rank
		return nil
	}
}

// WithLimit sets pagination from a Limit, a number, or a map.
func WithLimit(input any) SearchOption {
	return func(s *Search) error {
		l, err := ParseLimit(input)
		if err != nil {
			return err
		}
		s.limit = l
		return nil
	}
}

// WithSelect sets the projection from a Select, a key list, or a map.
func WithSelect(input any) SearchOption {
	return func(s *Search) error {
		sel, err := ParseSelect(input)
		if err != nil {
			return err
		}
		s.sel = sel
		return nil
	}
}

// WithGroupBy sets the grouping from a GroupBy or a map.
func WithGroupBy(input any) SearchOption {
	return func(s *Search) error {
		g, err := ParseGroupBy(input)
		if err != nil {
			return err
		}
		s.groupBy = g
		return nil
	}
}

// Where returns a copy of the search with the filter replaced.
func (s Search) Where(where Where) Search {
	s.where = where
	return s
}

// Rank returns a copy of the search with the ranking expression replaced.
func (s Search) Rank(rank Rank) Search {
	s.rank = rank
	return s
}

// Limit returns a copy of the search with the pagination replaced.
func (s Search) Limit(limit Limit) Search {
	s.limit = limit
	return s
}

// Select returns a copy of the search projecting the given keys.
func (s Search) Select(keys ...Key) Search {
	s.sel = NewSelect(keys...)
	return s
}

// SelectFrom returns a copy of the search with the projection replaced.
func (s Search) SelectFrom(sel Select) Search {
	s.sel = sel
	return s
}

// SelectAll returns a copy of the search projecting document, embedding,
// metadata, and score.
func (s Search) SelectAll() Search {
	s.sel = SelectAll()
	return s
}

// GroupBy returns a copy of the search with the grouping replaced.
func (s Search) GroupBy(groupBy GroupBy) Search {
	s.groupBy = groupBy
	return s
}

// Payload returns the wire payload as a plain nested map. The limit and
// select parts are always present; filter, rank, and group_by are omitted
// entirely when absent, never serialized as null, since the server
// distinguishes key absence from explicit null.
func (s Search) Payload() map[string]any {
	p := map[string]any{
		"limit":  s.limit.Payload(),
		"select": s.sel.Payload(),
	}
	if !s.where.IsZero() {
		p["filter"] = s.where.Payload()
	}
	if !s.rank.IsZero() {
		p["rank"] = s.rank.Payload()
	}
	if !s.groupBy.IsEmpty() {
		p["group_by"] = s.groupBy.Payload()
	}
	return p
}

// MarshalJSON serializes the search to its wire payload.
func (s Search) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Payload())
}
