package chromasearch

import (
	"encoding/json"
	"math"

	"github.com/pkg/errors"

	"github.com/kailas-cloud/chromasearch/embeddings"
)

// Rank operators in wire form.
const (
	opVal = "$val"
	opKnn = "$knn"
	opSum = "$sum"
	opSub = "$sub"
	opMul = "$mul"
	opDiv = "$div"
	opAbs = "$abs"
	opExp = "$exp"
	opLog = "$log"
	opMax = "$max"
	opMin = "$min"
)

// DefaultKnnLimit is the number of nearest neighbors retrieved when a KNN
// rank does not specify a limit.
const DefaultKnnLimit = 128

// DefaultRrfK is the reciprocal rank fusion smoothing constant
// (Cormack et al. 2009).
const DefaultRrfK = 60

// MaxRrfRanks bounds the number of fused rankings.
const MaxRrfRanks = 100

// Rank is an arithmetic scoring expression evaluated per candidate record.
// Lower values rank better. The zero value means "no ranking". Expressions
// are immutable; arithmetic always builds new trees.
type Rank struct {
	node rankNode
}

// rankNode is the closed variant set of ranking expressions.
type rankNode interface {
	rankPayload() any
}

type rankVal struct {
	value float64
}

func (v rankVal) rankPayload() any {
	return map[string]any{opVal: v.value}
}

type rankKnn struct {
	query        any // string, embeddings.Embedding, or *embeddings.SparseVector
	key          Key
	limit        int
	defaultScore *float64
	returnRank   bool
}

func (k rankKnn) rankPayload() any {
	inner := map[string]any{
		"key":   string(k.key),
		"limit": k.limit,
	}
	switch q := k.query.(type) {
	case embeddings.Embedding:
		inner["query"] = q.Clone()
	case *embeddings.SparseVector:
		inner["query"] = q.Payload()
	default:
		inner["query"] = k.query
	}
	if k.defaultScore != nil {
		inner["default"] = *k.defaultScore
	}
	// Absence and false are distinct on the wire: only emit when set.
	if k.returnRank {
		inner["return_rank"] = true
	}
	return map[string]any{opKnn: inner}
}

type rankNary struct {
	op       string // $sum, $mul, $max, $min
	operands []Rank
}

func (n rankNary) rankPayload() any {
	items := make([]any, len(n.operands))
	for i, op := range n.operands {
		items[i] = op.Payload()
	}
	return map[string]any{n.op: items}
}

type rankBinary struct {
	op    string // $sub, $div
	left  Rank
	right Rank
}

func (b rankBinary) rankPayload() any {
	return map[string]any{b.op: map[string]any{
		"left":  b.left.Payload(),
		"right": b.right.Payload(),
	}}
}

type rankUnary struct {
	op      string // $abs, $exp, $log
	operand Rank
}

func (u rankUnary) rankPayload() any {
	return map[string]any{u.op: u.operand.Payload()}
}

type rankRaw struct {
	payload map[string]any
}

func (r rankRaw) rankPayload() any { return r.payload }

// IsZero reports whether the expression is absent.
func (r Rank) IsZero() bool { return r.node == nil }

// Payload returns the wire representation as a plain nested map.
// The tree is validated at construction, so Payload never fails.
func (r Rank) Payload() any {
	if r.node == nil {
		return nil
	}
	return r.node.rankPayload()
}

// MarshalJSON serializes the expression to the wire grammar.
func (r Rank) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Payload())
}

// Val creates a constant value expression. The value must be finite.
func Val(value float64) (Rank, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Rank{}, errors.Wrap(ErrInvalidArgument, "rank value must be finite")
	}
	return Rank{node: rankVal{value: value}}, nil
}

// valOf wraps an internally produced constant known to be finite.
func valOf(value float64) Rank {
	return Rank{node: rankVal{value: value}}
}

// KnnQuery sets the query of a KNN expression.
type KnnQuery func(*rankKnn) error

// KnnQueryText queries with text embedded server-side by the collection's
// default embedding function.
func KnnQueryText(text string) KnnQuery {
	return func(k *rankKnn) error {
		if text == "" {
			return errors.Wrap(ErrInvalidArgument, "knn query text must not be empty")
		}
		k.query = text
		return nil
	}
}

// KnnQueryVector queries with a dense vector. The vector is validated and
// defensively copied.
func KnnQueryVector(vector []float32) KnnQuery {
	return func(k *rankKnn) error {
		emb, err := embeddings.NewEmbedding(vector)
		if err != nil {
			return errors.WithMessage(err, "knn query vector")
		}
		k.query = emb
		return nil
	}
}

// KnnQuerySparseVector queries with a sparse vector. Use with WithKnnKey to
// target a sparse embedding field.
func KnnQuerySparseVector(vector *embeddings.SparseVector) KnnQuery {
	return func(k *rankKnn) error {
		if vector == nil {
			return errors.Wrap(ErrInvalidArgument, "knn sparse query must not be nil")
		}
		k.query = vector
		return nil
	}
}

// KnnOption configures optional KNN parameters.
type KnnOption func(*rankKnn) error

// WithKnnKey targets a specific embedding field. Default is #embedding.
func WithKnnKey(key Key) KnnOption {
	return func(k *rankKnn) error {
		if key == "" {
			return errors.Wrap(ErrInvalidArgument, "knn key must not be empty")
		}
		k.key = key
		return nil
	}
}

// WithKnnLimit sets how many nearest neighbors are scored. Default is 128.
func WithKnnLimit(limit int) KnnOption {
	return func(k *rankKnn) error {
		if limit < 1 {
			return errors.Wrap(ErrInvalidArgument, "knn limit must be >= 1")
		}
		k.limit = limit
		return nil
	}
}

// WithKnnDefault sets the score for records outside the top-K neighbors.
// Without it those records are excluded from the ranking.
func WithKnnDefault(score float64) KnnOption {
	return func(k *rankKnn) error {
		if math.IsNaN(score) || math.IsInf(score, 0) {
			return errors.Wrap(ErrInvalidArgument, "knn default score must be finite")
		}
		k.defaultScore = &score
		return nil
	}
}

// WithKnnReturnRank makes the KNN report rank positions (1, 2, 3...) instead
// of distances. Required for reciprocal rank fusion inputs.
func WithKnnReturnRank() KnnOption {
	return func(k *rankKnn) error {
		k.returnRank = true
		return nil
	}
}

// Knn creates a K-nearest-neighbors ranking expression.
func Knn(query KnnQuery, opts ...KnnOption) (Rank, error) {
	if query == nil {
		return Rank{}, errors.Wrap(ErrInvalidArgument, "knn requires a query")
	}
	node := rankKnn{
		key:   KEmbedding,
		limit: DefaultKnnLimit,
	}
	if err := query(&node); err != nil {
		return Rank{}, err
	}
	for _, opt := range opts {
		if err := opt(&node); err != nil {
			return Rank{}, err
		}
	}
	return Rank{node: node}, nil
}

// Sum adds the given expressions. At least one non-zero operand is required.
func Sum(operands ...Rank) (Rank, error) { return newNary(opSum, operands) }

// Mul multiplies the given expressions. At least one non-zero operand is
// required.
func Mul(operands ...Rank) (Rank, error) { return newNary(opMul, operands) }

// Max takes the maximum of the given expressions. At least one non-zero
// operand is required.
func Max(operands ...Rank) (Rank, error) { return newNary(opMax, operands) }

// Min takes the minimum of the given expressions. At least one non-zero
// operand is required.
func Min(operands ...Rank) (Rank, error) { return newNary(opMin, operands) }

func newNary(op string, operands []Rank) (Rank, error) {
	if len(nonZeroRanks(operands)) == 0 {
		return Rank{}, errors.Wrapf(ErrInvalidArgument, "%s requires at least one operand", op)
	}
	return combineRank(op, operands), nil
}

// Sub subtracts right from left.
func Sub(left, right Rank) (Rank, error) { return newBinary(opSub, left, right) }

// Div divides left by right. A literal zero denominator is rejected;
// expressions that merely evaluate to zero follow server-side semantics.
func Div(left, right Rank) (Rank, error) {
	if v, ok := right.node.(rankVal); ok && v.value == 0 {
		return Rank{}, errors.Wrap(ErrInvalidArgument, "division by zero literal")
	}
	return newBinary(opDiv, left, right)
}

func newBinary(op string, left, right Rank) (Rank, error) {
	if left.IsZero() || right.IsZero() {
		return Rank{}, errors.Wrapf(ErrInvalidArgument, "%s requires two operands", op)
	}
	return Rank{node: rankBinary{op: op, left: left, right: right}}, nil
}

// Abs takes the absolute value of the expression.
func Abs(operand Rank) (Rank, error) { return newUnary(opAbs, operand) }

// Exp raises e to the expression.
func Exp(operand Rank) (Rank, error) { return newUnary(opExp, operand) }

// Log takes the natural logarithm of the expression.
func Log(operand Rank) (Rank, error) { return newUnary(opLog, operand) }

func newUnary(op string, operand Rank) (Rank, error) {
	if operand.IsZero() {
		return Rank{}, errors.Wrapf(ErrInvalidArgument, "%s requires an operand", op)
	}
	return Rank{node: rankUnary{op: op, operand: operand}}, nil
}

// RawRank passes through an already-well-formed wire object untouched.
func RawRank(payload map[string]any) Rank {
	return Rank{node: rankRaw{payload: payload}}
}

// Add returns the sum of this expression and the operands. With no effective
// operands the receiver is returned unchanged.
func (r Rank) Add(operands ...Rank) Rank {
	return combineRank(opSum, append([]Rank{r}, operands...))
}

// Subtract returns this expression minus the operand. A zero-value operand
// is a no-op.
func (r Rank) Subtract(operand Rank) Rank {
	if operand.IsZero() {
		return r
	}
	return Rank{node: rankBinary{op: opSub, left: r, right: operand}}
}

// Multiply returns the product of this expression and the operands. With no
// effective operands the receiver is returned unchanged.
func (r Rank) Multiply(operands ...Rank) Rank {
	return combineRank(opMul, append([]Rank{r}, operands...))
}

// Divide returns this expression divided by the operand. A zero-value
// operand is a no-op.
func (r Rank) Divide(operand Rank) Rank {
	if operand.IsZero() {
		return r
	}
	return Rank{node: rankBinary{op: opDiv, left: r, right: operand}}
}

// Negate multiplies the expression by -1.
func (r Rank) Negate() Rank {
	if r.IsZero() {
		return r
	}
	return Rank{node: rankNary{op: opMul, operands: []Rank{valOf(-1), r}}}
}

// Abs takes the absolute value of the expression.
func (r Rank) Abs() Rank { return r.unary(opAbs) }

// Exp raises e to the expression.
func (r Rank) Exp() Rank { return r.unary(opExp) }

// Log takes the natural logarithm of the expression.
func (r Rank) Log() Rank { return r.unary(opLog) }

func (r Rank) unary(op string) Rank {
	if r.IsZero() {
		return r
	}
	return Rank{node: rankUnary{op: op, operand: r}}
}

// Max returns the maximum of this expression and the operands. With no
// effective operands the receiver is returned unchanged.
func (r Rank) Max(operands ...Rank) Rank {
	return combineRank(opMax, append([]Rank{r}, operands...))
}

// Min returns the minimum of this expression and the operands. With no
// effective operands the receiver is returned unchanged.
func (r Rank) Min(operands ...Rank) Rank {
	return combineRank(opMin, append([]Rank{r}, operands...))
}

// combineRank flattens nested combinators of the same operator and collapses
// single-operand results, keeping repeated composition O(n) operands instead
// of growing tree depth.
func combineRank(op string, operands []Rank) Rank {
	flat := make([]Rank, 0, len(operands))
	for _, o := range nonZeroRanks(operands) {
		if n, ok := o.node.(rankNary); ok && n.op == op {
			flat = append(flat, n.operands...)
			continue
		}
		flat = append(flat, o)
	}
	switch len(flat) {
	case 0:
		return Rank{}
	case 1:
		return flat[0]
	default:
		return Rank{node: rankNary{op: op, operands: flat}}
	}
}

func nonZeroRanks(operands []Rank) []Rank {
	out := make([]Rank, 0, len(operands))
	for _, o := range operands {
		if !o.IsZero() {
			out = append(out, o)
		}
	}
	return out
}

// RrfOption configures reciprocal rank fusion.
type RrfOption func(*rrfConfig) error

type rrfConfig struct {
	k         int
	weights   []float64
	normalize bool
}

// WithRrfK sets the smoothing constant. Default is 60; higher values reduce
// the impact of rank differences.
func WithRrfK(k int) RrfOption {
	return func(c *rrfConfig) error {
		if k < 1 {
			return errors.Wrap(ErrInvalidArgument, "rrf k must be >= 1")
		}
		c.k = k
		return nil
	}
}

// WithRrfWeights assigns one non-negative weight per fused ranking.
// Defaults to all-1.
func WithRrfWeights(weights ...float64) RrfOption {
	return func(c *rrfConfig) error {
		c.weights = append([]float64(nil), weights...)
		return nil
	}
}

// WithRrfNormalize rescales the weights to sum to 1.
func WithRrfNormalize() RrfOption {
	return func(c *rrfConfig) error {
		c.normalize = true
		return nil
	}
}

// Rrf fuses multiple rankings via reciprocal rank fusion. The fused score is
// -sum(weight_i / (rank_i + k)), composed from the arithmetic primitives and
// negated because lower ranks better in this DSL while RRF's natural fused
// score is higher-is-better. Each input should use WithKnnReturnRank.
func Rrf(ranks []Rank, opts ...RrfOption) (Rank, error) {
	cfg := rrfConfig{k: DefaultRrfK}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return Rank{}, err
		}
	}

	if len(ranks) == 0 {
		return Rank{}, errors.Wrap(ErrInvalidArgument, "rrf requires at least one rank")
	}
	if len(ranks) > MaxRrfRanks {
		return Rank{}, errors.Wrapf(ErrInvalidArgument, "rrf cannot fuse more than %d ranks", MaxRrfRanks)
	}
	for i, r := range ranks {
		if r.IsZero() {
			return Rank{}, errors.Wrapf(ErrInvalidArgument, "rrf rank %d is empty", i)
		}
	}

	weights := cfg.weights
	if weights == nil {
		weights = make([]float64, len(ranks))
		for i := range weights {
			weights[i] = 1
		}
	}
	if len(weights) != len(ranks) {
		return Rank{}, errors.Wrapf(
			ErrInvalidArgument,
			"rrf weights length %d does not match ranks length %d",
			len(weights), len(ranks),
		)
	}
	for i, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return Rank{}, errors.Wrapf(ErrInvalidArgument, "rrf weight %d is not finite", i)
		}
		if w < 0 {
			return Rank{}, errors.Wrapf(ErrInvalidArgument, "rrf weight %d is negative", i)
		}
	}

	if cfg.normalize {
		sum := 0.0
		for _, w := range weights {
			sum += w
		}
		if sum <= 0 {
			return Rank{}, errors.Wrap(ErrInvalidArgument, "rrf weights must have a positive sum when normalized")
		}
		normalized := make([]float64, len(weights))
		for i, w := range weights {
			normalized[i] = w / sum
		}
		weights = normalized
	}

	// term_i = weight_i / (k + rank_i)
	terms := make([]Rank, len(ranks))
	for i, r := range ranks {
		denominator := combineRank(opSum, []Rank{valOf(float64(cfg.k)), r})
		terms[i] = Rank{node: rankBinary{op: opDiv, left: valOf(weights[i]), right: denominator}}
	}
	fused := combineRank(opSum, terms)
	return fused.Negate(), nil
}
