package quadsplit

import (
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

var (
	// ErrNoAttributes is returned by NewEngine when no attribute ops are
	// supplied.
	ErrNoAttributes = errors.New("quadsplit: engine needs at least one attribute")

	// ErrTooFewEntries is returned by Split for fewer than two entries.
	ErrTooFewEntries = errors.New("quadsplit: split needs at least two entries")

	// ErrArityMismatch is returned by Split when an entry's value count
	// does not match the engine's attribute count.
	ErrArityMismatch = errors.New("quadsplit: entry arity does not match attributes")
)

// Engine splits a page's entries into four groups. It is stateless between
// calls and deterministic for identical input.
type Engine struct {
	ops     []AttributeOps
	logger  *zap.Logger
	metrics *engineMetrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger. The default is a nop logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMeter registers the engine's metrics against the given meter. The
// default records nothing.
func WithMeter(m metric.Meter) Option {
	return func(e *Engine) {
		if m != nil {
			mm, err := newEngineMetrics(m)
			if err == nil {
				e.metrics = mm
			}
		}
	}
}

// NewEngine creates a split engine over the given per-attribute ops, one
// per attribute in index order.
func NewEngine(ops []AttributeOps, opts ...Option) (*Engine, error) {
	if len(ops) == 0 {
		return nil, ErrNoAttributes
	}
	e := &Engine{ops: ops, logger: zap.NewNop()}
	e.metrics, _ = newEngineMetrics(noop.NewMeterProvider().Meter(""))
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Arity returns the number of attributes the engine splits on.
func (e *Engine) Arity() int { return len(e.ops) }

// Split partitions the entries into four groups with per-attribute union
// summaries. Every input position ends up in exactly one group. Entry i of
// the slice is reported as Position i+1.
//
// Splitting starts on attribute 0. If that attribute cannot discriminate
// (all nulls, or a degenerate picksplit) the next attribute is used for the
// whole entry set; if it discriminates but leaves don't-care entries, only
// those are redistributed with the next attribute and merged back.
func (e *Engine) Split(entries []Entry) (*SplitVector, error) {
	if len(entries) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewEntries, len(entries))
	}
	arity := len(e.ops)
	for i, ent := range entries {
		if len(ent.Values) != arity || len(ent.Nulls) != arity {
			return nil, fmt.Errorf("%w: entry %d has %d values", ErrArityMismatch, i, len(ent.Values))
		}
	}

	v := newSplitVector(arity)
	if err := e.splitByAttr(entries, 0, v); err != nil {
		return nil, err
	}

	// For a multi-attribute index, recompute every group's union summaries
	// over its final membership. Don't-care redistribution may have moved
	// entries between groups, and it is not safe to assume zero penalty
	// meant the union keys did not change.
	if arity > 1 {
		e.unionSubkeys(entries, v)
	}
	return v, nil
}

// splitByAttr runs one level of the recursion: split the given entries on
// attribute attno, consulting later attributes only through the documented
// degenerate and don't-care paths. It overwrites v's group memberships.
func (e *Engine) splitByAttr(entries []Entry, attno int, v *SplitVector) error {
	n := len(entries)

	values := make([]any, n)
	var nullPos []Position
	for i, ent := range entries {
		values[i] = ent.Values[attno]
		if ent.Nulls[attno] {
			nullPos = append(nullPos, Position(i+1))
		}
	}

	switch {
	case len(nullPos) == n:
		// Attribute attno is null everywhere: it cannot discriminate.
		for g := range v.Groups {
			v.Groups[g].Unions[attno] = nil
			v.Groups[g].Nulls[attno] = true
		}
		if attno+1 < len(e.ops) {
			return e.splitByAttr(entries, attno+1, v)
		}
		// Out of attributes: deterministic quartering, no unions to compute.
		quarters := quarterPositions(n)
		for g := range v.Groups {
			v.Groups[g].Members = quarters[g]
		}
		e.metrics.addFallback(attno)
		return nil

	case len(nullPos) > 0:
		// Null and non-null keys are never mixed in one group: a null
		// summary and a real-valued summary cannot be meaningfully
		// unioned. Nulls all go to NW; the rest are dealt round-robin
		// since no ordering predicate applies.
		v.Groups[GroupNW].Members = nullPos
		v.Groups[GroupNW].Unions[attno] = nil
		v.Groups[GroupNW].Nulls[attno] = true
		v.Groups[GroupNE].Members = nil
		v.Groups[GroupSW].Members = nil
		v.Groups[GroupSE].Members = nil

		j := 0
		for i := 1; i <= n; i++ {
			if j < len(nullPos) && nullPos[j] == Position(i) {
				j++
				continue
			}
			switch i % 3 {
			case 0:
				v.Groups[GroupNE].Members = append(v.Groups[GroupNE].Members, Position(i))
			case 1:
				v.Groups[GroupSW].Members = append(v.Groups[GroupSW].Members, Position(i))
			default:
				v.Groups[GroupSE].Members = append(v.Groups[GroupSE].Members, Position(i))
			}
		}

		// For a single-attribute split nobody else will compute the union
		// summaries, so do it here.
		if attno == 0 && len(e.ops) == 1 {
			e.unionSubkeys(entries, v)
		}
		return nil
	}

	// All keys non-null: let the attribute's own picksplit decide.
	return e.userPickSplit(entries, values, attno, v)
}

// userPickSplit applies the attribute's picksplit, falling back to
// quartering on a degenerate answer, then considers don't-care
// redistribution over the remaining attributes.
func (e *Engine) userPickSplit(entries []Entry, values []any, attno int, v *SplitVector) error {
	n := len(entries)

	res, err := e.ops[attno].PickSplit(values)
	if err == nil {
		for g := range res.Groups {
			if len(res.Groups[g]) == 0 {
				err = fmt.Errorf("picksplit left group %s empty", Group(g))
				break
			}
		}
	}
	if err != nil {
		// A broken picksplit is a recoverable defect: the index just gets
		// less optimal. Substitute the deterministic quartering.
		e.logger.Warn("picksplit failed, using fallback quartering",
			zap.Int("attribute", attno), zap.Error(err))
		e.metrics.addFallback(attno)
		res = e.genericPickSplit(values, attno)
	} else {
		// Normalize the old "rest of the entries" sentinel to the true
		// last position.
		for g := range res.Groups {
			grp := res.Groups[g]
			if grp[len(grp)-1] == InvalidPosition {
				grp[len(grp)-1] = Position(n)
			}
		}
	}

	for g := range v.Groups {
		v.Groups[g].Members = res.Groups[g]
		v.Groups[g].Unions[attno] = res.Unions[g]
		v.Groups[g].Nulls[attno] = false
	}

	if attno+1 >= len(e.ops) {
		// Last attribute: the picksplit's answer is final.
		return nil
	}

	// If all four union keys are equal the split is certainly degenerate;
	// re-split the whole set on the next attribute.
	if e.ops[attno].Same(res.Unions[0], res.Unions[1]) &&
		e.ops[attno].Same(res.Unions[0], res.Unions[2]) &&
		e.ops[attno].Same(res.Unions[0], res.Unions[3]) {
		e.metrics.addDegenerate(attno)
		return e.splitByAttr(entries, attno+1, v)
	}

	dontcare := make([]bool, n+1)
	num := e.findDontCares(values, attno, v, dontcare)
	if num == 0 {
		// The split is already optimal for this attribute.
		return nil
	}

	for g := range v.Groups {
		v.Groups[g].Members = removeDontCares(v.Groups[g].Members, dontcare)
	}

	// If any group lost all its members to don't-cares the split is
	// degenerate after all: there would be no union key on that side for
	// the next picksplit to expand. Ignore it and re-split on the next
	// attribute.
	for g := range v.Groups {
		if len(v.Groups[g].Members) == 0 {
			e.metrics.addDegenerate(attno)
			return e.splitByAttr(entries, attno+1, v)
		}
	}

	// Recompute union keys over just the non-don't-care members, for all
	// attributes, so penalties against later attributes are meaningful.
	e.unionSubkeys(entries, v)
	e.metrics.addRedistributed(attno, int64(num))

	if num == 1 {
		// A single don't-care cannot be picksplit; place it by penalty.
		for p := Position(1); p <= Position(n); p++ {
			if dontcare[p] {
				e.placeOne(entries, v, p, attno+1)
				break
			}
		}
		// The union summaries are stale now, but the top-level recompute
		// fixes them before anything reads them.
		return nil
	}

	// Re-split just the don't-care entries using the next attribute, into
	// a fresh vector, and merge the sub-split back through the original
	// position mapping. Nothing is mutated in place, so no backup of the
	// outer result is needed.
	subEntries := make([]Entry, 0, num)
	mapping := make([]Position, 0, num)
	for i := 0; i < n; i++ {
		if dontcare[i+1] {
			subEntries = append(subEntries, entries[i])
			mapping = append(mapping, Position(i+1))
		}
	}

	sub := newSplitVector(len(e.ops))
	if err := e.splitByAttr(subEntries, attno+1, sub); err != nil {
		return err
	}
	for g := range sub.Groups {
		for _, p := range sub.Groups[g].Members {
			v.Groups[g].Members = append(v.Groups[g].Members, mapping[p-1])
		}
	}
	return nil
}

// findDontCares marks entries that could sit in any group with zero
// penalty so far as attribute attno is concerned. Marked entries must
// currently belong to exactly one group. Returns the number found.
func (e *Engine) findDontCares(values []any, attno int, v *SplitVector, dontcare []bool) int {
	num := 0
	for g := range v.Groups {
		for _, p := range v.Groups[g].Members {
			val := values[p-1]
			free := true
			for h := range v.Groups {
				if h == g {
					continue
				}
				if e.ops[attno].Penalty(v.Groups[h].Unions[attno], val) != 0 {
					free = false
					break
				}
			}
			if free {
				dontcare[p] = true
				num++
			}
		}
	}
	return num
}

// removeDontCares filters marked positions out of a member list, keeping
// the order of the survivors.
func removeDontCares(members []Position, dontcare []bool) []Position {
	kept := members[:0]
	for _, p := range members {
		if !dontcare[p] {
			kept = append(kept, p)
		}
	}
	return kept
}

// placeOne assigns a single don't-care entry to the group with the least
// penalty for merging it into the previously computed union keys,
// considering attributes from attnoFrom on. Literal ties are broken by the
// next attribute, and finally by the lowest group index.
func (e *Engine) placeOne(entries []Entry, v *SplitVector, p Position, attnoFrom int) {
	ent := entries[p-1]

	candidates := []Group{GroupNW, GroupNE, GroupSW, GroupSE}
	for attno := attnoFrom; attno < len(e.ops) && len(candidates) > 1; attno++ {
		if ent.Nulls[attno] {
			continue
		}
		best := make([]Group, 0, len(candidates))
		bestPenalty := 0.0
		for _, g := range candidates {
			grp := &v.Groups[g]
			if grp.Nulls[attno] {
				// No union key to compare against; treat as free.
				best = append(best, g)
				continue
			}
			pen := e.ops[attno].Penalty(grp.Unions[attno], ent.Values[attno])
			switch {
			case len(best) == 0 || pen < bestPenalty:
				best = append(best[:0], g)
				bestPenalty = pen
			case pen == bestPenalty:
				best = append(best, g)
			}
		}
		candidates = best
	}

	g := candidates[0]
	v.Groups[g].Members = append(v.Groups[g].Members, p)
	e.logger.Debug("placed single don't-care entry",
		zap.Int("position", int(p)), zap.String("group", g.String()))
}

// quarterPositions deals positions 1..n into four contiguous runs, as
// evenly as possible. For n >= 4 every run is non-empty.
func quarterPositions(n int) [NumGroups][]Position {
	var quarters [NumGroups][]Position
	base, rem := n/NumGroups, n%NumGroups
	p := Position(1)
	for g := 0; g < NumGroups; g++ {
		size := base
		if g < rem {
			size++
		}
		for i := 0; i < size; i++ {
			quarters[g] = append(quarters[g], p)
			p++
		}
	}
	return quarters
}

// genericPickSplit is the trivial fallback split: quarter the entries in
// position order and form the union summary of each quarter.
func (e *Engine) genericPickSplit(values []any, attno int) PickSplitResult {
	var res PickSplitResult
	res.Groups = quarterPositions(len(values))
	for g := range res.Groups {
		groupVals := make([]any, len(res.Groups[g]))
		for i, p := range res.Groups[g] {
			groupVals[i] = values[p-1]
		}
		res.Unions[g] = e.ops[attno].Union(groupVals)
	}
	return res
}

// unionSubkeys recomputes every group's union summary for every attribute
// over the group's current membership. Members with a null value for an
// attribute are skipped; a group with no values at all for an attribute is
// marked null there.
func (e *Engine) unionSubkeys(entries []Entry, v *SplitVector) {
	for g := range v.Groups {
		grp := &v.Groups[g]
		for attno := range e.ops {
			vals := make([]any, 0, len(grp.Members))
			for _, p := range grp.Members {
				ent := entries[p-1]
				if !ent.Nulls[attno] {
					vals = append(vals, ent.Values[attno])
				}
			}
			if len(vals) == 0 {
				grp.Unions[attno] = nil
				grp.Nulls[attno] = true
			} else {
				grp.Unions[attno] = e.ops[attno].Union(vals)
				grp.Nulls[attno] = false
			}
		}
	}
}
