// Package quadsplit implements the multi-attribute node-split algorithm for
// 4-ary index pages: given the entries of an overflowing page it produces
// four balanced groups (quadrants NW/NE/SW/SE) with per-attribute union
// summaries.
//
// Per-attribute behavior is pluggable: the engine only ever touches
// attribute values through an AttributeOps. The split itself is recursive
// over the attribute list. The first attribute's picksplit decides the
// groups; entries that could sit in any group for zero penalty ("don't
// cares") are then redistributed using the following attributes. See
// Engine.Split.
package quadsplit

// Position identifies an entry by its 1-based position in the input slice
// passed to Split. Position 0 is reserved as a sentinel.
type Position int

// InvalidPosition is the sentinel some picksplit implementations emit as a
// trailing "rest of the entries" marker; the engine rewrites it to the true
// last position.
const InvalidPosition Position = 0

// Group labels one of the four output quadrants.
type Group int

const (
	GroupNW Group = iota
	GroupNE
	GroupSW
	GroupSE

	// NumGroups is the number of output groups of every split.
	NumGroups = 4
)

func (g Group) String() string {
	switch g {
	case GroupNW:
		return "NW"
	case GroupNE:
		return "NE"
	case GroupSW:
		return "SW"
	case GroupSE:
		return "SE"
	}
	return "invalid"
}

// PickSplitResult is the outcome of a single-attribute picksplit: four
// groups of positions plus the union summary of each group's values.
//
// A well-behaved picksplit returns four non-empty groups; returning one or
// more empty groups is a recoverable defect which makes the engine fall
// back to a deterministic quartering.
type PickSplitResult struct {
	Groups [NumGroups][]Position
	Unions [NumGroups]any
}

// AttributeOps is the capability interface implemented once per attribute
// type and injected into the Engine at construction. Values are opaque to
// the engine; only the ops interpret them.
type AttributeOps interface {
	// PickSplit partitions the given attribute values (value i belongs to
	// Position i+1) into four groups and computes their union summaries.
	PickSplit(values []any) (PickSplitResult, error)

	// Union aggregates a set of attribute values into one summary value
	// usable as the group's representative key.
	Union(values []any) any

	// Penalty measures the cost of extending a union summary to also cover
	// value. A zero penalty means the value fits without any growth.
	Penalty(union, value any) float64

	// Same reports whether two union summaries are equal.
	Same(a, b any) bool
}

// Entry is one indexed item to be split: an ordered sequence of attribute
// values with per-attribute null flags. Both slices have the engine's
// attribute arity. Entries are immutable inputs; ownership stays with the
// caller.
type Entry struct {
	Values []any
	Nulls  []bool
}

// SplitGroup is one output quadrant: its member positions, and per
// attribute the union summary of the members (nil with the null flag set
// when no member has a value for that attribute).
type SplitGroup struct {
	Members []Position
	Unions  []any
	Nulls   []bool
}

// SplitVector is the final output of a split: every input position belongs
// to exactly one of the four groups.
type SplitVector struct {
	Groups [NumGroups]SplitGroup
}

func newSplitVector(arity int) *SplitVector {
	v := &SplitVector{}
	for g := range v.Groups {
		v.Groups[g].Unions = make([]any, arity)
		v.Groups[g].Nulls = make([]bool, arity)
	}
	return v
}
