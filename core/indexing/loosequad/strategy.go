package loosequad

import (
	"errors"
	"fmt"
)

// ErrUnknownStrategy is returned when a search strategy this package does
// not implement is supplied. Treating an unknown strategy as "always match"
// would silently corrupt scan results, so the contract violation is
// surfaced instead.
var ErrUnknownStrategy = errors.New("loosequad: unrecognized strategy")

// Strategy identifies one of the supported spatial search predicates. The
// numbering follows the classic R-tree strategy numbers.
type Strategy int

const (
	StrategyLeft        Strategy = 1
	StrategyOverLeft    Strategy = 2
	StrategyOverlap     Strategy = 3
	StrategyOverRight   Strategy = 4
	StrategyRight       Strategy = 5
	StrategySame        Strategy = 6
	StrategyContains    Strategy = 7
	StrategyContainedBy Strategy = 8
	StrategyOverBelow   Strategy = 9
	StrategyBelow       Strategy = 10
	StrategyAbove       Strategy = 11
	StrategyOverAbove   Strategy = 12
)

func (s Strategy) String() string {
	switch s {
	case StrategyLeft:
		return "left"
	case StrategyOverLeft:
		return "overleft"
	case StrategyOverlap:
		return "overlap"
	case StrategyOverRight:
		return "overright"
	case StrategyRight:
		return "right"
	case StrategySame:
		return "same"
	case StrategyContains:
		return "contains"
	case StrategyContainedBy:
		return "containedby"
	case StrategyOverBelow:
		return "overbelow"
	case StrategyBelow:
		return "below"
	case StrategyAbove:
		return "above"
	case StrategyOverAbove:
		return "overabove"
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// ParseStrategy maps a strategy name (as printed by String) back to its
// Strategy value.
func ParseStrategy(name string) (Strategy, error) {
	for s := StrategyLeft; s <= StrategyOverAbove; s++ {
		if s.String() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// Exact reports whether the region-level test for this strategy is already
// exact, so a positive leaf answer needs no further recheck by the caller.
// The directional strategies are exact; overlap, containment and equality
// on lossy leaf representations (e.g. polygons indexed by their bounding
// box) must be rechecked against the original value.
func (s Strategy) Exact() bool {
	switch s {
	case StrategyLeft, StrategyOverLeft, StrategyRight, StrategyOverRight,
		StrategyBelow, StrategyOverBelow, StrategyAbove, StrategyOverAbove:
		return true
	default:
		return false
	}
}

// ConsistentRegion is the inner-node test: could any box under the subtree
// bounded by rb satisfy the strategy against the query? It is a sound
// over-approximation: a false result guarantees no descendant leaf
// qualifies, so the subtree can be pruned; a true result only means the
// subtree is worth visiting.
func (s Strategy) ConsistentRegion(rb RectBox, query RangeBox) (bool, error) {
	switch s {
	case StrategyOverlap:
		return rb.overlaps(query), nil
	case StrategyContains:
		return rb.contains(query), nil
	case StrategySame, StrategyContainedBy:
		return rb.containedBy(query), nil
	case StrategyLeft:
		return rb.left(query), nil
	case StrategyOverLeft:
		return rb.overLeft(query), nil
	case StrategyRight:
		return rb.right(query), nil
	case StrategyOverRight:
		return rb.overRight(query), nil
	case StrategyAbove:
		return rb.above(query), nil
	case StrategyOverAbove:
		return rb.overAbove(query), nil
	case StrategyBelow:
		return rb.below(query), nil
	case StrategyOverBelow:
		return rb.overBelow(query), nil
	default:
		return false, fmt.Errorf("%w: %d", ErrUnknownStrategy, int(s))
	}
}

// ConsistentLeaf is the exact leaf-level test of the strategy.
func (s Strategy) ConsistentLeaf(leaf, query Box) (bool, error) {
	switch s {
	case StrategyOverlap:
		return leaf.Overlaps(query), nil
	case StrategyContains:
		return leaf.Contains(query), nil
	case StrategyContainedBy:
		return leaf.ContainedBy(query), nil
	case StrategySame:
		return leaf.Same(query), nil
	case StrategyLeft:
		return leaf.Left(query), nil
	case StrategyOverLeft:
		return leaf.OverLeft(query), nil
	case StrategyRight:
		return leaf.Right(query), nil
	case StrategyOverRight:
		return leaf.OverRight(query), nil
	case StrategyAbove:
		return leaf.Above(query), nil
	case StrategyOverAbove:
		return leaf.OverAbove(query), nil
	case StrategyBelow:
		return leaf.Below(query), nil
	case StrategyOverBelow:
		return leaf.OverBelow(query), nil
	default:
		return false, fmt.Errorf("%w: %d", ErrUnknownStrategy, int(s))
	}
}
