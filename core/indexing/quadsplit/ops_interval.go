package quadsplit

import (
	"fmt"
	"sort"
)

// Interval is the attribute value type handled by IntervalOps: a 1-D
// {low, high} range.
type Interval struct {
	Low, High float64
}

func (iv Interval) span() float64   { return iv.High - iv.Low }
func (iv Interval) center() float64 { return iv.Low + (iv.High-iv.Low)/2.0 }

func (iv Interval) enclose(other Interval) Interval {
	out := iv
	if other.Low < out.Low {
		out.Low = other.Low
	}
	if other.High > out.High {
		out.High = other.High
	}
	return out
}

// IntervalOps implements AttributeOps for Interval values. The union
// summary is the enclosing interval; the penalty is the span enlargement.
type IntervalOps struct{}

func asInterval(v any) (Interval, error) {
	iv, ok := v.(Interval)
	if !ok {
		return Interval{}, fmt.Errorf("quadsplit: expected Interval value, got %T", v)
	}
	return iv, nil
}

// PickSplit orders the intervals by center and deals them into four
// contiguous quarters.
func (IntervalOps) PickSplit(values []any) (PickSplitResult, error) {
	ivs := make([]Interval, len(values))
	for i, v := range values {
		iv, err := asInterval(v)
		if err != nil {
			return PickSplitResult{}, err
		}
		ivs[i] = iv
	}

	order := make([]Position, len(ivs))
	for i := range order {
		order[i] = Position(i + 1)
	}
	sort.SliceStable(order, func(a, b int) bool {
		return ivs[order[a]-1].center() < ivs[order[b]-1].center()
	})

	var res PickSplitResult
	quarters := quarterPositions(len(values))
	at := 0
	for g := range quarters {
		members := make([]Position, len(quarters[g]))
		union := Interval{}
		for i := range quarters[g] {
			p := order[at]
			at++
			members[i] = p
			if i == 0 {
				union = ivs[p-1]
			} else {
				union = union.enclose(ivs[p-1])
			}
		}
		res.Groups[g] = members
		res.Unions[g] = union
	}
	return res, nil
}

func (IntervalOps) Union(values []any) any {
	var union Interval
	for i, v := range values {
		iv, err := asInterval(v)
		if err != nil {
			continue
		}
		if i == 0 {
			union = iv
		} else {
			union = union.enclose(iv)
		}
	}
	return union
}

func (IntervalOps) Penalty(union, value any) float64 {
	u, err := asInterval(union)
	if err != nil {
		return 0
	}
	iv, err := asInterval(value)
	if err != nil {
		return 0
	}
	return u.enclose(iv).span() - u.span()
}

func (IntervalOps) Same(a, b any) bool {
	ia, errA := asInterval(a)
	ib, errB := asInterval(b)
	if errA != nil || errB != nil {
		return false
	}
	return ia == ib
}
