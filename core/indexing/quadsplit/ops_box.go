package quadsplit

import (
	"fmt"
	"sort"

	"github.com/sushant-115/gojospatial/core/indexing/loosequad"
)

// BoxOps implements AttributeOps for loosequad.Box values. The union
// summary is the bounding box, the penalty its area enlargement, and the
// picksplit classifies entries into quadrants around the bounding square of
// all the entries, the same splitting point the loose quadtree uses.
type BoxOps struct{}

func asBox(v any) (loosequad.Box, error) {
	b, ok := v.(loosequad.Box)
	if !ok {
		return loosequad.Box{}, fmt.Errorf("quadsplit: expected Box value, got %T", v)
	}
	return b, nil
}

// boundingSquare is the minimum square enclosing every coordinate of every
// box, centered like the loose quadtree's splitting centroid.
func boundingSquare(boxes []loosequad.Box) loosequad.Box {
	n := len(boxes)
	lows := make([]float64, 0, 2*n)
	highs := make([]float64, 0, 2*n)
	for _, b := range boxes {
		lows = append(lows, b.MinX, b.MinY)
		highs = append(highs, b.MaxX, b.MaxY)
	}
	sort.Float64s(lows)
	sort.Float64s(highs)
	return loosequad.Box{
		MinX: lows[0], MinY: lows[0],
		MaxX: highs[2*n-1], MaxY: highs[2*n-1],
	}
}

// PickSplit maps each box to the quadrant its centroid falls into relative
// to the entries' bounding square. A cluster of boxes can leave a quadrant
// empty; the engine treats that as a recoverable defect and quarters
// instead.
func (BoxOps) PickSplit(values []any) (PickSplitResult, error) {
	boxes := make([]loosequad.Box, len(values))
	for i, v := range values {
		b, err := asBox(v)
		if err != nil {
			return PickSplitResult{}, err
		}
		boxes[i] = b
	}

	centroid := boundingSquare(boxes)

	var res PickSplitResult
	var unions [NumGroups]loosequad.Box
	for i, b := range boxes {
		g := Group(loosequad.QuadrantOf(centroid, b))
		if len(res.Groups[g]) == 0 {
			unions[g] = b
		} else {
			unions[g] = unions[g].Union(b)
		}
		res.Groups[g] = append(res.Groups[g], Position(i+1))
	}
	for g := range res.Groups {
		res.Unions[g] = unions[g]
	}
	return res, nil
}

func (BoxOps) Union(values []any) any {
	var union loosequad.Box
	for i, v := range values {
		b, err := asBox(v)
		if err != nil {
			continue
		}
		if i == 0 {
			union = b
		} else {
			union = union.Union(b)
		}
	}
	return union
}

func (BoxOps) Penalty(union, value any) float64 {
	u, err := asBox(union)
	if err != nil {
		return 0
	}
	b, err := asBox(value)
	if err != nil {
		return 0
	}
	return u.Enlargement(b)
}

func (BoxOps) Same(a, b any) bool {
	ba, errA := asBox(a)
	bb, errB := asBox(b)
	if errA != nil || errB != nil {
		return false
	}
	return ba.Same(bb)
}
