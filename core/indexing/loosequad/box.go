// Package loosequad implements a non-overlapping spatial partitioning scheme
// for 2D boxes: a loose quadtree over a 4-dimensional embedding, where a box
// (low-x, high-x, low-y, high-y) is treated as a point in 4D space.
//
// The package exposes the three algorithmic cores of the index:
//
//   - quadrant classification and insertion-level selection (QuadrantOf,
//     ChooseLevel),
//   - traversal-value propagation (RectBox.Next), which tightens a
//     4-dimensional bounding envelope at every step of a tree descent,
//   - conservative region predicates and exact leaf predicates for eleven
//     spatial search strategies (Strategy).
//
// Tree ties these together into an in-memory index; callers embedding the
// core into their own page-based traversal driver can use the primitives
// directly.
package loosequad

import "math"

// epsilon is the tolerance used for all fuzzy floating point comparisons on
// box coordinates. Two coordinates closer than this are considered equal.
const epsilon = 1.0e-9

func fpEq(a, b float64) bool { return math.Abs(a-b) <= epsilon }
func fpLt(a, b float64) bool { return b-a > epsilon }
func fpLe(a, b float64) bool { return a-b <= epsilon }
func fpGt(a, b float64) bool { return a-b > epsilon }
func fpGe(a, b float64) bool { return b-a <= epsilon }

// Box is an axis-aligned rectangle in 2D space.
type Box struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// Width returns the extent of the box along the X axis.
func (b Box) Width() float64 { return b.MaxX - b.MinX }

// Height returns the extent of the box along the Y axis.
func (b Box) Height() float64 { return b.MaxY - b.MinY }

// CenterX returns the X coordinate of the box's centroid.
func (b Box) CenterX() float64 { return b.MinX + (b.MaxX-b.MinX)/2.0 }

// CenterY returns the Y coordinate of the box's centroid.
func (b Box) CenterY() float64 { return b.MinY + (b.MaxY-b.MinY)/2.0 }

// Area returns the area of the box, or 0 for a degenerate box.
func (b Box) Area() float64 {
	if b.MinX > b.MaxX || b.MinY > b.MaxY {
		return 0
	}
	return (b.MaxX - b.MinX) * (b.MaxY - b.MinY)
}

// Union returns the smallest box that encloses both b and other.
func (b Box) Union(other Box) Box {
	return Box{
		MinX: math.Min(b.MinX, other.MinX),
		MinY: math.Min(b.MinY, other.MinY),
		MaxX: math.Max(b.MaxX, other.MaxX),
		MaxY: math.Max(b.MaxY, other.MaxY),
	}
}

// Enlargement returns the increase in area if b were grown to include other.
func (b Box) Enlargement(other Box) float64 {
	return b.Union(other).Area() - b.Area()
}

// Overlaps reports whether the two boxes share any point.
func (b Box) Overlaps(other Box) bool {
	return fpLe(b.MinX, other.MaxX) && fpGe(b.MaxX, other.MinX) &&
		fpLe(b.MinY, other.MaxY) && fpGe(b.MaxY, other.MinY)
}

// Contains reports whether b fully encloses other.
func (b Box) Contains(other Box) bool {
	return fpLe(b.MinX, other.MinX) && fpGe(b.MaxX, other.MaxX) &&
		fpLe(b.MinY, other.MinY) && fpGe(b.MaxY, other.MaxY)
}

// ContainedBy reports whether b is fully enclosed by other.
func (b Box) ContainedBy(other Box) bool {
	return other.Contains(b)
}

// Same reports whether the two boxes are equal within tolerance.
func (b Box) Same(other Box) bool {
	return fpEq(b.MinX, other.MinX) && fpEq(b.MaxX, other.MaxX) &&
		fpEq(b.MinY, other.MinY) && fpEq(b.MaxY, other.MaxY)
}

// Left reports whether b lies strictly to the left of other.
func (b Box) Left(other Box) bool { return fpLt(b.MaxX, other.MinX) }

// OverLeft reports whether b does not extend to the right of other.
func (b Box) OverLeft(other Box) bool { return fpLe(b.MaxX, other.MaxX) }

// Right reports whether b lies strictly to the right of other.
func (b Box) Right(other Box) bool { return fpGt(b.MinX, other.MaxX) }

// OverRight reports whether b does not extend to the left of other.
func (b Box) OverRight(other Box) bool { return fpGe(b.MinX, other.MinX) }

// Below reports whether b lies strictly below other.
func (b Box) Below(other Box) bool { return fpLt(b.MaxY, other.MinY) }

// OverBelow reports whether b does not extend above other.
func (b Box) OverBelow(other Box) bool { return fpLe(b.MaxY, other.MaxY) }

// Above reports whether b lies strictly above other.
func (b Box) Above(other Box) bool { return fpGt(b.MinY, other.MaxY) }

// OverAbove reports whether b does not extend below other.
func (b Box) OverAbove(other Box) bool { return fpGe(b.MinY, other.MinY) }
