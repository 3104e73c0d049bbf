package loosequad

import "math"

// Range is a 1-dimensional closed interval.
type Range struct {
	Low, High float64
}

func (r Range) center() float64 {
	return r.Low + (r.High-r.Low)/2.0
}

// RangeBox is a pair of intervals covering one axis pair of the 4D embedding.
//
// Two readings apply, exactly mirroring how it is used:
//
//   - As a query operand built from a Box (NewRangeBox): Left is the X
//     interval and Right is the Y interval of the box.
//   - As one axis of a RectBox: Left bounds the possible values of the
//     "low" endpoint of descendant boxes on that axis, and Right bounds the
//     possible values of the "high" endpoint.
type RangeBox struct {
	Left  Range
	Right Range
}

// NewRangeBox reinterprets a box as a pair of interval endpoints, i.e. a
// point in 4D space.
func NewRangeBox(b Box) RangeBox {
	return RangeBox{
		Left:  Range{Low: b.MinX, High: b.MaxX},
		Right: Range{Low: b.MinY, High: b.MaxY},
	}
}

// RectBox is the accumulated bounding envelope for an entire subtree: for
// each original axis, the outer bounds every descendant box's low and high
// coordinates can take. It only ever shrinks as a descent proceeds.
//
// A RectBox is owned by a single descent path. It has value semantics: Next
// returns an independent copy, so fanning out to several children never
// shares or mutates the parent's value.
type RectBox struct {
	X RangeBox
	Y RangeBox
}

// NewRootRectBox returns the traversal value for the root of the tree. No
// restrictions are known yet, so every bound covers the whole 4D space.
func NewRootRectBox() RectBox {
	inf := math.Inf(1)
	unbounded := RangeBox{
		Left:  Range{Low: -inf, High: inf},
		Right: Range{Low: -inf, High: inf},
	}
	return RectBox{X: unbounded, Y: unbounded}
}

// Next derives the traversal value for one child from the parent's value,
// the inner node's centroid (as a RangeBox) and the child's quadrant.
//
// Children are routed by comparing box centers against the centroid's
// center, so each axis admits exactly one sound tightening. An east child
// only guarantees that every descendant's high X endpoint reaches the
// centroid's center; a west child, that every descendant's low X endpoint
// stays at or below it. The same holds for Y. Each tightened bound is
// clamped against the parent's, so the result is contained in the parent on
// every bound component no matter what centroid is supplied.
func (rb RectBox) Next(centroid RangeBox, q Quadrant) RectBox {
	next := rb
	cx := centroid.Left.center()
	cy := centroid.Right.center()

	if q == NE || q == SE {
		next.X.Right.Low = math.Max(next.X.Right.Low, cx)
	} else {
		next.X.Left.High = math.Min(next.X.Left.High, cx)
	}

	if q == NW || q == NE {
		next.Y.Right.Low = math.Max(next.Y.Right.Low, cy)
	} else {
		next.Y.Left.High = math.Min(next.Y.Left.High, cy)
	}

	return next
}

// --- region predicates over one axis pair ---
//
// In each of these, rb is one axis of a RectBox (bounds on low and high
// endpoints of descendant boxes) and query is the matching axis interval of
// the search argument. They answer "could any descendant interval ...?",
// i.e. they are conservative: false guarantees no descendant qualifies.

// Can any interval under rb overlap the query interval?
func (rb RangeBox) overlaps(query Range) bool {
	return fpGe(rb.Right.High, query.Low) && fpLe(rb.Left.Low, query.High)
}

// Can any interval under rb contain the query interval?
func (rb RangeBox) contains(query Range) bool {
	return fpGe(rb.Right.High, query.High) && fpLe(rb.Left.Low, query.Low)
}

// Can any interval under rb be contained by the query interval?
func (rb RangeBox) containedBy(query Range) bool {
	return fpLe(rb.Left.Low, query.High) && fpGe(rb.Left.High, query.Low) &&
		fpLe(rb.Right.Low, query.High) && fpGe(rb.Right.High, query.Low)
}

// Can any interval under rb lie strictly below the query interval?
func (rb RangeBox) lower(query Range) bool {
	return fpLt(rb.Left.Low, query.Low) && fpLt(rb.Right.Low, query.Low)
}

// Can any interval under rb not extend past the high end of the query?
func (rb RangeBox) overLower(query Range) bool {
	return fpLe(rb.Left.Low, query.High) && fpLe(rb.Right.Low, query.High)
}

// Can any interval under rb lie strictly above the query interval?
func (rb RangeBox) higher(query Range) bool {
	return fpGt(rb.Left.High, query.High) && fpGt(rb.Right.High, query.High)
}

// Can any interval under rb not extend past the low end of the query?
func (rb RangeBox) overHigher(query Range) bool {
	return fpGe(rb.Left.High, query.Low) && fpGe(rb.Right.High, query.Low)
}

// --- region predicates over the full 4D envelope ---

func (r RectBox) overlaps(query RangeBox) bool {
	return r.X.overlaps(query.Left) && r.Y.overlaps(query.Right)
}

func (r RectBox) contains(query RangeBox) bool {
	return r.X.contains(query.Left) && r.Y.contains(query.Right)
}

func (r RectBox) containedBy(query RangeBox) bool {
	return r.X.containedBy(query.Left) && r.Y.containedBy(query.Right)
}

func (r RectBox) left(query RangeBox) bool      { return r.X.lower(query.Left) }
func (r RectBox) overLeft(query RangeBox) bool  { return r.X.overLower(query.Left) }
func (r RectBox) right(query RangeBox) bool     { return r.X.higher(query.Left) }
func (r RectBox) overRight(query RangeBox) bool { return r.X.overHigher(query.Left) }
func (r RectBox) below(query RangeBox) bool     { return r.Y.lower(query.Right) }
func (r RectBox) overBelow(query RangeBox) bool { return r.Y.overLower(query.Right) }
func (r RectBox) above(query RangeBox) bool     { return r.Y.higher(query.Right) }
func (r RectBox) overAbove(query RangeBox) bool { return r.Y.overHigher(query.Right) }
