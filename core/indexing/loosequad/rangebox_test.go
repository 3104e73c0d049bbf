package loosequad

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func requireRangeWithin(t *testing.T, outer, inner Range) {
	t.Helper()
	require.LessOrEqual(t, outer.Low, inner.Low)
	require.GreaterOrEqual(t, outer.High, inner.High)
}

func requireRectBoxWithin(t *testing.T, outer, inner RectBox) {
	t.Helper()
	requireRangeWithin(t, outer.X.Left, inner.X.Left)
	requireRangeWithin(t, outer.X.Right, inner.X.Right)
	requireRangeWithin(t, outer.Y.Left, inner.Y.Left)
	requireRangeWithin(t, outer.Y.Right, inner.Y.Right)
}

func TestNewRootRectBox_Unbounded(t *testing.T) {
	root := NewRootRectBox()
	for _, r := range []Range{root.X.Left, root.X.Right, root.Y.Left, root.Y.Right} {
		require.True(t, math.IsInf(r.Low, -1))
		require.True(t, math.IsInf(r.High, 1))
	}
}

func TestNewRangeBox(t *testing.T) {
	rb := NewRangeBox(Box{MinX: 1, MinY: 2, MaxX: 3, MaxY: 4})
	require.Equal(t, Range{Low: 1, High: 3}, rb.Left)
	require.Equal(t, Range{Low: 2, High: 4}, rb.Right)
}

// Descending into the upper-right quadrant from the root must raise the
// low bound of the high-endpoint interval on each axis to the centroid's
// center and leave every other bound unbounded.
func TestRectBoxNext_UpperRightFromRoot(t *testing.T) {
	root := NewRootRectBox()
	centroid := NewRangeBox(Box{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10})

	next := root.Next(centroid, NE)

	require.Equal(t, 5.0, next.X.Right.Low)
	require.Equal(t, 5.0, next.Y.Right.Low)
	require.True(t, math.IsInf(next.X.Right.High, 1))
	require.True(t, math.IsInf(next.Y.Right.High, 1))

	// The low-endpoint intervals are untouched: an east or upper child says
	// nothing about how far left or down a descendant box may start.
	require.Equal(t, root.X.Left, next.X.Left)
	require.Equal(t, root.Y.Left, next.Y.Left)
}

// A west or lower child caps the low endpoints instead.
func TestRectBoxNext_LowerLeftFromRoot(t *testing.T) {
	root := NewRootRectBox()
	centroid := NewRangeBox(Box{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10})

	next := root.Next(centroid, SW)

	require.Equal(t, 5.0, next.X.Left.High)
	require.Equal(t, 5.0, next.Y.Left.High)
	require.True(t, math.IsInf(next.X.Left.Low, -1))
	require.True(t, math.IsInf(next.Y.Left.Low, -1))

	require.Equal(t, root.X.Right, next.X.Right)
	require.Equal(t, root.Y.Right, next.Y.Right)
}

// Every descent step may only shrink the envelope, for every quadrant, on
// every one of the four bound components.
func TestRectBoxNext_MonotonicShrink(t *testing.T) {
	centroids := []Box{
		{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10},
		{MinX: -5, MinY: 3, MaxX: 1, MaxY: 4},
		{MinX: 2, MinY: 2, MaxX: 2, MaxY: 2},
	}

	for _, c := range centroids {
		parent := NewRootRectBox()
		centroid := NewRangeBox(c)
		for q := NW; q <= SE; q++ {
			child := parent.Next(centroid, q)
			requireRectBoxWithin(t, parent, child)

			// And one level further down, from an already-bounded parent.
			deeper := child.Next(NewRangeBox(SubExtent(c, q)), q)
			requireRectBoxWithin(t, child, deeper)
		}
	}
}

// The envelope produced for a quadrant must admit every box that the
// classifier routes into that quadrant. This ties Next to QuadrantOf:
// pruning on the envelope can never discard a stored entry.
func TestRectBoxNext_AdmitsRoutedBoxes(t *testing.T) {
	centroidBox := Box{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}
	centroid := NewRangeBox(centroidBox)
	root := NewRootRectBox()

	var boxes []Box
	for x := -9.0; x <= 14; x += 3.5 {
		for y := -9.0; y <= 14; y += 3.5 {
			boxes = append(boxes,
				Box{MinX: x, MinY: y, MaxX: x + 1, MaxY: y + 1},
				Box{MinX: x, MinY: y, MaxX: x + 8, MaxY: y + 8})
		}
	}

	for _, b := range boxes {
		q := QuadrantOf(centroidBox, b)
		region := root.Next(centroid, q)

		require.LessOrEqual(t, region.X.Left.Low, b.MinX, "box %+v quadrant %s", b, q)
		require.GreaterOrEqual(t, region.X.Left.High, b.MinX, "box %+v quadrant %s", b, q)
		require.LessOrEqual(t, region.X.Right.Low, b.MaxX, "box %+v quadrant %s", b, q)
		require.GreaterOrEqual(t, region.X.Right.High, b.MaxX, "box %+v quadrant %s", b, q)
		require.LessOrEqual(t, region.Y.Left.Low, b.MinY, "box %+v quadrant %s", b, q)
		require.GreaterOrEqual(t, region.Y.Left.High, b.MinY, "box %+v quadrant %s", b, q)
		require.LessOrEqual(t, region.Y.Right.Low, b.MaxY, "box %+v quadrant %s", b, q)
		require.GreaterOrEqual(t, region.Y.Right.High, b.MaxY, "box %+v quadrant %s", b, q)
	}
}

// Next must not mutate the parent: every child gets its own copy.
func TestRectBoxNext_ParentUntouched(t *testing.T) {
	parent := NewRootRectBox()
	centroid := NewRangeBox(Box{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10})

	before := parent
	for q := NW; q <= SE; q++ {
		_ = parent.Next(centroid, q)
	}
	require.Equal(t, before, parent)
}
