package loosequad

import "math"

// Quadrant identifies one of the four children of an inner node.
//
// Labeling, relative to the node's centroid:
//
//	          |
//	    NW(0) |  NE(1)
//	          |
//	----------+----------
//	          |
//	    SW(2) |  SE(3)
//	          |
type Quadrant int

const (
	NW Quadrant = iota
	NE
	SW
	SE

	// NumQuadrants is the fan-out of every inner node.
	NumQuadrants = 4
)

func (q Quadrant) String() string {
	switch q {
	case NW:
		return "NW"
	case NE:
		return "NE"
	case SW:
		return "SW"
	case SE:
		return "SE"
	}
	return "invalid"
}

// QuadrantOf returns the quadrant of reference that candidate's centroid
// falls into. The function is total: equal coordinates resolve toward the
// east/north member (>=), so QuadrantOf(b, b) is always NE.
func QuadrantOf(reference, candidate Box) Quadrant {
	upper := candidate.CenterY() >= reference.CenterY()
	east := candidate.CenterX() >= reference.CenterX()

	switch {
	case upper && east:
		return NE
	case upper:
		return NW
	case east:
		return SE
	default:
		return SW
	}
}

// SubExtent returns the sub-box of extent covered by quadrant q, i.e. the
// extent halved toward that quadrant around its centroid.
func SubExtent(extent Box, q Quadrant) Box {
	midX := extent.CenterX()
	midY := extent.CenterY()

	sub := extent
	switch q {
	case NW:
		sub.MinY = midY
		sub.MaxX = midX
	case NE:
		sub.MinX = midX
		sub.MinY = midY
	case SW:
		sub.MaxX = midX
		sub.MaxY = midY
	case SE:
		sub.MinX = midX
		sub.MaxY = midY
	}
	return sub
}

// maxLevelAdd bounds the simulated descent so degenerate inputs (point
// boxes, zero-extent nodes) cannot spin the loop.
const maxLevelAdd = 32

// ChooseLevel decides how deep below the current node a new box should be
// inserted, so that a box ends up at a depth proportional to its own size:
// large boxes stay shallow, small boxes descend further. That bounded
// sibling overlap is the defining property of a loose quadtree.
//
// Let s be the longest side of the node's extent and r half the longest
// side of the new box. The target level is floor(log2(s/r))-1, clamped to
// be at or below the current node, never above. The returned quadrant is
// the child chosen at the final simulated level: the descent is replayed
// levelAdd times, halving the extent into the chosen quadrant at each step.
// When levelAdd is 0 the node's own classification is returned.
func ChooseLevel(nodeExtent, newBox Box, currentLevel int) (levelAdd int, q Quadrant) {
	s := math.Max(nodeExtent.Width(), nodeExtent.Height())
	r := math.Max(newBox.Width(), newBox.Height()) / 2.0

	candidate := 0
	if s > 0 && r > 0 {
		candidate = int(math.Floor(math.Log2(s/r))) - 1
		if candidate < 0 {
			candidate = 0
		}
	} else if s > 0 && r == 0 {
		// Point-like box: descend as deep as the simulation allows.
		candidate = currentLevel + maxLevelAdd
	}

	levelAdd = candidate - currentLevel
	if levelAdd < 0 {
		levelAdd = 0
	}
	if levelAdd > maxLevelAdd {
		levelAdd = maxLevelAdd
	}

	extent := nodeExtent
	q = QuadrantOf(extent, newBox)
	for i := 0; i < levelAdd; i++ {
		q = QuadrantOf(extent, newBox)
		extent = SubExtent(extent, q)
	}
	return levelAdd, q
}
