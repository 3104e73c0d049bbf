package quadsplit

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

var errNoPickSplit = errors.New("no picksplit scripted")

// stubOps is a scriptable AttributeOps for driving the engine through
// specific paths. A nil pick reports failure, which makes the engine fall
// back to quartering; the default union is the first value and the default
// penalty never marks anything as a don't-care.
type stubOps struct {
	pick    func([]any) (PickSplitResult, error)
	penalty func(union, value any) float64
	same    func(a, b any) bool
}

func (s stubOps) PickSplit(values []any) (PickSplitResult, error) {
	if s.pick == nil {
		return PickSplitResult{}, errNoPickSplit
	}
	return s.pick(values)
}

func (s stubOps) Union(values []any) any {
	if len(values) == 0 {
		return nil
	}
	return values[0]
}

func (s stubOps) Penalty(union, value any) float64 {
	if s.penalty == nil {
		return 1
	}
	return s.penalty(union, value)
}

func (s stubOps) Same(a, b any) bool {
	if s.same == nil {
		return false
	}
	return s.same(a, b)
}

func singleAttrEntries(values ...any) []Entry {
	entries := make([]Entry, len(values))
	for i, v := range values {
		entries[i] = Entry{Values: []any{v}, Nulls: []bool{v == nil}}
	}
	return entries
}

// requireCompleteness checks that positions 1..n each appear in exactly one
// group.
func requireCompleteness(t *testing.T, v *SplitVector, n int) {
	t.Helper()
	seen := make(map[Position]int, n)
	total := 0
	for g := range v.Groups {
		for _, p := range v.Groups[g].Members {
			seen[p]++
			total++
		}
	}
	require.Equal(t, n, total)
	for p := Position(1); p <= Position(n); p++ {
		require.Equal(t, 1, seen[p], "position %d", p)
	}
}

func members(v *SplitVector) [NumGroups][]Position {
	var out [NumGroups][]Position
	for g := range v.Groups {
		out[g] = v.Groups[g].Members
	}
	return out
}

func TestNewEngine_NoAttributes(t *testing.T) {
	_, err := NewEngine(nil)
	require.ErrorIs(t, err, ErrNoAttributes)
}

func TestSplit_InputValidation(t *testing.T) {
	e, err := NewEngine([]AttributeOps{stubOps{}})
	require.NoError(t, err)

	_, err = e.Split(singleAttrEntries(1))
	require.ErrorIs(t, err, ErrTooFewEntries)

	bad := []Entry{
		{Values: []any{1}, Nulls: []bool{false}},
		{Values: []any{2, 3}, Nulls: []bool{false, false}},
	}
	_, err = e.Split(bad)
	require.ErrorIs(t, err, ErrArityMismatch)
}

// A well-behaved picksplit's answer is installed as-is for a
// single-attribute engine.
func TestSplit_UsesPickSplitAnswer(t *testing.T) {
	ops := stubOps{
		pick: func(values []any) (PickSplitResult, error) {
			var res PickSplitResult
			res.Groups = [NumGroups][]Position{{1, 2}, {3}, {4, 5}, {6}}
			for g := range res.Groups {
				res.Unions[g] = (g + 1) * 10
			}
			return res, nil
		},
	}
	e, err := NewEngine([]AttributeOps{ops})
	require.NoError(t, err)

	v, err := e.Split(singleAttrEntries(1, 2, 3, 4, 5, 6))
	require.NoError(t, err)
	requireCompleteness(t, v, 6)

	require.Equal(t, [NumGroups][]Position{{1, 2}, {3}, {4, 5}, {6}}, members(v))
	for g := range v.Groups {
		require.Equal(t, (g+1)*10, v.Groups[g].Unions[0])
		require.False(t, v.Groups[g].Nulls[0])
	}
}

// The trailing "rest of the entries" sentinel is rewritten to the real
// last position.
func TestSplit_SentinelNormalized(t *testing.T) {
	ops := stubOps{
		pick: func(values []any) (PickSplitResult, error) {
			var res PickSplitResult
			res.Groups = [NumGroups][]Position{{1}, {2}, {3}, {InvalidPosition}}
			for g := range res.Groups {
				res.Unions[g] = g
			}
			return res, nil
		},
	}
	e, err := NewEngine([]AttributeOps{ops})
	require.NoError(t, err)

	v, err := e.Split(singleAttrEntries(10, 20, 30, 40))
	require.NoError(t, err)
	require.Equal(t, []Position{4}, v.Groups[GroupSE].Members)
	requireCompleteness(t, v, 4)
}

// A picksplit that leaves a group empty is recoverable: the engine
// substitutes the deterministic quartering and carries on.
func TestSplit_EmptyGroupFallsBackToQuartering(t *testing.T) {
	ops := stubOps{
		pick: func(values []any) (PickSplitResult, error) {
			var res PickSplitResult
			res.Groups[GroupNW] = []Position{1, 2, 3, 4, 5}
			res.Unions[GroupNW] = 1
			return res, nil
		},
	}
	e, err := NewEngine([]AttributeOps{ops})
	require.NoError(t, err)

	v, err := e.Split(singleAttrEntries(1, 2, 3, 4, 5))
	require.NoError(t, err)
	require.Equal(t, [NumGroups][]Position{{1, 2}, {3}, {4}, {5}}, members(v))
	requireCompleteness(t, v, 5)
}

// All-null attribute with nothing after it: deterministic quartering with
// the null flag set everywhere.
func TestSplit_AllNulls(t *testing.T) {
	e, err := NewEngine([]AttributeOps{stubOps{}})
	require.NoError(t, err)

	v, err := e.Split(singleAttrEntries(nil, nil, nil, nil, nil, nil))
	require.NoError(t, err)
	require.Equal(t, [NumGroups][]Position{{1, 2}, {3, 4}, {5}, {6}}, members(v))
	for g := range v.Groups {
		require.True(t, v.Groups[g].Nulls[0])
		require.Nil(t, v.Groups[g].Unions[0])
	}
}

// Mixed nulls: every null entry goes to NW, the rest are dealt round-robin
// over the other three groups.
func TestSplit_MixedNulls(t *testing.T) {
	e, err := NewEngine([]AttributeOps{stubOps{}})
	require.NoError(t, err)

	v, err := e.Split(singleAttrEntries(100, nil, 300, nil, 500))
	require.NoError(t, err)
	requireCompleteness(t, v, 5)

	require.Equal(t, []Position{2, 4}, v.Groups[GroupNW].Members)
	require.True(t, v.Groups[GroupNW].Nulls[0])
	require.Equal(t, []Position{3}, v.Groups[GroupNE].Members)
	require.Equal(t, []Position{1}, v.Groups[GroupSW].Members)
	require.Equal(t, []Position{5}, v.Groups[GroupSE].Members)

	require.Equal(t, 300, v.Groups[GroupNE].Unions[0])
	require.Equal(t, 100, v.Groups[GroupSW].Unions[0])
	require.Equal(t, 500, v.Groups[GroupSE].Unions[0])
}

// Four equal union keys mean the first attribute separated nothing; the
// whole set is re-split on the next attribute.
func TestSplit_DegenerateResplitOnNextAttribute(t *testing.T) {
	attr0 := stubOps{
		pick: func(values []any) (PickSplitResult, error) {
			var res PickSplitResult
			res.Groups = [NumGroups][]Position{{1}, {2}, {3}, {4}}
			for g := range res.Groups {
				res.Unions[g] = 7
			}
			return res, nil
		},
		same: func(a, b any) bool { return a == b },
	}
	attr1 := stubOps{
		pick: func(values []any) (PickSplitResult, error) {
			var res PickSplitResult
			res.Groups = [NumGroups][]Position{{4}, {3}, {2}, {1}}
			for g := range res.Groups {
				res.Unions[g] = g
			}
			return res, nil
		},
	}
	e, err := NewEngine([]AttributeOps{attr0, attr1})
	require.NoError(t, err)

	entries := []Entry{
		{Values: []any{1, 11}, Nulls: []bool{false, false}},
		{Values: []any{2, 12}, Nulls: []bool{false, false}},
		{Values: []any{3, 13}, Nulls: []bool{false, false}},
		{Values: []any{4, 14}, Nulls: []bool{false, false}},
	}
	v, err := e.Split(entries)
	require.NoError(t, err)
	require.Equal(t, [NumGroups][]Position{{4}, {3}, {2}, {1}}, members(v))
	requireCompleteness(t, v, 4)
}

// Entries with zero penalty against every other group are pulled out and
// re-split with the next attribute, then merged back under their original
// positions.
func TestSplit_DontCareRedistribution(t *testing.T) {
	attr0 := stubOps{
		pick: func(values []any) (PickSplitResult, error) {
			var res PickSplitResult
			res.Groups = [NumGroups][]Position{{1, 2}, {3}, {4, 5}, {6}}
			for g := range res.Groups {
				res.Unions[g] = (g + 1) * 10
			}
			return res, nil
		},
		penalty: func(union, value any) float64 {
			// Positions 2 and 5 fit anywhere for free.
			if value == 2 || value == 5 {
				return 0
			}
			return 1
		},
	}
	// The second attribute's picksplit always fails, so the don't-care
	// sub-split lands in the quartering fallback: two entries become
	// NW and NE of the sub-vector, mapping back to positions 2 and 5.
	attr1 := stubOps{}

	e, err := NewEngine([]AttributeOps{attr0, attr1})
	require.NoError(t, err)

	entries := make([]Entry, 6)
	for i := range entries {
		entries[i] = Entry{Values: []any{i + 1, float64(i)}, Nulls: []bool{false, false}}
	}
	v, err := e.Split(entries)
	require.NoError(t, err)
	requireCompleteness(t, v, 6)

	require.Equal(t, [NumGroups][]Position{{1, 2}, {3, 5}, {4}, {6}}, members(v))

	// Union summaries cover the final membership, not the pre-merge one.
	require.Equal(t, 1, v.Groups[GroupNW].Unions[0])
	require.Equal(t, 3, v.Groups[GroupNE].Unions[0])
	require.Equal(t, 4, v.Groups[GroupSW].Unions[0])
	require.Equal(t, 6, v.Groups[GroupSE].Unions[0])
	require.Equal(t, 0.0, v.Groups[GroupNW].Unions[1])
	require.Equal(t, 2.0, v.Groups[GroupNE].Unions[1])
}

// A single don't-care entry cannot be re-split; it is placed by the lowest
// penalty over the remaining attributes.
func TestSplit_SingleDontCarePlacedByPenalty(t *testing.T) {
	attr0 := stubOps{
		pick: func(values []any) (PickSplitResult, error) {
			var res PickSplitResult
			res.Groups = [NumGroups][]Position{{1, 2}, {3}, {4, 5}, {6}}
			for g := range res.Groups {
				res.Unions[g] = (g + 1) * 10
			}
			return res, nil
		},
		penalty: func(union, value any) float64 {
			if value == 5 {
				return 0
			}
			return 1
		},
	}
	attr1 := stubOps{
		penalty: func(union, value any) float64 {
			return math.Abs(union.(float64) - value.(float64))
		},
	}
	e, err := NewEngine([]AttributeOps{attr0, attr1})
	require.NoError(t, err)

	attr1Values := []float64{10, 10, 20, 30, 30, 40}
	entries := make([]Entry, 6)
	for i := range entries {
		entries[i] = Entry{Values: []any{i + 1, attr1Values[i]}, Nulls: []bool{false, false}}
	}
	v, err := e.Split(entries)
	require.NoError(t, err)
	requireCompleteness(t, v, 6)

	// Position 5's second attribute value matches SW's union exactly.
	require.Equal(t, [NumGroups][]Position{{1, 2}, {3}, {4, 5}, {6}}, members(v))
}

func TestSplit_IntervalCompleteness(t *testing.T) {
	e, err := NewEngine([]AttributeOps{IntervalOps{}})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	for _, n := range []int{4, 5, 9, 40} {
		entries := make([]Entry, n)
		for i := range entries {
			low := rng.Float64() * 100
			entries[i] = Entry{
				Values: []any{Interval{Low: low, High: low + rng.Float64()*10}},
				Nulls:  []bool{false},
			}
		}
		v, err := e.Split(entries)
		require.NoError(t, err)
		requireCompleteness(t, v, n)
		for g := range v.Groups {
			require.NotEmpty(t, v.Groups[g].Members, "n=%d group %s", n, Group(g))
		}
	}
}

func TestQuarterPositions(t *testing.T) {
	for n := 4; n <= 12; n++ {
		quarters := quarterPositions(n)
		next := Position(1)
		for g := 0; g < NumGroups; g++ {
			require.NotEmpty(t, quarters[g], "n=%d group %d", n, g)
			for _, p := range quarters[g] {
				require.Equal(t, next, p)
				next++
			}
		}
		require.Equal(t, Position(n+1), next)

		// Balanced: group sizes differ by at most one.
		for g := 1; g < NumGroups; g++ {
			diff := len(quarters[0]) - len(quarters[g])
			require.GreaterOrEqual(t, diff, 0)
			require.LessOrEqual(t, diff, 1)
		}
	}
}
