package avl

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourname/hardpoint-mm/pkg/types"
)

// checkInvariants verifies heights, balance factors and ordering of every
// node and returns the number of nodes.
func checkInvariants(t *testing.T, n *node) int {
	t.Helper()
	if n == nil {
		return 0
	}
	if n.left != nil {
		require.True(t, before(n.left.elo, n.left.seq, n), "left child %d/%d not before %d/%d", n.left.elo, n.left.seq, n.elo, n.seq)
	}
	if n.right != nil {
		require.False(t, before(n.right.elo, n.right.seq, n), "right child %d/%d before %d/%d", n.right.elo, n.right.seq, n.elo, n.seq)
	}
	require.Equal(t, 1+max(height(n.left), height(n.right)), n.height, "stale height at %d", n.elo)
	bf := balance(n)
	require.True(t, bf >= -1 && bf <= 1, "balance factor %d at %d", bf, n.elo)
	return 1 + checkInvariants(t, n.left) + checkInvariants(t, n.right)
}

func cand(elo int, seq uint64) *types.Candidate {
	return &types.Candidate{ID: "P" + string(rune('A'+seq%26)), Elo: elo, Seq: seq, InQueue: true}
}

func ratings(cs []*types.Candidate) []int {
	out := make([]int, len(cs))
	for i, c := range cs {
		out[i] = c.Elo
	}
	return out
}

func TestInsertAscendingRotations(t *testing.T) {
	tr := New()
	var all []types.Rotation
	for i, elo := range []int{10, 20, 30, 40, 50} {
		rots := tr.Insert(cand(elo, uint64(i)))
		switch elo {
		case 30, 50:
			require.Len(t, rots, 1, "after inserting %d", elo)
		default:
			assert.Empty(t, rots, "after inserting %d", elo)
		}
		all = append(all, rots...)
	}

	require.Len(t, all, 2)
	for _, r := range all {
		assert.Equal(t, CaseRightRight, r.Case)
		assert.Equal(t, RotateLeft, r.Direction)
	}
	assert.Equal(t, types.Rotation{Direction: RotateLeft, Case: CaseRightRight, Pivot: 10, Affected: [2]int{10, 20}}, all[0])
	assert.Equal(t, types.Rotation{Direction: RotateLeft, Case: CaseRightRight, Pivot: 30, Affected: [2]int{30, 40}}, all[1])
	assert.Equal(t, 3, tr.Height())
	assert.Equal(t, 5, checkInvariants(t, tr.root))
	assert.Equal(t, 20, tr.root.elo)
}

func TestInsertDoubleRotations(t *testing.T) {
	tr := New()
	tr.Insert(cand(30, 0))
	tr.Insert(cand(10, 1))
	rots := tr.Insert(cand(20, 2))
	require.Len(t, rots, 2)
	assert.Equal(t, RotateLeft, rots[0].Direction)
	assert.Equal(t, RotateRight, rots[1].Direction)
	assert.Equal(t, CaseLeftRight, rots[0].Case)
	assert.Equal(t, CaseLeftRight, rots[1].Case)
	assert.Equal(t, 20, tr.root.elo)

	tr = New()
	tr.Insert(cand(10, 0))
	tr.Insert(cand(30, 1))
	rots = tr.Insert(cand(20, 2))
	require.Len(t, rots, 2)
	assert.Equal(t, RotateRight, rots[0].Direction)
	assert.Equal(t, RotateLeft, rots[1].Direction)
	assert.Equal(t, CaseRightLeft, rots[1].Case)
	assert.Equal(t, 20, tr.root.elo)
}

func TestInsertDescendingIsLeftLeft(t *testing.T) {
	tr := New()
	tr.Insert(cand(30, 0))
	tr.Insert(cand(20, 1))
	rots := tr.Insert(cand(10, 2))
	require.Len(t, rots, 1)
	assert.Equal(t, RotateRight, rots[0].Direction)
	assert.Equal(t, CaseLeftLeft, rots[0].Case)
	assert.Equal(t, [2]int{30, 20}, rots[0].Affected)
}

func TestDuplicateRatingsRebalance(t *testing.T) {
	tr := New()
	for i := 0; i < 64; i++ {
		tr.Insert(cand(1500, uint64(i)))
		checkInvariants(t, tr.root)
	}
	assert.Equal(t, 64, tr.Len())
	assert.LessOrEqual(t, tr.Height(), 7)

	in := tr.InOrder()
	for i, c := range in {
		assert.Equal(t, uint64(i), c.Seq, "duplicates must keep insertion order")
	}
}

func TestDeleteMissingIsNoop(t *testing.T) {
	tr := New()
	assert.Nil(t, tr.Delete(1500))

	tr.Insert(cand(1500, 0))
	assert.Nil(t, tr.Delete(1400))
	assert.Equal(t, 1, tr.Len())
}

func TestDeleteTwiceIsIdempotent(t *testing.T) {
	tr := New()
	for i, elo := range []int{50, 30, 70, 20, 40, 60, 80} {
		tr.Insert(cand(elo, uint64(i)))
	}
	tr.Delete(40)
	assert.Equal(t, 6, tr.Len())
	assert.Nil(t, tr.Delete(40))
	assert.Equal(t, 6, tr.Len())
	checkInvariants(t, tr.root)
}

func TestDeleteTwoChildrenCopiesSuccessor(t *testing.T) {
	tr := New()
	for i, elo := range []int{50, 30, 70, 20, 40, 60, 80} {
		tr.Insert(cand(elo, uint64(i)))
	}
	rots := tr.Delete(50)
	assert.Empty(t, rots)
	assert.Equal(t, 60, tr.root.elo)
	assert.Equal(t, 60, tr.root.player.Elo)
	assert.Equal(t, []int{20, 30, 40, 60, 70, 80}, ratings(tr.InOrder()))
	checkInvariants(t, tr.root)
}

func TestDeleteTriggersRotation(t *testing.T) {
	tr := New()
	for i, elo := range []int{20, 10, 30, 40} {
		tr.Insert(cand(elo, uint64(i)))
	}
	rots := tr.Delete(10)
	require.Len(t, rots, 1)
	assert.Equal(t, RotateLeft, rots[0].Direction)
	assert.Equal(t, CaseRightRight, rots[0].Case)
	assert.Equal(t, 30, tr.root.elo)
	checkInvariants(t, tr.root)
}

func TestDeleteCandidateWithSharedRating(t *testing.T) {
	tr := New()
	a := cand(1500, 0)
	b := cand(1500, 1)
	c := cand(1500, 2)
	for _, x := range []*types.Candidate{a, b, c} {
		tr.Insert(x)
	}

	tr.DeleteCandidate(b)
	left := tr.InOrder()
	require.Len(t, left, 2)
	assert.Same(t, a, left[0])
	assert.Same(t, c, left[1])

	assert.Nil(t, tr.DeleteCandidate(b))
	assert.Equal(t, 2, tr.Len())
}

func TestDeleteRatingRemovesFirstInOrder(t *testing.T) {
	tr := New()
	a := cand(1500, 0)
	b := cand(1500, 1)
	tr.Insert(cand(1400, 2))
	tr.Insert(a)
	tr.Insert(b)

	tr.Delete(1500)
	left := tr.InOrder()
	require.Len(t, left, 2)
	assert.Same(t, b, left[1])
}

func TestRangeQuery(t *testing.T) {
	tr := New()
	for i, elo := range []int{1500, 1520, 1480, 1510, 1490, 1505, 1495, 1515, 1485, 1500, 1200, 1800} {
		tr.Insert(cand(elo, uint64(i)))
	}

	got := ratings(tr.RangeQuery(1400, 1600))
	assert.Equal(t, []int{1480, 1485, 1490, 1495, 1500, 1500, 1505, 1510, 1515, 1520}, got)

	assert.Equal(t, []int{1500, 1500}, ratings(tr.RangeQuery(1500, 1500)))
	assert.Empty(t, tr.RangeQuery(1600, 1700))
	assert.Equal(t, []int{1200}, ratings(tr.RangeQuery(0, 1200)))
	assert.Equal(t, []int{1800}, ratings(tr.RangeQuery(1800, 5000)))
}

func TestRandomOperationsKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	tr := New()
	live := map[uint64]*types.Candidate{}
	var seq uint64

	for step := 0; step < 3000; step++ {
		if len(live) == 0 || rng.Intn(3) > 0 {
			c := cand(1000+rng.Intn(60)*10, seq)
			seq++
			live[c.Seq] = c
			tr.Insert(c)
		} else if rng.Intn(2) == 0 {
			for _, c := range live {
				tr.DeleteCandidate(c)
				delete(live, c.Seq)
				break
			}
		} else {
			elo := 1000 + rng.Intn(60)*10
			in := tr.RangeQuery(elo, elo)
			tr.Delete(elo)
			if len(in) > 0 {
				delete(live, in[0].Seq)
			}
		}

		require.Equal(t, len(live), checkInvariants(t, tr.root))
		require.Equal(t, len(live), tr.Len())

		if step%100 == 0 {
			lo := 1000 + rng.Intn(60)*10
			hi := lo + rng.Intn(300)
			var want []int
			for _, c := range live {
				if c.Elo >= lo && c.Elo <= hi {
					want = append(want, c.Elo)
				}
			}
			sort.Ints(want)
			got := ratings(tr.RangeQuery(lo, hi))
			if len(want) == 0 {
				require.Empty(t, got)
			} else {
				require.Equal(t, want, got)
			}
		}
	}

	in := ratings(tr.InOrder())
	assert.True(t, sort.IntsAreSorted(in))
}

func TestSnapshot(t *testing.T) {
	tr := New()
	assert.Nil(t, tr.Snapshot())

	for i, elo := range []int{10, 20, 30} {
		tr.Insert(cand(elo, uint64(i)))
	}
	snap := tr.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, 20, snap.Elo)
	assert.Equal(t, 2, snap.Height)
	assert.Equal(t, 0, snap.BalanceFactor)
	assert.Equal(t, 10, snap.Left.Elo)
	assert.Equal(t, 30, snap.Right.Elo)
	assert.Nil(t, snap.Left.Left)

	snap.Player.Elo = 9999
	assert.Equal(t, 20, tr.root.player.Elo)
}
