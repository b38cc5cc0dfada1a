// Package avl implements the rating index: an AVL tree keyed by skill rating
// that reports every rotation it performs.
//
// Nodes order by (rating, admission sequence). Equal ratings therefore sort
// by arrival, new duplicates land to the right, and a specific candidate can
// be deleted even when others share its rating.
//
// Insert and delete walk an explicit ancestor stack instead of recursing.
// Tree is not safe for concurrent use; the owner serializes access.
package avl

import "github.com/yourname/hardpoint-mm/pkg/types"

// Imbalance cases, as reported in types.Rotation.Case.
const (
	CaseLeftLeft   = "left-left"
	CaseRightRight = "right-right"
	CaseLeftRight  = "left-right"
	CaseRightLeft  = "right-left"
)

// Rotation directions, as reported in types.Rotation.Direction.
const (
	RotateLeft  = "left"
	RotateRight = "right"
)

type node struct {
	elo    int
	seq    uint64
	player *types.Candidate
	left   *node
	right  *node
	height int
}

// before reports whether (elo, seq) sorts ahead of n.
func before(elo int, seq uint64, n *node) bool {
	if elo != n.elo {
		return elo < n.elo
	}
	return seq < n.seq
}

func height(n *node) int {
	if n == nil {
		return 0
	}
	return n.height
}

func balance(n *node) int { return height(n.left) - height(n.right) }

func (n *node) update() {
	n.height = 1 + max(height(n.left), height(n.right))
}

type Tree struct {
	root *node
	size int
}

func New() *Tree { return &Tree{} }

// Len returns the number of live entries.
func (t *Tree) Len() int { return t.size }

// Height returns the height of the tree; an empty tree has height 0.
func (t *Tree) Height() int { return height(t.root) }

// Insert adds c keyed by (c.Elo, c.Seq) and returns the rotations performed
// to restore balance, in the order they happened.
func (t *Tree) Insert(c *types.Candidate) []types.Rotation {
	n := &node{elo: c.Elo, seq: c.Seq, player: c, height: 1}
	t.size++
	if t.root == nil {
		t.root = n
		return nil
	}

	path := make([]*node, 0, t.root.height+1)
	for cur := t.root; cur != nil; {
		path = append(path, cur)
		if before(n.elo, n.seq, cur) {
			cur = cur.left
		} else {
			cur = cur.right
		}
	}
	parent := path[len(path)-1]
	if before(n.elo, n.seq, parent) {
		parent.left = n
	} else {
		parent.right = n
	}

	var log []types.Rotation
	for i := len(path) - 1; i >= 0; i-- {
		x := path[i]
		x.update()
		var sub *node
		switch bf := balance(x); {
		case bf > 1 && before(n.elo, n.seq, x.left):
			sub = rotateRight(x, CaseLeftLeft, &log)
		case bf > 1:
			x.left = rotateLeft(x.left, CaseLeftRight, &log)
			sub = rotateRight(x, CaseLeftRight, &log)
		case bf < -1 && !before(n.elo, n.seq, x.right):
			sub = rotateLeft(x, CaseRightRight, &log)
		case bf < -1:
			x.right = rotateRight(x.right, CaseRightLeft, &log)
			sub = rotateLeft(x, CaseRightLeft, &log)
		default:
			continue
		}
		t.replace(path, i, x, sub)
	}
	return log
}

// Delete removes the in-order-first entry carrying elo. Deleting a rating
// that is not present is a no-op and returns no rotations.
func (t *Tree) Delete(elo int) []types.Rotation {
	var (
		path    []*node
		found   *node
		foundAt int
	)
	for cur := t.root; cur != nil; {
		switch {
		case elo < cur.elo:
			path = append(path, cur)
			cur = cur.left
		case elo > cur.elo:
			path = append(path, cur)
			cur = cur.right
		default:
			found, foundAt = cur, len(path)
			path = append(path, cur)
			cur = cur.left
		}
	}
	if found == nil {
		return nil
	}
	return t.remove(path[:foundAt], found)
}

// DeleteCandidate removes exactly the entry inserted for c.
func (t *Tree) DeleteCandidate(c *types.Candidate) []types.Rotation {
	var path []*node
	for cur := t.root; cur != nil; {
		if cur.elo == c.Elo && cur.seq == c.Seq {
			return t.remove(path, cur)
		}
		path = append(path, cur)
		if before(c.Elo, c.Seq, cur) {
			cur = cur.left
		} else {
			cur = cur.right
		}
	}
	return nil
}

// remove unlinks z, whose ancestors from the root are path, and rebalances
// bottom-up. A node with two children takes over its in-order successor's
// key and payload and the successor is unlinked instead.
func (t *Tree) remove(path []*node, z *node) []types.Rotation {
	path = append([]*node(nil), path...)
	if z.left != nil && z.right != nil {
		path = append(path, z)
		s := z.right
		for s.left != nil {
			path = append(path, s)
			s = s.left
		}
		z.elo, z.seq, z.player = s.elo, s.seq, s.player
		z = s
	}

	child := z.left
	if child == nil {
		child = z.right
	}
	if len(path) == 0 {
		t.root = child
	} else if p := path[len(path)-1]; p.left == z {
		p.left = child
	} else {
		p.right = child
	}
	t.size--

	var log []types.Rotation
	for i := len(path) - 1; i >= 0; i-- {
		x := path[i]
		x.update()
		var sub *node
		switch bf := balance(x); {
		case bf > 1 && height(x.left.left) >= height(x.left.right):
			sub = rotateRight(x, CaseLeftLeft, &log)
		case bf > 1:
			x.left = rotateLeft(x.left, CaseLeftRight, &log)
			sub = rotateRight(x, CaseLeftRight, &log)
		case bf < -1 && height(x.right.right) >= height(x.right.left):
			sub = rotateLeft(x, CaseRightRight, &log)
		case bf < -1:
			x.right = rotateRight(x.right, CaseRightLeft, &log)
			sub = rotateLeft(x, CaseRightLeft, &log)
		default:
			continue
		}
		t.replace(path, i, x, sub)
	}
	return log
}

// replace hangs sub where old used to be; path[i] == old.
func (t *Tree) replace(path []*node, i int, old, sub *node) {
	if i == 0 {
		t.root = sub
		return
	}
	if p := path[i-1]; p.left == old {
		p.left = sub
	} else {
		p.right = sub
	}
}

func rotateRight(y *node, kase string, log *[]types.Rotation) *node {
	x := y.left
	*log = append(*log, types.Rotation{Direction: RotateRight, Case: kase, Pivot: y.elo, Affected: [2]int{y.elo, x.elo}})
	y.left = x.right
	x.right = y
	y.update()
	x.update()
	return x
}

func rotateLeft(x *node, kase string, log *[]types.Rotation) *node {
	y := x.right
	*log = append(*log, types.Rotation{Direction: RotateLeft, Case: kase, Pivot: x.elo, Affected: [2]int{x.elo, y.elo}})
	x.right = y.left
	y.left = x
	x.update()
	y.update()
	return y
}

// RangeQuery returns the candidates with lo <= rating <= hi in ascending
// (rating, sequence) order. Subtrees that cannot hold a qualifying key are
// not visited.
func (t *Tree) RangeQuery(lo, hi int) []*types.Candidate {
	var (
		out   []*types.Candidate
		stack []*node
	)
	cur := t.root
	for cur != nil || len(stack) > 0 {
		for cur != nil {
			stack = append(stack, cur)
			if cur.elo < lo {
				cur = nil
			} else {
				cur = cur.left
			}
		}
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.elo > hi {
			break
		}
		if n.elo >= lo {
			out = append(out, n.player)
		}
		cur = n.right
	}
	return out
}

// InOrder returns every candidate in ascending (rating, sequence) order.
func (t *Tree) InOrder() []*types.Candidate {
	out := make([]*types.Candidate, 0, t.size)
	var stack []*node
	cur := t.root
	for cur != nil || len(stack) > 0 {
		for cur != nil {
			stack = append(stack, cur)
			cur = cur.left
		}
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, n.player)
		cur = n.right
	}
	return out
}

// Snapshot returns a deep structural copy of the tree for rendering, or nil
// when the tree is empty.
func (t *Tree) Snapshot() *types.TreeNode { return snapshot(t.root) }

func snapshot(n *node) *types.TreeNode {
	if n == nil {
		return nil
	}
	return &types.TreeNode{
		Elo:           n.elo,
		Player:        *n.player,
		BalanceFactor: balance(n),
		Height:        n.height,
		Left:          snapshot(n.left),
		Right:         snapshot(n.right),
	}
}
