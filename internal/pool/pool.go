// Package pool holds the candidate records every index points into.
package pool

import (
	"errors"
	"sort"

	"github.com/yourname/hardpoint-mm/pkg/types"
)

var ErrDuplicateID = errors.New("candidate id already in pool")

// Pool maps identifiers to candidate records. It is the authority on
// membership and queued status. Pool is not safe for concurrent use.
type Pool struct {
	byID    map[string]*types.Candidate
	seq     uint64
	retired []string // unqueued ids, oldest first
	retain  int
}

// New returns an empty pool that keeps at most retain matched (unqueued)
// records around for inspection. retain <= 0 keeps none.
func New(retain int) *Pool {
	return &Pool{byID: map[string]*types.Candidate{}, retain: retain}
}

// Add stores c, marks it queued and stamps its admission sequence.
func (p *Pool) Add(c *types.Candidate) error {
	if _, ok := p.byID[c.ID]; ok {
		return ErrDuplicateID
	}
	c.Seq = p.seq
	c.InQueue = true
	p.seq++
	p.byID[c.ID] = c
	return nil
}

func (p *Pool) Get(id string) (*types.Candidate, bool) {
	c, ok := p.byID[id]
	return c, ok
}

func (p *Pool) Delete(id string) (*types.Candidate, bool) {
	c, ok := p.byID[id]
	if !ok {
		return nil, false
	}
	delete(p.byID, id)
	return c, true
}

// Retire marks c unqueued and evicts the oldest retired records beyond the
// retention limit.
func (p *Pool) Retire(c *types.Candidate) {
	c.InQueue = false
	p.retired = append(p.retired, c.ID)
	for len(p.retired) > p.retain {
		id := p.retired[0]
		p.retired = p.retired[1:]
		if old, ok := p.byID[id]; ok && !old.InQueue {
			delete(p.byID, id)
		}
	}
}

// Len counts every record, queued or not.
func (p *Pool) Len() int { return len(p.byID) }

func (p *Pool) QueuedLen() int {
	n := 0
	for _, c := range p.byID {
		if c.InQueue {
			n++
		}
	}
	return n
}

// All returns every record in admission order.
func (p *Pool) All() []*types.Candidate {
	out := make([]*types.Candidate, 0, len(p.byID))
	for _, c := range p.byID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// MedianRating returns the median rating of queued candidates, taking the
// lower-middle value when the count is even. ok is false for an empty queue.
func (p *Pool) MedianRating() (median int, ok bool) {
	elos := make([]int, 0, len(p.byID))
	for _, c := range p.byID {
		if c.InQueue {
			elos = append(elos, c.Elo)
		}
	}
	if len(elos) == 0 {
		return 0, false
	}
	sort.Ints(elos)
	return elos[(len(elos)-1)/2], true
}
