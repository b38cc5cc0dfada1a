// Package arrival orders waiting candidates by arrival time.
//
// The queue is advisory: it never learns that a candidate left the pool.
// Consumers check the pool after ExtractMin and drop stale entries.
package arrival

import (
	"container/heap"
	"time"
)

// Entry is one (arrival time, candidate id) association.
type Entry struct {
	At time.Time
	ID string

	seq uint64
}

// entries implements heap.Interface. Equal timestamps pop in insertion order.
type entries []Entry

func (h entries) Len() int { return len(h) }
func (h entries) Less(i, j int) bool {
	if !h[i].At.Equal(h[j].At) {
		return h[i].At.Before(h[j].At)
	}
	return h[i].seq < h[j].seq
}
func (h entries) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *entries) Push(x any)   { *h = append(*h, x.(Entry)) }
func (h *entries) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Queue is a binary min-heap keyed by arrival time. It is not safe for
// concurrent use.
type Queue struct {
	h   entries
	seq uint64
}

func New() *Queue { return &Queue{} }

func (q *Queue) Insert(at time.Time, id string) {
	heap.Push(&q.h, Entry{At: at, ID: id, seq: q.seq})
	q.seq++
}

// ExtractMin removes and returns the earliest entry. ok is false when the
// queue is empty.
func (q *Queue) ExtractMin() (e Entry, ok bool) {
	if len(q.h) == 0 {
		return Entry{}, false
	}
	return heap.Pop(&q.h).(Entry), true
}

func (q *Queue) Size() int { return len(q.h) }
