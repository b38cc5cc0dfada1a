package match

import "github.com/yourname/hardpoint-mm/pkg/types"

// Aggregate accumulates per-match figures across the process lifetime.
type Aggregate struct {
	Matches    int
	BalanceSum float64
	WaitSum    float64
}

func (a *Aggregate) Add(balance, wait float64) {
	a.Matches++
	a.BalanceSum += balance
	a.WaitSum += wait
}

func (a Aggregate) MeanBalance() float64 { return a.BalanceSum / float64(max(1, a.Matches)) }
func (a Aggregate) MeanWait() float64    { return a.WaitSum / float64(max(1, a.Matches)) }

// History keeps the most recent matches, newest first.
type History struct {
	items []types.Match
	limit int
}

func NewHistory(limit int) *History {
	return &History{limit: max(1, limit), items: make([]types.Match, 0, max(1, limit))}
}

func (h *History) Push(m types.Match) {
	if len(h.items) < h.limit {
		h.items = append(h.items, types.Match{})
	}
	copy(h.items[1:], h.items[:len(h.items)-1])
	h.items[0] = m
}

func (h *History) List() []types.Match {
	out := make([]types.Match, len(h.items))
	copy(out, h.items)
	return out
}

func (h *History) Len() int { return len(h.items) }
