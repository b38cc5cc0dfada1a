package match

import (
	"time"

	"github.com/yourname/hardpoint-mm/internal/arrival"
	"github.com/yourname/hardpoint-mm/internal/avl"
	"github.com/yourname/hardpoint-mm/internal/pool"
	"github.com/yourname/hardpoint-mm/pkg/types"
)

// DefaultBandWidth is the half-width of the rating band around the median.
const DefaultBandWidth = 100

// Former selects a skill-homogeneous, longest-waiting contest and splits it.
type Former struct {
	BandWidth int
}

// Formation is the outcome of a successful AttemptForm.
type Formation struct {
	Split
	// Rotations performed while removing the players from the index.
	Rotations []types.Rotation
	// AvgWait is the mean time the ten players spent queued.
	AvgWait time.Duration
}

// AttemptForm tries to form one contest. ok is false when too few queued,
// in-band or waiting candidates exist; that is the normal outcome of most
// cycles. The caller must hold exclusive access to all three structures.
func (f *Former) AttemptForm(p *pool.Pool, idx *avl.Tree, q *arrival.Queue, now time.Time) (*Formation, bool) {
	if p.QueuedLen() < ContestSize {
		return nil, false
	}
	median, _ := p.MedianRating()
	eligible := 0
	for _, c := range idx.RangeQuery(median-f.BandWidth, median+f.BandWidth) {
		if c.InQueue {
			eligible++
		}
	}
	if eligible < ContestSize {
		return nil, false
	}

	// Stale heap entries (removed or already matched) are dropped here.
	waiting := make([]*types.Candidate, 0, ContestSize)
	seen := make(map[string]bool, ContestSize)
	for len(waiting) < ContestSize {
		e, ok := q.ExtractMin()
		if !ok {
			break
		}
		c, ok := p.Get(e.ID)
		if !ok || !c.InQueue || seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		waiting = append(waiting, c)
	}
	if len(waiting) < ContestSize {
		return nil, false
	}

	form := &Formation{Split: SplitTeams(waiting)}
	var wait time.Duration
	for _, c := range waiting {
		form.Rotations = append(form.Rotations, idx.DeleteCandidate(c)...)
		p.Retire(c)
		wait += now.Sub(c.JoinTime)
	}
	form.AvgWait = wait / ContestSize
	return form, true
}
