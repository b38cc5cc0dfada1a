package match

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/yourname/hardpoint-mm/internal/arrival"
	"github.com/yourname/hardpoint-mm/internal/avl"
	"github.com/yourname/hardpoint-mm/internal/pool"
	"github.com/yourname/hardpoint-mm/pkg/logger"
	"github.com/yourname/hardpoint-mm/pkg/types"
)

func init() {
	if err := logger.Init(logger.WithOutput(io.Discard)); err != nil {
		panic(err)
	}
}

var epoch = time.Unix(1_700_000_000, 0)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// structures is a bare pool/index/queue triple for Former tests.
type structures struct {
	pool  *pool.Pool
	index *avl.Tree
	queue *arrival.Queue
}

func newStructures() *structures {
	return &structures{pool: pool.New(100), index: avl.New(), queue: arrival.New()}
}

func (s *structures) add(id string, elo int, at time.Time) *types.Candidate {
	c := &types.Candidate{ID: id, Name: id, Elo: elo, JoinTime: at}
	if err := s.pool.Add(c); err != nil {
		panic(err)
	}
	s.index.Insert(c)
	s.queue.Insert(at, id)
	return c
}

func (s *structures) addAll(elos ...int) []*types.Candidate {
	out := make([]*types.Candidate, len(elos))
	for i, elo := range elos {
		out[i] = s.add(fmt.Sprintf("P%02d", i), elo, epoch.Add(time.Duration(i)*time.Second))
	}
	return out
}

// recorder is a Sink that keeps every event.
type recorder struct {
	mu     sync.Mutex
	events []types.Event
}

func (r *recorder) Publish(_ context.Context, ev types.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) ofType(t string) []types.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []types.Event
	for _, ev := range r.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

var scenarioElos = []int{1500, 1520, 1480, 1510, 1490, 1505, 1495, 1515, 1485, 1500}
