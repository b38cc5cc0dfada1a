package match

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/yourname/hardpoint-mm/internal/arrival"
	"github.com/yourname/hardpoint-mm/internal/avl"
	"github.com/yourname/hardpoint-mm/internal/pool"
	"github.com/yourname/hardpoint-mm/internal/synth"
	"github.com/yourname/hardpoint-mm/pkg/logger"
	"github.com/yourname/hardpoint-mm/pkg/types"
)

// Engine owns the candidate pool, the rating index and the arrival queue.
// One mutex guards all three so every operation observes and leaves them
// mutually consistent.
type Engine struct {
	mu sync.Mutex

	pool    *pool.Pool
	index   *avl.Tree
	queue   *arrival.Queue
	former  Former
	gen     *synth.Generator
	stats   Aggregate
	history *History
	lastID  int

	maxPool    int
	admitP     float64
	ratingMin  int
	ratingMax  int
	historyCap int
	retain     int

	now func() time.Time
	log logger.Logger
}

type EngineOption func(*Engine)

func WithBandWidth(w int) EngineOption {
	return func(e *Engine) {
		if w >= 0 {
			e.former.BandWidth = w
		}
	}
}

// WithMaxPoolSize caps the number of queued candidates synthetic admission
// will grow the pool to.
func WithMaxPoolSize(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxPool = n
		}
	}
}

func WithAdmitProbability(p float64) EngineOption {
	return func(e *Engine) {
		if p >= 0 && p <= 1 {
			e.admitP = p
		}
	}
}

func WithHistorySize(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.historyCap = n
		}
	}
}

// WithRatingBounds sets the inclusive range accepted at admission.
func WithRatingBounds(lo, hi int) EngineOption {
	return func(e *Engine) {
		if lo < hi {
			e.ratingMin, e.ratingMax = lo, hi
		}
	}
}

// WithRetention sets how many matched candidate records stay visible.
func WithRetention(n int) EngineOption {
	return func(e *Engine) {
		if n >= 0 {
			e.retain = n
		}
	}
}

func WithGenerator(g *synth.Generator) EngineOption {
	return func(e *Engine) {
		if g != nil {
			e.gen = g
		}
	}
}

func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func WithEngineLogger(l logger.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		index:      avl.New(),
		queue:      arrival.New(),
		former:     Former{BandWidth: DefaultBandWidth},
		maxPool:    100,
		admitP:     0.7,
		ratingMin:  1000,
		ratingMax:  2000,
		historyCap: 10,
		retain:     100,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.gen == nil {
		e.gen = synth.New(synth.WithRating(e.ratingMin, e.ratingMax, float64(e.ratingMin+e.ratingMax)/2, 150))
	}
	if e.log == nil {
		e.log = logger.Named("engine")
	}
	e.pool = pool.New(e.retain)
	e.history = NewHistory(e.historyCap)
	return e
}

// CycleResult reports what one cycle did. Admitted and Match are nil when
// nothing was admitted or no contest formed.
type CycleResult struct {
	Admitted       *types.Candidate
	AdmitRotations []types.Rotation
	AdmitTree      *types.TreeNode

	Match          *types.Match
	MatchRotations []types.Rotation
	MatchTree      *types.TreeNode

	QueueSize int
	PoolSize  int
	Stats     types.Stats
}

// Admission is the outcome of a successful admit.
type Admission struct {
	Player    types.Candidate
	Rotations []types.Rotation
	Tree      *types.TreeNode
	QueueSize int
	PoolSize  int
}

// Removal is the outcome of a successful remove.
type Removal struct {
	Player    types.Candidate
	Rotations []types.Rotation
	Tree      *types.TreeNode
	QueueSize int
	PoolSize  int
}

// ParseJoin validates an administrative join request into a candidate.
func (e *Engine) ParseJoin(req types.JoinRequest) (*types.Candidate, error) {
	elo, err := req.Elo.Int()
	if err != nil {
		return nil, fmt.Errorf("%w: elo: %w", ErrInvalidCandidate, err)
	}
	ping, err := req.Ping.Int()
	if err != nil {
		return nil, fmt.Errorf("%w: ping: %w", ErrInvalidCandidate, err)
	}
	return &types.Candidate{Name: req.Name, Elo: elo, Ping: ping}, nil
}

func (e *Engine) validate(c *types.Candidate) error {
	switch {
	case strings.TrimSpace(c.Name) == "":
		return fmt.Errorf("%w: missing name", ErrInvalidCandidate)
	case c.Elo < e.ratingMin || c.Elo > e.ratingMax:
		return fmt.Errorf("%w: elo %d outside [%d, %d]", ErrInvalidCandidate, c.Elo, e.ratingMin, e.ratingMax)
	case c.Ping < 0:
		return fmt.Errorf("%w: negative ping", ErrInvalidCandidate)
	}
	return nil
}

// AdmitCandidate validates c and inserts it into the pool, the rating index
// and the arrival queue. Malformed input is rejected before any structure is
// touched. A missing ID or join time is filled in.
func (e *Engine) AdmitCandidate(ctx context.Context, c *types.Candidate) (*Admission, error) {
	if err := e.validate(c); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.admitLocked(ctx, c)
}

func (e *Engine) admitLocked(ctx context.Context, c *types.Candidate) (*Admission, error) {
	if c.ID == "" {
		c.ID = synth.NewID()
	}
	if c.JoinTime.IsZero() {
		c.JoinTime = e.now()
	}
	if err := e.pool.Add(c); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidCandidate, c.ID, err)
	}
	rots := e.index.Insert(c)
	e.queue.Insert(c.JoinTime, c.ID)

	e.log.Debug(ctx, "candidate admitted", logger.String("id", c.ID), logger.Int("elo", c.Elo), logger.Int("rotations", len(rots)))
	return &Admission{
		Player:    *c,
		Rotations: rots,
		Tree:      e.index.Snapshot(),
		QueueSize: e.pool.QueuedLen(),
		PoolSize:  e.pool.Len(),
	}, nil
}

// RemoveCandidate drops id from the pool and, if still queued, from the
// rating index. Its arrival entry is filtered lazily. Unknown ids return
// ErrNotFound without changing anything.
func (e *Engine) RemoveCandidate(ctx context.Context, id string) (*Removal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, ok := e.pool.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	var rots []types.Rotation
	if c.InQueue {
		rots = e.index.DeleteCandidate(c)
	}
	e.pool.Delete(id)

	e.log.Debug(ctx, "candidate removed", logger.String("id", id), logger.Int("rotations", len(rots)))
	return &Removal{
		Player:    *c,
		Rotations: rots,
		Tree:      e.index.Snapshot(),
		QueueSize: e.pool.QueuedLen(),
		PoolSize:  e.pool.Len(),
	}, nil
}

// RunCycle admits a synthetic candidate with the configured probability
// while the queue is below its cap, then attempts to form one contest.
func (e *Engine) RunCycle(ctx context.Context) CycleResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	var res CycleResult
	now := e.now()
	if e.pool.QueuedLen() < e.maxPool && e.gen.Chance(e.admitP) {
		adm, err := e.admitLocked(ctx, e.gen.Candidate(now))
		if err != nil {
			e.log.Warn(ctx, "synthetic admission failed", logger.Error(err))
		} else {
			res.Admitted = &adm.Player
			res.AdmitRotations = adm.Rotations
			res.AdmitTree = adm.Tree
		}
	}

	if form, ok := e.former.AttemptForm(e.pool, e.index, e.queue, now); ok {
		m := e.record(form, now)
		res.Match = &m
		res.MatchRotations = form.Rotations
		res.MatchTree = e.index.Snapshot()
	}

	res.QueueSize = e.pool.QueuedLen()
	res.PoolSize = e.pool.Len()
	res.Stats = e.statsLocked()
	return res
}

// FormMatch runs only the formation step.
func (e *Engine) FormMatch(ctx context.Context) (*types.Match, []types.Rotation, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	form, ok := e.former.AttemptForm(e.pool, e.index, e.queue, now)
	if !ok {
		return nil, nil, false
	}
	m := e.record(form, now)
	return &m, form.Rotations, true
}

func (e *Engine) record(form *Formation, now time.Time) types.Match {
	wait := form.AvgWait.Seconds()
	e.stats.Add(form.BalanceScore, wait)
	e.lastID++

	m := types.Match{
		ID:           e.lastID,
		Timestamp:    now,
		TeamA:        copyAll(form.TeamA),
		TeamB:        copyAll(form.TeamB),
		TeamATotal:   form.TeamATotal,
		TeamBTotal:   form.TeamBTotal,
		Gap:          form.Gap,
		BalanceScore: form.BalanceScore,
		AvgWait:      round1(wait),
	}
	e.history.Push(m)
	return m
}

func copyAll(cs []*types.Candidate) []types.Candidate {
	out := make([]types.Candidate, len(cs))
	for i, c := range cs {
		out[i] = *c
	}
	return out
}

// CurrentStats returns the aggregate view. Running and Speed are left for
// the driver to fill.
func (e *Engine) CurrentStats() types.Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.statsLocked()
}

func (e *Engine) statsLocked() types.Stats {
	return types.Stats{
		QueueSize:    e.pool.QueuedLen(),
		PoolSize:     e.pool.Len(),
		TotalMatches: e.stats.Matches,
		AvgBalance:   round1(e.stats.MeanBalance()),
		AvgWait:      round1(e.stats.MeanWait()),
	}
}

// TreeSnapshot returns a read-only copy of the rating index.
func (e *Engine) TreeSnapshot() *types.TreeNode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index.Snapshot()
}

// Players returns copies of every pool record in admission order.
func (e *Engine) Players() []types.Candidate {
	e.mu.Lock()
	defer e.mu.Unlock()
	return copyAll(e.pool.All())
}

func (e *Engine) History() []types.Match {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.List()
}

// QueueDepth returns the arrival queue size, stale entries included.
func (e *Engine) QueueDepth() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queue.Size()
}
