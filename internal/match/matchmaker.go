package match

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/yourname/hardpoint-mm/internal/metrics"
	"github.com/yourname/hardpoint-mm/pkg/logger"
	"github.com/yourname/hardpoint-mm/pkg/types"
)

// DefaultPeriod is the cycle period at speed 1.0.
const DefaultPeriod = 2 * time.Second

// MinPeriod is the shortest period a speed may produce. Speeds below
// 1/MaxSlowdown are rejected.
const (
	MinPeriod   = time.Millisecond
	MaxSlowdown = 1000
)

// periodFor returns base/speed, or ErrInvalidSpeed when speed is below
// 1/MaxSlowdown or the period would be shorter than MinPeriod.
func periodFor(base time.Duration, speed float64) (time.Duration, error) {
	if !(speed >= 1.0/MaxSlowdown) || math.IsInf(speed, 0) {
		return 0, ErrInvalidSpeed
	}
	p := float64(base) / speed
	if p < float64(MinPeriod) || p >= math.MaxInt64 {
		return 0, ErrInvalidSpeed
	}
	return time.Duration(p), nil
}

// Matchmaker drives the engine on a ticker and forwards its events to a sink.
// Administrative adds and removes go through it too so observers see them.
type Matchmaker struct {
	engine *Engine
	sink   Sink
	log    logger.Logger
	base   time.Duration

	mu     sync.Mutex
	speed  float64
	cancel context.CancelFunc
	done   chan struct{}
	// periods feeds speed changes to the current run only.
	periods chan time.Duration
	active  time.Duration
}

type Option func(*Matchmaker)

// WithPeriod sets the period used at speed 1.0.
func WithPeriod(d time.Duration) Option {
	return func(m *Matchmaker) {
		if d >= MinPeriod {
			m.base = d
		}
	}
}

func WithSpeed(s float64) Option {
	return func(m *Matchmaker) {
		if s > 0 {
			m.speed = s
		}
	}
}

func WithLogger(l logger.Logger) Option {
	return func(m *Matchmaker) {
		if l != nil {
			m.log = l
		}
	}
}

func NewMatchmaker(e *Engine, sink Sink, opts ...Option) *Matchmaker {
	m := &Matchmaker{
		engine: e,
		sink:   sink,
		base:   DefaultPeriod,
		speed:  1.0,
	}
	for _, opt := range opts {
		opt(m)
	}
	if _, err := periodFor(m.base, m.speed); err != nil {
		m.speed = 1.0
	}
	if m.sink == nil {
		m.sink = Sinks{}
	}
	if m.log == nil {
		m.log = logger.Named("matchmaker")
	}
	return m
}

func (m *Matchmaker) Engine() *Engine { return m.engine }

// Start launches the loop. It returns false if the loop is already running.
func (m *Matchmaker) Start(ctx context.Context) bool {
	m.mu.Lock()
	if m.runningLocked() {
		m.mu.Unlock()
		return false
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	periods := make(chan time.Duration, 1)
	m.cancel, m.done, m.periods = cancel, done, periods
	period, speed := m.periodLocked(), m.speed
	m.active = period
	m.mu.Unlock()

	go m.run(ctx, period, periods, done)
	m.log.Info(ctx, "simulation started", logger.Float64("speed", speed), logger.String("period", period.String()))
	m.sink.Publish(ctx, types.Event{Type: types.EventSimulation, Payload: types.Simulation{Running: true, Speed: speed}})
	return true
}

// Stop cancels the loop and waits for it to exit. A cycle already in
// progress completes first. It returns false if the loop was not running.
func (m *Matchmaker) Stop() bool {
	m.mu.Lock()
	if !m.runningLocked() {
		m.mu.Unlock()
		return false
	}
	cancel, done, speed := m.cancel, m.done, m.speed
	m.mu.Unlock()

	cancel()
	<-done

	ctx := context.Background()
	m.log.Info(ctx, "simulation stopped")
	m.sink.Publish(ctx, types.Event{Type: types.EventSimulation, Payload: types.Simulation{Running: false, Speed: speed}})
	return true
}

func (m *Matchmaker) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runningLocked()
}

func (m *Matchmaker) runningLocked() bool {
	if m.done == nil {
		return false
	}
	select {
	case <-m.done:
		return false
	default:
		return true
	}
}

// SetSpeed changes the period divisor. A running loop picks the new period
// up before its next tick. Speeds whose period would leave
// [MinPeriod, base*MaxSlowdown] return ErrInvalidSpeed.
func (m *Matchmaker) SetSpeed(s float64) error {
	m.mu.Lock()
	period, err := periodFor(m.base, s)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.speed = s
	running := m.runningLocked()
	if running {
		select {
		case <-m.periods:
		default:
		}
		m.periods <- period
	}
	m.mu.Unlock()

	ctx := context.Background()
	m.log.Info(ctx, "simulation speed changed", logger.Float64("speed", s), logger.String("period", period.String()))
	m.sink.Publish(ctx, types.Event{Type: types.EventSimulation, Payload: types.Simulation{Running: running, Speed: s}})
	return nil
}

func (m *Matchmaker) Speed() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.speed
}

func (m *Matchmaker) Period() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.periodLocked()
}

// periodLocked relies on speed having passed periodFor.
func (m *Matchmaker) periodLocked() time.Duration {
	return time.Duration(float64(m.base) / m.speed)
}

// activePeriod is the interval the running loop is ticking at.
func (m *Matchmaker) activePeriod() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// run ticks until ctx is cancelled, closing done on exit.
func (m *Matchmaker) run(ctx context.Context, period time.Duration, periods <-chan time.Duration, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case d := <-periods:
			ticker.Reset(d)
			m.mu.Lock()
			m.active = d
			m.mu.Unlock()
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			m.Step(ctx)
		}
	}
}

// Step runs one cycle, records metrics and publishes its events.
func (m *Matchmaker) Step(ctx context.Context) CycleResult {
	start := time.Now()
	res := m.engine.RunCycle(ctx)
	metrics.CycleSeconds.Observe(time.Since(start).Seconds())
	metrics.SetSizes(res.QueueSize, res.PoolSize)

	if res.Admitted != nil {
		metrics.Admitted.WithLabelValues("synthetic").Inc()
		observeRotations(res.AdmitRotations)
		m.sink.Publish(ctx, types.Event{Type: types.EventPlayerJoined, Payload: types.PlayerJoined{
			Player:    *res.Admitted,
			Tree:      res.AdmitTree,
			Rotations: nonNil(res.AdmitRotations),
			QueueSize: res.QueueSize,
		}})
	}

	if res.Match != nil {
		metrics.ObserveMatch(res.Match.BalanceScore, res.Match.AvgWait)
		observeRotations(res.MatchRotations)
		m.log.Info(ctx, "match formed",
			logger.Int("match_id", res.Match.ID),
			logger.Int("gap", res.Match.Gap),
			logger.Float64("balance", res.Match.BalanceScore),
			logger.Float64("avg_wait", res.Match.AvgWait),
			logger.Int("queued", res.QueueSize))
		m.sink.Publish(ctx, types.Event{Type: types.EventMatchFormed, Payload: types.MatchFormed{
			Match:     *res.Match,
			Tree:      res.MatchTree,
			Rotations: nonNil(res.MatchRotations),
			Stats:     m.decorate(res.Stats),
		}})
	}
	return res
}

// AddPlayer validates and admits an administrator-supplied candidate.
func (m *Matchmaker) AddPlayer(ctx context.Context, req types.JoinRequest) (*Admission, error) {
	c, err := m.engine.ParseJoin(req)
	if err == nil {
		var adm *Admission
		if adm, err = m.engine.AdmitCandidate(ctx, c); err == nil {
			metrics.Admitted.WithLabelValues("admin").Inc()
			metrics.SetSizes(adm.QueueSize, adm.PoolSize)
			observeRotations(adm.Rotations)
			m.sink.Publish(ctx, types.Event{Type: types.EventPlayerJoined, Payload: types.PlayerJoined{
				Player:    adm.Player,
				Tree:      adm.Tree,
				Rotations: nonNil(adm.Rotations),
				QueueSize: adm.QueueSize,
			}})
			return adm, nil
		}
	}
	metrics.Rejected.Inc()
	m.log.Warn(ctx, "admission rejected", logger.Error(err))
	return nil, err
}

// RemovePlayer removes id and announces the change.
func (m *Matchmaker) RemovePlayer(ctx context.Context, id string) (*Removal, error) {
	rem, err := m.engine.RemoveCandidate(ctx, id)
	if err != nil {
		return nil, err
	}
	metrics.Removed.Inc()
	metrics.SetSizes(rem.QueueSize, rem.PoolSize)
	observeRotations(rem.Rotations)
	m.sink.Publish(ctx, types.Event{Type: types.EventPlayerDeleted, Payload: types.PlayerDeleted{
		PlayerID:  id,
		Tree:      rem.Tree,
		Rotations: nonNil(rem.Rotations),
	}})
	return rem, nil
}

// Stats returns the engine aggregates plus loop state.
func (m *Matchmaker) Stats() types.Stats {
	return m.decorate(m.engine.CurrentStats())
}

func (m *Matchmaker) decorate(s types.Stats) types.Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.Running = m.runningLocked()
	s.Speed = m.speed
	return s
}

func observeRotations(rots []types.Rotation) {
	for _, r := range rots {
		metrics.ObserveRotations(r.Direction)
	}
}

func nonNil(rots []types.Rotation) []types.Rotation {
	if rots == nil {
		return []types.Rotation{}
	}
	return rots
}
