// Package synth produces synthetic candidates for the simulation loop.
package synth

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yourname/hardpoint-mm/pkg/types"
)

var (
	firstNames = []string{"Shadow", "Blaze", "Viper", "Razor", "Storm", "Ghost", "Nova", "Frost", "Titan", "Echo"}
	lastNames  = []string{"Reaper", "Hunter", "Striker", "Phantom", "Destroyer", "Sniper", "Warrior", "Slayer", "Knight", "Demon"}
)

// NewID returns a short candidate identifier.
func NewID() string {
	return "P" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

type Generator struct {
	rng *rand.Rand

	ratingMin, ratingMax int
	mean, stddev         float64
	pingMin, pingMax     int
}

type Option func(*Generator)

func WithSeed(seed int64) Option {
	return func(g *Generator) {
		if seed != 0 {
			g.rng = rand.New(rand.NewSource(seed))
		}
	}
}

// WithRating sets the clamped normal distribution ratings are drawn from.
func WithRating(lo, hi int, mean, stddev float64) Option {
	return func(g *Generator) {
		if lo < hi {
			g.ratingMin, g.ratingMax = lo, hi
		}
		if stddev >= 0 {
			g.mean, g.stddev = mean, stddev
		}
	}
}

func WithPing(lo, hi int) Option {
	return func(g *Generator) {
		if lo >= 0 && lo <= hi {
			g.pingMin, g.pingMax = lo, hi
		}
	}
}

func New(opts ...Option) *Generator {
	g := &Generator{
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		ratingMin: 1000,
		ratingMax: 2000,
		mean:      1500,
		stddev:    150,
		pingMin:   15,
		pingMax:   80,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Candidate draws a new queued candidate that joined at now.
func (g *Generator) Candidate(now time.Time) *types.Candidate {
	elo := int(math.Round(g.rng.NormFloat64()*g.stddev + g.mean))
	elo = max(g.ratingMin, min(g.ratingMax, elo))
	return &types.Candidate{
		ID:       NewID(),
		Name:     fmt.Sprintf("%s%s%d", firstNames[g.rng.Intn(len(firstNames))], lastNames[g.rng.Intn(len(lastNames))], 10+g.rng.Intn(90)),
		Elo:      elo,
		Ping:     g.pingMin + g.rng.Intn(g.pingMax-g.pingMin+1),
		JoinTime: now,
		InQueue:  true,
	}
}

// Chance reports true with probability p.
func (g *Generator) Chance(p float64) bool { return g.rng.Float64() < p }
