package match

import (
	"math"

	"github.com/yourname/hardpoint-mm/pkg/types"
)

const (
	// TeamSize is fixed: the exhaustive split below enumerates C(10,5) = 252
	// partitions and must be revisited before changing it.
	TeamSize    = 5
	ContestSize = 2 * TeamSize
)

// Split is a two-team partition of one contest.
type Split struct {
	TeamA, TeamB           []*types.Candidate
	TeamATotal, TeamBTotal int
	Gap                    int
	BalanceScore           float64
}

// SplitTeams partitions exactly ContestSize candidates into two teams of
// TeamSize whose rating sums are as close as possible. Combinations are
// visited in lexicographic index order and the first best one wins.
func SplitTeams(players []*types.Candidate) Split {
	if len(players) != ContestSize {
		panic("match: SplitTeams needs exactly ten candidates")
	}
	total := 0
	for _, p := range players {
		total += p.Elo
	}

	var idx, best [TeamSize]int
	for i := range idx {
		idx[i] = i
	}
	bestDiff := math.MaxInt
	for {
		sum := 0
		for _, i := range idx {
			sum += players[i].Elo
		}
		// |sum - total/2| compared at double scale to stay in integers.
		if d := abs(2*sum - total); d < bestDiff {
			bestDiff, best = d, idx
		}

		k := TeamSize - 1
		for k >= 0 && idx[k] == k+ContestSize-TeamSize {
			k--
		}
		if k < 0 {
			break
		}
		idx[k]++
		for j := k + 1; j < TeamSize; j++ {
			idx[j] = idx[j-1] + 1
		}
	}

	var s Split
	inA := [ContestSize]bool{}
	for _, i := range best {
		inA[i] = true
	}
	for i, p := range players {
		if inA[i] {
			s.TeamA = append(s.TeamA, p)
			s.TeamATotal += p.Elo
		} else {
			s.TeamB = append(s.TeamB, p)
			s.TeamBTotal += p.Elo
		}
	}
	s.Gap = abs(s.TeamATotal - s.TeamBTotal)
	s.BalanceScore = BalanceScore(s.Gap)
	return s
}

// BalanceScore maps a rating gap to max(0, 100 - gap/10), rounded to one
// decimal place.
func BalanceScore(gap int) float64 {
	return round1(math.Max(0, 100-float64(gap)/10))
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
