package holder

import (
	"sort"
	"strings"
)

// Standing is a record's position on the leaderboard. Rank starts at 1.
type Standing struct {
	Rank   int    `json:"rank"`
	Record Record `json:"record"`
}

// Leaderboard orders holders by TotalMetric, highest first.
type Leaderboard struct {
	standings []Standing
	byID      map[string]int
}

// Rank builds a leaderboard from dataset. Equal totals are ordered by id,
// numerically when both ids are numeric. Tied totals share no rank; every
// holder gets a distinct position.
func Rank(dataset Dataset) *Leaderboard {
	records := make([]Record, len(dataset.Records))
	copy(records, dataset.Records)

	sort.SliceStable(records, func(i, j int) bool {
		if c := records[i].TotalMetric.Cmp(records[j].TotalMetric); c != 0 {
			return c > 0
		}
		return lessID(records[i].ID, records[j].ID)
	})

	lb := &Leaderboard{
		standings: make([]Standing, len(records)),
		byID:      make(map[string]int, len(records)),
	}
	for i, r := range records {
		lb.standings[i] = Standing{Rank: i + 1, Record: r}
		lb.byID[r.ID] = i
	}
	return lb
}

// Top returns at most n standings. n <= 0 returns all of them.
func (l *Leaderboard) Top(n int) []Standing {
	if n <= 0 || n > len(l.standings) {
		n = len(l.standings)
	}
	out := make([]Standing, n)
	copy(out, l.standings[:n])
	return out
}

// RankOf returns the standing for id.
func (l *Leaderboard) RankOf(id string) (Standing, bool) {
	i, ok := l.byID[id]
	if !ok {
		return Standing{}, false
	}
	return l.standings[i], true
}

// Len returns the number of ranked holders.
func (l *Leaderboard) Len() int {
	return len(l.standings)
}

// lessID orders numeric ids numerically before every non-numeric id, and
// non-numeric ids lexically.
func lessID(a, b string) bool {
	numA, numB := isDigits(a), isDigits(b)
	switch {
	case numA && numB:
		ta, tb := strings.TrimLeft(a, "0"), strings.TrimLeft(b, "0")
		if len(ta) != len(tb) {
			return len(ta) < len(tb)
		}
		if ta != tb {
			return ta < tb
		}
		return a < b
	case numA != numB:
		return numA
	default:
		return a < b
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
