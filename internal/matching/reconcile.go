package matching

import (
	"sort"
)

type DiscardReason string

const (
	DiscardNotMutual DiscardReason = "not_mutual"
	DiscardCapacity  DiscardReason = "capacity"
)

// Pair is an unordered pair of respondents, stored with A < B.
type Pair struct {
	A string `json:"a"`
	B string `json:"b"`
}

func NewPair(a, b string) Pair {
	if b < a {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

type pairKey struct {
	lo, hi int
}

func newPairKey(a, b int) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

type discard struct {
	a, b   int
	reason DiscardReason
}

type reconciliation struct {
	final    [][]int
	mutual   int
	discards []discard
}

// reconcile keeps a proposal only when it is made from both sides and both users still have room.
// Users are visited in index order and each user's candidates in list order, so earlier users and
// better-ranked candidates win contended slots. A mutual pair that finds either side full is dropped;
// no other candidate is tried in its place.
func reconcile(potential [][]int, capacity int) reconciliation {
	n := len(potential)
	res := reconciliation{final: make([][]int, n)}
	for i := range res.final {
		res.final[i] = make([]int, 0, capacity)
	}

	proposes := make([]map[int]struct{}, n)
	for i, list := range potential {
		proposes[i] = make(map[int]struct{}, len(list))
		for _, j := range list {
			proposes[i][j] = struct{}{}
		}
	}

	processed := make(map[pairKey]struct{})
	for a := 0; a < n; a++ {
		for _, b := range potential[a] {
			if b == a || b < 0 || b >= n {
				continue
			}
			key := newPairKey(a, b)
			if _, done := processed[key]; done {
				continue
			}
			processed[key] = struct{}{}

			if _, back := proposes[b][a]; !back {
				res.discards = append(res.discards, discard{a: a, b: b, reason: DiscardNotMutual})
				continue
			}
			if len(res.final[a]) >= capacity || len(res.final[b]) >= capacity {
				res.discards = append(res.discards, discard{a: a, b: b, reason: DiscardCapacity})
				continue
			}
			res.final[a] = append(res.final[a], b)
			res.final[b] = append(res.final[b], a)
			res.mutual++
		}
	}
	return res
}

// Reconciliation is the outcome of Reconcile keyed by identity.
type Reconciliation struct {
	Final           map[string][]string
	MutualPairs     int
	NonMutual       []Pair
	CapacityDropped []Pair
}

// Reconcile turns one-directional candidate lists into a symmetric assignment with at most MaxMatches
// partners per user. order fixes the processing order; when nil the keys of potential are processed
// in sorted order. Users named only as candidates are treated as having proposed nobody.
func Reconcile(potential map[string][]string, order []string) *Reconciliation {
	if order == nil {
		order = make([]string, 0, len(potential))
		for id := range potential {
			order = append(order, id)
		}
		sort.Strings(order)
	}

	roster := newRoster(order, false)
	lists := make([][]int, roster.Len())
	for i, id := range roster.IDs() {
		for _, c := range potential[id] {
			if j := roster.Index(c); j >= 0 {
				lists[i] = append(lists[i], j)
			}
		}
	}

	res := reconcile(lists, MaxMatches)
	out := &Reconciliation{
		Final:       roster.Resolve(res.final),
		MutualPairs: res.mutual,
	}
	for _, d := range res.discards {
		pair := NewPair(roster.ID(d.a), roster.ID(d.b))
		switch d.reason {
		case DiscardCapacity:
			out.CapacityDropped = append(out.CapacityDropped, pair)
		default:
			out.NonMutual = append(out.NonMutual, pair)
		}
	}
	return out
}
