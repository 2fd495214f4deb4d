package matching

import (
	"sort"
)

type scoredCandidate struct {
	index int
	score float64
}

// candidatePool holds the per-run state the candidate finder scans, indexed by roster position.
type candidatePool struct {
	roster  *Roster
	users   []UserData
	history []map[int]struct{}
	blocks  []map[int]struct{}
	scorer  Scorer
}

func newCandidatePool(roster *Roster, data map[string]UserData, history, blocks map[string]KeySet, scorer Scorer) *candidatePool {
	users := make([]UserData, roster.Len())
	for i, id := range roster.IDs() {
		users[i] = data[id]
	}
	return &candidatePool{
		roster:  roster,
		users:   users,
		history: roster.indexSets(history),
		blocks:  roster.indexSets(blocks),
		scorer:  scorer,
	}
}

func (p *candidatePool) blocked(i, j int) bool {
	if _, ok := p.blocks[i][j]; ok {
		return true
	}
	_, ok := p.blocks[j][i]
	return ok
}

func (p *candidatePool) seenBefore(i, j int) bool {
	_, ok := p.history[i][j]
	return ok
}

// find returns up to MaxMatches candidate indices for respondent i, best first. Ties keep roster
// order. A viewer without a profile or preferences yields ErrDataIncomplete.
func (p *candidatePool) find(i int, relaxed bool) ([]int, error) {
	viewer := p.users[i]
	if !viewer.Complete() {
		return nil, ErrDataIncomplete
	}

	scored := make([]scoredCandidate, 0, p.roster.Len())
	for j, other := range p.users {
		if j == i || p.blocked(i, j) || !other.Complete() {
			continue
		}
		if !p.scorer.IsMutuallyCompatible(viewer.Profile, viewer.Preferences, other.Profile, other.Preferences, relaxed) {
			continue
		}
		if p.seenBefore(i, j) {
			continue
		}
		scored = append(scored, scoredCandidate{
			index: j,
			score: p.scorer.AttractivenessScore(viewer.Profile, other.Profile),
		})
	}

	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].score > scored[b].score
	})

	out := make([]int, 0, MaxMatches)
	seen := make(map[int]struct{}, MaxMatches)
	for _, c := range scored {
		if len(out) == MaxMatches {
			break
		}
		if c.index == i || p.roster.ID(c.index) == "" {
			continue
		}
		if _, dup := seen[c.index]; dup {
			continue
		}
		seen[c.index] = struct{}{}
		out = append(out, c.index)
	}
	return out, nil
}

// FindCandidates returns up to three candidate keys for user, scanning allUsers in the given order.
// history and blocks are the user's own sets. The result is one-directional: a candidate listed here
// has not necessarily proposed user back.
func FindCandidates(scorer Scorer, user string, allUsers []string, data map[string]UserData, history, blocks KeySet, relaxed bool) ([]string, error) {
	if user == "" {
		return nil, ErrInvalidUserID
	}

	ids := make([]string, 0, len(allUsers)+1)
	ids = append(ids, allUsers...)
	ids = append(ids, user)

	roster := newRoster(ids, false)
	pool := newCandidatePool(roster, data,
		map[string]KeySet{user: history},
		map[string]KeySet{user: blocks},
		scorer,
	)

	found, err := pool.find(roster.Index(user), relaxed)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(found))
	for _, j := range found {
		out = append(out, roster.ID(j))
	}
	return out, nil
}
