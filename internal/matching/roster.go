package matching

import (
	"sort"
)

// Roster maps the opaque identity keys of one run onto dense indices. Respondents are
// de-duplicated and sorted by key; that order is the processing order of every phase.
type Roster struct {
	ids   []string
	index map[string]int
}

// NewRoster builds a roster from respondent keys, dropping empty and duplicate keys.
func NewRoster(respondents []string) *Roster {
	return newRoster(respondents, true)
}

func newRoster(respondents []string, sorted bool) *Roster {
	ids := make([]string, 0, len(respondents))
	seen := make(KeySet, len(respondents))
	for _, id := range respondents {
		if id == "" || seen.Has(id) {
			continue
		}
		seen.Add(id)
		ids = append(ids, id)
	}
	if sorted {
		sort.Strings(ids)
	}

	index := make(map[string]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}
	return &Roster{ids: ids, index: index}
}

func (r *Roster) Len() int { return len(r.ids) }

// ID returns the identity key at position i.
func (r *Roster) ID(i int) string { return r.ids[i] }

// IDs returns the ordered identity keys. The slice must not be modified.
func (r *Roster) IDs() []string { return r.ids }

// Index returns the position of id, or -1 when id is not a respondent.
func (r *Roster) Index(id string) int {
	if i, ok := r.index[id]; ok {
		return i
	}
	return -1
}

// Resolve converts index lists back to identity keys.
func (r *Roster) Resolve(lists [][]int) map[string][]string {
	out := make(map[string][]string, len(lists))
	for i, list := range lists {
		ids := make([]string, 0, len(list))
		for _, j := range list {
			ids = append(ids, r.ids[j])
		}
		out[r.ids[i]] = ids
	}
	return out
}

// indexSets converts per-user key sets into per-index sets restricted to respondents.
func (r *Roster) indexSets(sets map[string]KeySet) []map[int]struct{} {
	out := make([]map[int]struct{}, len(r.ids))
	for i, id := range r.ids {
		set := sets[id]
		if len(set) == 0 {
			continue
		}
		m := make(map[int]struct{}, len(set))
		for other := range set {
			if j := r.Index(other); j >= 0 {
				m[j] = struct{}{}
			}
		}
		out[i] = m
	}
	return out
}
