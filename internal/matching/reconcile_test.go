package matching

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileDropsOneSidedProposals(t *testing.T) {
	t.Parallel()

	res := Reconcile(map[string][]string{
		"A": {"B", "C"},
		"B": {"A"},
		"C": {},
	}, nil)

	assert.Equal(t, map[string][]string{
		"A": {"B"},
		"B": {"A"},
		"C": {},
	}, res.Final)
	assert.Equal(t, 1, res.MutualPairs)
	assert.Equal(t, []Pair{{A: "A", B: "C"}}, res.NonMutual)
	assert.Empty(t, res.CapacityDropped)
}

func TestReconcileCapacityDropsWithoutBackfill(t *testing.T) {
	t.Parallel()

	res := Reconcile(map[string][]string{
		"A": {"B", "C", "E", "D"},
		"B": {"A"},
		"C": {"A"},
		"D": {"A"},
		"E": {"A"},
	}, nil)

	assert.Equal(t, []string{"B", "C", "E"}, res.Final["A"])
	assert.Empty(t, res.Final["D"])
	assert.Equal(t, []Pair{{A: "A", B: "D"}}, res.CapacityDropped)
	assert.Equal(t, 3, res.MutualPairs)
}

func TestReconcileOrderDecidesContendedSlots(t *testing.T) {
	t.Parallel()

	potential := map[string][]string{
		"U": {"P", "Q", "R", "S"},
		"P": {"U"},
		"Q": {"U"},
		"R": {"U"},
		"S": {"U"},
	}

	forward := Reconcile(potential, []string{"P", "Q", "R", "S", "U"})
	assert.Equal(t, []string{"P", "Q", "R"}, forward.Final["U"])
	assert.Empty(t, forward.Final["S"])

	backward := Reconcile(potential, []string{"S", "R", "Q", "P", "U"})
	assert.Equal(t, []string{"S", "R", "Q"}, backward.Final["U"])
	assert.Empty(t, backward.Final["P"])
}

func TestReconcileIgnoresSelfAndStrangers(t *testing.T) {
	t.Parallel()

	res := Reconcile(map[string][]string{
		"A": {"A", "nobody", "B"},
		"B": {"A", "A"},
	}, nil)

	assert.Equal(t, []string{"B"}, res.Final["A"])
	assert.Equal(t, []string{"A"}, res.Final["B"])
	assert.NotContains(t, res.Final, "nobody")
}

func TestReconcileProperties(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		n := 2 + rng.Intn(40)
		potential := make([][]int, n)
		for i := range potential {
			k := rng.Intn(MaxMatches + 1)
			if k > n {
				k = n
			}
			for _, j := range rng.Perm(n)[:k] {
				if j != i {
					potential[i] = append(potential[i], j)
				}
			}
		}

		res := reconcile(potential, MaxMatches)
		require.Len(t, res.final, n)

		pairs := 0
		for i, partners := range res.final {
			assert.LessOrEqual(t, len(partners), MaxMatches)
			seen := map[int]bool{}
			for _, j := range partners {
				assert.NotEqual(t, i, j, "self match")
				assert.False(t, seen[j], "duplicate partner")
				seen[j] = true
				assert.Contains(t, res.final[j], i, "asymmetric pair %d-%d", i, j)
				assert.Contains(t, potential[i], j, "pair %d-%d was not proposed by %d", i, j, i)
				assert.Contains(t, potential[j], i, "pair %d-%d was not proposed by %d", i, j, j)
				pairs++
			}
		}
		assert.Equal(t, pairs/2, res.mutual)
	}
}
