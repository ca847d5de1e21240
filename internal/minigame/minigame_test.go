package minigame

import (
	"maps"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRng() *rand.Rand {
	return rand.New(rand.NewPCG(7, 11))
}

func TestSchedule(t *testing.T) {
	t.Parallel()
	assert.Equal(t, map[int]bool{3: true, 6: true}, Schedule(8))
	assert.Equal(t, map[int]bool{3: true}, Schedule(6), "the last round is never followed by a mini-game")
	assert.Empty(t, Schedule(2))
}

func TestRotationNeverRepeats(t *testing.T) {
	t.Parallel()
	r := NewRotation(newRng())
	prev := r.Next()
	seen := map[Type]bool{prev: true}
	for range 7 {
		cur := r.Next()
		assert.NotEqual(t, prev, cur)
		seen[cur] = true
		prev = cur
	}
	assert.Len(t, seen, len(Types))
}

func TestNewUnknownType(t *testing.T) {
	t.Parallel()
	_, err := New("TIC_TAC_TOE", newRng(), []string{"p1"})
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestApplyRejectsMismatchedActions(t *testing.T) {
	t.Parallel()
	g, err := New(SortOrder, newRng(), []string{"p1"})
	require.NoError(t, err)

	assert.False(t, g.Apply("p1", Action{Type: MatchPairs, CardId: "p0a"}), "wrong type")
	assert.False(t, g.Apply("ghost", Action{Type: SortOrder, ItemId: g.sort.start[1], Direction: "up"}), "not on the roster")
	assert.False(t, g.Apply("p1", Action{Type: SortOrder, ItemId: "nope", Direction: "up"}), "unknown item")
	assert.False(t, g.Apply("p1", Action{Type: SortOrder, ItemId: g.sort.start[0], Direction: "up"}), "already at the top")
	assert.False(t, g.Apply("p1", Action{Type: SortOrder, ItemId: g.sort.start[0], Direction: "sideways"}))
}

func TestMatchPairs(t *testing.T) {
	t.Parallel()
	g, err := New(MatchPairs, newRng(), []string{"p1", "p2"})
	require.NoError(t, err)
	require.Len(t, g.pairs.Cards, 12)

	byPair := map[string][]string{}
	for _, c := range g.pairs.Cards {
		byPair[c.PairId] = append(byPair[c.PairId], c.Id)
	}
	p := g.progress["p1"].(*PairsProgress)

	// mismatch stays open until the next flip
	assert.True(t, g.Apply("p1", Action{Type: MatchPairs, CardId: byPair["p0"][0]}))
	assert.False(t, g.Apply("p1", Action{Type: MatchPairs, CardId: byPair["p0"][0]}), "already open")
	assert.True(t, g.Apply("p1", Action{Type: MatchPairs, CardId: byPair["p1"][0]}))
	assert.Len(t, p.OpenCardIds, 2)
	assert.Empty(t, p.MatchedPairIds)

	assert.True(t, g.Apply("p1", Action{Type: MatchPairs, CardId: byPair["p0"][1]}))
	assert.Equal(t, []string{byPair["p0"][1]}, p.OpenCardIds, "third flip closes the mismatched pair")
	assert.True(t, g.Apply("p1", Action{Type: MatchPairs, CardId: byPair["p0"][0]}))
	assert.Equal(t, []string{"p0"}, p.MatchedPairIds)
	assert.Empty(t, p.OpenCardIds)
	assert.Equal(t, PairPoints, p.Score())

	assert.False(t, g.Apply("p1", Action{Type: MatchPairs, CardId: byPair["p0"][0]}), "matched cards cannot be reopened")

	for i := 1; i < 6; i++ {
		pair := byPair[slices.Sorted(maps.Keys(byPair))[i]]
		g.Apply("p1", Action{Type: MatchPairs, CardId: pair[0]})
		g.Apply("p1", Action{Type: MatchPairs, CardId: pair[1]})
	}
	assert.True(t, p.Done())
	assert.Equal(t, ScoreCap, p.Score())
	assert.False(t, g.AllDone(), "p2 has not played")
}

func TestSortOrder(t *testing.T) {
	t.Parallel()
	g, err := New(SortOrder, newRng(), []string{"p1"})
	require.NoError(t, err)
	require.Len(t, g.sort.Items, sortLength)
	p := g.progress["p1"].(*SortProgress)
	require.False(t, p.Done(), "the start order is never the answer")

	// bubble sort towards the target, one swap per action
	for !p.Done() {
		moved := false
		for i := 0; i+1 < len(p.Order); i++ {
			if slices.Index(g.sort.target, p.Order[i]) > slices.Index(g.sort.target, p.Order[i+1]) {
				require.True(t, g.Apply("p1", Action{Type: SortOrder, ItemId: p.Order[i], Direction: "down"}))
				moved = true
				break
			}
		}
		require.True(t, moved)
	}
	assert.Equal(t, g.sort.target, p.Order)
	assert.Equal(t, ScoreCap, p.Score())
	assert.True(t, g.AllDone())
	assert.False(t, g.Apply("p1", Action{Type: SortOrder, ItemId: p.Order[1], Direction: "up"}), "done progress is frozen")
}

func TestSortPartialCredit(t *testing.T) {
	t.Parallel()
	d := &SortData{target: []string{"a", "b", "c", "d", "e"}}
	p := &SortProgress{Order: []string{"a", "b", "c", "e", "d"}}
	p.rescore(d)
	assert.Equal(t, 360, p.Score())
	assert.False(t, p.Done())

	assert.True(t, p.move(d, "e", "down"))
	assert.True(t, p.Done())
	assert.Equal(t, ScoreCap, p.Score())
}

func TestCategorySnap(t *testing.T) {
	t.Parallel()
	g, err := New(CategorySnap, newRng(), []string{"p1"})
	require.NoError(t, err)
	require.Len(t, g.snap.Prompts, snapPrompts)
	p := g.progress["p1"].(*SnapProgress)

	assert.False(t, g.Apply("p1", Action{Type: CategorySnap, CategoryId: "unknown"}))
	assert.Zero(t, p.PromptIndex)

	for i, prompt := range g.snap.Prompts {
		pick := prompt.categoryId
		if i == 0 {
			for _, c := range g.snap.Categories {
				if c.Id != prompt.categoryId {
					pick = c.Id
				}
			}
		}
		assert.True(t, g.Apply("p1", Action{Type: CategorySnap, CategoryId: pick}))
	}
	assert.True(t, p.Done())
	assert.Equal(t, snapPrompts-1, p.Correct)
	assert.Equal(t, (snapPrompts-1)*SnapPoints, p.Score())
}

func TestOddOneOut(t *testing.T) {
	t.Parallel()
	g, err := New(OddOneOut, newRng(), []string{"p1", "p2"})
	require.NoError(t, err)
	require.Len(t, g.odd.Rounds, oddRounds)

	for _, r := range g.odd.Rounds {
		assert.Len(t, r.Items, oddRoundItems)
		assert.True(t, slices.ContainsFunc(r.Items, func(it OddItem) bool { return it.Id == r.oddItemId }))
	}

	assert.False(t, g.Apply("p1", Action{Type: OddOneOut, ItemId: g.odd.Rounds[1].Items[0].Id}), "item from another round")
	for _, r := range g.odd.Rounds {
		g.Apply("p1", Action{Type: OddOneOut, ItemId: r.oddItemId})
		wrong := r.Items[0].Id
		if wrong == r.oddItemId {
			wrong = r.Items[1].Id
		}
		g.Apply("p2", Action{Type: OddOneOut, ItemId: wrong})
	}

	assert.True(t, g.AllDone())
	assert.Equal(t, ScoreCap, g.progress["p1"].Score())
	assert.Zero(t, g.progress["p2"].Score())
	assert.Equal(t, []Result{{PlayerId: "p1", Score: ScoreCap}, {PlayerId: "p2", Score: 0}}, g.Leaders(3))
	assert.Equal(t, []Result{{PlayerId: "p1", Score: ScoreCap}}, g.Leaders(1))
}

func TestLeadersKeepRosterOrderOnTies(t *testing.T) {
	t.Parallel()
	g, err := New(CategorySnap, newRng(), []string{"p1", "p2", "p3", "p4"})
	require.NoError(t, err)
	g.progress["p3"].(*SnapProgress).Points = 150

	assert.Equal(t, []Result{{"p3", 150}, {"p1", 0}, {"p2", 0}}, g.Leaders(3))
}
