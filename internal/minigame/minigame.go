package minigame

import (
	"fmt"
	"math"
	"slices"
)

type Type string

const (
	MatchPairs   Type = "MATCH_PAIRS"
	SortOrder    Type = "SORT_ORDER"
	CategorySnap Type = "CATEGORY_SNAP"
	OddOneOut    Type = "ODD_ONE_OUT"
)

var Types = []Type{MatchPairs, SortOrder, CategorySnap, OddOneOut}

const (
	ScoreCap      = 600
	PairPoints    = 100
	SnapPoints    = 75
	OddPoints     = 120
	pairsCount    = 6
	sortLength    = 5
	snapPrompts   = 8
	oddRounds     = 5
	oddRoundItems = 4
	every         = 3
)

type Random interface {
	IntN(n int) int
	Shuffle(n int, swap func(i, j int))
}

// Schedule lists the rounds followed by a mini-game. The final round never is.
func Schedule(maxRounds int) map[int]bool {
	res := map[int]bool{}
	for r := every; r < maxRounds; r += every {
		res[r] = true
	}
	return res
}

// Rotation cycles through Types from a random starting point.
type Rotation struct {
	offset int
	count  int
}

func NewRotation(rng Random) *Rotation {
	return &Rotation{offset: rng.IntN(len(Types))}
}

func (r *Rotation) Next() Type {
	t := Types[(r.offset+r.count)%len(Types)]
	r.count++
	return t
}

type Action struct {
	Type       Type   `json:"type"`
	CardId     string `json:"cardId,omitempty"`
	ItemId     string `json:"itemId,omitempty"`
	Direction  string `json:"direction,omitempty"`
	CategoryId string `json:"categoryId,omitempty"`
}

// Progress is one player's state in a mini-game. The concrete type always
// matches the game type.
type Progress interface {
	Score() int
	Done() bool
	isProgress()
}

type Result struct {
	PlayerId string `json:"playerId"`
	Score    int    `json:"score"`
}

type Game struct {
	Type Type

	pairs *PairsData
	sort  *SortData
	snap  *SnapData
	odd   *OddData

	roster   []string
	progress map[string]Progress
}

// New generates puzzle data and one progress per roster member.
func New(t Type, rng Random, roster []string) (*Game, error) {
	g := &Game{
		Type:     t,
		roster:   slices.Clone(roster),
		progress: make(map[string]Progress, len(roster)),
	}
	switch t {
	case MatchPairs:
		g.pairs = newPairsData(rng)
	case SortOrder:
		g.sort = newSortData(rng)
	case CategorySnap:
		g.snap = newSnapData(rng)
	case OddOneOut:
		g.odd = newOddData(rng)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	for _, id := range g.roster {
		g.progress[id] = g.newProgress()
	}
	return g, nil
}

func (g *Game) newProgress() Progress {
	switch g.Type {
	case MatchPairs:
		return &PairsProgress{OpenCardIds: []string{}, MatchedPairIds: []string{}}
	case SortOrder:
		p := &SortProgress{Order: slices.Clone(g.sort.start)}
		p.rescore(g.sort)
		return p
	case CategorySnap:
		return &SnapProgress{}
	default:
		return &OddProgress{}
	}
}

// Data is the public puzzle payload sent to clients.
func (g *Game) Data() any {
	switch g.Type {
	case MatchPairs:
		return g.pairs
	case SortOrder:
		return g.sort
	case CategorySnap:
		return g.snap
	default:
		return g.odd
	}
}

// Apply mutates the player's progress. It reports whether anything changed.
func (g *Game) Apply(playerId string, a Action) bool {
	if a.Type != g.Type {
		return false
	}
	p, ok := g.progress[playerId]
	if !ok || p.Done() {
		return false
	}
	switch p := p.(type) {
	case *PairsProgress:
		return p.open(g.pairs, a.CardId)
	case *SortProgress:
		return p.move(g.sort, a.ItemId, a.Direction)
	case *SnapProgress:
		return p.pick(g.snap, a.CategoryId)
	case *OddProgress:
		return p.pick(g.odd, a.ItemId)
	}
	return false
}

func (g *Game) AllDone() bool {
	if len(g.progress) == 0 {
		return false
	}
	for _, p := range g.progress {
		if !p.Done() {
			return false
		}
	}
	return true
}

func (g *Game) Progress() map[string]Progress {
	return g.progress
}

func (g *Game) ProgressOf(playerId string) (Progress, bool) {
	p, ok := g.progress[playerId]
	return p, ok
}

// Results are in roster order.
func (g *Game) Results() []Result {
	res := make([]Result, 0, len(g.roster))
	for _, id := range g.roster {
		res = append(res, Result{PlayerId: id, Score: g.progress[id].Score()})
	}
	return res
}

func (g *Game) Leaders(n int) []Result {
	res := g.Results()
	slices.SortStableFunc(res, func(a, b Result) int { return b.Score - a.Score })
	if len(res) > n {
		res = res[:n]
	}
	return res
}

func clampScore(v int) int {
	return min(max(v, 0), ScoreCap)
}

func partialCredit(matching, total int) int {
	if total == 0 {
		return 0
	}
	return clampScore(int(math.Round(float64(ScoreCap) * float64(matching) / float64(total))))
}
