package minigame

import (
	"fmt"
	"slices"
)

type OddItem struct {
	Id    string `json:"id"`
	Label string `json:"label"`
}

type OddRound struct {
	Id    string    `json:"id"`
	Items []OddItem `json:"items"`

	oddItemId string
}

type OddData struct {
	Rounds []OddRound `json:"rounds"`
}

func newOddData(rng Random) *OddData {
	d := &OddData{}
	for r := range oddRounds {
		group := rng.IntN(len(oddGroups))
		other := (group + 1 + rng.IntN(len(oddGroups)-1)) % len(oddGroups)

		labels := slices.Clone(oddGroups[group])
		rng.Shuffle(len(labels), func(i, j int) { labels[i], labels[j] = labels[j], labels[i] })
		odd := oddGroups[other][rng.IntN(len(oddGroups[other]))]

		items := make([]string, 0, oddRoundItems)
		items = append(items, labels[:oddRoundItems-1]...)
		items = append(items, odd)
		oddAt := len(items) - 1
		rng.Shuffle(len(items), func(i, j int) {
			items[i], items[j] = items[j], items[i]
			switch oddAt {
			case i:
				oddAt = j
			case j:
				oddAt = i
			}
		})

		round := OddRound{Id: fmt.Sprintf("r%d", r)}
		for i, label := range items {
			round.Items = append(round.Items, OddItem{Id: fmt.Sprintf("r%di%d", r, i), Label: label})
		}
		round.oddItemId = round.Items[oddAt].Id
		d.Rounds = append(d.Rounds, round)
	}
	return d
}

type OddProgress struct {
	RoundIndex int  `json:"roundIndex"`
	Correct    int  `json:"correct"`
	Points     int  `json:"score"`
	Finished   bool `json:"done"`
}

func (p *OddProgress) Score() int { return p.Points }
func (p *OddProgress) Done() bool { return p.Finished }
func (p *OddProgress) isProgress() {}

func (p *OddProgress) pick(d *OddData, itemId string) bool {
	if p.RoundIndex >= len(d.Rounds) {
		return false
	}
	round := d.Rounds[p.RoundIndex]
	if !slices.ContainsFunc(round.Items, func(it OddItem) bool { return it.Id == itemId }) {
		return false
	}
	if itemId == round.oddItemId {
		p.Correct++
		p.Points = clampScore(p.Points + OddPoints)
	}
	p.RoundIndex++
	p.Finished = p.RoundIndex >= len(d.Rounds)
	return true
}
