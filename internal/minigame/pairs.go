package minigame

import (
	"fmt"
	"slices"
)

type Card struct {
	Id     string `json:"id"`
	PairId string `json:"pairId"`
	Icon   string `json:"icon"`
}

type PairsData struct {
	Cards []Card `json:"cards"`
}

func newPairsData(rng Random) *PairsData {
	icons := slices.Clone(pairIcons)
	rng.Shuffle(len(icons), func(i, j int) { icons[i], icons[j] = icons[j], icons[i] })

	cards := make([]Card, 0, pairsCount*2)
	for i := range pairsCount {
		pairId := fmt.Sprintf("p%d", i)
		cards = append(cards,
			Card{Id: pairId + "a", PairId: pairId, Icon: icons[i]},
			Card{Id: pairId + "b", PairId: pairId, Icon: icons[i]},
		)
	}
	rng.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
	return &PairsData{Cards: cards}
}

func (d *PairsData) card(id string) (Card, bool) {
	for _, c := range d.Cards {
		if c.Id == id {
			return c, true
		}
	}
	return Card{}, false
}

type PairsProgress struct {
	OpenCardIds    []string `json:"openCardIds"`
	MatchedPairIds []string `json:"matchedPairIds"`
	Moves          int      `json:"moves"`
	Points         int      `json:"score"`
	Finished       bool     `json:"done"`
}

func (p *PairsProgress) Score() int { return p.Points }
func (p *PairsProgress) Done() bool { return p.Finished }
func (p *PairsProgress) isProgress() {}

// open flips a card. Two open cards either match and stay revealed, or stay
// open until the next flip closes them.
func (p *PairsProgress) open(d *PairsData, cardId string) bool {
	card, ok := d.card(cardId)
	if !ok || slices.Contains(p.MatchedPairIds, card.PairId) || slices.Contains(p.OpenCardIds, cardId) {
		return false
	}
	if len(p.OpenCardIds) >= 2 {
		p.OpenCardIds = p.OpenCardIds[:0]
	}
	p.OpenCardIds = append(p.OpenCardIds, cardId)
	p.Moves++

	if len(p.OpenCardIds) < 2 {
		return true
	}
	first, _ := d.card(p.OpenCardIds[0])
	if first.PairId != card.PairId {
		return true
	}
	p.MatchedPairIds = append(p.MatchedPairIds, card.PairId)
	p.OpenCardIds = p.OpenCardIds[:0]
	p.Points = clampScore(p.Points + PairPoints)
	p.Finished = len(p.MatchedPairIds) == len(d.Cards)/2
	return true
}
