package minigame

import (
	"fmt"
	"slices"
)

type SnapCategory struct {
	Id    string `json:"id"`
	Label string `json:"label"`
	Icon  string `json:"icon,omitempty"`
}

type SnapPrompt struct {
	Id    string `json:"id"`
	Label string `json:"label"`

	categoryId string
}

type SnapData struct {
	Categories []SnapCategory `json:"categories"`
	Prompts    []SnapPrompt   `json:"prompts"`
}

func newSnapData(rng Random) *SnapData {
	set := snapSets[rng.IntN(len(snapSets))]
	d := &SnapData{Categories: []SnapCategory{set.categories[0], set.categories[1]}}

	var pool []SnapPrompt
	for side, items := range set.items {
		for _, label := range items {
			pool = append(pool, SnapPrompt{Label: label, categoryId: set.categories[side].Id})
		}
	}
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	pool = pool[:min(snapPrompts, len(pool))]
	for i := range pool {
		pool[i].Id = fmt.Sprintf("c%d", i)
	}
	d.Prompts = pool
	return d
}

type SnapProgress struct {
	PromptIndex int  `json:"promptIndex"`
	Correct     int  `json:"correct"`
	Points      int  `json:"score"`
	Finished    bool `json:"done"`
}

func (p *SnapProgress) Score() int { return p.Points }
func (p *SnapProgress) Done() bool { return p.Finished }
func (p *SnapProgress) isProgress() {}

func (p *SnapProgress) pick(d *SnapData, categoryId string) bool {
	known := slices.ContainsFunc(d.Categories, func(c SnapCategory) bool { return c.Id == categoryId })
	if !known || p.PromptIndex >= len(d.Prompts) {
		return false
	}
	if d.Prompts[p.PromptIndex].categoryId == categoryId {
		p.Correct++
		p.Points = clampScore(p.Points + SnapPoints)
	}
	p.PromptIndex++
	p.Finished = p.PromptIndex >= len(d.Prompts)
	return true
}
