package minigame

import (
	"fmt"
	"slices"
)

type SortItem struct {
	Id    string `json:"id"`
	Label string `json:"label"`
}

type SortData struct {
	Items []SortItem `json:"items"`

	target []string
	start  []string
}

func newSortData(rng Random) *SortData {
	set := sortSets[rng.IntN(len(sortSets))]
	picked := make([]int, len(set))
	for i := range picked {
		picked[i] = i
	}
	rng.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	picked = picked[:min(sortLength, len(picked))]
	slices.Sort(picked)

	ids := make([]int, len(picked))
	for i := range ids {
		ids[i] = i
	}
	rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

	d := &SortData{}
	for n, idx := range picked {
		id := fmt.Sprintf("s%d", ids[n])
		d.Items = append(d.Items, SortItem{Id: id, Label: set[idx]})
		d.target = append(d.target, id)
	}

	d.start = slices.Clone(d.target)
	rng.Shuffle(len(d.start), func(i, j int) { d.start[i], d.start[j] = d.start[j], d.start[i] })
	if slices.Equal(d.start, d.target) && len(d.start) > 1 {
		d.start = append(d.start[1:], d.start[0])
	}
	rng.Shuffle(len(d.Items), func(i, j int) { d.Items[i], d.Items[j] = d.Items[j], d.Items[i] })
	return d
}

type SortProgress struct {
	Order    []string `json:"order"`
	Moves    int      `json:"moves"`
	Points   int      `json:"score"`
	Finished bool     `json:"done"`
}

func (p *SortProgress) Score() int { return p.Points }
func (p *SortProgress) Done() bool { return p.Finished }
func (p *SortProgress) isProgress() {}

func (p *SortProgress) rescore(d *SortData) {
	matching := 0
	for i, id := range p.Order {
		if d.target[i] == id {
			matching++
		}
	}
	p.Points = partialCredit(matching, len(d.target))
	p.Finished = matching == len(d.target)
}

func (p *SortProgress) move(d *SortData, itemId, direction string) bool {
	i := slices.Index(p.Order, itemId)
	if i < 0 {
		return false
	}
	j := i
	switch direction {
	case "up":
		j = i - 1
	case "down":
		j = i + 1
	default:
		return false
	}
	if j < 0 || j >= len(p.Order) {
		return false
	}
	p.Order[i], p.Order[j] = p.Order[j], p.Order[i]
	p.Moves++
	p.rescore(d)
	return true
}
