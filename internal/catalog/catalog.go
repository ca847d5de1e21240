package catalog

import (
	"github.com/akapranchikova/quizzz/internal/domain"
)

// Random is the subset of *rand.Rand the catalog draws from.
type Random interface {
	IntN(n int) int
	Shuffle(n int, swap func(i, j int))
}

// Catalog is immutable after construction. Reloads build a new one.
type Catalog struct {
	categories []domain.Category
	questions  []domain.Question
	characters []domain.Character

	categoryById  map[string]int
	questionById  map[string]int
	characterById map[string]int
	byCategory    map[string][]int
}

func Empty() *Catalog {
	return New(nil, nil, nil)
}

// New indexes the given entries. Callers are expected to pass validated data.
func New(categories []domain.Category, questions []domain.Question, characters []domain.Character) *Catalog {
	c := &Catalog{
		categories:    categories,
		questions:     questions,
		characters:    characters,
		categoryById:  make(map[string]int, len(categories)),
		questionById:  make(map[string]int, len(questions)),
		characterById: make(map[string]int, len(characters)),
		byCategory:    make(map[string][]int, len(categories)),
	}
	for i, cat := range categories {
		c.categoryById[cat.Id] = i
	}
	for i, q := range questions {
		c.questionById[q.Id] = i
		c.byCategory[q.CategoryId] = append(c.byCategory[q.CategoryId], i)
	}
	for i, ch := range characters {
		c.characterById[ch.Id] = i
	}
	return c
}

// Categories returns a copy so callers cannot mutate the shared snapshot.
func (c *Catalog) Categories() []domain.Category {
	return append([]domain.Category(nil), c.categories...)
}

func (c *Catalog) Characters() []domain.Character {
	return append([]domain.Character(nil), c.characters...)
}

func (c *Catalog) TotalQuestions() int {
	return len(c.questions)
}

func (c *Catalog) Category(id string) (domain.Category, bool) {
	i, ok := c.categoryById[id]
	if !ok {
		return domain.Category{}, false
	}
	return c.categories[i], true
}

func (c *Catalog) Question(id string) (domain.Question, bool) {
	i, ok := c.questionById[id]
	if !ok {
		return domain.Question{}, false
	}
	return c.questions[i], true
}

func (c *Catalog) Character(id string) (domain.Character, bool) {
	i, ok := c.characterById[id]
	if !ok {
		return domain.Character{}, false
	}
	return c.characters[i], true
}

// Ability returns the ability of the given character, if it has one.
func (c *Catalog) Ability(characterId string) (domain.Ability, bool) {
	ch, ok := c.Character(characterId)
	if !ok || ch.Ability == nil {
		return domain.Ability{}, false
	}
	return *ch.Ability, true
}

func (c *Catalog) unusedIn(categoryId string, used map[string]bool) []int {
	var res []int
	for _, i := range c.byCategory[categoryId] {
		if !used[c.questions[i].Id] {
			res = append(res, i)
		}
	}
	return res
}

func (c *Catalog) HasUnused(used map[string]bool) bool {
	for _, q := range c.questions {
		if !used[q.Id] {
			return true
		}
	}
	return false
}

// PickQuestion draws an unused question from the category, falling back to any
// unused question in the catalog.
func (c *Catalog) PickQuestion(rng Random, categoryId string, used map[string]bool) (domain.Question, bool) {
	pool := c.unusedIn(categoryId, used)
	if len(pool) == 0 {
		for i, q := range c.questions {
			if !used[q.Id] {
				pool = append(pool, i)
			}
		}
	}
	if len(pool) == 0 {
		return domain.Question{}, false
	}
	return c.questions[pool[rng.IntN(len(pool))]], true
}

// CategoryOptions offers up to n categories that still have unused questions.
// Categories in recent are only offered when there are not enough others.
func (c *Catalog) CategoryOptions(rng Random, n int, used map[string]bool, recent []string) []domain.Category {
	isRecent := make(map[string]bool, len(recent))
	for _, id := range recent {
		isRecent[id] = true
	}

	var fresh, stale []domain.Category
	for _, cat := range c.categories {
		if len(c.unusedIn(cat.Id, used)) == 0 {
			continue
		}
		if isRecent[cat.Id] {
			stale = append(stale, cat)
		} else {
			fresh = append(fresh, cat)
		}
	}
	rng.Shuffle(len(fresh), func(i, j int) { fresh[i], fresh[j] = fresh[j], fresh[i] })
	rng.Shuffle(len(stale), func(i, j int) { stale[i], stale[j] = stale[j], stale[i] })

	res := append(fresh, stale...)
	if len(res) > n {
		res = res[:n]
	}
	return res
}
