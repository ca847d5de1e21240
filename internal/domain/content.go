package domain

// Category groups questions and is offered for voting at the start of a round.
type Category struct {
	Id    string `json:"id"`
	Title string `json:"title"`
	Icon  string `json:"icon,omitempty"`
	Color string `json:"color,omitempty"`
}

type Option struct {
	Id   string `json:"id"`
	Text string `json:"text"`
}

// Question is immutable once loaded. CorrectOptionId and Explanation must not
// leave the server outside the reveal phases.
type Question struct {
	Id              string   `json:"id"`
	CategoryId      string   `json:"categoryId"`
	Text            string   `json:"text"`
	Options         []Option `json:"options"`
	CorrectOptionId string   `json:"correctOptionId"`
	Explanation     string   `json:"explanation,omitempty"`
	TimeLimitSec    int      `json:"timeLimitSec,omitempty"`
	Difficulty      string   `json:"difficulty,omitempty"`
}

const DefaultTimeLimitSec = 15

// TimeLimit returns the answer window in seconds, falling back to the default.
func (q Question) TimeLimit() int {
	if q.TimeLimitSec <= 0 {
		return DefaultTimeLimitSec
	}
	return q.TimeLimitSec
}

func (q Question) HasOption(optionId string) bool {
	for _, o := range q.Options {
		if o.Id == optionId {
			return true
		}
	}
	return false
}

func (q Question) OptionIds() []string {
	ids := make([]string, 0, len(q.Options))
	for _, o := range q.Options {
		ids = append(ids, o.Id)
	}
	return ids
}

// Redacted strips the answer fields.
func (q Question) Redacted() Question {
	q.CorrectOptionId = ""
	q.Explanation = ""
	return q
}

type TargetMode string

const (
	TargetSelf TargetMode = "self"
	TargetOne  TargetMode = "one"
	TargetAll  TargetMode = "all"
)

type Ability struct {
	Id          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	UsesPerGame int        `json:"usesPerGame"`
	Effect      string     `json:"effect,omitempty"`
	Target      TargetMode `json:"target,omitempty"`
}

// EffectId returns the effect the ability triggers, which defaults to its id.
func (a Ability) EffectId() string {
	if a.Effect == "" {
		return a.Id
	}
	return a.Effect
}

type Character struct {
	Id      string   `json:"id"`
	Name    string   `json:"name"`
	Emoji   string   `json:"emoji,omitempty"`
	Color   string   `json:"color,omitempty"`
	Ability *Ability `json:"ability,omitempty"`
}
