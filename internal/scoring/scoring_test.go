package scoring

import (
	"testing"

	"github.com/akapranchikova/quizzz/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

var question = domain.Question{
	Id:              "q1",
	Options:         []domain.Option{{Id: "a"}, {Id: "b"}, {Id: "c"}, {Id: "d"}},
	CorrectOptionId: "b",
	TimeLimitSec:    10,
}

func TestMultiplier(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		desc  string
		ms    int64
		limit int
		want  float64
	}{
		{desc: "instant answer", ms: 0, limit: 10, want: 1},
		{desc: "half way", ms: 5000, limit: 10, want: 0.6},
		{desc: "at deadline", ms: 10000, limit: 10, want: 0.2},
		{desc: "after deadline is clamped", ms: 25000, limit: 10, want: 0.2},
		{desc: "negative time is clamped", ms: -300, limit: 10, want: 1},
		{desc: "rounded to three decimals", ms: 1234, limit: 15, want: 0.934},
		{desc: "no limit", ms: 9000, limit: 0, want: 1},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			assert.InDelta(t, tC.want, Multiplier(tC.ms, tC.limit), 1e-9)
		})
	}
}

func TestRewardIsMonotonicInTime(t *testing.T) {
	t.Parallel()
	r := DefaultRules()
	prev := r.Score(question, Answer{OptionId: "b", AnswerTimeMs: 0}).Points
	for ms := int64(250); ms <= 12000; ms += 250 {
		cur := r.Score(question, Answer{OptionId: "b", AnswerTimeMs: ms}).Points
		assert.LessOrEqual(t, cur, prev, "answer at %dms", ms)
		prev = cur
	}
	assert.Equal(t, 200, prev)
}

func TestScore(t *testing.T) {
	t.Parallel()
	r := DefaultRules()
	r.WrongPenalty = 50

	testCases := []struct {
		desc   string
		answer Answer
		want   Award
	}{
		{desc: "wrong answer takes the penalty", answer: Answer{PlayerId: "p", OptionId: "a"}, want: Award{PlayerId: "p", Points: -50}},
		{desc: "correct instant", answer: Answer{PlayerId: "p", OptionId: "b"}, want: Award{PlayerId: "p", Correct: true, Points: 1000}},
		{desc: "double points", answer: Answer{PlayerId: "p", OptionId: "b", AnswerTimeMs: 5000, DoublePoints: true}, want: Award{PlayerId: "p", Correct: true, Points: 1200}},
		{desc: "speed bonus inside window", answer: Answer{PlayerId: "p", OptionId: "b", AnswerTimeMs: 2500, SpeedBonusReady: true}, want: Award{PlayerId: "p", Correct: true, Points: 800 + 200}},
		{desc: "speed bonus outside window", answer: Answer{PlayerId: "p", OptionId: "b", AnswerTimeMs: 5000, SpeedBonusReady: true}, want: Award{PlayerId: "p", Correct: true, Points: 600}},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			assert.Equal(t, tC.want, r.Score(question, tC.answer))
		})
	}
}

func TestScoreQuestionSyncBonus(t *testing.T) {
	t.Parallel()
	r := DefaultRules()
	answers := []Answer{
		{PlayerId: "p1", OptionId: "b"},
		{PlayerId: "p2", OptionId: "b", AnswerTimeMs: 5000},
	}

	got := r.ScoreQuestion(question, answers, []string{"p1", "p2"}, true)
	want := []Award{
		{PlayerId: "p1", Correct: true, Points: 1300},
		{PlayerId: "p2", Correct: true, Points: 900},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("awards mismatch (-want +got):\n%s", diff)
	}

	got = r.ScoreQuestion(question, answers, []string{"p1", "p2", "p3"}, true)
	assert.Equal(t, 1000, got[0].Points, "p3 never answered")

	got = r.ScoreQuestion(question, answers, []string{"p1", "p2"}, false)
	assert.Equal(t, 1000, got[0].Points)
}

func TestLeaderboardIsStable(t *testing.T) {
	t.Parallel()
	in := []Standing{
		{PlayerId: "a", Score: 100},
		{PlayerId: "b", Score: 300},
		{PlayerId: "c", Score: 100},
		{PlayerId: "d", Score: 300},
	}
	got := Leaderboard(in)

	order := []string{}
	for _, s := range got {
		order = append(order, s.PlayerId)
	}
	assert.Equal(t, []string{"b", "d", "a", "c"}, order)
	assert.Equal(t, "a", in[0].PlayerId, "input is not reordered")
}
