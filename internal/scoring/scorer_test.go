package scoring

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/spardha-tech/spardha-backend/internal/model"
)

func mcQuestion(correct int, marks, negative float64) model.Question {
	return model.Question{
		ID:            uuid.New(),
		Competition:   model.CompetitionCodeClash,
		CorrectAnswer: correct,
		Marks:         marks,
		NegativeMarks: negative,
	}
}

func TestMultipleChoice(t *testing.T) {
	q1 := mcQuestion(1, 4, 0.5)
	q2 := mcQuestion(2, 4, 0.5)
	q3 := mcQuestion(0, 4, 0.5)
	bank := []model.Question{q1, q2, q3}

	// One correct, one wrong, one unanswered: 4 - 0.5 = 3.5.
	answers := map[string]int{
		q1.ID.String(): 1,
		q2.ID.String(): 0,
	}
	if got := MultipleChoice(bank, answers); got != 3.5 {
		t.Fatalf("score = %v, want 3.5", got)
	}

	// No answers at all scores zero, not a pile of negatives.
	if got := MultipleChoice(bank, nil); got != 0 {
		t.Fatalf("empty score = %v, want 0", got)
	}

	// Keys that match no question are ignored.
	if got := MultipleChoice(bank, map[string]int{uuid.NewString(): 1}); got != 0 {
		t.Fatalf("stray-key score = %v, want 0", got)
	}
}

// fakeJudge returns canned verdicts keyed by the submitted solution text.
type fakeJudge struct {
	verdicts map[string]Verdict
	err      error
	calls    int
}

func (f *fakeJudge) Judge(_ context.Context, _, _, _, solution string) (Verdict, error) {
	f.calls++
	if f.err != nil {
		return VerdictUnknown, f.err
	}
	return f.verdicts[solution], nil
}

func bugQuestion(marks float64) model.Question {
	return model.Question{
		ID:            uuid.New(),
		Competition:   model.CompetitionBugBash,
		Problem:       "reverse a list",
		BuggySolution: "for i in range(len(xs)): pass",
		Marks:         marks,
	}
}

func TestBugFixes(t *testing.T) {
	q1 := bugQuestion(10)
	q2 := bugQuestion(10)
	q3 := bugQuestion(10)
	bank := []model.Question{q1, q2, q3}

	judge := &fakeJudge{verdicts: map[string]Verdict{
		"good fix": VerdictCorrect,
		"bad fix":  VerdictIncorrect,
	}}
	solutions := map[string]string{
		q1.ID.String(): "good fix",
		q2.ID.String(): "bad fix",
		// q3 unanswered.
	}

	score, reviews := BugFixes(context.Background(), judge, "python", bank, solutions)
	if score != 10 {
		t.Fatalf("score = %v, want 10", score)
	}
	if judge.calls != 2 {
		t.Fatalf("judge called %d times, want 2", judge.calls)
	}
	if len(reviews) != 2 {
		t.Fatalf("reviews = %d, want 2", len(reviews))
	}

	byQuestion := make(map[string]bool, len(reviews))
	for _, r := range reviews {
		byQuestion[r.QuestionID] = r.IsCorrect
	}
	if !byQuestion[q1.ID.String()] || byQuestion[q2.ID.String()] {
		t.Fatalf("verdicts = %v", byQuestion)
	}
}

func TestBugFixesJudgeOutageAwardsNothing(t *testing.T) {
	q := bugQuestion(10)
	judge := &fakeJudge{err: errors.New("upstream down")}

	score, reviews := BugFixes(context.Background(), judge, "python", []model.Question{q},
		map[string]string{q.ID.String(): "a fix"})
	if score != 0 {
		t.Fatalf("score = %v, want 0 on judge outage", score)
	}
	if len(reviews) != 1 || reviews[0].IsCorrect {
		t.Fatalf("reviews = %+v, want one incorrect", reviews)
	}
}

func TestParseVerdict(t *testing.T) {
	cases := []struct {
		reply string
		want  Verdict
	}{
		{"isCorrect: 1", VerdictCorrect},
		{"isCorrect: 0", VerdictIncorrect},
		{"The fix handles the edge case.\nisCorrect: 1", VerdictCorrect},
		{"isCorrect:0", VerdictIncorrect},
		{"isCorrect: 2", VerdictIncorrect},
		{"no marker here", VerdictUnknown},
		{"", VerdictUnknown},
	}
	for _, tc := range cases {
		if got := parseVerdict(tc.reply); got != tc.want {
			t.Errorf("parseVerdict(%q) = %v, want %v", strings.TrimSpace(tc.reply), got, tc.want)
		}
	}
}
