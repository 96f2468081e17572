package scoring

import (
	"context"

	"github.com/spardha-tech/spardha-backend/internal/model"
)

// MultipleChoice scores a code-clash answer map against the question bank.
// A matching selection earns the question's marks, a mismatch deducts its
// negative marks, and an unanswered question contributes nothing. Answer
// keys that match no question are ignored.
func MultipleChoice(questions []model.Question, answers map[string]int) float64 {
	var score float64
	for _, q := range questions {
		selected, answered := answers[q.ID.String()]
		if !answered {
			continue
		}
		if selected == q.CorrectAnswer {
			score += q.Marks
		} else {
			score -= q.NegativeMarks
		}
	}
	return score
}

// BugFixes scores a bug-bash solution map by asking the judge about each
// answered question in turn. A correct verdict earns the question's marks;
// incorrect and unknown verdicts earn nothing, so a judge outage can only
// under-award. The per-question verdicts are returned for the organizer's
// review listing.
func BugFixes(ctx context.Context, judge CorrectnessJudge, language string, questions []model.Question, solutions map[string]string) (float64, []model.JudgeReview) {
	var score float64
	reviews := make([]model.JudgeReview, 0, len(solutions))

	for _, q := range questions {
		solution, answered := solutions[q.ID.String()]
		if !answered || solution == "" {
			continue
		}

		verdict, _ := judge.Judge(ctx, language, q.Problem, q.BuggySolution, solution)
		correct := verdict == VerdictCorrect
		if correct {
			score += q.Marks
		}
		reviews = append(reviews, model.JudgeReview{
			QuestionID: q.ID.String(),
			IsCorrect:  correct,
		})
	}
	return score, reviews
}
