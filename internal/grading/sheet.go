package grading

import "github.com/moiseiyaa/iremeHub-lms/internal/catalog"

// GradedAnswer is one scored response within an answer sheet.
// Selected is -1 when the learner left the question unanswered.
type GradedAnswer struct {
	Question int     `json:"question"`
	Selected int     `json:"selected"`
	Correct  bool    `json:"correct"`
	Points   float64 `json:"points"`
}

// SheetResult is the outcome of grading a full answer sheet.
type SheetResult struct {
	Answers     []GradedAnswer `json:"answers"`
	Score       float64        `json:"score"`
	TotalPoints float64        `json:"total_points"`
}

// Percentage returns Score/TotalPoints as a percentage, 0 for an empty bank.
func (r SheetResult) Percentage() float64 {
	if r.TotalPoints == 0 {
		return 0
	}
	return r.Score / r.TotalPoints * 100
}

// GradeSheet scores an ordered list of selected-option indices against a
// question bank. Answer i is compared to bank question i; correctness is an
// exact match of the correct-answer index. Answers beyond the bank length
// are ignored; questions without an answer score zero. TotalPoints always
// covers the whole bank, answered or not.
func GradeSheet(bank []catalog.Question, answers []int) SheetResult {
	res := SheetResult{Answers: make([]GradedAnswer, 0, len(bank))}
	for i, q := range bank {
		res.TotalPoints += q.Points
		ga := GradedAnswer{Question: i, Selected: -1}
		if i < len(answers) {
			ga.Selected = answers[i]
			if answers[i] == q.CorrectAnswer {
				ga.Correct = true
				ga.Points = q.Points
				res.Score += q.Points
			}
		}
		res.Answers = append(res.Answers, ga)
	}
	return res
}
