package grading

import (
	"math"
	"testing"

	"github.com/moiseiyaa/iremeHub-lms/internal/catalog"
)

func bank() []catalog.Question {
	return []catalog.Question{
		{Prompt: "q1", Options: []string{"a", "b"}, CorrectAnswer: 1, Points: 2},
		{Prompt: "q2", Options: []string{"a", "b"}, CorrectAnswer: 0, Points: 1},
	}
}

func TestGradeSheet(t *testing.T) {
	res := GradeSheet(bank(), []int{1, 1})
	if res.Score != 2 {
		t.Errorf("score = %v, want 2", res.Score)
	}
	if res.TotalPoints != 3 {
		t.Errorf("total = %v, want 3", res.TotalPoints)
	}
	if math.Abs(res.Percentage()-66.666) > 0.01 {
		t.Errorf("percentage = %v, want ~66.67", res.Percentage())
	}
	if !res.Answers[0].Correct || res.Answers[1].Correct {
		t.Errorf("per-question correctness wrong: %+v", res.Answers)
	}
}

func TestGradeSheetShortAnswerList(t *testing.T) {
	res := GradeSheet(bank(), []int{1})
	if res.Score != 2 {
		t.Errorf("score = %v, want 2", res.Score)
	}
	if res.TotalPoints != 3 {
		t.Errorf("unanswered questions must still count toward total, got %v", res.TotalPoints)
	}
	if res.Answers[1].Selected != -1 || res.Answers[1].Correct {
		t.Errorf("unanswered question should be wrong with selected=-1: %+v", res.Answers[1])
	}
}

func TestGradeSheetExtraAnswersIgnored(t *testing.T) {
	res := GradeSheet(bank(), []int{1, 0, 3, 2})
	if res.Score != 3 {
		t.Errorf("score = %v, want 3", res.Score)
	}
	if len(res.Answers) != 2 {
		t.Errorf("answers beyond the bank must be ignored, got %d entries", len(res.Answers))
	}
}

func TestGradeSheetEmptyBank(t *testing.T) {
	res := GradeSheet(nil, []int{0, 1})
	if res.Score != 0 || res.TotalPoints != 0 {
		t.Errorf("empty bank should score 0/0, got %v/%v", res.Score, res.TotalPoints)
	}
	if res.Percentage() != 0 {
		t.Errorf("percentage of empty bank should be 0, got %v", res.Percentage())
	}
}
