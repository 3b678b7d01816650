package analyze

import (
	"errors"
	"math"
	"testing"

	"homework-check/api/internal/layout"
	"homework-check/api/internal/region"
)

func block(text string) layout.QuestionBlock {
	return layout.QuestionBlock{
		Number:   1,
		Numbered: true,
		Parts: []region.ClassifiedRegion{
			region.Classify(region.TextRegion{Text: text, Confidence: 1}),
		},
	}
}

func TestMathAnalyzeQuestion(t *testing.T) {
	var m MathAnalyzer
	tests := []struct {
		text       string
		wantType   string
		wantAnswer string
		wantKP     string
	}{
		{"25 + 13 =", "addition", "38", "加法运算"},
		{"50 - 18 =", "subtraction", "32", "减法运算"},
		{"125 × 8 =", "multiplication", "1000", "乘法运算"},
		{"81 ÷ 9 =", "division", "9", "除法运算"},
		{"81 / 9 =", "division", "9", "除法运算"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			qa, err := m.AnalyzeQuestion(block(tt.text), 3)
			if err != nil {
				t.Fatalf("AnalyzeQuestion: %v", err)
			}
			if qa.QuestionType != tt.wantType {
				t.Errorf("type = %q, want %q", qa.QuestionType, tt.wantType)
			}
			if qa.ExpectedAnswer != tt.wantAnswer {
				t.Errorf("expected answer = %q, want %q", qa.ExpectedAnswer, tt.wantAnswer)
			}
			if len(qa.KnowledgePoints) != 1 || qa.KnowledgePoints[0] != tt.wantKP {
				t.Errorf("knowledge points = %v, want [%s]", qa.KnowledgePoints, tt.wantKP)
			}
			if len(qa.SolutionSteps) == 0 {
				t.Error("no solution steps")
			}
		})
	}
}

func TestMathDivisionByZero(t *testing.T) {
	var m MathAnalyzer
	_, err := m.AnalyzeQuestion(block("20 ÷ 0 ="), 3)
	var dz *DivisionByZeroError
	if !errors.As(err, &dz) {
		t.Fatalf("err = %v, want DivisionByZeroError", err)
	}
}

func TestMathWordProblem(t *testing.T) {
	var m MathAnalyzer
	qa, err := m.AnalyzeQuestion(block("小明有五个苹果，小红比他多两个，小红有几个"), 3)
	if err != nil {
		t.Fatalf("AnalyzeQuestion: %v", err)
	}
	if qa.QuestionType != "word-problem" {
		t.Errorf("type = %q, want word-problem", qa.QuestionType)
	}
	if qa.ExpectedAnswer != "" {
		t.Errorf("expected answer = %q, want empty (no bare expression)", qa.ExpectedAnswer)
	}
}

func TestMathGeometryDetection(t *testing.T) {
	var m MathAnalyzer
	qa, err := m.AnalyzeQuestion(block("长方形长8厘米宽5厘米，求面积"), 3)
	if err != nil {
		t.Fatalf("AnalyzeQuestion: %v", err)
	}
	if qa.QuestionType != "geometry" {
		t.Errorf("type = %q, want geometry", qa.QuestionType)
	}
}

func TestMathEvaluateAnswer(t *testing.T) {
	var m MathAnalyzer
	mustAnalyze := func(text string) QuestionAnalysis {
		qa, err := m.AnalyzeQuestion(block(text), 3)
		if err != nil {
			t.Fatalf("AnalyzeQuestion(%q): %v", text, err)
		}
		return qa
	}

	tests := []struct {
		name      string
		question  string
		answer    string
		wantOK    bool
		wantScore float64
		wantErr   string
	}{
		{"correct", "25 + 13 =", "38", true, 1, ""},
		{"correct within tolerance", "25 + 13 =", "38.0005", true, 1, ""},
		{"correct with marker", "25 + 13 =", "答：38", true, 1, ""},
		{"no answer", "25 + 13 =", "", false, 0, ErrNoAnswer},
		{"operator confusion", "6 + 7 =", "42", false, 0.2, ErrOperatorConfusion},
		{"near miss", "6 + 7 =", "14", false, 0.3, ErrNearMiss},
		{"large deviation", "125 × 8 =", "1024", false, 0, ErrLargeDeviation},
		{"invalid format", "25 + 13 =", "很多", false, 0, ErrInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := m.EvaluateAnswer(mustAnalyze(tt.question), tt.answer)
			if ev.IsCorrect != tt.wantOK {
				t.Errorf("IsCorrect = %v, want %v", ev.IsCorrect, tt.wantOK)
			}
			if math.Abs(ev.Score-tt.wantScore) > 1e-9 {
				t.Errorf("Score = %v, want %v", ev.Score, tt.wantScore)
			}
			if ev.ErrorType != tt.wantErr {
				t.Errorf("ErrorType = %q, want %q", ev.ErrorType, tt.wantErr)
			}
		})
	}
}

func TestMathEvaluateWordProblemPartialCredit(t *testing.T) {
	var m MathAnalyzer
	qa := QuestionAnalysis{Subject: "math", QuestionType: "word-problem"}
	ev := m.EvaluateAnswer(qa, "七个")
	if ev.IsCorrect || ev.Score != 0.5 || ev.ErrorType != ErrPartialMatch {
		t.Errorf("got %+v, want half credit partial-match", ev)
	}
}

func TestMathDifficulty(t *testing.T) {
	tests := []struct {
		operand float64
		grade   int
		want    Difficulty
	}{
		{30, 3, DifficultyEasy},
		{150, 3, DifficultyMedium},
		{400, 3, DifficultyHard},
		{150, 0, DifficultyMedium}, // invalid grade falls back to 3
	}
	for _, tt := range tests {
		if got := mathDifficulty(tt.operand, tt.grade); got != tt.want {
			t.Errorf("mathDifficulty(%v, %d) = %v, want %v", tt.operand, tt.grade, got, tt.want)
		}
	}
}

func TestNormalizeNumeric(t *testing.T) {
	tests := []struct{ in, want string }{
		{"答：38", "38"},
		{"= 42", "42"},
		{"12个", "12"},
		{"3.5米", "3.5"},
		{"-7", "-7"},
	}
	for _, tt := range tests {
		if got := normalizeNumeric(tt.in); got != tt.want {
			t.Errorf("normalizeNumeric(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
