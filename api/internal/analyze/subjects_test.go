package analyze

import (
	"errors"
	"testing"

	"homework-check/api/internal/layout"
)

func TestForSubject(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"math", "math"},
		{"数学", "math"},
		{"MATH", "math"},
		{"chinese", "chinese"},
		{"语文", "chinese"},
		{"english", "english"},
		{"physics", "physics"},
		{"chemistry", "chemistry"},
		{"化学", "chemistry"},
	}
	for _, tt := range tests {
		a, err := ForSubject(tt.in)
		if err != nil {
			t.Errorf("ForSubject(%q): %v", tt.in, err)
			continue
		}
		if a.Subject() != tt.want {
			t.Errorf("ForSubject(%q).Subject() = %q, want %q", tt.in, a.Subject(), tt.want)
		}
	}
}

func TestForSubjectUnsupported(t *testing.T) {
	_, err := ForSubject("biology")
	var unsup *UnsupportedSubjectError
	if !errors.As(err, &unsup) {
		t.Fatalf("err = %v, want UnsupportedSubjectError", err)
	}
	if unsup.Subject != "biology" {
		t.Errorf("Subject = %q, want biology", unsup.Subject)
	}
}

func TestEvaluateFreeText(t *testing.T) {
	tests := []struct {
		name      string
		ref       string
		answer    string
		wantOK    bool
		wantScore float64
		wantErr   string
	}{
		{"exact", "春天来了", "春天来了", true, 1, ""},
		{"exact modulo punctuation", "春天来了", "春天来了。", true, 1, ""},
		{"near miss", "春天来了", "春天到了", false, 0.8, ErrNearMiss},
		{"partial containment", "春天来了万物复苏", "春天来了", false, 0.6, ErrPartialMatch},
		{"far off", "春天来了", "冬天很冷吗", false, 0.2, ErrLargeDeviation},
		{"no reference", "", "随便写的", false, 0.5, ErrPartialMatch},
		{"empty answer", "春天来了", "", false, 0, ErrNoAnswer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qa := QuestionAnalysis{ExpectedAnswer: tt.ref}
			ev := evaluateFreeText(qa, tt.answer, "空题不得分。")
			if ev.IsCorrect != tt.wantOK || ev.Score != tt.wantScore || ev.ErrorType != tt.wantErr {
				t.Errorf("got ok=%v score=%v err=%q, want ok=%v score=%v err=%q",
					ev.IsCorrect, ev.Score, ev.ErrorType, tt.wantOK, tt.wantScore, tt.wantErr)
			}
		})
	}
}

func TestEvaluateChoice(t *testing.T) {
	qa := QuestionAnalysis{ExpectedAnswer: "B", AnswerFormat: "choice"}

	if ev := evaluateChoice(qa, "B"); !ev.IsCorrect || ev.Score != 1 {
		t.Errorf("exact choice: %+v", ev)
	}
	if ev := evaluateChoice(qa, "b"); !ev.IsCorrect {
		t.Errorf("lowercase choice should match: %+v", ev)
	}
	if ev := evaluateChoice(qa, "C"); ev.IsCorrect || ev.ErrorType != ErrWrongChoice {
		t.Errorf("wrong choice: %+v", ev)
	}
	if ev := evaluateChoice(qa, ""); ev.ErrorType != ErrNoAnswer {
		t.Errorf("empty choice: %+v", ev)
	}
}

func TestEvaluateScienceNumeric(t *testing.T) {
	var p PhysicsAnalyzer
	qa := QuestionAnalysis{Subject: "physics", ExpectedAnswer: "20米"}

	if ev := p.EvaluateAnswer(qa, "20 m"); !ev.IsCorrect {
		t.Errorf("unit spelling should not matter: %+v", ev)
	}
	// 1% relative tolerance.
	if ev := p.EvaluateAnswer(QuestionAnalysis{ExpectedAnswer: "100"}, "100.5"); !ev.IsCorrect {
		t.Errorf("within relative tolerance: %+v", ev)
	}
	if ev := p.EvaluateAnswer(qa, "90米"); ev.IsCorrect || ev.ErrorType != ErrLargeDeviation {
		t.Errorf("wrong value: %+v", ev)
	}
}

func TestSubjectQuestionTypeDetection(t *testing.T) {
	mkBlock := func(text string) layout.QuestionBlock { return block(text) }

	var zh ChineseAnalyzer
	qa, _ := zh.AnalyzeQuestion(mkBlock("用「高兴」造句"), 3)
	if qa.QuestionType != "sentence-making" {
		t.Errorf("chinese type = %q, want sentence-making", qa.QuestionType)
	}

	var en EnglishAnalyzer
	qa, _ = en.AnalyzeQuestion(mkBlock("翻译下面的句子"), 3)
	if qa.QuestionType != "translation" {
		t.Errorf("english type = %q, want translation", qa.QuestionType)
	}

	var ph PhysicsAnalyzer
	qa, _ = ph.AnalyzeQuestion(mkBlock("小车的速度是多少"), 8)
	if qa.QuestionType != "kinematics" {
		t.Errorf("physics type = %q, want kinematics", qa.QuestionType)
	}

	var ch ChemistryAnalyzer
	qa, _ = ch.AnalyzeQuestion(mkBlock("写出反应的化学方程式"), 9)
	if qa.QuestionType != "equation" {
		t.Errorf("chemistry type = %q, want equation", qa.QuestionType)
	}
}

func TestChoiceBlockDetection(t *testing.T) {
	b := layout.QuestionBlock{
		Options: []layout.AnswerOption{{Letter: "A", Text: "石头"}, {Letter: "B", Text: "氧气"}},
	}
	var zh ChineseAnalyzer
	qa, _ := zh.AnalyzeQuestion(b, 3)
	if qa.QuestionType != "choice" || qa.AnswerFormat != "choice" {
		t.Errorf("got type=%q format=%q, want choice/choice", qa.QuestionType, qa.AnswerFormat)
	}
}

func TestTextDifficulty(t *testing.T) {
	short := "短题"
	long := make([]rune, 0, 200)
	for i := 0; i < 150; i++ {
		long = append(long, '题')
	}
	if got := textDifficulty(short, 3); got != DifficultyEasy {
		t.Errorf("short text difficulty = %v, want easy", got)
	}
	if got := textDifficulty(string(long), 3); got != DifficultyHard {
		t.Errorf("long text difficulty = %v, want hard", got)
	}
}
