package telegram

import (
	"strings"
	"testing"
	"unicode/utf8"

	"homework-check/api/internal/analyze"
	"homework-check/api/internal/correct"
)

func TestClipCountsRunes(t *testing.T) {
	s := strings.Repeat("题", 10)
	got := clip(s, 4)
	if got != "题题题题…" {
		t.Errorf("clip = %q, want four runes plus ellipsis", got)
	}
	if !utf8.ValidString(got) {
		t.Errorf("clip produced invalid UTF-8: %q", got)
	}
	if got := clip("short", 100); got != "short" {
		t.Errorf("clip passthrough = %q", got)
	}
}

func TestRenderResult(t *testing.T) {
	res := &correct.Result{
		Subject:        "math",
		TotalQuestions: 2,
		CorrectCount:   1,
		WrongCount:     1,
		AccuracyRate:   50.0,
		Questions: []correct.QuestionDetail{
			{Number: 1, Evaluation: analyze.AnswerEvaluation{IsCorrect: true, Score: 1}},
			{
				Number:      2,
				Evaluation:  analyze.AnswerEvaluation{ErrorType: analyze.ErrNearMiss, Score: 0.3},
				Explanation: "回答有误。参考答案：13。",
			},
		},
		Performance: correct.Performance{
			WeakKnowledgePoints: []string{"加法运算"},
			DifficultyMatch:     "适中",
		},
		Suggestions:          []string{"算完后用逆运算验算一遍。"},
		TimeSpentEstimateMin: 4,
	}

	msg := renderResult(res)
	for _, want := range []string{
		"共 2 题", "正确率 50.0%",
		"✅ 第1题", "❌ 第2题：回答有误。",
		"薄弱知识点：加法运算",
		"1. 算完后用逆运算验算一遍。",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("rendered report missing %q:\n%s", want, msg)
		}
	}
	if !utf8.ValidString(msg) {
		t.Error("rendered report is not valid UTF-8")
	}
}
