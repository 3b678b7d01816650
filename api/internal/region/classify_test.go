package region

import (
	"math"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want ContentType
	}{
		{"3、", TypeQuestionNumber},
		{"12. 计算下列各题", TypeQuestionNumber},
		{"5）", TypeQuestionNumber},
		{"A. 陆地", TypeChoiceOption},
		{"B、水面", TypeChoiceOption},
		{"-5", TypeNumber},
		{"3.14", TypeNumber},
		{"3/4", TypeFraction},
		{"40%", TypePercentage},
		{"125 × 8 =", TypeFormula},
		{"6 + 7", TypeFormula},
		{"18 / 3 =", TypeFormula},
		{"。", TypePunctuation},
		{"，、！", TypePunctuation},
		{"苹果", TypeWord},
		{"apple", TypeWord},
		{"小明有五个苹果一共多少", TypeSentence},
		{"The cat sat on the mat", TypeSentence},
		{"", TypeText},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := Classify(TextRegion{Text: tt.text})
			if got.Type != tt.want {
				t.Errorf("Classify(%q).Type = %q, want %q", tt.text, got.Type, tt.want)
			}
		})
	}
}

func TestClassifyQuestionNumberProps(t *testing.T) {
	got := Classify(TextRegion{Text: "17、解方程"})
	if got.Props.QuestionNo != 17 {
		t.Errorf("QuestionNo = %d, want 17", got.Props.QuestionNo)
	}
}

func TestClassifyChoiceOptionProps(t *testing.T) {
	got := Classify(TextRegion{Text: "C. 二氧化碳"})
	if got.Props.OptionLetter != "C" || got.Props.OptionText != "二氧化碳" {
		t.Errorf("props = %+v, want letter C, text 二氧化碳", got.Props)
	}
}

func TestClassifyNumericProps(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{"-5", -5},
		{"3/4", 0.75},
		{"40%", 0.4},
	}
	for _, tt := range tests {
		got := Classify(TextRegion{Text: tt.text})
		if !got.Props.HasNumber || math.Abs(got.Props.Number-tt.want) > 1e-9 {
			t.Errorf("Classify(%q).Props.Number = %v, want %v", tt.text, got.Props.Number, tt.want)
		}
	}
}

func TestClassifyFormulaProps(t *testing.T) {
	got := Classify(TextRegion{Text: "125 * 8 ="})
	if got.Props.Operator != "×" {
		t.Errorf("operator = %q, want × (normalized from *)", got.Props.Operator)
	}
	if !got.Props.IsEquation {
		t.Error("IsEquation = false, want true")
	}

	got = Classify(TextRegion{Text: "6 + 7"})
	if got.Props.IsEquation {
		t.Error("IsEquation = true for expression without =")
	}
}

func TestClassifyIsTotal(t *testing.T) {
	// Anything, including garbage, must land on some type.
	for _, s := range []string{" ", "€€€", "①", "x", "答："} {
		got := Classify(TextRegion{Text: s})
		if got.Type == "" {
			t.Errorf("Classify(%q) produced empty type", s)
		}
	}
}
