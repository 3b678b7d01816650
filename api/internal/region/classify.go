package region

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// ContentType labels what a fused region contains.
type ContentType string

const (
	TypeQuestionNumber ContentType = "question-number"
	TypeChoiceOption   ContentType = "choice-option"
	TypeFormula        ContentType = "formula"
	TypeNumber         ContentType = "number"
	TypeFraction       ContentType = "fraction"
	TypePercentage     ContentType = "percentage"
	TypeWord           ContentType = "word"
	TypeSentence       ContentType = "sentence"
	TypePunctuation    ContentType = "punctuation"
	TypeText           ContentType = "text"
)

// Properties carries the values a rule managed to parse out of the text.
type Properties struct {
	QuestionNo   int     `json:"question_no,omitempty"`
	OptionLetter string  `json:"option_letter,omitempty"`
	OptionText   string  `json:"option_text,omitempty"`
	Number       float64 `json:"number,omitempty"`
	HasNumber    bool    `json:"has_number,omitempty"`
	IsEquation   bool    `json:"is_equation,omitempty"`
	Operator     string  `json:"operator,omitempty"`
	Script       string  `json:"script,omitempty"` // han | latin | digit | mixed
}

// ClassifiedRegion is a TextRegion plus its derived content type. Derivation
// is deterministic; the struct is never mutated after Classify returns it.
type ClassifiedRegion struct {
	TextRegion
	Type  ContentType `json:"type"`
	Props Properties  `json:"props"`
}

var (
	reQuestionNumber = regexp.MustCompile(`^(\d+)\s*[.、)）]`)
	reChoiceOption   = regexp.MustCompile(`^([A-H])\s*[.、)）]\s*(.*)$`)
	reNumber         = regexp.MustCompile(`^[+-]?\d+(\.\d+)?$`)
	reFraction       = regexp.MustCompile(`^(\d+)\s*/\s*(\d+)$`)
	rePercentage     = regexp.MustCompile(`^(\d+(\.\d+)?)\s*%$`)
)

// Formula symbols: arithmetic, relational and the advanced-math set. Keep the
// rule review note in mind when adding content types — an earlier, looser
// entry here will shadow a later one.
const formulaSymbols = "+-×÷*/=<>≥≤≠√^²³∑∫"

// Classify maps one region to exactly one content type. Rules run
// top-to-bottom, first match wins; every non-empty string matches something
// because TypeText is a total fallback.
func Classify(r TextRegion) ClassifiedRegion {
	text := strings.TrimSpace(r.Text)
	out := ClassifiedRegion{TextRegion: r, Type: TypeText}
	if text == "" {
		return out
	}

	// The bare-number rule runs first: "3.14" would otherwise match the
	// question-number pattern on its leading "3.".
	if reNumber.MatchString(text) {
		v, _ := strconv.ParseFloat(text, 64)
		out.Type = TypeNumber
		out.Props = Properties{Number: v, HasNumber: true}
		return out
	}
	if m := reQuestionNumber.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		out.Type = TypeQuestionNumber
		out.Props = Properties{QuestionNo: n}
		return out
	}
	if m := reChoiceOption.FindStringSubmatch(text); m != nil {
		out.Type = TypeChoiceOption
		out.Props = Properties{OptionLetter: m[1], OptionText: strings.TrimSpace(m[2])}
		return out
	}
	// "3/4" and "40%" contain formula symbols and must precede the formula
	// rule too.
	if m := reFraction.FindStringSubmatch(text); m != nil {
		num, _ := strconv.ParseFloat(m[1], 64)
		den, _ := strconv.ParseFloat(m[2], 64)
		out.Type = TypeFraction
		if den != 0 {
			out.Props = Properties{Number: num / den, HasNumber: true}
		}
		return out
	}
	if m := rePercentage.FindStringSubmatch(text); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		out.Type = TypePercentage
		out.Props = Properties{Number: v / 100, HasNumber: true}
		return out
	}
	if op := dominantOperator(text); op != "" {
		out.Type = TypeFormula
		out.Props = Properties{
			Operator:   op,
			IsEquation: strings.ContainsRune(text, '='),
		}
		return out
	}
	if isPunctuationOnly(text) {
		out.Type = TypePunctuation
		return out
	}
	if script, single := scriptOf(text); single {
		out.Type = TypeWord
		out.Props = Properties{Script: script}
		return out
	} else if script != "" {
		out.Type = TypeSentence
		out.Props = Properties{Script: script}
		return out
	}
	return out
}

// ClassifyAll classifies a slice, keeping order.
func ClassifyAll(rs []TextRegion) []ClassifiedRegion {
	out := make([]ClassifiedRegion, 0, len(rs))
	for _, r := range rs {
		out = append(out, Classify(r))
	}
	return out
}

// dominantOperator returns the arithmetic operator to use for evaluation, or
// "" when the text carries no formula symbol at all.
func dominantOperator(s string) string {
	has := false
	for _, r := range s {
		if strings.ContainsRune(formulaSymbols, r) {
			has = true
			break
		}
	}
	if !has {
		return ""
	}
	// Normalized operator preference: explicit × ÷ first, then + -, then the
	// ASCII spellings.
	for _, op := range []string{"×", "÷", "+", "-", "*", "/"} {
		if strings.Contains(s, op) {
			switch op {
			case "*":
				return "×"
			case "/":
				return "÷"
			}
			return op
		}
	}
	return "="
}

func isPunctuationOnly(s string) bool {
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) {
			return false
		}
	}
	return true
}

// scriptOf reports the dominant script family and whether the text is a
// single word (no spaces, short, one family).
func scriptOf(s string) (string, bool) {
	var han, latin, digit, other int
	for _, r := range s {
		switch {
		case unicode.Is(unicode.Han, r):
			han++
		case unicode.IsLetter(r) && r < 0x250:
			latin++
		case unicode.IsDigit(r):
			digit++
		case unicode.IsSpace(r) || unicode.IsPunct(r):
		default:
			other++
		}
	}
	script := ""
	switch {
	case han > 0 && latin == 0:
		script = "han"
	case latin > 0 && han == 0:
		script = "latin"
	case digit > 0 && han == 0 && latin == 0:
		script = "digit"
	case han > 0 || latin > 0:
		script = "mixed"
	}
	if script == "" {
		return "", false
	}
	runes := []rune(strings.TrimSpace(s))
	single := !strings.ContainsAny(s, " \t") &&
		((script == "latin" && len(runes) <= 20) || (script == "han" && len(runes) <= 4))
	return script, single
}
