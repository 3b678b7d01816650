package analyze

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"homework-check/api/internal/layout"
)

// Tolerance under which two numeric answers count as equal.
const NumericTolerance = 0.001

// nearMissLimit separates a likely arithmetic slip from a method error.
const nearMissLimit = 10.0

// MathAnalyzer computes the expected answer itself instead of trusting any
// answer printed on the sheet.
type MathAnalyzer struct{}

func (MathAnalyzer) Subject() string { return "math" }

var reExpr = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*([+\-×÷*/])\s*(\d+(?:\.\d+)?)`)

type expr struct {
	A, B float64
	Op   string
	Raw  string
}

// extractExpr pulls the first binary arithmetic expression out of the block
// text. ASCII operator spellings are normalized to × and ÷.
func extractExpr(text string) (expr, bool) {
	m := reExpr.FindStringSubmatch(text)
	if m == nil {
		return expr{}, false
	}
	a, _ := strconv.ParseFloat(m[1], 64)
	b, _ := strconv.ParseFloat(m[3], 64)
	op := m[2]
	switch op {
	case "*":
		op = "×"
	case "/":
		op = "÷"
	}
	return expr{A: a, B: b, Op: op, Raw: m[0]}, true
}

// evaluate computes a op b. Division by zero is a hard per-question failure,
// never a silent zero or infinity.
func evaluate(a, b float64, op string) (float64, error) {
	switch op {
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "×":
		return a * b, nil
	case "÷":
		if b == 0 {
			return 0, &DivisionByZeroError{Expr: fmt.Sprintf("%v ÷ %v", a, b)}
		}
		return a / b, nil
	default:
		return 0, fmt.Errorf("unknown operator %q", op)
	}
}

var mathTypeByOp = map[string]string{
	"+": "addition",
	"-": "subtraction",
	"×": "multiplication",
	"÷": "division",
}

var knowledgePointByOp = map[string]string{
	"+": "加法运算",
	"-": "减法运算",
	"×": "乘法运算",
	"÷": "除法运算",
}

var mistakesByOp = map[string][]string{
	"+": {"进位遗漏", "数位没有对齐"},
	"-": {"退位遗漏", "被减数与减数颠倒"},
	"×": {"乘法口诀记错", "进位遗漏"},
	"÷": {"余数处理错误", "商的位置写错"},
}

func (MathAnalyzer) AnalyzeQuestion(block layout.QuestionBlock, grade int) (QuestionAnalysis, error) {
	text := block.Text()
	qa := QuestionAnalysis{Subject: "math", AnswerFormat: "number"}

	switch {
	case containsAny(text, "面积", "周长", "体积"):
		qa.QuestionType = "geometry"
		qa.KnowledgePoints = []string{"几何图形"}
	case strings.Contains(text, "x") && strings.Contains(text, "="):
		qa.QuestionType = "equation"
		qa.KnowledgePoints = []string{"方程求解"}
	}

	ex, ok := extractExpr(text)
	if !ok {
		if qa.QuestionType == "" {
			// Numbers embedded in a sentence but no bare operator.
			qa.QuestionType = "word-problem"
			qa.KnowledgePoints = []string{"应用题"}
			qa.AnswerFormat = "text"
			qa.Difficulty = DifficultyMedium
		}
		return qa, nil
	}

	if qa.QuestionType == "" {
		qa.QuestionType = mathTypeByOp[ex.Op]
		qa.KnowledgePoints = []string{knowledgePointByOp[ex.Op]}
	}

	want, err := evaluate(ex.A, ex.B, ex.Op)
	if err != nil {
		return qa, err
	}
	qa.ExpectedAnswer = formatNumber(want)
	qa.Difficulty = mathDifficulty(math.Max(ex.A, ex.B), grade)
	qa.SolutionSteps = []string{
		fmt.Sprintf("列式：%v %s %v", formatNumber(ex.A), ex.Op, formatNumber(ex.B)),
		fmt.Sprintf("计算得 %s", qa.ExpectedAnswer),
	}
	qa.CommonMistakes = mistakesByOp[ex.Op]
	return qa, nil
}

// mathDifficulty scales the magnitude of the largest operand against the
// grade level: what is hard in grade 1 is routine in grade 4.
func mathDifficulty(maxOperand float64, grade int) Difficulty {
	if grade < 1 {
		grade = 3
	}
	ratio := maxOperand / float64(grade*100)
	switch {
	case ratio < 0.2:
		return DifficultyEasy
	case ratio < 1.0:
		return DifficultyMedium
	default:
		return DifficultyHard
	}
}

func (m MathAnalyzer) EvaluateAnswer(a QuestionAnalysis, studentAnswer string) AnswerEvaluation {
	studentAnswer = strings.TrimSpace(studentAnswer)
	if studentAnswer == "" {
		return emptyAnswerEval("先把每道题做完再提交，哪怕不确定也写下思路。")
	}
	ev := AnswerEvaluation{StudentAnswer: studentAnswer}

	if a.ExpectedAnswer == "" {
		// Word problems and such: no computed reference, credit the attempt.
		ev.Score = 0.5
		ev.ErrorType = ErrPartialMatch
		ev.ErrorDescription = "该题无法自动核对，已按作答给分"
		return ev
	}

	want, err1 := strconv.ParseFloat(a.ExpectedAnswer, 64)
	got, err2 := strconv.ParseFloat(normalizeNumeric(studentAnswer), 64)
	if err1 != nil || err2 != nil {
		if normalize(studentAnswer) == normalize(a.ExpectedAnswer) {
			ev.IsCorrect = true
			ev.Score = 1
			return ev
		}
		ev.ErrorType = ErrInvalidFormat
		ev.ErrorDescription = "答案不是有效的数字"
		ev.Suggestions = []string{"检查答案的书写格式，只写最终数值。"}
		return ev
	}

	diff := math.Abs(want - got)
	if diff <= NumericTolerance {
		ev.IsCorrect = true
		ev.Score = 1
		return ev
	}

	if op, swapped := m.matchesSwappedOperator(a, got); swapped {
		ev.ErrorType = ErrOperatorConfusion
		ev.Score = 0.2
		ev.ErrorDescription = fmt.Sprintf("结果对应的是 %s 运算，可能看错了运算符号", op)
		ev.Suggestions = []string{"做题前先圈出运算符号，确认是加减还是乘除。"}
		return ev
	}

	if diff < nearMissLimit {
		ev.ErrorType = ErrNearMiss
		ev.Score = 0.3
		ev.ErrorDescription = fmt.Sprintf("与正确答案相差 %s，可能是计算失误", formatNumber(diff))
		ev.Suggestions = []string{"算完后用逆运算验算一遍。"}
		return ev
	}

	ev.ErrorType = ErrLargeDeviation
	ev.ErrorDescription = "偏差较大，解题方法可能有误"
	ev.Suggestions = []string{"重新读题，确认数量关系后再列式。"}
	return ev
}

// matchesSwappedOperator reports whether the student's number equals the
// result of the same operands under a different operator.
func (MathAnalyzer) matchesSwappedOperator(a QuestionAnalysis, got float64) (string, bool) {
	ex, ok := extractExpr(strings.Join(a.SolutionSteps, " "))
	if !ok {
		return "", false
	}
	for _, op := range []string{"+", "-", "×", "÷"} {
		if op == ex.Op {
			continue
		}
		alt, err := evaluate(ex.A, ex.B, op)
		if err != nil {
			continue
		}
		if math.Abs(alt-got) <= NumericTolerance {
			return mathTypeByOp[op], true
		}
	}
	return "", false
}

func formatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// normalizeNumeric strips answer markers and units a child typically writes
// around the number.
func normalizeNumeric(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "答：")
	s = strings.TrimPrefix(s, "答:")
	s = strings.TrimPrefix(s, "=")
	s = strings.TrimSpace(s)
	if i := strings.IndexFunc(s, func(r rune) bool {
		return !(r >= '0' && r <= '9') && r != '.' && r != '-' && r != '+'
	}); i > 0 {
		s = s[:i]
	}
	return s
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
