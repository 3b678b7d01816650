package analyze

import (
	"regexp"
	"strconv"
	"strings"

	"homework-check/api/internal/layout"
)

// The non-math analyzers share one deliberately weaker evaluation: free-text
// subjects cannot be checked with the math variant's rigor, so they award
// partial credit on best-effort comparison instead of a hard verdict.

// evaluateFreeText grades against an optional reference answer. With no
// reference a non-empty attempt earns half credit and nothing more.
func evaluateFreeText(a QuestionAnalysis, studentAnswer, emptyHint string) AnswerEvaluation {
	studentAnswer = strings.TrimSpace(studentAnswer)
	if studentAnswer == "" {
		return emptyAnswerEval(emptyHint)
	}
	ev := AnswerEvaluation{StudentAnswer: studentAnswer}

	ref := strings.TrimSpace(a.ExpectedAnswer)
	if ref == "" {
		ev.Score = 0.5
		ev.ErrorType = ErrPartialMatch
		ev.ErrorDescription = "该题没有标准答案，按作答情况给分"
		return ev
	}

	ns, nr := normalize(studentAnswer), normalize(ref)
	switch {
	case ns == nr:
		ev.IsCorrect = true
		ev.Score = 1
	case levenshtein(ns, nr) <= 1:
		ev.Score = 0.8
		ev.ErrorType = ErrNearMiss
		ev.ErrorDescription = "与参考答案仅有细微出入"
		ev.Suggestions = []string{"对照原文再检查一遍书写。"}
	case strings.Contains(ns, nr) || strings.Contains(nr, ns):
		ev.Score = 0.6
		ev.ErrorType = ErrPartialMatch
		ev.ErrorDescription = "答案覆盖了部分要点"
		ev.Suggestions = []string{"补全答案中缺少的要点。"}
	default:
		ev.Score = 0.2
		ev.ErrorType = ErrLargeDeviation
		ev.ErrorDescription = "与参考答案差别较大"
		ev.Suggestions = []string{"重新审题，注意题目问的是什么。"}
	}
	return ev
}

// evaluateChoice handles lettered options: a single-letter comparison, still
// tolerant about case and decoration.
func evaluateChoice(a QuestionAnalysis, studentAnswer string) AnswerEvaluation {
	studentAnswer = strings.TrimSpace(studentAnswer)
	if studentAnswer == "" {
		return emptyAnswerEval("选择题不要留空，排除法也能缩小范围。")
	}
	ev := AnswerEvaluation{StudentAnswer: studentAnswer}
	got := strings.ToUpper(normalize(studentAnswer))
	want := strings.ToUpper(normalize(a.ExpectedAnswer))
	if want != "" && got == want {
		ev.IsCorrect = true
		ev.Score = 1
		return ev
	}
	if want == "" {
		ev.Score = 0.5
		ev.ErrorType = ErrPartialMatch
		ev.ErrorDescription = "该题缺少标准选项，按作答给分"
		return ev
	}
	ev.ErrorType = ErrWrongChoice
	ev.ErrorDescription = "所选选项与参考答案不符"
	ev.Suggestions = []string{"逐个排除明显错误的选项再作选择。"}
	return ev
}

// textDifficulty bands free-text questions by body length against the grade.
func textDifficulty(text string, grade int) Difficulty {
	if grade < 1 {
		grade = 3
	}
	runes := len([]rune(text))
	switch {
	case runes < grade*15:
		return DifficultyEasy
	case runes < grade*40:
		return DifficultyMedium
	default:
		return DifficultyHard
	}
}

func baseTextAnalysis(subject string, block layout.QuestionBlock, grade int) QuestionAnalysis {
	qa := QuestionAnalysis{
		Subject:      subject,
		AnswerFormat: "text",
		Difficulty:   textDifficulty(block.Text(), grade),
	}
	if len(block.Options) > 0 {
		qa.QuestionType = "choice"
		qa.AnswerFormat = "choice"
	}
	return qa
}

// --- Chinese (language/literature) ---

type ChineseAnalyzer struct{}

func (ChineseAnalyzer) Subject() string { return "chinese" }

func (ChineseAnalyzer) AnalyzeQuestion(block layout.QuestionBlock, grade int) (QuestionAnalysis, error) {
	qa := baseTextAnalysis("chinese", block, grade)
	text := block.Text()
	switch {
	case qa.QuestionType == "choice":
		qa.KnowledgePoints = []string{"基础知识"}
	case containsAny(text, "拼音", "注音"):
		qa.QuestionType = "pinyin"
		qa.KnowledgePoints = []string{"拼音"}
	case containsAny(text, "造句", "写一句"):
		qa.QuestionType = "sentence-making"
		qa.KnowledgePoints = []string{"造句"}
	case containsAny(text, "阅读", "短文"):
		qa.QuestionType = "reading"
		qa.KnowledgePoints = []string{"阅读理解"}
	default:
		qa.QuestionType = "writing"
		qa.KnowledgePoints = []string{"语言表达"}
	}
	qa.CommonMistakes = []string{"错别字", "标点使用不当"}
	return qa, nil
}

func (ChineseAnalyzer) EvaluateAnswer(a QuestionAnalysis, studentAnswer string) AnswerEvaluation {
	if a.AnswerFormat == "choice" {
		return evaluateChoice(a, studentAnswer)
	}
	return evaluateFreeText(a, studentAnswer, "语文题先把能写的写上，空题不得分。")
}

// --- English (foreign language) ---

type EnglishAnalyzer struct{}

func (EnglishAnalyzer) Subject() string { return "english" }

func (EnglishAnalyzer) AnalyzeQuestion(block layout.QuestionBlock, grade int) (QuestionAnalysis, error) {
	qa := baseTextAnalysis("english", block, grade)
	text := block.Text()
	switch {
	case qa.QuestionType == "choice":
		qa.KnowledgePoints = []string{"词汇与语法"}
	case containsAny(text, "翻译", "translate"):
		qa.QuestionType = "translation"
		qa.KnowledgePoints = []string{"翻译"}
	case containsAny(text, "填空", "fill"):
		qa.QuestionType = "fill-blank"
		qa.KnowledgePoints = []string{"词汇填空"}
	default:
		qa.QuestionType = "writing"
		qa.KnowledgePoints = []string{"英语表达"}
	}
	qa.CommonMistakes = []string{"单词拼写错误", "时态使用错误"}
	return qa, nil
}

func (EnglishAnalyzer) EvaluateAnswer(a QuestionAnalysis, studentAnswer string) AnswerEvaluation {
	if a.AnswerFormat == "choice" {
		return evaluateChoice(a, studentAnswer)
	}
	return evaluateFreeText(a, studentAnswer, "英语题空着不得分，先写出会的单词。")
}

// --- Physics / Chemistry ---

// Science subjects mostly produce a number with a unit; compare numerically
// when both sides parse, fall back to free text otherwise.

var reLeadingNumber = regexp.MustCompile(`[+-]?\d+(\.\d+)?`)

func evaluateScience(a QuestionAnalysis, studentAnswer, emptyHint string) AnswerEvaluation {
	studentAnswer = strings.TrimSpace(studentAnswer)
	if studentAnswer == "" {
		return emptyAnswerEval(emptyHint)
	}
	ws := reLeadingNumber.FindString(a.ExpectedAnswer)
	gs := reLeadingNumber.FindString(studentAnswer)
	if ws != "" && gs != "" {
		want, _ := strconv.ParseFloat(ws, 64)
		got, _ := strconv.ParseFloat(gs, 64)
		diff := want - got
		if diff < 0 {
			diff = -diff
		}
		ev := AnswerEvaluation{StudentAnswer: studentAnswer}
		// 1% relative tolerance: unit conversions and rounding are graded
		// leniently here, unlike the math variant.
		if diff <= NumericTolerance || (want != 0 && diff/abs(want) <= 0.01) {
			ev.IsCorrect = true
			ev.Score = 1
			return ev
		}
		ev.Score = 0.2
		ev.ErrorType = ErrLargeDeviation
		ev.ErrorDescription = "数值与参考答案不符"
		ev.Suggestions = []string{"检查公式代入和单位换算。"}
		return ev
	}
	return evaluateFreeText(a, studentAnswer, emptyHint)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

type PhysicsAnalyzer struct{}

func (PhysicsAnalyzer) Subject() string { return "physics" }

func (PhysicsAnalyzer) AnalyzeQuestion(block layout.QuestionBlock, grade int) (QuestionAnalysis, error) {
	qa := baseTextAnalysis("physics", block, grade)
	text := block.Text()
	switch {
	case qa.QuestionType == "choice":
		qa.KnowledgePoints = []string{"物理概念"}
	case containsAny(text, "速度", "路程", "时间"):
		qa.QuestionType = "kinematics"
		qa.KnowledgePoints = []string{"运动学"}
	case containsAny(text, "力", "压强", "浮力"):
		qa.QuestionType = "mechanics"
		qa.KnowledgePoints = []string{"力学"}
	case containsAny(text, "电", "电路", "电阻"):
		qa.QuestionType = "electricity"
		qa.KnowledgePoints = []string{"电学"}
	default:
		qa.QuestionType = "concept"
		qa.KnowledgePoints = []string{"物理概念"}
	}
	qa.CommonMistakes = []string{"单位换算错误", "公式记错"}
	return qa, nil
}

func (PhysicsAnalyzer) EvaluateAnswer(a QuestionAnalysis, studentAnswer string) AnswerEvaluation {
	if a.AnswerFormat == "choice" {
		return evaluateChoice(a, studentAnswer)
	}
	return evaluateScience(a, studentAnswer, "物理计算题要写出公式和代入过程。")
}

type ChemistryAnalyzer struct{}

func (ChemistryAnalyzer) Subject() string { return "chemistry" }

func (ChemistryAnalyzer) AnalyzeQuestion(block layout.QuestionBlock, grade int) (QuestionAnalysis, error) {
	qa := baseTextAnalysis("chemistry", block, grade)
	text := block.Text()
	switch {
	case qa.QuestionType == "choice":
		qa.KnowledgePoints = []string{"化学基础"}
	case containsAny(text, "化学方程式", "反应"):
		qa.QuestionType = "equation"
		qa.KnowledgePoints = []string{"化学方程式"}
	case containsAny(text, "溶液", "浓度"):
		qa.QuestionType = "solution"
		qa.KnowledgePoints = []string{"溶液计算"}
	default:
		qa.QuestionType = "concept"
		qa.KnowledgePoints = []string{"化学概念"}
	}
	qa.CommonMistakes = []string{"化学式书写错误", "方程式未配平"}
	return qa, nil
}

func (ChemistryAnalyzer) EvaluateAnswer(a QuestionAnalysis, studentAnswer string) AnswerEvaluation {
	if a.AnswerFormat == "choice" {
		return evaluateChoice(a, studentAnswer)
	}
	return evaluateScience(a, studentAnswer, "化学题先写化学式，再考虑配平。")
}
