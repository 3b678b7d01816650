// Package correct drives the whole correction pipeline for one worksheet
// image: recognition fan-out, region fusion, classification, block building,
// subject analysis and aggregation. One synchronous call chain per image, no
// state kept between invocations.
package correct

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	"homework-check/api/internal/analyze"
	"homework-check/api/internal/layout"
	"homework-check/api/internal/recognize"
	"homework-check/api/internal/region"
)

// RecognitionError: every adapter failed or returned nothing. Reported, not
// retried; a zero-question "result" would be indistinguishable from a crash.
type RecognitionError struct {
	Adapters int
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("recognition failed: no usable regions from %d adapter(s)", e.Adapters)
}

// NoQuestionsError: text was recognized but no question structure could be
// built. RawText lets the caller offer a manual-entry fallback instead of a
// fabricated grading result.
type NoQuestionsError struct {
	RawText string
}

func (e *NoQuestionsError) Error() string {
	return "no questions parsed from recognized text"
}

// Input is the call contract from the upload layer. StudentID is attribution
// only; it never branches logic.
type Input struct {
	Image      []byte
	Subject    string
	GradeLevel string
	StudentID  string
	Preprocess bool
}

// QuestionDetail joins analysis and evaluation for one question, plus a
// display-ready explanation.
type QuestionDetail struct {
	Number      int                      `json:"number"`
	Text        string                   `json:"text"`
	Analysis    analyze.QuestionAnalysis `json:"analysis"`
	Evaluation  analyze.AnswerEvaluation `json:"evaluation"`
	Explanation string                   `json:"explanation"`
}

// Performance summarizes where this sheet went wrong.
type Performance struct {
	WeakKnowledgePoints []string `json:"weak_knowledge_points"`
	DominantErrorType   string   `json:"dominant_error_type,omitempty"`
	DifficultyMatch     string   `json:"difficulty_match"`
}

// Result is the pipeline's terminal output for one image. Ownership passes to
// the caller; nothing here is written afterwards.
type Result struct {
	Subject              string           `json:"subject"`
	StudentID            string           `json:"student_id"`
	TotalQuestions       int              `json:"total_questions"`
	CorrectCount         int              `json:"correct_count"`
	WrongCount           int              `json:"wrong_count"`
	AccuracyRate         float64          `json:"accuracy_rate"`
	OverallScore         float64          `json:"overall_score"`
	Questions            []QuestionDetail `json:"questions"`
	Performance          Performance      `json:"performance"`
	Suggestions          []string         `json:"suggestions"`
	TimeSpentEstimateMin int              `json:"time_spent_estimate_min"`
}

type Pipeline struct {
	Adapters []recognize.Adapter
}

func New(adapters ...recognize.Adapter) *Pipeline {
	return &Pipeline{Adapters: adapters}
}

// Correct runs the full pipeline. The subject is validated before any
// recognition work so an unsupported subject costs nothing.
func (p *Pipeline) Correct(ctx context.Context, in Input) (*Result, error) {
	analyzer, err := analyze.ForSubject(in.Subject)
	if err != nil {
		return nil, err
	}

	if len(p.Adapters) == 0 {
		return nil, &RecognitionError{Adapters: 0}
	}
	lists := recognize.ExtractAll(ctx, p.Adapters, in.Image, in.Preprocess)
	fused := region.Fuse(lists...)
	if len(fused) == 0 {
		return nil, &RecognitionError{Adapters: len(p.Adapters)}
	}

	region.SortReadingOrder(fused)
	classified := region.ClassifyAll(fused)

	blocks := layout.Build(classified)
	raw := layout.RawText(classified)
	if len(blocks) == 0 {
		// Fallback: segment the concatenated raw text on number+separator.
		blocks = layout.BuildFromText(raw)
	}
	if len(blocks) == 0 {
		return nil, &NoQuestionsError{RawText: raw}
	}

	grade := parseGrade(in.GradeLevel)
	details := make([]QuestionDetail, 0, len(blocks))
	for _, b := range blocks {
		details = append(details, p.gradeBlock(analyzer, b, grade))
	}

	res := aggregate(details)
	res.Subject = analyzer.Subject()
	res.StudentID = in.StudentID
	return res, nil
}

// gradeBlock analyzes and evaluates one question. A division-by-zero expected
// answer marks the single question unscorable; the sheet keeps going.
func (p *Pipeline) gradeBlock(analyzer analyze.Analyzer, b layout.QuestionBlock, grade int) QuestionDetail {
	d := QuestionDetail{Number: b.Number, Text: b.Text()}

	qa, err := analyzer.AnalyzeQuestion(b, grade)
	d.Analysis = qa
	if err != nil {
		d.Evaluation = analyze.AnswerEvaluation{
			Score:            0,
			ErrorType:        analyze.ErrUnscorable,
			ErrorDescription: err.Error(),
		}
		d.Explanation = "本题无法自动判分：" + err.Error()
		return d
	}

	student := extractStudentAnswer(b)
	d.Evaluation = analyzer.EvaluateAnswer(qa, student)
	d.Explanation = explain(d)
	return d
}

var (
	reAnswerAfterEq = regexp.MustCompile(`=\s*([^=\s？?]+)\s*$`)
	reAnswerMarker  = regexp.MustCompile(`答[:：]\s*(\S+)`)
)

// extractStudentAnswer pulls the written answer out of the block: the token
// after the final equals sign of a formula, or an explicit 答： marker.
// Placeholders (?，？，()，____) mean the student left it blank.
func extractStudentAnswer(b layout.QuestionBlock) string {
	if m := reAnswerMarker.FindStringSubmatch(b.Text()); m != nil {
		return cleanAnswer(m[1])
	}
	for i := len(b.Formulas) - 1; i >= 0; i-- {
		if m := reAnswerAfterEq.FindStringSubmatch(strings.TrimSpace(b.Formulas[i].Text)); m != nil {
			return cleanAnswer(m[1])
		}
	}
	// Fallback covers the raw-text path where the formula sits inside one
	// big region.
	if m := reAnswerAfterEq.FindStringSubmatch(b.Text()); m != nil {
		return cleanAnswer(m[1])
	}
	return ""
}

func cleanAnswer(s string) string {
	s = strings.TrimSpace(s)
	switch s {
	case "?", "？", "()", "（）", "□":
		return ""
	}
	if strings.Trim(s, "_") == "" {
		return ""
	}
	return s
}

func explain(d QuestionDetail) string {
	ev := d.Evaluation
	if ev.IsCorrect {
		return "回答正确。"
	}
	var sb strings.Builder
	switch ev.ErrorType {
	case analyze.ErrNoAnswer:
		sb.WriteString("本题未作答。")
	default:
		sb.WriteString("回答有误。")
	}
	if d.Analysis.ExpectedAnswer != "" {
		fmt.Fprintf(&sb, "参考答案：%s。", d.Analysis.ExpectedAnswer)
	}
	if ev.ErrorDescription != "" {
		sb.WriteString(ev.ErrorDescription)
		sb.WriteString("。")
	}
	return sb.String()
}

// parseGrade extracts the grade number out of free-form grade strings
// ("3", "grade-3", "三年级"). Unparseable input falls back to grade 3.
func parseGrade(s string) int {
	s = strings.TrimSpace(s)
	for i, zh := range []string{"一", "二", "三", "四", "五", "六", "七", "八", "九"} {
		if strings.Contains(s, zh) {
			return i + 1
		}
	}
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n = n*10 + int(r-'0')
		} else if n > 0 {
			break
		}
	}
	if n < 1 || n > 12 {
		return 3
	}
	return n
}

// round1 keeps the stored and displayed accuracy identical.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
