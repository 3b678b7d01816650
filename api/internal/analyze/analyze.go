// Package analyze hosts the per-subject question analyzers. Every analyzer
// implements the same two-method contract; the orchestrator picks one by the
// subject string and never mixes them.
package analyze

import (
	"fmt"
	"strings"

	"homework-check/api/internal/layout"
)

// Difficulty bands a question relative to the grade level.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// QuestionAnalysis is the analyzer output for one block.
type QuestionAnalysis struct {
	Subject         string     `json:"subject"`
	QuestionType    string     `json:"question_type"`
	KnowledgePoints []string   `json:"knowledge_points"`
	Difficulty      Difficulty `json:"difficulty"`
	ExpectedAnswer  string     `json:"expected_answer"`
	AnswerFormat    string     `json:"answer_format"` // number | text | choice
	SolutionSteps   []string   `json:"solution_steps,omitempty"`
	CommonMistakes  []string   `json:"common_mistakes,omitempty"`
}

// Evaluation error types. Empty means correct or not applicable.
const (
	ErrNoAnswer          = "no-answer"
	ErrOperatorConfusion = "operator-confusion"
	ErrNearMiss          = "near-miss"
	ErrLargeDeviation    = "large-deviation"
	ErrInvalidFormat     = "invalid-format"
	ErrWrongChoice       = "wrong-choice"
	ErrPartialMatch      = "partial-match"
	ErrUnscorable        = "unscorable"
)

// AnswerEvaluation compares the student's extracted answer to the expected
// one. Invariant: empty StudentAnswer forces ErrorType no-answer and Score 0.
type AnswerEvaluation struct {
	StudentAnswer    string   `json:"student_answer"`
	IsCorrect        bool     `json:"is_correct"`
	Score            float64  `json:"score"` // 0..1, partial credit allowed
	ErrorType        string   `json:"error_type,omitempty"`
	ErrorDescription string   `json:"error_description,omitempty"`
	Suggestions      []string `json:"suggestions,omitempty"`
}

// Analyzer is the per-subject capability set.
type Analyzer interface {
	Subject() string
	AnalyzeQuestion(block layout.QuestionBlock, grade int) (QuestionAnalysis, error)
	EvaluateAnswer(a QuestionAnalysis, studentAnswer string) AnswerEvaluation
}

// UnsupportedSubjectError fails the pipeline before any recognition work.
type UnsupportedSubjectError struct {
	Subject string
}

func (e *UnsupportedSubjectError) Error() string {
	return fmt.Sprintf("unsupported subject %q", e.Subject)
}

// DivisionByZeroError marks a single question whose expected answer cannot be
// computed. It is a per-question outcome, not a pipeline failure.
type DivisionByZeroError struct {
	Expr string
}

func (e *DivisionByZeroError) Error() string {
	return fmt.Sprintf("division by zero in expected answer: %s", e.Expr)
}

// ForSubject resolves the analyzer for a subject string. Chinese subject
// names from the app front-end are accepted alongside the english ones.
func ForSubject(subject string) (Analyzer, error) {
	switch strings.ToLower(strings.TrimSpace(subject)) {
	case "math", "mathematics", "数学":
		return &MathAnalyzer{}, nil
	case "chinese", "语文":
		return &ChineseAnalyzer{}, nil
	case "english", "英语":
		return &EnglishAnalyzer{}, nil
	case "physics", "物理":
		return &PhysicsAnalyzer{}, nil
	case "chemistry", "化学":
		return &ChemistryAnalyzer{}, nil
	default:
		return nil, &UnsupportedSubjectError{Subject: subject}
	}
}

// Subjects lists the canonical subject keys ForSubject accepts.
func Subjects() []string {
	return []string{"math", "chinese", "english", "physics", "chemistry"}
}

// emptyAnswerEval is shared by all analyzers to keep the no-answer invariant
// in one place.
func emptyAnswerEval(suggestion string) AnswerEvaluation {
	return AnswerEvaluation{
		IsCorrect:        false,
		Score:            0,
		ErrorType:        ErrNoAnswer,
		ErrorDescription: "未检测到作答",
		Suggestions:      []string{suggestion},
	}
}
