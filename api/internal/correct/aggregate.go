package correct

import (
	"fmt"
	"sort"

	"homework-check/api/internal/analyze"
)

// weakPointThreshold flags a knowledge point whose local accuracy on this
// sheet falls below it.
const weakPointThreshold = 0.7

func aggregate(details []QuestionDetail) *Result {
	res := &Result{
		TotalQuestions: len(details),
		Questions:      details,
	}

	var scoreSum float64
	kpTotal := map[string]int{}
	kpCorrect := map[string]int{}
	errCount := map[string]int{}
	var hard, easy int

	for _, d := range details {
		ev := d.Evaluation
		if ev.IsCorrect {
			res.CorrectCount++
		} else {
			res.WrongCount++
			if ev.ErrorType != "" {
				errCount[ev.ErrorType]++
			}
		}
		scoreSum += ev.Score
		for _, kp := range d.Analysis.KnowledgePoints {
			kpTotal[kp]++
			if ev.IsCorrect {
				kpCorrect[kp]++
			}
		}
		switch d.Analysis.Difficulty {
		case analyze.DifficultyHard:
			hard++
		case analyze.DifficultyEasy:
			easy++
		}
		res.TimeSpentEstimateMin += estimateMinutes(d.Analysis.Difficulty)
	}

	if res.TotalQuestions > 0 {
		res.AccuracyRate = round1(float64(res.CorrectCount) / float64(res.TotalQuestions) * 100)
		res.OverallScore = round1(scoreSum / float64(res.TotalQuestions) * 100)
	}

	res.Performance = Performance{
		WeakKnowledgePoints: weakPoints(kpTotal, kpCorrect),
		DominantErrorType:   dominantError(errCount),
		DifficultyMatch:     difficultyVerdict(hard, easy, res.TotalQuestions),
	}
	res.Suggestions = buildSuggestions(res.Performance, res.AccuracyRate)
	return res
}

func weakPoints(total, correct map[string]int) []string {
	var out []string
	for kp, n := range total {
		if n == 0 {
			continue
		}
		if float64(correct[kp])/float64(n) < weakPointThreshold {
			out = append(out, kp)
		}
	}
	sort.Strings(out)
	return out
}

func dominantError(errCount map[string]int) string {
	best, bestN := "", 0
	for et, n := range errCount {
		if n > bestN || (n == bestN && et < best) {
			best, bestN = et, n
		}
	}
	return best
}

func difficultyVerdict(hard, easy, total int) string {
	if total == 0 {
		return "适中"
	}
	switch {
	case float64(hard)/float64(total) > 0.5:
		return "偏难"
	case float64(easy)/float64(total) > 0.7:
		return "偏易"
	default:
		return "适中"
	}
}

func estimateMinutes(d analyze.Difficulty) int {
	switch d {
	case analyze.DifficultyHard:
		return 6
	case analyze.DifficultyMedium:
		return 4
	default:
		return 2
	}
}

var errorTypeAdvice = map[string]string{
	analyze.ErrOperatorConfusion: "多道题看错了运算符号，做题前先圈出加减乘除再动笔。",
	analyze.ErrNearMiss:          "错误多为计算失误，养成用逆运算验算的习惯。",
	analyze.ErrLargeDeviation:    "错误集中在解题方法上，先弄清数量关系再列式。",
	analyze.ErrNoAnswer:          "有题目没有作答，先把会做的全部完成。",
	analyze.ErrWrongChoice:       "选择题失分较多，用排除法缩小范围再作选择。",
	analyze.ErrInvalidFormat:     "注意答案的书写格式，只写最终结果。",
}

// buildSuggestions fills at most five slots in priority order: dominant
// error type first, then weak knowledge points, then the accuracy band.
func buildSuggestions(perf Performance, accuracy float64) []string {
	out := make([]string, 0, 5)

	if advice, ok := errorTypeAdvice[perf.DominantErrorType]; ok {
		out = append(out, advice)
	}
	for _, kp := range perf.WeakKnowledgePoints {
		if len(out) >= 4 {
			break
		}
		out = append(out, fmt.Sprintf("「%s」掌握薄弱，建议针对性练习。", kp))
	}

	switch {
	case accuracy >= 90:
		out = append(out, "正确率很高，可以尝试更有挑战性的题目。")
	case accuracy >= 70:
		out = append(out, "整体掌握不错，把错题整理到错题本再巩固一遍。")
	case accuracy >= 50:
		out = append(out, "基础还不扎实，建议回到课本重新梳理本节知识点。")
	default:
		out = append(out, "错误较多，建议在家长或老师陪同下逐题重做。")
	}

	if len(out) > 5 {
		out = out[:5]
	}
	return out
}
