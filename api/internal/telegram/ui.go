package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"homework-check/api/internal/correct"
)

var subjectButtons = []struct {
	Label string
	Key   string
}{
	{"数学", "math"},
	{"语文", "chinese"},
	{"英语", "english"},
	{"物理", "physics"},
	{"化学", "chemistry"},
}

func makeSubjectKeyboard() tgbotapi.InlineKeyboardMarkup {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(subjectButtons))
	for _, s := range subjectButtons {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(s.Label, "subj:"+s.Key))
	}
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(row...))
}

// renderResult turns a correction result into one chat message. Telegram
// caps messages at 4096 chars so the per-question section is clipped before
// the summary.
func renderResult(res *correct.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📝 批改完成（%s）\n", res.Subject)
	fmt.Fprintf(&b, "共 %d 题，对 %d 题，错 %d 题，正确率 %.1f%%\n\n",
		res.TotalQuestions, res.CorrectCount, res.WrongCount, res.AccuracyRate)

	var q strings.Builder
	for _, d := range res.Questions {
		mark := "✅"
		if !d.Evaluation.IsCorrect {
			mark = "❌"
		}
		fmt.Fprintf(&q, "%s 第%d题", mark, d.Number)
		if !d.Evaluation.IsCorrect && d.Explanation != "" {
			q.WriteString("：")
			q.WriteString(d.Explanation)
		}
		q.WriteString("\n")
	}
	b.WriteString(clip(q.String(), 2800))

	if len(res.Performance.WeakKnowledgePoints) > 0 {
		b.WriteString("\n薄弱知识点：" + strings.Join(res.Performance.WeakKnowledgePoints, "、") + "\n")
	}
	fmt.Fprintf(&b, "难度匹配：%s，预计用时约 %d 分钟\n", res.Performance.DifficultyMatch, res.TimeSpentEstimateMin)

	if len(res.Suggestions) > 0 {
		b.WriteString("\n建议：\n")
		for i, s := range res.Suggestions {
			fmt.Fprintf(&b, "%d. %s\n", i+1, s)
		}
	}
	return clip(b.String(), 3900)
}
