// Package telegram is the chat front-end: photos in, correction reports out.
package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"homework-check/api/internal/analyze"
	"homework-check/api/internal/correct"
	"homework-check/api/internal/store"
)

type Router struct {
	Bot  *tgbotapi.BotAPI
	Pipe *correct.Pipeline
	Repo *store.ResultRepo

	DefaultSubject string
	DefaultGrade   string
	Preprocess     bool
}

func (r *Router) HandleUpdate(upd tgbotapi.Update) {
	if upd.CallbackQuery != nil {
		r.handleCallback(*upd.CallbackQuery)
		return
	}
	if upd.Message == nil {
		return
	}
	if upd.Message.IsCommand() {
		r.HandleCommand(upd)
		return
	}
	if len(upd.Message.Photo) > 0 {
		r.acceptPhoto(*upd.Message)
		return
	}
	if upd.Message.Text != "" {
		r.send(upd.Message.Chat.ID, "请发送作业照片，我来批改。设置科目用 /subject，设置年级用 /grade。")
	}
}

func (r *Router) HandleCommand(upd tgbotapi.Update) {
	cid := upd.Message.Chat.ID
	switch upd.Message.Command() {
	case "start":
		r.send(cid, "发一张作业照片，我会识别题目并逐题批改。\n命令：/subject 选择科目，/grade 设置年级，/health 检查状态。")
	case "health":
		r.send(cid, "✅ OK")
	case "subject":
		arg := strings.TrimSpace(upd.Message.CommandArguments())
		if arg == "" {
			msg := tgbotapi.NewMessage(cid, "请选择科目：")
			msg.ReplyMarkup = makeSubjectKeyboard()
			_, _ = r.Bot.Send(msg)
			return
		}
		r.applySubject(cid, arg)
	case "grade":
		arg := strings.TrimSpace(upd.Message.CommandArguments())
		if arg == "" {
			r.send(cid, "用法：/grade 3 或 /grade 三年级")
			return
		}
		setGrade(cid, arg)
		r.send(cid, "✅ 年级已设置为 "+arg)
	default:
		r.send(cid, "未知命令。可用：/start /subject /grade /health")
	}
}

// handleCallback processes the subject keyboard. Callback data is
// "subj:<key>".
func (r *Router) handleCallback(cb tgbotapi.CallbackQuery) {
	_, _ = r.Bot.Request(tgbotapi.NewCallback(cb.ID, ""))
	if cb.Message == nil {
		return
	}
	cid := cb.Message.Chat.ID
	if key, ok := strings.CutPrefix(cb.Data, "subj:"); ok {
		r.applySubject(cid, key)
	}
}

func (r *Router) applySubject(chatID int64, subject string) {
	if _, err := analyze.ForSubject(subject); err != nil {
		r.send(chatID, "不支持的科目。可用："+strings.Join(analyze.Subjects(), " | "))
		return
	}
	setSubject(chatID, subject)
	r.send(chatID, "✅ 科目已设置为 "+subject)
}

func (r *Router) subjectFor(chatID int64) string {
	if p := prefOf(chatID); p.Subject != "" {
		return p.Subject
	}
	return r.DefaultSubject
}

func (r *Router) gradeFor(chatID int64) string {
	if p := prefOf(chatID); p.Grade != "" {
		return p.Grade
	}
	return r.DefaultGrade
}

func (r *Router) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	_, _ = r.Bot.Send(msg)
}

func (r *Router) SendError(chatID int64, err error) {
	r.send(chatID, fmt.Sprintf("批改失败：%v", err))
}

// PhotoAcceptedText is the first reply after a photo or the first page of an
// album arrives.
func (r *Router) PhotoAcceptedText() string {
	return "照片已收到。如果作业有多张照片，请连续发送，我会先拼接页面再批改。"
}
