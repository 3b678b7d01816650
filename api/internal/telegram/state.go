package telegram

import (
	"sync"
	"time"
)

const (
	// Album photos arrive as separate updates; debounce collects them into
	// one batch before correction runs.
	debounce  = 1200 * time.Millisecond
	maxPixels = 18_000_000
)

type photoBatch struct {
	ChatID       int64
	Key          string // "grp:<mediaGroupID>" | "chat:<chatID>"
	MediaGroupID string

	mu     sync.Mutex
	images [][]byte
	timer  *time.Timer
}

// chatPref holds the per-chat subject and grade chosen via /subject and
// /grade. Zero value means "use the configured defaults".
type chatPref struct {
	Subject string
	Grade   string
}

var (
	batches sync.Map // key -> *photoBatch
	prefs   sync.Map // chatID -> chatPref (stored by value)
)

func prefOf(chatID int64) chatPref {
	if v, ok := prefs.Load(chatID); ok {
		return v.(chatPref)
	}
	return chatPref{}
}

func setSubject(chatID int64, subject string) {
	p := prefOf(chatID)
	p.Subject = subject
	prefs.Store(chatID, p)
}

func setGrade(chatID int64, grade string) {
	p := prefOf(chatID)
	p.Grade = grade
	prefs.Store(chatID, p)
}
