package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"homework-check/api/internal/config"
	"homework-check/api/internal/correct"
	"homework-check/api/internal/recognize"
	"homework-check/api/internal/recognize/gemini"
	"homework-check/api/internal/recognize/tesseract"
	"homework-check/api/internal/store"
	"homework-check/api/internal/telegram"
)

func main() {
	cfg := config.Load()

	db, driver, err := store.Open(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("store open: %v", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(1 * time.Hour)
	{
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			log.Fatalf("db ping: %v", err)
		}
	}
	if err := store.EnsureSchema(db); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}
	log.Printf("db connected (%s)", driver)

	bot, err := tgbotapi.NewBotAPI(cfg.MustBotToken())
	if err != nil {
		log.Fatal(err)
	}
	bot.Debug = false

	adapters := []recognize.Adapter{tesseract.New(cfg.TesseractLangs...)}
	if cfg.GeminiAPIKey != "" {
		adapters = append(adapters, gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel))
	}

	r := &telegram.Router{
		Bot:            bot,
		Pipe:           correct.New(adapters...),
		Repo:           store.NewResultRepo(db),
		DefaultSubject: cfg.DefaultSubject,
		DefaultGrade:   cfg.DefaultGrade,
		Preprocess:     cfg.Preprocess,
	}

	// healthz on DefaultServeMux so the platform probe stays green in both
	// modes.
	http.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db: not ok\n" + err.Error()))
			return
		}
		_, _ = w.Write([]byte("ok"))
	})

	addr := "0.0.0.0:" + cfg.Port
	go func() {
		log.Printf("health server listening on %s/healthz", addr)
		if err := http.ListenAndServe(addr, nil); err != nil {
			log.Fatal(err)
		}
	}()

	runPolling(context.Background(), bot, r.HandleUpdate)
}

var reRetryAfter = regexp.MustCompile(`(?i)retry after\s+(\d+)`)

func retryDelayFromError(err error) time.Duration {
	if err == nil {
		return 0
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "too many requests") {
		if m := reRetryAfter.FindStringSubmatch(s); len(m) == 2 {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				return time.Duration(n) * time.Second
			}
		}
		return 3 * time.Second
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return 2 * time.Second
	}
	return 1 * time.Second
}

// runPolling long-polls Telegram with backoff; it never exits on transient
// errors.
func runPolling(ctx context.Context, bot *tgbotapi.BotAPI, handle func(tgbotapi.Update)) {
	offset := 0
	baseDelay := 1 * time.Second
	maxDelay := 15 * time.Second

	for {
		select {
		case <-ctx.Done():
			log.Printf("polling: context cancelled")
			return
		default:
		}

		u := tgbotapi.NewUpdate(offset)
		u.Timeout = 30

		updates, err := bot.GetUpdates(u)
		if err != nil {
			d := retryDelayFromError(err)
			if d < baseDelay {
				d = baseDelay
			}
			if d > maxDelay {
				d = maxDelay
			}
			log.Printf("polling error: %v; retry in %v", err, d)
			time.Sleep(d)
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			handle(upd)
		}

		if len(updates) == 0 {
			time.Sleep(200 * time.Millisecond)
		}
	}
}
