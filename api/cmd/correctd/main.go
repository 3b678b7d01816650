package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"homework-check/api/internal/config"
	"homework-check/api/internal/correct"
	"homework-check/api/internal/handle"
	"homework-check/api/internal/recognize"
	"homework-check/api/internal/recognize/gemini"
	"homework-check/api/internal/recognize/tesseract"
	"homework-check/api/internal/store"
)

func main() {
	cfg := config.Load()

	adapters := []recognize.Adapter{tesseract.New(cfg.TesseractLangs...)}
	if cfg.GeminiAPIKey != "" {
		adapters = append(adapters, gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel))
	} else {
		log.Printf("GEMINI_API_KEY not set, running with tesseract only")
	}
	pipe := correct.New(adapters...)

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

	repo := store.NewResultRepo(db)
	go purgeLoop(repo)

	h := handle.New(pipe, repo)
	h.DefaultSubject = cfg.DefaultSubject
	h.DefaultGrade = cfg.DefaultGrade
	h.Preprocess = cfg.Preprocess

	addr := ":" + cfg.Port
	log.Printf("correctd listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, h.Router()))
}

// purgeLoop drops cached results older than a week, once a day.
func purgeLoop(repo *store.ResultRepo) {
	for {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		n, err := repo.PurgeOlderThan(ctx, 7*24*time.Hour)
		cancel()
		if err != nil {
			log.Printf("result cache purge: %v", err)
		} else if n > 0 {
			log.Printf("result cache purge: removed %d rows", n)
		}
		time.Sleep(24 * time.Hour)
	}
}
