package config

import (
	"log"
	"net"
	"net/url"
	"os"
	"strings"
)

type Config struct {
	Port string

	// Recognition engines. Tesseract needs no credentials; Gemini is skipped
	// when the key is absent so a single-engine deploy still works.
	GeminiAPIKey   string
	GeminiModel    string
	TesseractLangs []string

	TelegramBotToken string

	// Postgres DSN or a sqlite file path for local runs.
	DatabaseDSN string

	DefaultSubject string
	DefaultGrade   string
	Preprocess     bool
}

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("missing required env %s", k)
	}
	return v
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8000"),

		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		TesseractLangs: strings.Split(getEnv("TESSERACT_LANGS", "chi_sim+eng"), "+"),

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),

		DatabaseDSN: resolveDSN(),

		DefaultSubject: getEnv("DEFAULT_SUBJECT", "math"),
		DefaultGrade:   getEnv("DEFAULT_GRADE", "3"),
		Preprocess:     getEnv("PREPROCESS", "1") != "0",
	}
}

// resolveDSN prefers DATABASE_URL, then builds a postgres URL from
// POSTGRES_*/PG* vars when a host is configured, then falls back to a local
// sqlite file.
func resolveDSN() string {
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		return v
	}
	host := strings.TrimSpace(os.Getenv("PGHOST"))
	if host == "" {
		return "homework.db"
	}
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(getEnv("POSTGRES_USER", "homework"), os.Getenv("POSTGRES_PASSWORD")),
		Host:     net.JoinHostPort(host, getEnv("PGPORT", "5432")),
		Path:     "/" + getEnv("POSTGRES_DB", "homework"),
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// MustBotToken is used by the bot binary, which cannot run without it.
func (c *Config) MustBotToken() string {
	if strings.TrimSpace(c.TelegramBotToken) == "" {
		return mustEnv("TELEGRAM_BOT_TOKEN")
	}
	return c.TelegramBotToken
}
