package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath     string
	OutputDir  string
	OutputFile string
	SheetName  string

	PageBudget      int
	MinTextChars    int
	FontTolerance   float64
	GapFactor       float64
	MetaTitleMinLen int
	MetaTitleMaxLen int

	EarlyExit       bool
	EarlyExitEmails int
	ExcludeNoEmail  bool

	Workers       int
	QueueSize     int
	ProgressEvery int

	WatchDir         string
	WatchIntervalSec int
	WatchAutoExport  bool
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:     getEnv("DB_PATH", filepath.Join(cwd, "data", "app.db")),
		OutputDir:  getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),
		OutputFile: getEnv("OUTPUT_FILE", "extracted_emails_titles.xlsx"),
		SheetName:  getEnv("SHEET_NAME", "Extracted Data"),

		PageBudget:      getEnvInt("PAGE_BUDGET", 6),
		MinTextChars:    getEnvInt("MIN_TEXT_CHARS", 50),
		FontTolerance:   getEnvFloat("FONT_TOLERANCE", 0.99),
		GapFactor:       getEnvFloat("GAP_FACTOR", 1.3),
		MetaTitleMinLen: getEnvInt("META_TITLE_MIN", 5),
		MetaTitleMaxLen: getEnvInt("META_TITLE_MAX", 200),

		EarlyExit:       getEnvBool("EARLY_EXIT", false),
		EarlyExitEmails: getEnvInt("EARLY_EXIT_EMAILS", 2),
		ExcludeNoEmail:  getEnvBool("EXCLUDE_NO_EMAIL", false),

		Workers:       getEnvInt("WORKERS", 64),
		QueueSize:     getEnvInt("QUEUE_SIZE", 256),
		ProgressEvery: getEnvInt("PROGRESS_EVERY", 5),

		WatchDir:         getEnv("WATCH_DIR", filepath.Join(cwd, "inbox")),
		WatchIntervalSec: getEnvInt("WATCH_INTERVAL_SEC", 30),
		WatchAutoExport:  getEnvBool("WATCH_AUTO_EXPORT", true),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
