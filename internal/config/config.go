package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	DBDriver string
	DBDSN    string

	// Import pipeline
	ImportWorkers int
	TempDir       string
	ArchiveDir    string // raw upload archive; empty disables

	// LibreOffice conversion fallback
	SofficePath    string // empty: probe well-known locations
	ConvertTimeout time.Duration

	// AI assistance (score inference, filename identity)
	AIBaseURL string
	AIAPIKey  string
	AIModel   string
	AITimeout time.Duration

	// Question resolution thresholds
	MatchThreshold  float64 // accept reuse/clone at or above
	DirectThreshold float64 // reuse without ordinal agreement
	KeywordWeight   float64
	EditWeight      float64
}

func FromEnv() Config {
	return Config{
		DBDriver:        envOr("DB_DRIVER", "sqlite"),
		DBDSN:           envOr("DB_DSN", ""),
		ImportWorkers:   envInt("IMPORT_WORKERS", 5),
		TempDir:         envOr("IMPORT_TEMP_DIR", os.TempDir()),
		ArchiveDir:      envOr("ARCHIVE_DIR", ""),
		SofficePath:     os.Getenv("SOFFICE_PATH"),
		ConvertTimeout:  envDur("CONVERT_TIMEOUT", 30*time.Second),
		AIBaseURL:       envOr("AI_BASE_URL", "https://api.openai.com/v1"),
		AIAPIKey:        os.Getenv("AI_API_KEY"),
		AIModel:         envOr("AI_MODEL", "gpt-4o-mini"),
		AITimeout:       envDur("AI_TIMEOUT", 5*time.Second),
		MatchThreshold:  envFloat("MATCH_THRESHOLD", 0.7),
		DirectThreshold: envFloat("MATCH_DIRECT_THRESHOLD", 0.9),
		KeywordWeight:   envFloat("MATCH_KEYWORD_WEIGHT", 0.4),
		EditWeight:      envFloat("MATCH_EDIT_WEIGHT", 0.6),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envDur(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
