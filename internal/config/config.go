package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"flowlens/internal/flow"
	"flowlens/internal/tracker"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	HTTPAddr     string
	SnapshotPath string
	DataPath     string
	LogDir       string
	RefreshCron  string
	Timezone     string
	Fields       tracker.FieldConfig
	Analysis     flow.Config
}

// Load reads configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// Binary-relative .env takes priority, then the working directory.
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	logDir := filepath.Join(dataPath, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", logDir).Msg("Failed to create log directory")
	}

	trailingWeeks, _ := strconv.Atoi(getEnv("TRAILING_WEEKS", "4"))
	workers, _ := strconv.Atoi(getEnv("ANALYSIS_WORKERS", "0"))

	cfg := &AppConfig{
		HTTPAddr:     getEnv("HTTP_ADDR", ":8080"),
		SnapshotPath: getEnv("SNAPSHOT_PATH", filepath.Join(dataPath, "snapshot.json")),
		DataPath:     dataPath,
		LogDir:       logDir,
		RefreshCron:  getEnv("REFRESH_CRON", "0 0 * * *"),
		Timezone:     getEnv("TIMEZONE", "Local"),
		Fields: tracker.FieldConfig{
			CompletionField:  getEnv("COMPLETION_FIELD_ID", ""),
			EstimationField:  getEnv("ESTIMATION_FIELD_ID", ""),
			EstimationSource: getEnv("ESTIMATION_SOURCE", "custom_field"),
			DueDateField:     getEnv("DUE_DATE_FIELD_ID", ""),
		},
		Analysis: flow.Config{
			Taxonomy: flow.Taxonomy{
				Initial:    getEnvList("STATUS_INITIAL", "Open,Backlog,To Do"),
				InProgress: getEnvList("STATUS_IN_PROGRESS", "In Progress,In Review"),
				Done:       getEnvList("STATUS_DONE", "Done,Closed,Resolved"),
				Ignored:    getEnvList("STATUS_IGNORED", ""),
			},
			CompletionField: getEnv("COMPLETION_FIELD_ID", ""),
			UseEstimates:    getEnvBool("USE_ESTIMATES", false),
			Unit:            getEnv("SCOPE_UNIT", ""),
			TrailingWeeks:   trailingWeeks,
			Workers:         workers,
		},
	}

	if path := getEnv("TAXONOMY_OVERRIDES_FILE", ""); path != "" {
		overrides, err := loadTaxonomyOverrides(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Failed to load taxonomy overrides")
		} else {
			cfg.Analysis.ProjectTaxonomies = overrides
		}
	}

	return cfg, nil
}

// loadTaxonomyOverrides reads a JSON map of project key to taxonomy.
func loadTaxonomyOverrides(path string) (map[string]flow.Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var overrides map[string]flow.Taxonomy
	if err := json.Unmarshal(data, &overrides); err != nil {
		return nil, err
	}
	return overrides, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

func getEnvList(key, fallback string) []string {
	raw := getEnv(key, fallback)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
