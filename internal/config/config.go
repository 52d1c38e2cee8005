package config

import (
	"os"
	"strconv"
)

// Config holds all configuration for the CircleGod analytics plane.
type Config struct {
	Port      int
	Version   string
	DataDir   string
	Assistant AssistantConfig
	Sources   SourcesConfig
	Telemetry TelemetryConfig
}

// AssistantConfig selects and configures the answer-generation provider.
type AssistantConfig struct {
	// Provider is "rule" (built-in stand-in) or "openai".
	Provider string
	APIKey   string
	Model    string
	Endpoint string
}

// SourcesConfig wires optional dataset backends. When a URL/path is empty
// the corresponding source is not registered and the built-in fixture
// datasets are all that is available.
type SourcesConfig struct {
	// SQLitePath points at a SQLite database file holding dataset tables.
	SQLitePath string
	// PostgresURL points at a PostgreSQL database holding dataset tables.
	PostgresURL string
	// FileDir is a directory of CSV/JSON files served as file datasets.
	FileDir string
}

type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
	ServiceName  string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port:    envInt("CIRCLEGOD_PORT", 8080),
		Version: envStr("CIRCLEGOD_VERSION", "0.2.0"),
		DataDir: envStr("CIRCLEGOD_DATA_DIR", ""),
		Assistant: AssistantConfig{
			Provider: envStr("ASSISTANT_PROVIDER", "rule"),
			APIKey:   envStr("OPENAI_API_KEY", ""),
			Model:    envStr("OPENAI_MODEL", "gpt-4o-mini"),
			Endpoint: envStr("OPENAI_ENDPOINT", "https://api.openai.com/v1"),
		},
		Sources: SourcesConfig{
			SQLitePath:  envStr("DATASET_SQLITE_PATH", ""),
			PostgresURL: envStr("DATASET_POSTGRES_URL", ""),
			FileDir:     envStr("DATASET_FILE_DIR", ""),
		},
		Telemetry: TelemetryConfig{
			Enabled:      envBool("OTEL_ENABLED", false),
			OTLPEndpoint: envStr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			ServiceName:  envStr("OTEL_SERVICE_NAME", "circlegod-analytics"),
		},
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
