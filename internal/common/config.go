package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string            `toml:"environment"` // "development" or "production"
	Server      ServerConfig      `toml:"server"`
	Storage     StorageConfig     `toml:"storage"`
	Logging     LoggingConfig     `toml:"logging"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	Gemini      GeminiConfig      `toml:"gemini"`
	Claude      ClaudeConfig      `toml:"claude"`
	LLM         LLMConfig         `toml:"llm"`
	Retrieval   RetrievalConfig   `toml:"retrieval"`
	Ingest      IngestConfig      `toml:"ingest"`
	Maintenance MaintenanceConfig `toml:"maintenance"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// EmbeddingConfig pins the embedding model and its output dimension.
// The dimension is shared by ingestion and query time; a vector of any other
// length is rejected with ErrDimensionMismatch rather than padded or truncated.
type EmbeddingConfig struct {
	Model     string `toml:"model"`      // Embedding model name (default: "gemini-embedding-001")
	Dimension int    `toml:"dimension"`  // Pinned output dimensionality (default: 768)
	Timeout   string `toml:"timeout"`    // Per-call timeout as duration string (default: "30s")
	RateLimit string `toml:"rate_limit"` // Minimum interval between embed calls (default: "100ms")
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Chat model (default: "gemini-2.0-flash")
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	RateLimit   string  `toml:"rate_limit"`  // Minimum interval between requests (default: "4s")
	Temperature float32 `toml:"temperature"` // Chat completion temperature (default: 0.7)
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key
	Model       string  `toml:"model"`       // Chat model (default: "claude-haiku-3-5-20241022")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 1024)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	RateLimit   string  `toml:"rate_limit"`  // Minimum interval between requests (default: "1s")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.6)
}

// LLMProvider represents the generation provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig selects the generation provider and bounds pipeline retries
type LLMConfig struct {
	Provider       LLMProvider `toml:"provider"`        // "gemini" or "claude" (default: "gemini")
	MaxRetries     int         `toml:"max_retries"`     // Retry attempts for retryable upstream failures (default: 2)
	InitialBackoff string      `toml:"initial_backoff"` // First backoff interval (default: "2s")
	MaxBackoff     string      `toml:"max_backoff"`     // Backoff cap (default: "30s")
}

// RetrievalConfig tunes the two-tier retrieval and context composition
type RetrievalConfig struct {
	TopK         int `toml:"top_k"`          // Default retrieval budget per question (default: 6)
	MaxUnitChars int `toml:"max_unit_chars"` // Per-unit render cap in the context block (default: 800)
	SnippetChars int `toml:"snippet_chars"`  // Source snippet length returned to clients (default: 200)
}

// IngestConfig controls offline batch ingestion
type IngestConfig struct {
	ChunkSize    int    `toml:"chunk_size"`    // Target chunk size in characters (default: 1800)
	ChunkOverlap int    `toml:"chunk_overlap"` // Overlap between consecutive chunks (default: 240)
	StyleDir     string `toml:"style_dir"`     // Directory of persona style seed YAML files (default: "./personas")
}

// MaintenanceConfig schedules background storage maintenance
type MaintenanceConfig struct {
	Enabled  bool   `toml:"enabled"`  // Run scheduled Badger GC and index refresh (default: true)
	Schedule string `toml:"schedule"` // Cron schedule with seconds field (default: "0 */30 * * * *")
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Embedding: EmbeddingConfig{
			Model:     "gemini-embedding-001",
			Dimension: 768,
			Timeout:   "30s",
			RateLimit: "100ms",
		},
		Gemini: GeminiConfig{
			APIKey:      "", // User must provide API key
			Model:       "gemini-2.0-flash",
			Timeout:     "2m",
			RateLimit:   "4s", // 15 RPM free tier
			Temperature: 0.7,
		},
		Claude: ClaudeConfig{
			APIKey:      "", // User must provide API key (ANTHROPIC_API_KEY or config)
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   1024,
			Timeout:     "2m",
			RateLimit:   "1s",
			Temperature: 0.6,
		},
		LLM: LLMConfig{
			Provider:       LLMProviderGemini,
			MaxRetries:     2,
			InitialBackoff: "2s",
			MaxBackoff:     "30s",
		},
		Retrieval: RetrievalConfig{
			TopK:         6,
			MaxUnitChars: 800,
			SnippetChars: 200,
		},
		Ingest: IngestConfig{
			ChunkSize:    1800,
			ChunkOverlap: 240,
			StyleDir:     "./personas",
		},
		Maintenance: MaintenanceConfig{
			Enabled:  true,
			Schedule: "0 */30 * * * *",
		},
	}
}

// LoadFromFile loads configuration with priority: defaults -> file -> env
func LoadFromFile(path string) (*Config, error) {
	config := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks cross-field constraints that TOML parsing cannot express
func (c *Config) Validate() error {
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding.dimension must be positive, got %d: %w", c.Embedding.Dimension, ErrDimensionMismatch)
	}
	if c.LLM.Provider != LLMProviderGemini && c.LLM.Provider != LLMProviderClaude {
		return fmt.Errorf("invalid llm.provider '%s': must be 'gemini' or 'claude'", c.LLM.Provider)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval.top_k must be positive, got %d", c.Retrieval.TopK)
	}
	for _, d := range []struct{ name, val string }{
		{"embedding.timeout", c.Embedding.Timeout},
		{"gemini.timeout", c.Gemini.Timeout},
		{"claude.timeout", c.Claude.Timeout},
		{"llm.initial_backoff", c.LLM.InitialBackoff},
		{"llm.max_backoff", c.LLM.MaxBackoff},
	} {
		if _, err := time.ParseDuration(d.val); err != nil {
			return fmt.Errorf("invalid duration for %s ('%s'): %w", d.name, d.val, err)
		}
	}
	if c.Maintenance.Enabled {
		if err := ValidateMaintenanceSchedule(c.Maintenance.Schedule); err != nil {
			return fmt.Errorf("invalid maintenance.schedule: %w", err)
		}
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("EIDOLON_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("EIDOLON_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("EIDOLON_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if badgerPath := os.Getenv("EIDOLON_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("EIDOLON_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	// Embedding configuration
	if model := os.Getenv("EIDOLON_EMBEDDING_MODEL"); model != "" {
		config.Embedding.Model = model
	}
	if dim := os.Getenv("EIDOLON_EMBEDDING_DIMENSION"); dim != "" {
		if d, err := strconv.Atoi(dim); err == nil {
			config.Embedding.Dimension = d
		}
	}

	// Gemini configuration
	if apiKey := os.Getenv("EIDOLON_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	} else if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("EIDOLON_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if temperature := os.Getenv("EIDOLON_GEMINI_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.Gemini.Temperature = float32(t)
		}
	}

	// Claude configuration
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("EIDOLON_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey // EIDOLON_ prefix takes priority
	}
	if model := os.Getenv("EIDOLON_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if maxTokens := os.Getenv("EIDOLON_CLAUDE_MAX_TOKENS"); maxTokens != "" {
		if mt, err := strconv.Atoi(maxTokens); err == nil {
			config.Claude.MaxTokens = mt
		}
	}

	// LLM provider configuration
	if provider := os.Getenv("EIDOLON_LLM_PROVIDER"); provider != "" {
		config.LLM.Provider = LLMProvider(provider)
	}

	// Retrieval configuration
	if topK := os.Getenv("EIDOLON_RETRIEVAL_TOP_K"); topK != "" {
		if k, err := strconv.Atoi(topK); err == nil {
			config.Retrieval.TopK = k
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	// Command-line flags have highest priority
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// ValidateMaintenanceSchedule validates a cron schedule expression and
// enforces a minimum 5-minute interval between firings
func ValidateMaintenanceSchedule(schedule string) error {
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	// Probe two consecutive firings to estimate the interval
	now := time.Now()
	first := sched.Next(now)
	second := sched.Next(first)
	if second.Sub(first) < 5*time.Minute {
		return fmt.Errorf("schedule must have minimum 5-minute interval, got %s", second.Sub(first))
	}

	return nil
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}
