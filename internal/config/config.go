package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the converse API configuration.
type Config struct {
	HTTP          HTTPConfig          `yaml:"http"`
	Database      DatabaseConfig      `yaml:"database"`
	KnowledgeBase KnowledgeBaseConfig `yaml:"knowledge_base"`
	Recognizer    RecognizerConfig    `yaml:"recognizer"`
	Dialog        DialogConfig        `yaml:"dialog"`
	Auth          AuthConfig          `yaml:"auth"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds dialog state store connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	StateTTLHours    int      `yaml:"state_ttl_hours"`
}

// KnowledgeBaseConfig identifies the answering service endpoint. ID, Host and
// EndpointKey are all required.
type KnowledgeBaseConfig struct {
	ID          string `yaml:"id"`
	Host        string `yaml:"host"`
	EndpointKey string `yaml:"endpoint_key"`
	TimeoutSec  int    `yaml:"timeout_sec"`
}

// RecognizerConfig holds intent recognizer settings. An empty APIKey disables
// intent routing entirely.
type RecognizerConfig struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	IntentFloor float64 `yaml:"intent_floor"`
}

// MetadataFilter is one strict metadata constraint for knowledge-base queries.
type MetadataFilter struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// DialogConfig holds knowledge-base dialog tuning and response texts.
type DialogConfig struct {
	ScoreThreshold      float64          `yaml:"score_threshold"` // 0 = default 0.3
	Top                 int              `yaml:"top"`             // 0 = default 3
	RankerMode          string           `yaml:"ranker_mode"`     // default, questionOnly
	Filters             []MetadataFilter `yaml:"filters"`
	FiltersJoinOperator string           `yaml:"filters_join_operator"` // AND, OR
	IsTest              bool             `yaml:"is_test"`
	CardTitle           string           `yaml:"card_title"`
	CardNoMatchText     string           `yaml:"card_no_match_text"`
	CardNoMatchResponse string           `yaml:"card_no_match_response"`
	NoAnswerMessage     string           `yaml:"no_answer_message"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.StateTTLHours <= 0 {
		c.Database.StateTTLHours = 24
	}
	if c.KnowledgeBase.TimeoutSec <= 0 {
		c.KnowledgeBase.TimeoutSec = 30
	}
	if c.Recognizer.IntentFloor <= 0 {
		c.Recognizer.IntentFloor = 0.7
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.KnowledgeBase.ID == "" || c.KnowledgeBase.Host == "" || c.KnowledgeBase.EndpointKey == "" {
		return fmt.Errorf("knowledge_base.id, knowledge_base.host and knowledge_base.endpoint_key are required")
	}
	if c.Dialog.ScoreThreshold < 0 || c.Dialog.ScoreThreshold > 1 {
		return fmt.Errorf("dialog.score_threshold must be between 0 and 1, got %g", c.Dialog.ScoreThreshold)
	}
	switch c.Dialog.FiltersJoinOperator {
	case "", "AND", "OR":
	default:
		return fmt.Errorf(
			"dialog.filters_join_operator must be \"AND\" or \"OR\", got %q",
			c.Dialog.FiltersJoinOperator,
		)
	}
	switch c.Dialog.RankerMode {
	case "", "default", "questionOnly":
	default:
		return fmt.Errorf(
			"dialog.ranker_mode must be \"default\" or \"questionOnly\", got %q",
			c.Dialog.RankerMode,
		)
	}
	if c.Recognizer.IntentFloor < 0 || c.Recognizer.IntentFloor > 1 {
		return fmt.Errorf("recognizer.intent_floor must be between 0 and 1, got %g", c.Recognizer.IntentFloor)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
