package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrNoDatabase is returned by Load when DATABASE_URL is unset. Callers that do
// not persist anything (the CLI) may ignore it.
var ErrNoDatabase = errors.New("DATABASE_URL not set")

type Config struct {
	Env             string          `yaml:"env"`
	ListenAddr      string          `yaml:"listen_addr"`
	DatabaseURL     string          `yaml:"database_url"`
	AnalysisWorkers int             `yaml:"analysis_workers"`
	Registry        RegistryConfig  `yaml:"registry"`
	Search          SearchConfig    `yaml:"search"`
	Catalog         CatalogConfig   `yaml:"catalog"`
	Assist          AssistConfig    `yaml:"assist"`
	Flow            FlowConfig      `yaml:"flow"`
	Questions       QuestionsConfig `yaml:"questions"`
}

type RegistryConfig struct {
	CABaseURL     string        `yaml:"ca_base_url"`
	CatmatBaseURL string        `yaml:"catmat_base_url"`
	Timeout       time.Duration `yaml:"timeout"`
}

type SearchConfig struct {
	BaseURL             string        `yaml:"base_url"`
	Timeout             time.Duration `yaml:"timeout"`
	Limit               int           `yaml:"limit"`
	SimilarityThreshold float64       `yaml:"similarity_threshold"`
}

type CatalogConfig struct {
	SnapshotPath string `yaml:"snapshot_path"`
}

// AssistConfig configures the optional generative query simplifier. An empty
// APIKey disables it and the deterministic tokenizer is used.
type AssistConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

type FlowConfig struct {
	ScanEmbeddedCA bool `yaml:"scan_embedded_ca"`
}

type QuestionsConfig struct {
	LoopWindow    int     `yaml:"loop_window"`
	LoopThreshold int     `yaml:"loop_threshold"`
	LowConfidence float64 `yaml:"low_confidence"`
}

// Defaults returns the configuration used when neither a file nor env vars say otherwise.
func Defaults() Config {
	return Config{
		Env:        "development",
		ListenAddr: ":8080",
		Registry: RegistryConfig{
			CABaseURL:     "https://consultaca.trabalho.gov.br/api",
			CatmatBaseURL: "https://dadosabertos.compras.gov.br",
			Timeout:       10 * time.Second,
		},
		Search: SearchConfig{
			BaseURL:             "https://dadosabertos.compras.gov.br",
			Timeout:             15 * time.Second,
			Limit:               20,
			SimilarityThreshold: 0.7,
		},
		Assist: AssistConfig{
			Model:   "gpt-4o-mini",
			Timeout: 20 * time.Second,
		},
		Questions: QuestionsConfig{
			LoopWindow:    5,
			LoopThreshold: 2,
			LowConfidence: 0.5,
		},
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Load reads defaults, then the YAML file named by CONFIG_FILE (if any), then env vars.
func Load() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	if cfg.DatabaseURL == "" {
		return cfg, ErrNoDatabase
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Env = getenv("APP_ENV", cfg.Env)
	cfg.ListenAddr = getenv("LISTEN_ADDR", cfg.ListenAddr)
	cfg.DatabaseURL = getenv("DATABASE_URL", cfg.DatabaseURL)
	cfg.AnalysisWorkers = getenvInt("ANALYSIS_WORKERS", cfg.AnalysisWorkers)

	cfg.Registry.CABaseURL = getenv("CA_REGISTRY_URL", cfg.Registry.CABaseURL)
	cfg.Registry.CatmatBaseURL = getenv("CATMAT_REGISTRY_URL", cfg.Registry.CatmatBaseURL)
	cfg.Registry.Timeout = getenvDuration("REGISTRY_TIMEOUT", cfg.Registry.Timeout)

	cfg.Search.BaseURL = getenv("SEARCH_URL", cfg.Search.BaseURL)
	cfg.Search.Timeout = getenvDuration("SEARCH_TIMEOUT", cfg.Search.Timeout)
	cfg.Search.Limit = getenvInt("SEARCH_LIMIT", cfg.Search.Limit)
	cfg.Search.SimilarityThreshold = getenvFloat("SIMILARITY_THRESHOLD", cfg.Search.SimilarityThreshold)

	cfg.Catalog.SnapshotPath = getenv("CATALOG_SNAPSHOT", cfg.Catalog.SnapshotPath)

	cfg.Assist.APIKey = getenv("OPENAI_API_KEY", cfg.Assist.APIKey)
	cfg.Assist.BaseURL = getenv("OPENAI_BASE_URL", cfg.Assist.BaseURL)
	cfg.Assist.Model = getenv("OPENAI_MODEL", cfg.Assist.Model)
	cfg.Assist.Timeout = getenvDuration("ASSIST_TIMEOUT", cfg.Assist.Timeout)

	cfg.Flow.ScanEmbeddedCA = getenvBool("SCAN_EMBEDDED_CA", cfg.Flow.ScanEmbeddedCA)

	cfg.Questions.LoopWindow = getenvInt("QUESTION_LOOP_WINDOW", cfg.Questions.LoopWindow)
	cfg.Questions.LoopThreshold = getenvInt("QUESTION_LOOP_THRESHOLD", cfg.Questions.LoopThreshold)
	cfg.Questions.LowConfidence = getenvFloat("QUESTION_LOW_CONFIDENCE", cfg.Questions.LowConfidence)
}

// Validate rejects tunables outside their meaningful range.
func (c Config) Validate() error {
	if c.Search.SimilarityThreshold <= 0 || c.Search.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity threshold must be in (0,1], got %v", c.Search.SimilarityThreshold)
	}
	if c.Registry.Timeout <= 0 {
		return fmt.Errorf("registry timeout must be positive")
	}
	if c.Questions.LoopThreshold < 1 || c.Questions.LoopWindow < c.Questions.LoopThreshold {
		return fmt.Errorf("loop threshold %d must be between 1 and window %d", c.Questions.LoopThreshold, c.Questions.LoopWindow)
	}
	if c.AnalysisWorkers < 0 {
		return fmt.Errorf("analysis workers must not be negative")
	}
	return nil
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if out, err := strconv.Atoi(v); err == nil {
			return out
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if out, err := strconv.ParseFloat(v, 64); err == nil {
			return out
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if out, err := strconv.ParseBool(v); err == nil {
			return out
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if out, err := time.ParseDuration(v); err == nil {
			return out
		}
	}
	return def
}
