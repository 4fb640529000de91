package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrMissing is wrapped by Validate with the name of the missing value.
var ErrMissing = errors.New("missing required configuration")

// Vector store backends.
const (
	BackendLocal    = "local"
	BackendQdrant   = "qdrant"
	BackendPostgres = "postgres"
)

// Config holds all configuration for faqbot.
type Config struct {
	LLM         LLMConfig         `yaml:"llm"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Router      RouterConfig      `yaml:"router"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	Ingest      IngestConfig      `yaml:"ingest"`
	History     HistoryConfig     `yaml:"history"`
	Server      ServerConfig      `yaml:"server"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// LLMConfig holds chat model configuration.
type LLMConfig struct {
	Provider    string  `yaml:"provider"` // "groq", "openai", "deepseek", "anthropic"
	Model       string  `yaml:"model"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"` // "openai", "groq", "jina", "ollama", "local"
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url"`
}

// VectorStoreConfig selects and addresses the vector store.
type VectorStoreConfig struct {
	Backend string `yaml:"backend"` // "local", "qdrant", "postgres"

	APIKeyEnv      string `yaml:"api_key_env"`
	EnvironmentEnv string `yaml:"environment_env"` // cluster host
	IndexNameEnv   string `yaml:"index_name_env"`
	Port           int    `yaml:"port"`
	ReadyDelayMS   int    `yaml:"ready_delay_ms"`

	DSNEnv string `yaml:"dsn_env"`
	Table  string `yaml:"table"`

	DataDir      string `yaml:"data_dir"`
	Snapshot     string `yaml:"snapshot"`
	BatchSize    int    `yaml:"batch_size"`
	BatchPauseMS int    `yaml:"batch_pause_ms"`
}

// RouterConfig holds the routing keyword lists.
type RouterConfig struct {
	PatentKeywords []string `yaml:"patent_keywords"`
	BISKeywords    []string `yaml:"bis_keywords"`
}

// RetrievalConfig holds retrieval configuration.
type RetrievalConfig struct {
	TopK         int `yaml:"top_k"`
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// IngestConfig lists the documents of each collection.
type IngestConfig struct {
	PatentPaths []string `yaml:"patent_paths"`
	BISPaths    []string `yaml:"bis_paths"`
	Excludes    []string `yaml:"excludes"`
	OnStartup   bool     `yaml:"on_startup"`
}

// HistoryConfig holds chat history configuration.
type HistoryConfig struct {
	Path     string `yaml:"path"`
	MaxTurns int    `yaml:"max_turns"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ReadTimeoutSec  int    `yaml:"read_timeout_sec"`
	WriteTimeoutSec int    `yaml:"write_timeout_sec"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    "groq",
			Model:       "llama-3.3-70b-versatile",
			APIKeyEnv:   "GROQ_API_KEY",
			Temperature: 0.7,
			MaxTokens:   500,
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
		},
		VectorStore: VectorStoreConfig{
			Backend:        BackendLocal,
			APIKeyEnv:      "VECTOR_DB_API_KEY",
			EnvironmentEnv: "VECTOR_DB_ENVIRONMENT",
			IndexNameEnv:   "VECTOR_DB_INDEX_NAME",
			Port:           6334,
			ReadyDelayMS:   10000,
			DSNEnv:         "DATABASE_URL",
			Table:          "faq_vectors",
			DataDir:        ".faqbot",
			Snapshot:       "faq.db",
			BatchSize:      100,
			BatchPauseMS:   100,
		},
		Router: RouterConfig{
			PatentKeywords: []string{"patent", "intellectual property", "ip", "invention", "patent application"},
			BISKeywords:    []string{"bis", "bureau of indian standards", "standard", "quality"},
		},
		Retrieval: RetrievalConfig{
			TopK:         2,
			ChunkSize:    1000,
			ChunkOverlap: 0,
		},
		Ingest: IngestConfig{
			PatentPaths: []string{"data/Final_FREQUENTLY_ASKED_QUESTIONS_-PATENT.pdf"},
			BISPaths:    []string{"data/FINAL_FAQs_June_2018.pdf"},
			OnStartup:   true,
		},
		History: HistoryConfig{
			Path:     "chat_history.json",
			MaxTurns: 10,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeoutSec:  15,
			WriteTimeoutSec: 60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for faqbot.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "faqbot.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".faqbot", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports the first required value that is missing from the
// environment. Cloud credentials are only required by the backend that
// uses them.
func (c *Config) Validate() error {
	if os.Getenv(c.LLM.APIKeyEnv) == "" {
		return fmt.Errorf("%w: llm api key (%s)", ErrMissing, c.LLM.APIKeyEnv)
	}
	return c.ValidateStore()
}

// ValidateStore checks only the vector store settings, for commands that
// never call the chat model.
func (c *Config) ValidateStore() error {
	switch c.VectorStore.Backend {
	case BackendLocal, "":
	case BackendQdrant:
		if os.Getenv(c.VectorStore.APIKeyEnv) == "" {
			return fmt.Errorf("%w: vector db api key (%s)", ErrMissing, c.VectorStore.APIKeyEnv)
		}
		if os.Getenv(c.VectorStore.EnvironmentEnv) == "" {
			return fmt.Errorf("%w: vector db environment (%s)", ErrMissing, c.VectorStore.EnvironmentEnv)
		}
		if os.Getenv(c.VectorStore.IndexNameEnv) == "" {
			return fmt.Errorf("%w: vector db index name (%s)", ErrMissing, c.VectorStore.IndexNameEnv)
		}
	case BackendPostgres:
		if os.Getenv(c.VectorStore.DSNEnv) == "" {
			return fmt.Errorf("%w: postgres dsn (%s)", ErrMissing, c.VectorStore.DSNEnv)
		}
	default:
		return fmt.Errorf("unknown vector store backend %q", c.VectorStore.Backend)
	}

	return nil
}

// SnapshotPath returns the path of the local store snapshot.
func (c *Config) SnapshotPath() string {
	return filepath.Join(c.VectorStore.DataDir, c.VectorStore.Snapshot)
}

// EnsureDataDir ensures the data directory exists.
func (c *Config) EnsureDataDir() error {
	return os.MkdirAll(c.VectorStore.DataDir, 0755)
}

// BatchPause returns the pause between write batches.
func (v VectorStoreConfig) BatchPause() time.Duration {
	return time.Duration(v.BatchPauseMS) * time.Millisecond
}

// ReadyDelay returns how long to wait after creating a remote index.
func (v VectorStoreConfig) ReadyDelay() time.Duration {
	return time.Duration(v.ReadyDelayMS) * time.Millisecond
}

// Sources maps each collection to its configured document paths.
func (i IngestConfig) Sources() map[string][]string {
	return map[string][]string{
		"patent_faqs": i.PatentPaths,
		"bis_faqs":    i.BISPaths,
	}
}
