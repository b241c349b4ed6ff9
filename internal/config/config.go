package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DocsConfig describes the documents tree and its naming conventions.
type DocsConfig struct {
	Root          string `yaml:"root"`
	ExcludeSuffix string `yaml:"exclude_suffix"`
	UpdateSuffix  string `yaml:"update_suffix"`
}

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	Type    string `yaml:"type"`
	MaxSize int    `yaml:"max_size"`
	MinSize int    `yaml:"min_size"`
}

// OpenAIConfig holds connection settings shared by the OpenAI-compatible clients.
type OpenAIConfig struct {
	BaseURL           string  `yaml:"base_url"`
	APIKeyEnv         string  `yaml:"api_key_env"`
	Model             string  `yaml:"model"`
	TimeoutSecs       int     `yaml:"timeout_secs"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// Timeout returns the configured timeout as a duration.
func (c OpenAIConfig) Timeout() time.Duration { return time.Duration(c.TimeoutSecs) * time.Second }

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string        `yaml:"type"`
	OpenAI *OpenAIConfig `yaml:"openai,omitempty"`
}

// LLMConfig selects and configures the chat completion backend.
type LLMConfig struct {
	Type        string        `yaml:"type"`
	Temperature float64       `yaml:"temperature"`
	OpenAI      *OpenAIConfig `yaml:"openai,omitempty"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type   string        `yaml:"type"`
	SQLite *SQLiteConfig `yaml:"sqlite,omitempty"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// SQLiteConfig locates the on-disk index database.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// Timeout returns the configured timeout as a duration.
func (c QdrantConfig) Timeout() time.Duration { return time.Duration(c.TimeoutSecs) * time.Second }

// OrchestratorConfig tunes question answering.
type OrchestratorConfig struct {
	TopK              int    `yaml:"top_k"`
	AgentTimeoutSecs  int    `yaml:"agent_timeout_secs"`
	ConcurrentFanout  bool   `yaml:"concurrent_fanout"`
	SupportEmail      string `yaml:"support_email"`
	ManagementContact string `yaml:"management_contact"`
}

// AgentTimeout returns the per-agent deadline used during fan-out.
func (c OrchestratorConfig) AgentTimeout() time.Duration {
	return time.Duration(c.AgentTimeoutSecs) * time.Second
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Docs         DocsConfig         `yaml:"docs"`
	Chunker      ChunkerConfig      `yaml:"chunker"`
	Embedder     EmbedderConfig     `yaml:"embedder"`
	LLM          LLMConfig          `yaml:"llm"`
	VectorStore  VectorStoreConfig  `yaml:"vector_store"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/scangestor/config.yaml.
// If neither exists, it writes defaults to ~/.config/scangestor/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks values that defaults cannot repair.
func (c *AppConfig) Validate() error {
	if c.Docs.Root == "" {
		return errors.New("docs.root is required")
	}
	if c.Docs.ExcludeSuffix == "" || c.Docs.UpdateSuffix == "" {
		return errors.New("docs suffixes must not be empty")
	}
	if c.Chunker.MaxSize <= 0 {
		return fmt.Errorf("chunker.max_size must be positive, got %d", c.Chunker.MaxSize)
	}
	if c.Chunker.MinSize < 0 || c.Chunker.MinSize > c.Chunker.MaxSize {
		return fmt.Errorf("chunker.min_size must be within [0, %d], got %d", c.Chunker.MaxSize, c.Chunker.MinSize)
	}
	if c.VectorStore.Type == "qdrant" && (c.VectorStore.Qdrant == nil || c.VectorStore.Qdrant.URL == "") {
		return errors.New("vector_store.qdrant.url is required")
	}
	if c.Orchestrator.TopK <= 0 {
		return fmt.Errorf("orchestrator.top_k must be positive, got %d", c.Orchestrator.TopK)
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "scangestor", "config.yaml"), nil
}

func defaultOpenAI(model string) *OpenAIConfig {
	return &OpenAIConfig{
		BaseURL:           "https://api.openai.com/v1",
		APIKeyEnv:         "OPENAI_API_KEY",
		Model:             model,
		TimeoutSecs:       60,
		RequestsPerSecond: 5,
	}
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Docs:     DocsConfig{Root: "./doc/doc_scangestor", ExcludeSuffix: "__exclude", UpdateSuffix: "__ACT"},
		Chunker:  ChunkerConfig{Type: "paragraph", MaxSize: 2000, MinSize: 100},
		Embedder: EmbedderConfig{Type: "openai", OpenAI: defaultOpenAI("text-embedding-3-small")},
		LLM:      LLMConfig{Type: "openai", Temperature: 0.3, OpenAI: defaultOpenAI("gpt-4o-mini")},
		VectorStore: VectorStoreConfig{
			Type:   "sqlite",
			SQLite: &SQLiteConfig{Path: "./bbdd/index.db"},
		},
		Orchestrator: OrchestratorConfig{
			TopK:              3,
			AgentTimeoutSecs:  60,
			ConcurrentFanout:  true,
			SupportEmail:      "soporte@scangasto.com",
			ManagementContact: "angel@scangasto.com",
		},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	def := defaultConfig()
	if cfg.Chunker.MaxSize == 0 {
		cfg.Chunker.MaxSize = def.Chunker.MaxSize
	}
	fillOpenAI(cfg.Embedder.OpenAI, def.Embedder.OpenAI)
	fillOpenAI(cfg.LLM.OpenAI, def.LLM.OpenAI)
	if cfg.VectorStore.Type == "sqlite" && cfg.VectorStore.SQLite == nil {
		cfg.VectorStore.SQLite = def.VectorStore.SQLite
	}
	if q := cfg.VectorStore.Qdrant; q != nil {
		if q.Collection == "" {
			q.Collection = "documentacion_openai"
		}
		if q.TimeoutSecs == 0 {
			q.TimeoutSecs = 15
		}
	}
	if cfg.Orchestrator.TopK == 0 {
		cfg.Orchestrator.TopK = def.Orchestrator.TopK
	}
	if cfg.Orchestrator.AgentTimeoutSecs == 0 {
		cfg.Orchestrator.AgentTimeoutSecs = def.Orchestrator.AgentTimeoutSecs
	}
}

func fillOpenAI(c, def *OpenAIConfig) {
	if c == nil {
		return
	}
	if c.BaseURL == "" {
		c.BaseURL = def.BaseURL
	}
	if c.APIKeyEnv == "" {
		c.APIKeyEnv = def.APIKeyEnv
	}
	if c.Model == "" {
		c.Model = def.Model
	}
	if c.TimeoutSecs == 0 {
		c.TimeoutSecs = def.TimeoutSecs
	}
}
