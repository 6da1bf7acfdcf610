package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is used when --config is not given.
const DefaultPath = "config/config.yaml"

// Config holds everything the generator, server and CLI need. It is passed by
// value; nothing here is ever written back into the process environment.
type Config struct {
	ServerAddr string         `yaml:"server_addr"`
	Verbose    bool           `yaml:"verbose"`
	LLM        LLMConfig      `yaml:"llm"`
	Verify     VerifyConfig   `yaml:"verify"`
	Store      StoreConfig    `yaml:"store"`
	Web        WebConfig      `yaml:"web"`
	Document   DocumentConfig `yaml:"document"`
}

// LLMConfig selects the model backend. The API key is supplied per run by the
// user and is deliberately absent here.
type LLMConfig struct {
	Provider       string        `yaml:"provider"`
	Model          string        `yaml:"model"`
	BaseURL        string        `yaml:"base_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type VerifyConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

type WebConfig struct {
	PasswordHash  string `yaml:"password_hash"`
	MaxUploadMB   int64  `yaml:"max_upload_mb"`
	KeepDocuments int    `yaml:"keep_documents"`
}

type DocumentConfig struct {
	MarginPt float64 `yaml:"margin_pt"`
}

func defaults() Config {
	return Config{
		ServerAddr: ":8080",
		LLM: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4o",
			BaseURL:  "https://api.openai.com/v1",
		},
		Store: StoreConfig{
			Path: "data/research.db",
		},
		Web: WebConfig{
			MaxUploadMB:   32,
			KeepDocuments: 32,
		},
		Document: DocumentConfig{
			MarginPt: 72,
		},
	}
}

// Load reads YAML config from path. A missing file yields the defaults; env
// overrides are applied last.
func Load(path string) (Config, error) {
	cfg := defaults()
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the provider-specific requirements.
func (c Config) Validate() error {
	switch c.LLM.Provider {
	case "openai", "mock":
	case "deepseek":
		// DeepSeek exposes an OpenAI-compatible API but has no default endpoint here.
		if c.LLM.BaseURL == "" || c.LLM.BaseURL == defaults().LLM.BaseURL {
			return errors.New("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
	case "":
		return errors.New("llm.provider is required")
	default:
		return fmt.Errorf("llm provider %s not supported", c.LLM.Provider)
	}
	if c.LLM.Model == "" {
		return errors.New("llm.model is required")
	}
	if c.Document.MarginPt < 0 {
		return fmt.Errorf("document.margin_pt must not be negative, got %v", c.Document.MarginPt)
	}
	return nil
}

// MaxUploadBytes converts the configured upload limit to bytes.
func (c Config) MaxUploadBytes() int64 {
	if c.Web.MaxUploadMB <= 0 {
		return 32 << 20
	}
	return c.Web.MaxUploadMB << 20
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("RAG_SERVER_ADDR"); v != "" {
		cfg.ServerAddr = v
	}
	if v := os.Getenv("RAG_LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("RAG_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("RAG_LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("RAG_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("RAG_WEB_PASSWORD_HASH"); v != "" {
		cfg.Web.PasswordHash = v
	}
	if v := os.Getenv("RAG_VERBOSE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Verbose = b
		}
	}
}
