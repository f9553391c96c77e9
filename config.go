package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LogFile    string `yaml:"log"`
	ServerAddr string `yaml:"server_addr"`
	MCPAddr    string `yaml:"mcp_addr"`
	AuthToken  string `yaml:"auth_token"`

	DocRoot       string `yaml:"doc_root"`
	MergeEventsMs int    `yaml:"write_debounce_ms"`
	MaxFetchBytes int64  `yaml:"max_fetch_bytes"`

	ChunkSize     int `yaml:"chunk_size"`
	ChunkOverlap  int `yaml:"chunk_overlap"`
	MaxChunkBytes int `yaml:"max_chunk_bytes"`
	LargeDocBytes int `yaml:"large_doc_bytes"`

	TopK           int `yaml:"results"`
	SmallDocChunks int `yaml:"small_doc_chunks"`
	ContextBudget  int `yaml:"context_budget"`

	CacheTTLSeconds int `yaml:"cache_ttl_seconds"`

	RetryAttempts   int     `yaml:"retry_attempts"`
	RetryBaseMs     int     `yaml:"retry_base_ms"`
	FallbackPerSec  float64 `yaml:"fallback_per_sec"`
	AnswerMaxTokens int64   `yaml:"answer_max_tokens"`

	ChromaAddr string `yaml:"chroma_addr"`

	OpenAI struct {
		ApiKey         string `yaml:"api_key"`
		ChatModel      string `yaml:"chat_model"`
		EmbeddingModel string `yaml:"embedding_model"`
	} `yaml:"open_ai"`
}

func readConfig(cfgPath string) (*Config, error) {
	cfgFile, err := os.Open(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("unable to open config file: %w", err)
	}
	defer cfgFile.Close()

	cfg := &Config{}
	dec := yaml.NewDecoder(cfgFile)
	err = dec.Decode(cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to parse config file: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	return cfg, nil
}

// applyEnv lets secrets come from the environment instead of the
// config file. The .env file is loaded in main before this runs.
func (c *Config) applyEnv() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAI.ApiKey = v
	}
	if v := os.Getenv("API_AUTH_TOKEN"); v != "" {
		c.AuthToken = v
	}
	if v := os.Getenv("CHROMA_ADDR"); v != "" {
		c.ChromaAddr = v
	}
}

func (c *Config) applyDefaults() {
	if c.ServerAddr == "" {
		c.ServerAddr = "localhost:8080"
	}
	if c.MergeEventsMs <= 0 {
		c.MergeEventsMs = 500
	}
	if c.TopK <= 0 {
		c.TopK = 5
	}
	if c.SmallDocChunks <= 0 {
		c.SmallDocChunks = 3
	}
	if c.ContextBudget <= 0 {
		c.ContextBudget = 4000
	}
	if c.CacheTTLSeconds <= 0 {
		c.CacheTTLSeconds = 3600
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = 3
	}
	if c.RetryBaseMs <= 0 {
		c.RetryBaseMs = 1000
	}
	if c.FallbackPerSec <= 0 {
		c.FallbackPerSec = 2
	}
	if c.OpenAI.EmbeddingModel == "" {
		c.OpenAI.EmbeddingModel = "text-embedding-3-small"
	}
	if c.OpenAI.ChatModel == "" {
		c.OpenAI.ChatModel = "gpt-4o-mini"
	}
}

func (c *Config) cacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}
