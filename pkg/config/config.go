package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"liyu1981.xyz/soil-monitor-service/pkg/common"
)

type ServerConfig struct {
	HTTPHostPort string  `toml:"http_host_port"`
	GRPCHostPort string  `toml:"grpc_host_port"`
	DBType       string  `toml:"db_type"`
	DefaultRate  float64 `toml:"default_rate"`
	DefaultBurst int     `toml:"default_burst"`
}

type LLMConfig struct {
	Provider       string `toml:"provider"`
	Model          string `toml:"model"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

func (c LLMConfig) Timeout() time.Duration {
	return seconds(c.TimeoutSeconds)
}

type EmbeddingConfig struct {
	Provider       string `toml:"provider"`
	Model          string `toml:"model"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Dimensions     int    `toml:"dimensions"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

func (c EmbeddingConfig) Timeout() time.Duration {
	return seconds(c.TimeoutSeconds)
}

type KnowledgeConfig struct {
	ChunkWords       int    `toml:"chunk_words"`
	OverlapWords     int    `toml:"overlap_words"`
	MaxExtractWords  int    `toml:"max_extract_words"`
	SearchResults    int    `toml:"search_results"`
	ExtractionPrompt string `toml:"extraction_prompt"`
}

type MonitorConfig struct {
	NodeTimeoutMinutes int    `toml:"node_timeout_minutes"`
	SweepCron          string `toml:"sweep_cron"`
}

func (c MonitorConfig) NodeTimeout() time.Duration {
	return time.Duration(c.NodeTimeoutMinutes) * time.Minute
}

type ArchiveConfig struct {
	Endpoint       string `toml:"endpoint"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	Bucket         string `toml:"bucket"`
	UseSSL         bool   `toml:"use_ssl"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

func (c ArchiveConfig) Enabled() bool {
	return c.Endpoint != ""
}

func (c ArchiveConfig) Timeout() time.Duration {
	return seconds(c.TimeoutSeconds)
}

type Config struct {
	Server    ServerConfig    `toml:"server"`
	LLM       LLMConfig       `toml:"llm"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Knowledge KnowledgeConfig `toml:"knowledge"`
	Monitor   MonitorConfig   `toml:"monitor"`
	Archive   ArchiveConfig   `toml:"archive"`
}

const defaultTimeoutSeconds = 30

func seconds(n int) time.Duration {
	if n <= 0 {
		n = defaultTimeoutSeconds
	}
	return time.Duration(n) * time.Second
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPHostPort: ":1080",
			DBType:       "file",
			DefaultRate:  5,
			DefaultBurst: 10,
		},
		LLM: LLMConfig{
			Provider:       "openai",
			Model:          "gpt-4o-mini",
			TimeoutSeconds: defaultTimeoutSeconds,
		},
		Embedding: EmbeddingConfig{
			Provider:       "hashing",
			Dimensions:     384,
			TimeoutSeconds: defaultTimeoutSeconds,
		},
		Knowledge: KnowledgeConfig{
			ChunkWords:      500,
			OverlapWords:    50,
			MaxExtractWords: 3000,
			SearchResults:   4,
		},
		Monitor: MonitorConfig{
			NodeTimeoutMinutes: 10,
		},
		Archive: ArchiveConfig{
			Bucket:         "soil-documents",
			TimeoutSeconds: defaultTimeoutSeconds,
		},
	}
}

// Load reads the TOML file at path over the defaults. Keys missing from the
// file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}

// FromEnv loads the file named by IOT_CONFIG_PATH when set, then applies the
// environment overrides. Secrets normally only come from the environment.
func FromEnv() (*Config, error) {
	cfg := Default()
	if path := strings.TrimSpace(os.Getenv(common.EnvKeyIOTConfigPath)); path != "" {
		var err error
		if cfg, err = Load(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from lookup, which is os.LookupEnv outside tests.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	str(common.EnvKeyIOTHttpHostPort, &c.Server.HTTPHostPort)
	str(common.EnvKeyIOTGrpcHostPort, &c.Server.GRPCHostPort)
	str(common.EnvKeyIOTDBType, &c.Server.DBType)
	str(common.EnvKeyIOTSweepCron, &c.Monitor.SweepCron)

	if v, ok := lookup(common.EnvKeyIOTDefaultRate); ok && v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s, should be a float64 value: %w", common.EnvKeyIOTDefaultRate, err)
		}
		c.Server.DefaultRate = rate
	}
	if v, ok := lookup(common.EnvKeyIOTDefaultBurst); ok && v != "" {
		burst, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s, should be an int value: %w", common.EnvKeyIOTDefaultBurst, err)
		}
		c.Server.DefaultBurst = burst
	}

	str(common.EnvKeyLLMProvider, &c.LLM.Provider)
	str(common.EnvKeyLLMModel, &c.LLM.Model)
	str(common.EnvKeyLLMBaseURL, &c.LLM.BaseURL)
	str(common.EnvKeyLLMAPIKey, &c.LLM.APIKey)
	if c.LLM.APIKey == "" && strings.EqualFold(c.LLM.Provider, "openai") {
		str(common.EnvKeyOpenAIKey, &c.LLM.APIKey)
	}

	str(common.EnvKeyEmbeddingProvider, &c.Embedding.Provider)
	str(common.EnvKeyEmbeddingModel, &c.Embedding.Model)
	str(common.EnvKeyEmbeddingBaseURL, &c.Embedding.BaseURL)
	if c.Embedding.APIKey == "" && strings.EqualFold(c.Embedding.Provider, "openai") {
		str(common.EnvKeyOpenAIKey, &c.Embedding.APIKey)
	}
	if c.Embedding.APIKey == "" && strings.EqualFold(c.Embedding.Provider, c.LLM.Provider) {
		c.Embedding.APIKey = c.LLM.APIKey
	}

	str(common.EnvKeyArchiveEndpoint, &c.Archive.Endpoint)
	str(common.EnvKeyArchiveAccessKey, &c.Archive.AccessKey)
	str(common.EnvKeyArchiveSecretKey, &c.Archive.SecretKey)

	return nil
}
