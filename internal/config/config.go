package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv       = "AIDIGEST_CONFIG"
	databaseDSNEnv      = "DATABASE_DSN"
	llmAPIKeyEnv        = "LLM_API_KEY"
	llmModelEnv         = "LLM_MODEL"
	transcriptKeyEnv    = "TRANSCRIPT_API_KEY"
	transcriptURLEnv    = "TRANSCRIPT_ENDPOINT"
	defaultLookbackHrs  = 24
	defaultWindowHours  = 24
	defaultSchedulerGap = "24h"
)

// Config holds high-level settings required across the application.
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Logging    LoggingConfig    `yaml:"logging"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Sources    SourcesConfig    `yaml:"sources"`
	Transcript TranscriptConfig `yaml:"transcript"`
	LLM        LLMConfig        `yaml:"llm"`
	Profile    ProfileConfig    `yaml:"profile"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
}

// DatabaseConfig describes Postgres connection details. An empty DSN runs
// the pipeline on the in-memory store.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SchedulerConfig defines how often the pipeline runs.
type SchedulerConfig struct {
	Interval string `yaml:"interval"`
	RunOnce  bool   `yaml:"runOnce"`
}

// Duration resolves the interval string, defaulting to 24h.
func (s SchedulerConfig) Duration() time.Duration {
	d, err := time.ParseDuration(s.Interval)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(defaultSchedulerGap)
	}
	return d
}

// SourcesConfig lists the upstream feeds per source.
type SourcesConfig struct {
	YouTubeChannels []string `yaml:"youtubeChannels"`
	OpenAIFeeds     []string `yaml:"openaiFeeds"`
	AnthropicFeeds  []string `yaml:"anthropicFeeds"`
	LookbackHours   int      `yaml:"lookbackHours"`
}

// TranscriptConfig wires the external transcript service.
type TranscriptConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"apiKey"`
}

// LLMConfig defines how to contact the chat-completion API.
type LLMConfig struct {
	Endpoint     string `yaml:"endpoint"`
	Model        string `yaml:"model"`
	CuratorModel string `yaml:"curatorModel"`
	APIKey       string `yaml:"apiKey"`
}

// ProfileConfig describes the reader digests are curated for.
type ProfileConfig struct {
	Name        string            `yaml:"name"`
	Background  string            `yaml:"background"`
	Expertise   string            `yaml:"expertise"`
	Interests   []string          `yaml:"interests"`
	Preferences map[string]string `yaml:"preferences"`
}

// PipelineConfig caps batch sizes per run.
type PipelineConfig struct {
	EnrichLimit       int `yaml:"enrichLimit"`
	DigestLimit       int `yaml:"digestLimit"`
	RecentWindowHours int `yaml:"recentWindowHours"`
}

// Load reads YAML configuration (if present) and applies environment
// overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(llmAPIKeyEnv); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv(llmModelEnv); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv(transcriptKeyEnv); v != "" {
		c.Transcript.APIKey = v
	}
	if v := os.Getenv(transcriptURLEnv); v != "" {
		c.Transcript.Endpoint = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Database.DSN != "" {
		base.Database = override.Database
	}
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}
	if override.Scheduler.Interval != "" {
		base.Scheduler.Interval = override.Scheduler.Interval
	}
	if override.Scheduler.RunOnce {
		base.Scheduler.RunOnce = true
	}

	if len(override.Sources.YouTubeChannels) > 0 {
		base.Sources.YouTubeChannels = override.Sources.YouTubeChannels
	}
	if len(override.Sources.OpenAIFeeds) > 0 {
		base.Sources.OpenAIFeeds = override.Sources.OpenAIFeeds
	}
	if len(override.Sources.AnthropicFeeds) > 0 {
		base.Sources.AnthropicFeeds = override.Sources.AnthropicFeeds
	}
	if override.Sources.LookbackHours > 0 {
		base.Sources.LookbackHours = override.Sources.LookbackHours
	}

	if override.Transcript.Endpoint != "" {
		base.Transcript.Endpoint = override.Transcript.Endpoint
	}
	if override.Transcript.APIKey != "" {
		base.Transcript.APIKey = override.Transcript.APIKey
	}

	if override.LLM.Endpoint != "" {
		base.LLM.Endpoint = override.LLM.Endpoint
	}
	if override.LLM.Model != "" {
		base.LLM.Model = override.LLM.Model
	}
	if override.LLM.CuratorModel != "" {
		base.LLM.CuratorModel = override.LLM.CuratorModel
	}
	if override.LLM.APIKey != "" {
		base.LLM.APIKey = override.LLM.APIKey
	}

	if override.Profile.Name != "" {
		base.Profile = override.Profile
	}

	if override.Pipeline.EnrichLimit > 0 {
		base.Pipeline.EnrichLimit = override.Pipeline.EnrichLimit
	}
	if override.Pipeline.DigestLimit > 0 {
		base.Pipeline.DigestLimit = override.Pipeline.DigestLimit
	}
	if override.Pipeline.RecentWindowHours > 0 {
		base.Pipeline.RecentWindowHours = override.Pipeline.RecentWindowHours
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Database:  DatabaseConfig{DSN: ""},
		Logging:   LoggingConfig{Level: "info"},
		Scheduler: SchedulerConfig{Interval: defaultSchedulerGap},
		Sources: SourcesConfig{
			AnthropicFeeds: []string{
				"https://raw.githubusercontent.com/Olshansk/rss-feeds/main/feeds/feed_anthropic_news.xml",
				"https://raw.githubusercontent.com/Olshansk/rss-feeds/main/feeds/feed_anthropic_research.xml",
				"https://raw.githubusercontent.com/Olshansk/rss-feeds/main/feeds/feed_anthropic_engineering.xml",
			},
			OpenAIFeeds:   []string{"https://openai.com/news/rss.xml"},
			LookbackHours: defaultLookbackHrs,
		},
		LLM: LLMConfig{
			Endpoint:     "https://api.openai.com/v1/chat/completions",
			Model:        "gpt-4o-mini",
			CuratorModel: "gpt-4o",
		},
		Pipeline: PipelineConfig{
			EnrichLimit:       25,
			DigestLimit:       50,
			RecentWindowHours: defaultWindowHours,
		},
	}
}
