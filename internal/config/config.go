package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv = "REPLYBOT_CONFIG"

	geminiAPIKeyEnv = "GEMINI_API_KEY"
	geminiModelEnv  = "GEMINI_MODEL"

	consumerKeyEnv    = "X_CONSUMER_KEY"
	consumerSecretEnv = "X_CONSUMER_SECRET"
	accessTokenEnv    = "X_ACCESS_TOKEN"
	accessSecretEnv   = "X_ACCESS_SECRET"

	stateFileEnv     = "STATE_FILE_PATH"
	speakingStyleEnv = "SPEAKING_STYLE_FILE_PATH"
	archivePathEnv   = "REPLY_ARCHIVE_PATH"
	fetchIntervalEnv = "FETCH_INTERVAL_MINUTES"
	tweetsToFetchEnv = "TWEETS_TO_FETCH"
	minReplyDelayEnv = "MIN_REPLY_DELAY_SECONDS"
	maxReplyDelayEnv = "MAX_REPLY_DELAY_SECONDS"
	logLevelEnv      = "LOG_LEVEL"
	stateCapacityEnv = "STATE_MAX_ENTRIES"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Twitter TwitterConfig `yaml:"twitter"`
	Gemini  GeminiConfig  `yaml:"gemini"`
	Bot     BotConfig     `yaml:"bot"`
	State   StateConfig   `yaml:"state"`
	Archive ArchiveConfig `yaml:"archive"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// TwitterConfig wires OAuth1 credentials for the X API.
type TwitterConfig struct {
	ConsumerKey    string `yaml:"consumerKey"`
	ConsumerSecret string `yaml:"consumerSecret"`
	AccessToken    string `yaml:"accessToken"`
	AccessSecret   string `yaml:"accessSecret"`
}

// GeminiConfig defines how to contact the Gemini API.
type GeminiConfig struct {
	Endpoint          string `yaml:"endpoint"`
	Model             string `yaml:"model"`
	APIKey            string `yaml:"apiKey"`
	SpeakingStyleFile string `yaml:"speakingStyleFile"`
}

// BotConfig defines iteration cadence and pacing.
type BotConfig struct {
	FetchIntervalMinutes int `yaml:"fetchIntervalMinutes"`
	TweetsToFetch        int `yaml:"tweetsToFetch"`
	MinReplyDelaySeconds int `yaml:"minReplyDelaySeconds"`
	MaxReplyDelaySeconds int `yaml:"maxReplyDelaySeconds"`
}

// FetchInterval resolves the pause between iterations.
func (b BotConfig) FetchInterval() time.Duration {
	return time.Duration(b.FetchIntervalMinutes) * time.Minute
}

// MinReplyDelay resolves the lower pacing bound.
func (b BotConfig) MinReplyDelay() time.Duration {
	return time.Duration(b.MinReplyDelaySeconds) * time.Second
}

// MaxReplyDelay resolves the upper pacing bound.
func (b BotConfig) MaxReplyDelay() time.Duration {
	return time.Duration(b.MaxReplyDelaySeconds) * time.Second
}

// StateConfig describes the processed-ids file.
type StateConfig struct {
	FilePath   string `yaml:"filePath"`
	MaxEntries int    `yaml:"maxEntries"`
}

// ArchiveConfig describes the optional sqlite reply archive.
type ArchiveConfig struct {
	DBPath string `yaml:"dbPath"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
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
	cfg.sanitize()

	return cfg
}

// Validate reports settings the process cannot start without.
func (c Config) Validate() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("missing required setting: %s", geminiAPIKeyEnv)
	}
	for env, v := range map[string]string{
		consumerKeyEnv:    c.Twitter.ConsumerKey,
		consumerSecretEnv: c.Twitter.ConsumerSecret,
		accessTokenEnv:    c.Twitter.AccessToken,
		accessSecretEnv:   c.Twitter.AccessSecret,
	} {
		if v == "" {
			return fmt.Errorf("missing required setting: %s", env)
		}
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(geminiAPIKeyEnv); v != "" {
		c.Gemini.APIKey = v
	}
	if v := os.Getenv(geminiModelEnv); v != "" {
		c.Gemini.Model = v
	}
	if v := os.Getenv(speakingStyleEnv); v != "" {
		c.Gemini.SpeakingStyleFile = v
	}

	if v := os.Getenv(consumerKeyEnv); v != "" {
		c.Twitter.ConsumerKey = v
	}
	if v := os.Getenv(consumerSecretEnv); v != "" {
		c.Twitter.ConsumerSecret = v
	}
	if v := os.Getenv(accessTokenEnv); v != "" {
		c.Twitter.AccessToken = v
	}
	if v := os.Getenv(accessSecretEnv); v != "" {
		c.Twitter.AccessSecret = v
	}

	if v := os.Getenv(stateFileEnv); v != "" {
		c.State.FilePath = v
	}
	if v := os.Getenv(archivePathEnv); v != "" {
		c.Archive.DBPath = v
	}

	overrideInt(&c.Bot.FetchIntervalMinutes, fetchIntervalEnv)
	overrideInt(&c.Bot.TweetsToFetch, tweetsToFetchEnv)
	overrideInt(&c.Bot.MinReplyDelaySeconds, minReplyDelayEnv)
	overrideInt(&c.Bot.MaxReplyDelaySeconds, maxReplyDelayEnv)
	overrideInt(&c.State.MaxEntries, stateCapacityEnv)
}

func overrideInt(dst *int, env string) {
	v := os.Getenv(env)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: invalid %s=%q, keeping %d", env, v, *dst)
		return
	}
	*dst = n
}

// sanitize pushes out-of-range numeric settings back to defaults.
func (c *Config) sanitize() {
	def := defaultConfig()

	if c.Bot.FetchIntervalMinutes <= 0 {
		log.Printf("config: fetch interval must be positive, using default %d minutes", def.Bot.FetchIntervalMinutes)
		c.Bot.FetchIntervalMinutes = def.Bot.FetchIntervalMinutes
	}
	if c.Bot.TweetsToFetch <= 0 {
		log.Printf("config: tweets to fetch must be positive, using default %d", def.Bot.TweetsToFetch)
		c.Bot.TweetsToFetch = def.Bot.TweetsToFetch
	}
	if c.Bot.MinReplyDelaySeconds < 0 || c.Bot.MaxReplyDelaySeconds < c.Bot.MinReplyDelaySeconds {
		log.Printf("config: invalid reply delay window [%d, %d], using defaults %d-%ds",
			c.Bot.MinReplyDelaySeconds, c.Bot.MaxReplyDelaySeconds,
			def.Bot.MinReplyDelaySeconds, def.Bot.MaxReplyDelaySeconds)
		c.Bot.MinReplyDelaySeconds = def.Bot.MinReplyDelaySeconds
		c.Bot.MaxReplyDelaySeconds = def.Bot.MaxReplyDelaySeconds
	}
	if c.State.MaxEntries <= 0 {
		log.Printf("config: state capacity must be positive, using default %d", def.State.MaxEntries)
		c.State.MaxEntries = def.State.MaxEntries
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Twitter.ConsumerKey != "" {
		base.Twitter.ConsumerKey = override.Twitter.ConsumerKey
	}
	if override.Twitter.ConsumerSecret != "" {
		base.Twitter.ConsumerSecret = override.Twitter.ConsumerSecret
	}
	if override.Twitter.AccessToken != "" {
		base.Twitter.AccessToken = override.Twitter.AccessToken
	}
	if override.Twitter.AccessSecret != "" {
		base.Twitter.AccessSecret = override.Twitter.AccessSecret
	}

	if override.Gemini.Endpoint != "" {
		base.Gemini.Endpoint = override.Gemini.Endpoint
	}
	if override.Gemini.Model != "" {
		base.Gemini.Model = override.Gemini.Model
	}
	if override.Gemini.APIKey != "" {
		base.Gemini.APIKey = override.Gemini.APIKey
	}
	if override.Gemini.SpeakingStyleFile != "" {
		base.Gemini.SpeakingStyleFile = override.Gemini.SpeakingStyleFile
	}

	if override.Bot.FetchIntervalMinutes != 0 {
		base.Bot.FetchIntervalMinutes = override.Bot.FetchIntervalMinutes
	}
	if override.Bot.TweetsToFetch != 0 {
		base.Bot.TweetsToFetch = override.Bot.TweetsToFetch
	}
	if override.Bot.MinReplyDelaySeconds != 0 {
		base.Bot.MinReplyDelaySeconds = override.Bot.MinReplyDelaySeconds
	}
	if override.Bot.MaxReplyDelaySeconds != 0 {
		base.Bot.MaxReplyDelaySeconds = override.Bot.MaxReplyDelaySeconds
	}

	if override.State.FilePath != "" {
		base.State.FilePath = override.State.FilePath
	}
	if override.State.MaxEntries != 0 {
		base.State.MaxEntries = override.State.MaxEntries
	}

	if override.Archive.DBPath != "" {
		base.Archive.DBPath = override.Archive.DBPath
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Gemini: GeminiConfig{
			Endpoint:          "https://generativelanguage.googleapis.com/v1beta",
			Model:             "gemini-2.5-pro",
			SpeakingStyleFile: "speaking_style.txt",
		},
		Bot: BotConfig{
			FetchIntervalMinutes: 10,
			TweetsToFetch:        20,
			MinReplyDelaySeconds: 30,
			MaxReplyDelaySeconds: 60,
		},
		State: StateConfig{
			FilePath:   "data/processed_tweets.json",
			MaxEntries: 10000,
		},
	}
}
