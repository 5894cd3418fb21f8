package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var knownEnvVars = []string{
	configPathEnv,
	geminiAPIKeyEnv, geminiModelEnv, speakingStyleEnv,
	consumerKeyEnv, consumerSecretEnv, accessTokenEnv, accessSecretEnv,
	stateFileEnv, archivePathEnv, stateCapacityEnv,
	fetchIntervalEnv, tweetsToFetchEnv, minReplyDelayEnv, maxReplyDelayEnv,
	logLevelEnv,
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range knownEnvVars {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.Bot.FetchIntervalMinutes != 10 || cfg.Bot.TweetsToFetch != 20 {
		t.Fatalf("unexpected bot defaults: %+v", cfg.Bot)
	}
	if cfg.Bot.MinReplyDelaySeconds != 30 || cfg.Bot.MaxReplyDelaySeconds != 60 {
		t.Fatalf("unexpected delay defaults: %+v", cfg.Bot)
	}
	if cfg.State.FilePath != "data/processed_tweets.json" || cfg.State.MaxEntries != 10000 {
		t.Fatalf("unexpected state defaults: %+v", cfg.State)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("unexpected log level: %s", cfg.Logging.Level)
	}
	if cfg.Bot.FetchInterval() != 10*time.Minute {
		t.Fatalf("unexpected fetch interval: %s", cfg.Bot.FetchInterval())
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(geminiAPIKeyEnv, "secret")
	t.Setenv(tweetsToFetchEnv, "5")
	t.Setenv(stateFileEnv, "/tmp/state.json")
	t.Setenv(logLevelEnv, "debug")

	cfg := Load()

	if cfg.Gemini.APIKey != "secret" {
		t.Fatalf("gemini api key not overridden")
	}
	if cfg.Bot.TweetsToFetch != 5 {
		t.Fatalf("tweets to fetch not overridden: %d", cfg.Bot.TweetsToFetch)
	}
	if cfg.State.FilePath != "/tmp/state.json" {
		t.Fatalf("state path not overridden: %s", cfg.State.FilePath)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("log level not overridden: %s", cfg.Logging.Level)
	}
}

func TestInvalidNumbersFallBackToDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv(tweetsToFetchEnv, "not-a-number")
	t.Setenv(fetchIntervalEnv, "-3")
	t.Setenv(minReplyDelayEnv, "90")
	t.Setenv(maxReplyDelayEnv, "10")

	cfg := Load()

	if cfg.Bot.TweetsToFetch != 20 {
		t.Fatalf("invalid tweet count should keep default, got %d", cfg.Bot.TweetsToFetch)
	}
	if cfg.Bot.FetchIntervalMinutes != 10 {
		t.Fatalf("negative interval should revert to default, got %d", cfg.Bot.FetchIntervalMinutes)
	}
	if cfg.Bot.MinReplyDelaySeconds != 30 || cfg.Bot.MaxReplyDelaySeconds != 60 {
		t.Fatalf("inverted delay window should revert to defaults: %+v", cfg.Bot)
	}
}

func TestYAMLFileMergedUnderEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
logging:
  level: warn
bot:
  tweetsToFetch: 7
gemini:
  model: from-file
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)
	t.Setenv(geminiModelEnv, "from-env")

	cfg := Load()

	if cfg.Logging.Level != "warn" {
		t.Fatalf("file setting not applied: %s", cfg.Logging.Level)
	}
	if cfg.Bot.TweetsToFetch != 7 {
		t.Fatalf("file setting not applied: %d", cfg.Bot.TweetsToFetch)
	}
	if cfg.Gemini.Model != "from-env" {
		t.Fatalf("env must override file, got %s", cfg.Gemini.Model)
	}
	// Untouched values keep defaults.
	if cfg.Bot.FetchIntervalMinutes != 10 {
		t.Fatalf("default lost in merge: %d", cfg.Bot.FetchIntervalMinutes)
	}
}

func TestUnreadableConfigFileFallsBackToDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv(configPathEnv, filepath.Join(t.TempDir(), "missing.yaml"))

	cfg := Load()
	if cfg.Bot.TweetsToFetch != 20 {
		t.Fatalf("expected defaults when config file unreadable, got %+v", cfg.Bot)
	}
}

func TestValidate(t *testing.T) {
	clearEnv(t)

	cfg := Load()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation failure with no credentials")
	}

	cfg.Gemini.APIKey = "g"
	cfg.Twitter.ConsumerKey = "ck"
	cfg.Twitter.ConsumerSecret = "cs"
	cfg.Twitter.AccessToken = "at"
	cfg.Twitter.AccessSecret = "as"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}
