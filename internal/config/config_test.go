package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tamperestartuphub/coffeesituation/internal/config"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.LoadFrom(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Bot.ReadDelayS != 3 {
		t.Errorf("readDelaySeconds = %d, want 3", cfg.Bot.ReadDelayS)
	}
	if cfg.Bot.ReconnectDelayS != 5 {
		t.Errorf("reconnectDelaySeconds = %d, want 5", cfg.Bot.ReconnectDelayS)
	}
	if !cfg.Bot.StrictAuth {
		t.Error("strictAuth should default to true")
	}
}

func TestLoadAppliesFileValues(t *testing.T) {
	tmp := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(tmp, []byte(`{
		"slack": {"botToken": "xoxb-123", "maintainer": "U0MAINT"},
		"monitor": {"url": "https://coffee.example.org/api", "token": "sekret"},
		"bot": {"readDelaySeconds": 1, "strictAuth": false}
	}`), 0o600)

	cfg, err := config.LoadFrom(tmp)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Slack.BotToken != "xoxb-123" {
		t.Errorf("botToken = %q", cfg.Slack.BotToken)
	}
	if cfg.Bot.ReadDelayS != 1 {
		t.Errorf("readDelaySeconds = %d, want 1", cfg.Bot.ReadDelayS)
	}
	if cfg.Bot.StrictAuth {
		t.Error("explicit strictAuth=false was lost")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	tmp := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(tmp, []byte(`{"monitor": {"token": "from-file"}}`), 0o600)
	t.Setenv("COFFEEBOT_MONITOR_TOKEN", "from-env")

	cfg, err := config.LoadFrom(tmp)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Monitor.Token != "from-env" {
		t.Errorf("monitor.token = %q, want env value", cfg.Monitor.Token)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	tmp := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(tmp, []byte(`{"slck": {"botToken": "x"}}`), 0o600)

	if _, err := config.LoadFrom(tmp); err == nil {
		t.Fatal("expected unknown-key error")
	}
}

func TestValidateListsAllProblems(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Bot.ReadDelayS = -1
	cfg.Watch.Enabled = true
	cfg.Watch.IntervalS = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{
		"slack.botToken",
		"slack.maintainer",
		"monitor.url",
		"monitor.token",
		"bot.readDelaySeconds",
		"watch.intervalSeconds",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q:\n%s", want, err)
		}
	}
}

func TestSaveRoundTrip(t *testing.T) {
	tmp := filepath.Join(t.TempDir(), "config.json")
	cfg := config.DefaultConfig()
	cfg.Slack.BotToken = "xoxb-rt"

	if err := config.SaveTo(cfg, tmp); err != nil {
		t.Fatal(err)
	}
	saved, err := config.LoadFrom(tmp)
	if err != nil {
		t.Fatal(err)
	}
	if saved.Slack.BotToken != "xoxb-rt" {
		t.Errorf("botToken lost after save, got %q", saved.Slack.BotToken)
	}
}
