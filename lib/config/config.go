// Copyright 2026 The Taskbridge Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the bridge's configuration. Non-secret settings
// come from a single YAML file named by --config or TASKBRIDGE_CONFIG;
// there is no automatic discovery, which keeps deployments
// deterministic and auditable. Secrets come exclusively from the
// environment and never appear in the file.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the config file when the --config flag is not
// given.
const EnvConfigPath = "TASKBRIDGE_CONFIG"

// Config is the full configuration of the bridge.
type Config struct {
	// Listen is the TCP address of the webhook listener.
	Listen string `yaml:"listen"`

	// Completion configures the language-model call.
	Completion CompletionConfig `yaml:"completion"`

	// Freedcamp configures the ticketing client.
	Freedcamp FreedcampConfig `yaml:"freedcamp"`

	// Sheet configures the optional spreadsheet audit trail.
	Sheet SheetConfig `yaml:"sheet"`

	// Slack holds the messaging credentials. Environment only.
	Slack SlackConfig `yaml:"-"`
}

// CompletionConfig configures the extraction model.
type CompletionConfig struct {
	// Model is the completion model identifier.
	Model string `yaml:"model"`

	// BaseURL points at an OpenAI-compatible endpoint. Empty means
	// the hosted OpenAI API.
	BaseURL string `yaml:"base_url"`

	// MaxTokens caps the completion length.
	MaxTokens int `yaml:"max_tokens"`

	// APIKey authenticates the completion calls. Environment only.
	APIKey string `yaml:"-"`
}

// FreedcampConfig configures the ticketing client.
type FreedcampConfig struct {
	// ProjectID and TaskGroupID locate where tasks are filed.
	ProjectID   string `yaml:"project_id"`
	TaskGroupID string `yaml:"task_group_id"`

	// BaseURL overrides the hosted API; empty means freedcamp.com.
	BaseURL string `yaml:"base_url"`

	// APIKey and APISecret sign every request. Environment only.
	APIKey    string `yaml:"-"`
	APISecret string `yaml:"-"`
}

// SheetConfig configures the spreadsheet appender. The appender is
// disabled unless both the spreadsheet id and the access token are
// present.
type SheetConfig struct {
	SpreadsheetID string `yaml:"spreadsheet_id"`
	Range         string `yaml:"range"`

	// AccessToken is the OAuth bearer token. Environment only.
	AccessToken string `yaml:"-"`
}

// Enabled reports whether the appender is fully configured.
func (config SheetConfig) Enabled() bool {
	return config.SpreadsheetID != "" && config.AccessToken != ""
}

// SlackConfig holds the messaging platform credentials.
type SlackConfig struct {
	BotToken      string
	SigningSecret string
}

// defaults returns the configuration before the file and environment
// are applied.
func defaults() *Config {
	return &Config{
		Listen: "127.0.0.1:8080",
		Completion: CompletionConfig{
			Model:     "gpt-4o",
			MaxTokens: 1024,
		},
		Sheet: SheetConfig{
			Range: "Sheet1",
		},
	}
}

// Load reads the YAML file at path (an empty path skips the file),
// applies environment values on top, and validates the result.
func Load(path string) (*Config, error) {
	config := defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, config); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	config.applyEnvironment()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnvironment reads secrets, and the identifiers that deployments
// commonly keep next to their secrets, from the environment. A set
// environment variable wins over the file.
func (config *Config) applyEnvironment() {
	config.Slack.BotToken = os.Getenv("SLACK_BOT_TOKEN")
	config.Slack.SigningSecret = os.Getenv("SLACK_SIGNING_SECRET")
	config.Completion.APIKey = os.Getenv("OPENAI_API_KEY")
	config.Freedcamp.APIKey = os.Getenv("FREEDCAMP_API_KEY")
	config.Freedcamp.APISecret = os.Getenv("FREEDCAMP_API_SECRET")
	config.Sheet.AccessToken = os.Getenv("SHEETS_ACCESS_TOKEN")

	if value := os.Getenv("FREEDCAMP_PROJECT_ID"); value != "" {
		config.Freedcamp.ProjectID = value
	}
	if value := os.Getenv("FREEDCAMP_TASK_GROUP_ID"); value != "" {
		config.Freedcamp.TaskGroupID = value
	}
	if value := os.Getenv("SHEETS_SPREADSHEET_ID"); value != "" {
		config.Sheet.SpreadsheetID = value
	}
}

// Validate checks that every required value is present, reporting all
// missing keys at once so the operator fixes the deployment in one
// pass rather than one restart per key.
func (config *Config) Validate() error {
	var missing []string

	require := func(value, name string) {
		if value == "" {
			missing = append(missing, name)
		}
	}
	require(config.Listen, "listen")
	require(config.Completion.Model, "completion.model")
	require(config.Slack.BotToken, "SLACK_BOT_TOKEN")
	require(config.Slack.SigningSecret, "SLACK_SIGNING_SECRET")
	require(config.Completion.APIKey, "OPENAI_API_KEY")
	require(config.Freedcamp.APIKey, "FREEDCAMP_API_KEY")
	require(config.Freedcamp.APISecret, "FREEDCAMP_API_SECRET")
	require(config.Freedcamp.ProjectID, "freedcamp.project_id")
	require(config.Freedcamp.TaskGroupID, "freedcamp.task_group_id")

	if len(missing) > 0 {
		return fmt.Errorf("config: missing required values: %s", strings.Join(missing, ", "))
	}
	return nil
}
